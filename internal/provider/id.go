// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package provider

import "github.com/google/uuid"

// NewToolCallID synthesizes a correlation id for backends that do not
// assign their own tool call ids.
func NewToolCallID() string {
	return "call_" + uuid.New().String()
}
