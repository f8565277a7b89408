// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package provider

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Classification
	}{
		{"nil error", nil, ClassOther},
		{"credit balance", errors.New("Your credit balance is too low"), ClassCreditExhausted},
		{"402 status", errors.New("HTTP 402 Payment Required"), ClassCreditExhausted},
		{"openai quota", errors.New("You exceeded your current quota, please check your plan and billing details"), ClassCreditExhausted},
		{"insufficient_quota code", errors.New("insufficient_quota"), ClassCreditExhausted},
		{"invalid api key", errors.New("Incorrect API key provided"), ClassAuthInvalid},
		{"401 status", errors.New("HTTP 401 Unauthorized"), ClassAuthInvalid},
		{"authentication error", errors.New("authentication_error: invalid x-api-key"), ClassAuthInvalid},
		{"rate limit", errors.New("rate_limit_error: Number of requests exceeded"), ClassRateLimited},
		{"429 status", errors.New("HTTP 429 Too Many Requests"), ClassRateLimited},
		{"network fault", errors.New("dial tcp: connection refused"), ClassOther},
		{"timeout", errors.New("context deadline exceeded"), ClassOther},
		{"empty message", errors.New(""), ClassOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClassifyPrecedence(t *testing.T) {
	// A message matching multiple families resolves in credit > auth > rate
	// limit order.
	got := ClassifyMessage("billing error: unauthorized, too many requests")
	assert.Equal(t, ClassCreditExhausted, got)

	got = ClassifyMessage("unauthorized: too many requests")
	assert.Equal(t, ClassAuthInvalid, got)
}

func TestShouldFailover(t *testing.T) {
	assert.True(t, ShouldFailover(ClassCreditExhausted))
	assert.True(t, ShouldFailover(ClassAuthInvalid))
	assert.True(t, ShouldFailover(ClassRateLimited))
	assert.False(t, ShouldFailover(ClassOther))
}

func TestRemediationHint(t *testing.T) {
	assert.NotEmpty(t, RemediationHint(ClassCreditExhausted))
	assert.NotEmpty(t, RemediationHint(ClassAuthInvalid))
	assert.NotEmpty(t, RemediationHint(ClassRateLimited))
	assert.Empty(t, RemediationHint(ClassOther))
}
