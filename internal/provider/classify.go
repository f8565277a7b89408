// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package provider

import "strings"

// Classification tags a provider failure by cause. Only provider-specific
// failures (credit, auth, rate limit) justify switching backends; Other
// covers timeouts, network faults, and local bugs that a different backend
// will not fix.
type Classification string

const (
	ClassCreditExhausted Classification = "credit_exhausted"
	ClassAuthInvalid     Classification = "auth_invalid"
	ClassRateLimited     Classification = "rate_limited"
	ClassOther           Classification = "other"
)

// Classify inspects an error and tags it. Pure and vendor-independent:
// it matches case-insensitive substrings and embedded status codes only.
func Classify(err error) Classification {
	if err == nil {
		return ClassOther
	}
	return ClassifyMessage(err.Error())
}

// ClassifyMessage classifies a raw error message.
func ClassifyMessage(msg string) Classification {
	if msg == "" {
		return ClassOther
	}
	lower := strings.ToLower(msg)

	switch {
	case isCreditMessage(lower):
		return ClassCreditExhausted
	case isAuthMessage(lower):
		return ClassAuthInvalid
	case isRateLimitMessage(lower):
		return ClassRateLimited
	default:
		return ClassOther
	}
}

// ShouldFailover reports whether the classification justifies trying the
// next backend in the chain.
func ShouldFailover(c Classification) bool {
	switch c {
	case ClassCreditExhausted, ClassAuthInvalid, ClassRateLimited:
		return true
	default:
		return false
	}
}

// RemediationHint returns a short, human-readable fix suggestion keyed by
// classification. Empty for Other, where the original message is already
// the best information available.
func RemediationHint(c Classification) string {
	switch c {
	case ClassCreditExhausted:
		return "add billing credit to the provider account or switch to another provider"
	case ClassAuthInvalid:
		return "verify the configured API key for this provider"
	case ClassRateLimited:
		return "wait for the rate limit window to reset or switch to another provider"
	default:
		return ""
	}
}

func isCreditMessage(lower string) bool {
	return strings.Contains(lower, "insufficient balance") ||
		strings.Contains(lower, "insufficient credit") ||
		strings.Contains(lower, "credit balance") ||
		strings.Contains(lower, "billing") ||
		strings.Contains(lower, "payment required") ||
		strings.Contains(lower, "402") ||
		strings.Contains(lower, "insufficient_quota") ||
		strings.Contains(lower, "quota exceeded") ||
		strings.Contains(lower, "exceeded your current quota")
}

func isAuthMessage(lower string) bool {
	return strings.Contains(lower, "invalid api key") ||
		strings.Contains(lower, "invalid_api_key") ||
		strings.Contains(lower, "incorrect api key") ||
		strings.Contains(lower, "invalid key") ||
		strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "authentication") ||
		strings.Contains(lower, "401")
}

func isRateLimitMessage(lower string) bool {
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "rate_limit") ||
		strings.Contains(lower, "too many requests") ||
		strings.Contains(lower, "429")
}
