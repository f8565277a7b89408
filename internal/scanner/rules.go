// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package scanner

import "regexp"

// NewSecretsScanner detects hardcoded credentials and tokens.
func NewSecretsScanner() SubScanner {
	return &ruleScanner{
		name: "secrets",
		rules: []rule{
			{
				id:          "aws_access_key",
				title:       "AWS access key ID",
				pattern:     regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
				severity:    SeverityCritical,
				remediation: "rotate the key and move it into a secrets manager",
			},
			{
				id:          "openai_api_key",
				title:       "OpenAI API key",
				pattern:     regexp.MustCompile(`sk-proj-[A-Za-z0-9_-]{20,}`),
				severity:    SeverityCritical,
				remediation: "rotate the key and load it from the environment",
			},
			{
				id:          "anthropic_api_key",
				title:       "Anthropic API key",
				pattern:     regexp.MustCompile(`sk-ant-api\d{2}-[A-Za-z0-9_-]{20,}`),
				severity:    SeverityCritical,
				remediation: "rotate the key and load it from the environment",
			},
			{
				id:          "github_pat",
				title:       "GitHub personal access token",
				pattern:     regexp.MustCompile(`(?:ghp_[A-Za-z0-9]{36}|github_pat_[A-Za-z0-9_]{22,})`),
				severity:    SeverityCritical,
				remediation: "revoke the token in GitHub settings",
			},
			{
				id:          "google_api_key",
				title:       "Google API key",
				pattern:     regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`),
				severity:    SeverityHigh,
				remediation: "rotate the key and restrict it by API and referrer",
			},
			{
				id:          "slack_token",
				title:       "Slack token",
				pattern:     regexp.MustCompile(`xox[bpas]-[A-Za-z0-9-]{10,}`),
				severity:    SeverityHigh,
				remediation: "revoke the token in the Slack admin console",
			},
			{
				id:          "pem_private_key",
				title:       "PEM private key material",
				pattern:     regexp.MustCompile(`-----BEGIN\s+(?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`),
				severity:    SeverityCritical,
				remediation: "remove the key from the repository and reissue it",
			},
			{
				id:          "bearer_token",
				title:       "Hardcoded bearer token",
				pattern:     regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-.]{20,}`),
				severity:    SeverityHigh,
				remediation: "load the token from configuration at runtime",
			},
			{
				id:          "database_connection_string",
				title:       "Connection string with embedded credentials",
				pattern:     regexp.MustCompile(`(?i)(?:postgres|mysql|mongodb|redis|amqp)://[^\s:@]+:[^\s@]+@[^\s]+`),
				severity:    SeverityHigh,
				remediation: "reference the password via environment or a secrets manager",
			},
			{
				id:          "generic_password_assignment",
				title:       "Password assigned in source",
				pattern:     regexp.MustCompile(`(?i)(?:password|passwd|pwd)\s*[:=]\s*["'][^"']{6,}["']`),
				severity:    SeverityMedium,
				remediation: "move the value out of source control",
			},
		},
	}
}

// NewInsecureCodeScanner detects common insecure coding patterns.
func NewInsecureCodeScanner() SubScanner {
	return &ruleScanner{
		name: "insecure_code",
		rules: []rule{
			{
				id:          "tls_verify_disabled",
				title:       "TLS certificate verification disabled",
				pattern:     regexp.MustCompile(`(?i)(?:InsecureSkipVerify\s*:\s*true|verify\s*=\s*False|CURLOPT_SSL_VERIFYPEER,\s*(?:false|0))`),
				severity:    SeverityHigh,
				remediation: "enable certificate verification; pin certificates if needed",
			},
			{
				id:          "weak_hash",
				title:       "Weak hash algorithm",
				pattern:     regexp.MustCompile(`(?i)\b(?:md5|sha1)\s*[.(]`),
				severity:    SeverityMedium,
				remediation: "use SHA-256 or stronger for anything security sensitive",
			},
			{
				id:          "sql_string_concat",
				title:       "SQL built by string concatenation",
				pattern:     regexp.MustCompile(`(?i)(?:SELECT|INSERT|UPDATE|DELETE)\s+[^"']*["']\s*\+\s*\w`),
				severity:    SeverityHigh,
				remediation: "use parameterized queries",
			},
			{
				id:          "command_injection",
				title:       "Shell command built from variables",
				pattern:     regexp.MustCompile(`(?i)(?:os\.system|subprocess\.(?:call|run|Popen)|exec\.Command)\s*\(\s*(?:["'][^"']*["']\s*[+%]|f["'])`),
				severity:    SeverityHigh,
				remediation: "pass arguments as a list, never interpolate into a shell string",
			},
			{
				id:          "eval_usage",
				title:       "Dynamic code evaluation",
				pattern:     regexp.MustCompile(`(?i)\beval\s*\(`),
				severity:    SeverityMedium,
				remediation: "replace eval with explicit parsing or dispatch",
			},
			{
				id:          "http_url",
				title:       "Cleartext HTTP endpoint",
				pattern:     regexp.MustCompile(`["']http://[^\s"']+["']`),
				allow:       regexp.MustCompile(`http://(?:127\.0\.0\.1|localhost)`),
				severity:    SeverityLow,
				remediation: "use https for non-local endpoints",
			},
			{
				id:          "debug_enabled",
				title:       "Debug mode enabled",
				pattern:     regexp.MustCompile(`(?i)\bdebug\s*[:=]\s*true\b`),
				severity:    SeverityInfo,
				remediation: "disable debug in production builds",
			},
		},
	}
}
