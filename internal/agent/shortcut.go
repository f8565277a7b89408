// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package agent

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/argus-dev/argus/internal/scanner"
)

// DefaultShortcutTimeout bounds how long the shortcut path waits for a
// scan before answering with whatever partial data arrived.
const DefaultShortcutTimeout = 60 * time.Second

// shortcutPatterns recognize high-confidence scan requests. The scan must
// work even when no model backend is reachable, so these bypass the model
// loop entirely. Patterns are deliberately narrow: a miss costs one model
// round-trip, a false hit hijacks the conversation.
var shortcutPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:scan|audit|analy[sz]e|check)\b.{0,40}\b(?:repo|repository|project|workspace|codebase|code|files?)\b`),
	regexp.MustCompile(`(?i)\b(?:find|detect|look\s+for|check\s+for)\b.{0,40}\b(?:secrets?|credentials?|api\s*keys?|passwords?|tokens?)\b`),
	regexp.MustCompile(`(?i)\b(?:vulnerable|outdated|insecure)\b.{0,40}\bdependenc`),
	regexp.MustCompile(`(?i)\bdependenc\w*\b.{0,40}\b(?:vulnerab|audit|check|scan)`),
	regexp.MustCompile(`(?i)\b(?:security|vulnerability)\s+(?:scan|check|audit|review)\b`),
}

// isShortcutRequest reports whether the raw request matches a scan
// shortcut pattern.
func isShortcutRequest(request string) bool {
	for _, p := range shortcutPatterns {
		if p.MatchString(request) {
			return true
		}
	}
	return false
}

// workspaceGuidance is the answer for a shortcut request with no open
// workspace. Non-technical on purpose; the original request is retained
// for automatic retry.
const workspaceGuidance = "I don't have a workspace open yet, so I can't run a scan. " +
	"Open a project directory first (for example: argus chat --workspace ./my-project), " +
	"and I'll run your request as soon as one is available."

// formatScanSummary renders a scan report as the final chat message.
// Zero findings get a single line with no severity breakdown; otherwise
// the overall summary lists only non-zero severities, followed by a
// per-scanner breakdown that calls out partial failures.
func formatScanSummary(report *scanner.Report) string {
	var b strings.Builder

	if report.Count == 0 {
		b.WriteString("Scan complete: no issues found.")
		if failed := failedScanners(report); len(failed) > 0 {
			fmt.Fprintf(&b, " Note: %s did not complete.", strings.Join(failed, ", "))
		}
		return b.String()
	}

	issueWord := "issues"
	if report.Count == 1 {
		issueWord = "issue"
	}
	fmt.Fprintf(&b, "Scan complete: %d %s found.\n\nOverall Summary:\n", report.Count, issueWord)

	for _, entry := range []struct {
		label string
		count int
	}{
		{"Critical", report.Summary.Critical},
		{"High", report.Summary.High},
		{"Medium", report.Summary.Medium},
		{"Low", report.Summary.Low},
		{"Info", report.Summary.Info},
	} {
		if entry.count > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", entry.label, entry.count)
		}
	}

	b.WriteString("\nBy scanner:\n")
	for _, sub := range report.Scanners {
		if sub.Success {
			fmt.Fprintf(&b, "- %s: %d findings\n", sub.Name, sub.Count)
		} else {
			fmt.Fprintf(&b, "- %s: did not complete (%s)\n", sub.Name, sub.Error)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// failedScanners lists the names of sub-scanners that did not complete.
func failedScanners(report *scanner.Report) []string {
	var failed []string
	for _, sub := range report.Scanners {
		if !sub.Success {
			failed = append(failed, sub.Name)
		}
	}
	return failed
}
