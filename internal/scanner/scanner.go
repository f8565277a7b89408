// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

// Package scanner runs regex-based vulnerability detection over a
// workspace: hardcoded secrets, known-bad dependency versions, and
// insecure code patterns. Sub-scanners run concurrently with a bound and
// join on the caller's deadline; results merge append-only, so a slow
// sub-scanner yields a partial report instead of corrupting it.
package scanner

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/argus-dev/argus/internal/workspace"
	arguserr "github.com/argus-dev/argus/pkg/errors"
)

// maxConcurrentScans bounds how many sub-scanners run at once.
const maxConcurrentScans = 3

// SubScanner is one detection pass over an enumerated file set.
type SubScanner interface {
	Name() string
	Scan(ctx context.Context, ws *workspace.Context, files []string) ([]Vulnerability, error)
}

// Options narrows a run: file patterns and a minimum severity filter.
// Zero values mean everything.
type Options struct {
	Include     []string
	Exclude     []string
	MinSeverity Severity
}

// Runner executes a fixed set of sub-scanners against a workspace.
type Runner struct {
	scanners []SubScanner
}

// NewRunner creates a Runner over the given sub-scanners. With none
// given, the built-in set (secrets, dependencies, insecure code) is used.
func NewRunner(scanners ...SubScanner) *Runner {
	if len(scanners) == 0 {
		scanners = []SubScanner{
			NewSecretsScanner(),
			NewDependencyScanner(),
			NewInsecureCodeScanner(),
		}
	}
	return &Runner{scanners: scanners}
}

// Run enumerates the workspace once and fans the file list out to all
// sub-scanners. It returns when every sub-scanner finished or the context
// expired; sub-scanners still outstanding at expiry appear as failed
// entries in the report, which stays Success=true with whatever completed.
func (r *Runner) Run(ctx context.Context, ws *workspace.Context, opts Options) (*Report, error) {
	if ws == nil {
		return nil, arguserr.New(arguserr.CodeScannerPathInvalid, "no workspace to scan")
	}

	files, err := ws.ListFiles(opts.Include, opts.Exclude)
	if err != nil {
		return nil, arguserr.Wrap(err, arguserr.CodeScannerRunFailure,
			"enumerating workspace files", arguserr.FieldWorkspace(ws.Root()))
	}

	results := make(chan SubReport, len(r.scanners))
	sem := make(chan struct{}, maxConcurrentScans)

	for _, sub := range r.scanners {
		go func(sub SubScanner) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results <- SubReport{Name: sub.Name(), Error: "scan deadline exceeded"}
				return
			}
			results <- runSub(ctx, sub, ws, files, opts.MinSeverity)
		}(sub)
	}

	report := &Report{Success: true}
	received := 0
collect:
	for received < len(r.scanners) {
		select {
		case sub := <-results:
			report.merge(sub)
			received++
		case <-ctx.Done():
			break collect
		}
	}

	// Anything still outstanding at deadline is recorded as failed, by
	// name, so the report always has one entry per sub-scanner.
	if received < len(r.scanners) {
		seen := make(map[string]bool, len(report.Scanners))
		for _, sub := range report.Scanners {
			seen[sub.Name] = true
		}
		for _, sub := range r.scanners {
			if !seen[sub.Name()] {
				report.merge(SubReport{Name: sub.Name(), Error: "scan deadline exceeded"})
			}
		}
	}

	sortFindings(report.Vulnerabilities)
	return report, nil
}

// runSub executes one sub-scanner, converting its error into a failed
// sub-report rather than letting it abort the run.
func runSub(ctx context.Context, sub SubScanner, ws *workspace.Context, files []string, minSev Severity) SubReport {
	start := time.Now()
	vulns, err := sub.Scan(ctx, ws, files)
	elapsed := time.Since(start)

	if err != nil {
		return SubReport{Name: sub.Name(), Duration: elapsed, Error: err.Error()}
	}

	if minSev.Valid() {
		filtered := vulns[:0]
		for _, v := range vulns {
			if v.Severity.Rank() <= minSev.Rank() {
				filtered = append(filtered, v)
			}
		}
		vulns = filtered
	}

	out := SubReport{
		Name:            sub.Name(),
		Success:         true,
		Count:           len(vulns),
		Duration:        elapsed,
		Vulnerabilities: vulns,
	}
	for _, v := range vulns {
		out.Summary.Add(v.Severity)
	}
	return out
}

// sortFindings orders findings most severe first, then by file and line
// for stable output.
func sortFindings(vulns []Vulnerability) {
	sort.SliceStable(vulns, func(i, j int) bool {
		if vulns[i].Severity.Rank() != vulns[j].Severity.Rank() {
			return vulns[i].Severity.Rank() < vulns[j].Severity.Rank()
		}
		if vulns[i].File != vulns[j].File {
			return vulns[i].File < vulns[j].File
		}
		return vulns[i].Line < vulns[j].Line
	})
}

// rule is one detection pattern. A non-nil allow pattern suppresses
// matches it also matches (RE2 has no lookaround, so exclusions are a
// second pass).
type rule struct {
	id          string
	title       string
	pattern     *regexp.Regexp
	allow       *regexp.Regexp
	severity    Severity
	remediation string
}

// ruleScanner matches a rule set against file contents line by line.
type ruleScanner struct {
	name  string
	rules []rule
}

func (s *ruleScanner) Name() string { return s.name }

func (s *ruleScanner) Scan(ctx context.Context, ws *workspace.Context, files []string) ([]Vulnerability, error) {
	var vulns []Vulnerability

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, arguserr.Wrapf(err, arguserr.CodeScannerRunFailure, "%s scan interrupted", s.name)
		}

		content, err := ws.ReadFile(file)
		if err != nil {
			// Unreadable or oversized files are skipped, not fatal.
			continue
		}

		for lineNo, line := range strings.Split(normalize(content), "\n") {
			for _, r := range s.rules {
				match := r.pattern.FindString(line)
				if match == "" {
					continue
				}
				if r.allow != nil && r.allow.MatchString(match) {
					continue
				}
				vulns = append(vulns, Vulnerability{
					Scanner:     s.name,
					RuleID:      r.id,
					Title:       r.title,
					Severity:    r.severity,
					File:        file,
					Line:        lineNo + 1,
					Match:       truncate(match, 120),
					Remediation: r.remediation,
				})
			}
		}
	}

	return vulns, nil
}

// invisibleCharReplacer strips zero-width and other invisible Unicode
// characters so secrets cannot hide behind homoglyph evasion.
var invisibleCharReplacer = strings.NewReplacer(
	"\u200b", "", // zero-width space
	"\u200c", "", // zero-width non-joiner
	"\u200d", "", // zero-width joiner
	"\ufeff", "", // zero-width no-break space / BOM
	"\u00ad", "", // soft hyphen
	"\u2060", "", // word joiner
)

// normalize applies NFKC normalization and strips invisible characters
// before pattern matching.
func normalize(s string) string {
	return norm.NFKC.String(invisibleCharReplacer.Replace(s))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
