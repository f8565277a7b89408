// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package scanner

import "time"

// Severity ranks a finding. Ordered most severe first for sorting and
// filtering.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Valid reports whether the severity is a known level.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	default:
		return false
	}
}

// Rank returns a sortable weight, lower is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Vulnerability is a single finding from one sub-scanner.
type Vulnerability struct {
	Scanner     string   `json:"scanner" yaml:"scanner"`
	RuleID      string   `json:"rule_id" yaml:"rule_id"`
	Title       string   `json:"title" yaml:"title"`
	Severity    Severity `json:"severity" yaml:"severity"`
	File        string   `json:"file" yaml:"file"`
	Line        int      `json:"line" yaml:"line"`
	Match       string   `json:"match,omitempty" yaml:"match,omitempty"`
	Remediation string   `json:"remediation,omitempty" yaml:"remediation,omitempty"`
}

// Summary counts findings by severity.
type Summary struct {
	Critical int `json:"critical" yaml:"critical"`
	High     int `json:"high" yaml:"high"`
	Medium   int `json:"medium" yaml:"medium"`
	Low      int `json:"low" yaml:"low"`
	Info     int `json:"info" yaml:"info"`
}

// Add increments the bucket for one severity.
func (s *Summary) Add(sev Severity) {
	switch sev {
	case SeverityCritical:
		s.Critical++
	case SeverityHigh:
		s.High++
	case SeverityMedium:
		s.Medium++
	case SeverityLow:
		s.Low++
	default:
		s.Info++
	}
}

// SubReport is the outcome of one sub-scanner. Success=false with a
// populated Error marks a partial failure the overall report tolerates.
type SubReport struct {
	Name            string          `json:"name" yaml:"name"`
	Success         bool            `json:"success" yaml:"success"`
	Count           int             `json:"count" yaml:"count"`
	Duration        time.Duration   `json:"duration" yaml:"duration"`
	Summary         Summary         `json:"summary" yaml:"summary"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities" yaml:"vulnerabilities"`
	Error           string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report is the aggregate scan outcome. Success means the run completed,
// not that it found nothing; individual sub-scanners may still have
// failed.
type Report struct {
	Success         bool            `json:"success" yaml:"success"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities" yaml:"vulnerabilities"`
	Count           int             `json:"count" yaml:"count"`
	Critical        int             `json:"critical" yaml:"critical"`
	High            int             `json:"high" yaml:"high"`
	Summary         Summary         `json:"summary" yaml:"summary"`
	Scanners        []SubReport     `json:"scanners" yaml:"scanners"`
}

// merge folds one sub-report into the aggregate. Append-only: it never
// re-indexes or rewrites previously merged findings, so late-arriving
// partial results cannot corrupt in-flight state.
func (r *Report) merge(sub SubReport) {
	r.Scanners = append(r.Scanners, sub)
	if !sub.Success {
		return
	}
	for _, v := range sub.Vulnerabilities {
		r.Vulnerabilities = append(r.Vulnerabilities, v)
		r.Summary.Add(v.Severity)
	}
	r.Count = len(r.Vulnerabilities)
	r.Critical = r.Summary.Critical
	r.High = r.Summary.High
}
