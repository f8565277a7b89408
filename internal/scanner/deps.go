// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package scanner

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/argus-dev/argus/internal/workspace"
)

// advisory marks one known-bad dependency version range. The table is a
// small built-in sample; real advisory feeds are out of scope.
type advisory struct {
	ecosystem   string
	pkg         string
	badVersions []string
	title       string
	severity    Severity
	remediation string
}

var advisories = []advisory{
	{
		ecosystem:   "npm",
		pkg:         "lodash",
		badVersions: []string{"4.17.20", "4.17.19", "4.17.15"},
		title:       "lodash prototype pollution",
		severity:    SeverityHigh,
		remediation: "upgrade lodash to 4.17.21 or later",
	},
	{
		ecosystem:   "npm",
		pkg:         "minimist",
		badVersions: []string{"1.2.5", "1.2.0", "0.0.8"},
		title:       "minimist prototype pollution",
		severity:    SeverityMedium,
		remediation: "upgrade minimist to 1.2.6 or later",
	},
	{
		ecosystem:   "pypi",
		pkg:         "pyyaml",
		badVersions: []string{"5.3.1", "5.3", "5.1"},
		title:       "PyYAML unsafe load code execution",
		severity:    SeverityCritical,
		remediation: "upgrade PyYAML to 5.4 or later and use safe_load",
	},
	{
		ecosystem:   "pypi",
		pkg:         "requests",
		badVersions: []string{"2.19.1", "2.5.3"},
		title:       "requests credential leak on redirect",
		severity:    SeverityMedium,
		remediation: "upgrade requests to a current release",
	},
	{
		ecosystem:   "gomod",
		pkg:         "golang.org/x/crypto",
		badVersions: []string{"v0.0.0-20200220183623-bac4c82f6975"},
		title:       "x/crypto ssh panic on crafted public key",
		severity:    SeverityHigh,
		remediation: "upgrade golang.org/x/crypto past the ssh fix",
	},
	{
		ecosystem:   "gomod",
		pkg:         "github.com/dgrijalva/jwt-go",
		badVersions: []string{"v3.2.0+incompatible", "v3.2.0"},
		title:       "jwt-go audience bypass, unmaintained module",
		severity:    SeverityHigh,
		remediation: "migrate to github.com/golang-jwt/jwt",
	},
}

// dependencyScanner parses well-known manifest files and checks each
// declared dependency against the advisory table.
type dependencyScanner struct{}

// NewDependencyScanner detects dependencies with known advisories in
// go.mod, package.json, and requirements.txt manifests.
func NewDependencyScanner() SubScanner {
	return &dependencyScanner{}
}

func (s *dependencyScanner) Name() string { return "dependencies" }

func (s *dependencyScanner) Scan(ctx context.Context, ws *workspace.Context, files []string) ([]Vulnerability, error) {
	var vulns []Vulnerability

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var parse func(content string) []declared
		switch filepath.Base(file) {
		case "go.mod":
			parse = parseGoMod
		case "package.json":
			parse = parsePackageJSON
		case "requirements.txt":
			parse = parseRequirements
		default:
			continue
		}

		content, err := ws.ReadFile(file)
		if err != nil {
			continue
		}

		for _, dep := range parse(content) {
			for _, adv := range advisories {
				if adv.ecosystem != dep.ecosystem || !strings.EqualFold(adv.pkg, dep.name) {
					continue
				}
				for _, bad := range adv.badVersions {
					if dep.version == bad {
						vulns = append(vulns, Vulnerability{
							Scanner:     s.Name(),
							RuleID:      "vulnerable_dependency",
							Title:       adv.title,
							Severity:    adv.severity,
							File:        file,
							Line:        dep.line,
							Match:       dep.name + " " + dep.version,
							Remediation: adv.remediation,
						})
					}
				}
			}
		}
	}

	return vulns, nil
}

// declared is one dependency parsed out of a manifest.
type declared struct {
	ecosystem string
	name      string
	version   string
	line      int
}

var (
	goModRequireRe   = regexp.MustCompile(`^\s*(?:require\s+)?([\w./-]+)\s+(v[\w.+-]+)`)
	packageJSONDepRe = regexp.MustCompile(`"(@?[\w./-]+)"\s*:\s*"[\^~]?([\w.+-]+)"`)
	requirementsRe   = regexp.MustCompile(`^\s*([A-Za-z0-9_.-]+)\s*==\s*([\w.]+)`)
)

func parseGoMod(content string) []declared {
	var deps []declared
	for i, line := range strings.Split(content, "\n") {
		if m := goModRequireRe.FindStringSubmatch(line); m != nil && strings.Contains(m[1], "/") {
			deps = append(deps, declared{ecosystem: "gomod", name: m[1], version: m[2], line: i + 1})
		}
	}
	return deps
}

func parsePackageJSON(content string) []declared {
	var deps []declared
	inDeps := false
	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, `"dependencies"`), strings.HasPrefix(trimmed, `"devDependencies"`):
			inDeps = true
		case inDeps && strings.HasPrefix(trimmed, "}"):
			inDeps = false
		case inDeps:
			if m := packageJSONDepRe.FindStringSubmatch(line); m != nil {
				deps = append(deps, declared{ecosystem: "npm", name: m[1], version: m[2], line: i + 1})
			}
		}
	}
	return deps
}

func parseRequirements(content string) []declared {
	var deps []declared
	for i, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		if m := requirementsRe.FindStringSubmatch(line); m != nil {
			deps = append(deps, declared{ecosystem: "pypi", name: m[1], version: m[2], line: i + 1})
		}
	}
	return deps
}
