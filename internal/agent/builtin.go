// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package agent

import (
	"context"
	"strings"

	"github.com/argus-dev/argus/internal/scanner"
	arguserr "github.com/argus-dev/argus/pkg/errors"
)

// ScanToolName is the tool the shortcut layer targets.
const ScanToolName = "scan_workspace"

// RegisterBuiltins registers the standard tool set: workspace scanning,
// file reading, file listing, and fix application. All of them operate on
// the session's open workspace.
func RegisterBuiltins(reg *Registry, runner *scanner.Runner) {
	reg.Register(Tool{
		Name:        ScanToolName,
		Description: "Run the security scanners (secrets, dependencies, insecure code) over the open workspace and return a structured report.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"include": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Glob patterns of files to include; empty means all files.",
				},
				"exclude": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Glob patterns of files to exclude.",
				},
				"min_severity": map[string]any{
					"type":        "string",
					"enum":        []string{"critical", "high", "medium", "low", "info"},
					"description": "Drop findings below this severity.",
				},
			},
		},
		// Malformed arguments scan the current workspace instead of
		// failing the call.
		DefaultArgs: func(*State) map[string]any { return map[string]any{} },
		Handler: func(ctx context.Context, state *State, args map[string]any) (any, error) {
			ws := state.Workspace()
			if ws == nil {
				return nil, arguserr.New(arguserr.CodeAgentPreconditionMissing, "no workspace is open")
			}
			report, err := runner.Run(ctx, ws, scanner.Options{
				Include:     stringSlice(args["include"]),
				Exclude:     stringSlice(args["exclude"]),
				MinSeverity: scanner.Severity(stringArg(args, "min_severity")),
			})
			if err != nil {
				return nil, err
			}
			return report, nil
		},
	})

	reg.Register(Tool{
		Name:        "read_file",
		Description: "Read one file from the open workspace.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Workspace-relative file path.",
				},
			},
			"required": []string{"path"},
		},
		Handler: func(ctx context.Context, state *State, args map[string]any) (any, error) {
			ws := state.Workspace()
			if ws == nil {
				return nil, arguserr.New(arguserr.CodeAgentPreconditionMissing, "no workspace is open")
			}
			path := stringArg(args, "path")
			if path == "" {
				return nil, arguserr.New(arguserr.CodeAgentToolExecFailure, "path argument is required")
			}
			return ws.ReadFile(path)
		},
	})

	reg.Register(Tool{
		Name:        "list_files",
		Description: "List files in the open workspace, optionally filtered by glob patterns.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"include": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
				"exclude": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
		},
		Handler: func(ctx context.Context, state *State, args map[string]any) (any, error) {
			ws := state.Workspace()
			if ws == nil {
				return nil, arguserr.New(arguserr.CodeAgentPreconditionMissing, "no workspace is open")
			}
			files, err := ws.ListFiles(stringSlice(args["include"]), stringSlice(args["exclude"]))
			if err != nil {
				return nil, err
			}
			return strings.Join(files, "\n"), nil
		},
	})

	reg.Register(Tool{
		Name:        "apply_fix",
		Description: "Apply a fix to one file by replacing an exact text fragment.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Workspace-relative file path.",
				},
				"original": map[string]any{
					"type":        "string",
					"description": "Exact text to replace; must occur in the file.",
				},
				"replacement": map[string]any{
					"type":        "string",
					"description": "Replacement text.",
				},
			},
			"required": []string{"path", "original", "replacement"},
		},
		Handler: func(ctx context.Context, state *State, args map[string]any) (any, error) {
			ws := state.Workspace()
			if ws == nil {
				return nil, arguserr.New(arguserr.CodeAgentPreconditionMissing, "no workspace is open")
			}
			path := stringArg(args, "path")
			original := stringArg(args, "original")
			if path == "" || original == "" {
				return nil, arguserr.New(arguserr.CodeAgentToolExecFailure, "path and original arguments are required")
			}

			content, err := ws.ReadFile(path)
			if err != nil {
				return nil, err
			}
			if !strings.Contains(content, original) {
				return nil, arguserr.New(arguserr.CodeAgentToolExecFailure,
					"original text not found in "+path, arguserr.Field("path", path))
			}

			updated := strings.Replace(content, original, stringArg(args, "replacement"), 1)
			if err := ws.WriteFile(path, updated); err != nil {
				return nil, err
			}
			return "applied fix to " + path, nil
		},
	})
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func stringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
