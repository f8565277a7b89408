// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package provider

import "context"

// Candidate is a resolved failover target: a backend kind together with its
// first recommended model.
type Candidate struct {
	Kind  Kind
	Model string
}

// Resolver walks a static preference chain to find the next available
// backend after a failure. It holds no mutable state; the caller threads
// the attempted set through successive calls, which is what bounds the
// whole resolution to len(chain) attempts.
type Resolver struct {
	chain   []Kind
	checker *Checker
}

// NewResolver creates a Resolver over the given chain. An empty chain
// falls back to DefaultChain.
func NewResolver(chain []Kind, checker *Checker) *Resolver {
	if len(chain) == 0 {
		chain = DefaultChain()
	}
	return &Resolver{
		chain:   append([]Kind(nil), chain...),
		checker: checker,
	}
}

// Chain returns a copy of the resolver's preference chain.
func (r *Resolver) Chain() []Kind {
	return append([]Kind(nil), r.chain...)
}

// NextAvailable locates current in the chain and scans forward from the
// next position, returning the first candidate that is available and not
// already attempted. A current kind absent from the chain scans from the
// start. Returns ok=false when the chain is exhausted.
func (r *Resolver) NextAvailable(ctx context.Context, current Kind, attempted map[Kind]bool) (Candidate, bool) {
	start := 0
	for i, kind := range r.chain {
		if kind == current {
			start = i + 1
			break
		}
	}

	for _, kind := range r.chain[start:] {
		if attempted[kind] {
			continue
		}
		desc := r.checker.Describe(ctx, kind)
		if !desc.Available {
			continue
		}
		model := ""
		if len(desc.Models) > 0 {
			model = desc.Models[0]
		}
		return Candidate{Kind: kind, Model: model}, true
	}

	return Candidate{}, false
}
