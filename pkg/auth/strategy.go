// Package auth models request authentication strategies and resolves them
// into concrete header mutations per request.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
)

// Strategy describes how to authenticate an outgoing request.
//
// The variant set is closed: NoAuth, Basic, Bearer and Custom are leaf
// strategies that directly produce header mutations. Dynamic and RuleBased
// are indirections that select a leaf strategy per request. An indirection
// must never select another indirection; RuleBased enforces this at
// construction, Dynamic at resolution.
type Strategy interface {
	// isLeaf reports whether the strategy directly produces headers
	// without further resolution. Also seals the variant set.
	isLeaf() bool
}

// NoAuth performs no header mutation.
type NoAuth struct{}

func (NoAuth) isLeaf() bool { return true }

// Basic adds an Authorization header with HTTP Basic credentials.
type Basic struct {
	Username string
	Password string

	// CustomHeaders are added alongside the Authorization header.
	CustomHeaders map[string]string
}

func (Basic) isLeaf() bool { return true }

// TokenProvider produces the current bearer token. It is invoked once per
// request and must be safe for concurrent use; the resolver does not
// serialize calls to it.
type TokenProvider func(ctx context.Context) (string, error)

// Bearer adds an Authorization header with a bearer token obtained from
// TokenProvider on every request.
type Bearer struct {
	TokenProvider TokenProvider

	// CustomHeaders are added alongside the Authorization header.
	CustomHeaders map[string]string
}

func (Bearer) isLeaf() bool { return true }

// Custom applies StaticHeaders and then invokes DynamicHeaders once per
// request to populate computed values.
type Custom struct {
	StaticHeaders map[string]string

	// DynamicHeaders may mutate the given header set. Optional.
	DynamicHeaders func(h http.Header)
}

func (Custom) isLeaf() bool { return true }

// Selector picks a strategy for a request. Returning nil means NoAuth.
type Selector func(method, path string) Strategy

// Dynamic evaluates Selector per request. The result is treated as a leaf
// strategy; a selector returning another Dynamic or RuleBased strategy is
// ignored and resolved as NoAuth.
type Dynamic struct {
	Selector Selector
}

func (Dynamic) isLeaf() bool { return false }

// Rule matches a request by method and path and names the strategy to apply.
type Rule struct {
	// Methods restricts the rule to the listed HTTP methods.
	// Empty means all methods.
	Methods []string

	// PathPattern must match the entire request path, not a substring.
	// NewRuleBased anchors it at both ends.
	PathPattern *regexp.Regexp

	// Strategy must be a leaf strategy.
	Strategy Strategy

	// anchored is the fully anchored form of PathPattern, compiled by
	// NewRuleBased. Matching against it enforces whole-path semantics
	// even when a shorter leftmost-first match exists.
	anchored *regexp.Regexp
}

// RuleBased scans rules in declared order; the first matching rule wins.
// With no match the default strategy applies, falling back to NoAuth.
// Construct with NewRuleBased.
type RuleBased struct {
	rules           []Rule
	defaultStrategy Strategy
}

func (RuleBased) isLeaf() bool { return false }

// NewRuleBased validates and builds a rule-based strategy. Every rule
// strategy and the default strategy must be a leaf variant; nesting another
// Dynamic or RuleBased is rejected to keep resolution single-level.
func NewRuleBased(rules []Rule, defaultStrategy Strategy) (RuleBased, error) {
	compiled := make([]Rule, len(rules))
	for i, r := range rules {
		if r.PathPattern == nil {
			return RuleBased{}, fmt.Errorf("rule %d: path pattern is required", i)
		}
		if r.Strategy == nil {
			return RuleBased{}, fmt.Errorf("rule %d: strategy is required", i)
		}
		if !r.Strategy.isLeaf() {
			return RuleBased{}, fmt.Errorf("rule %d: nested dynamic or rule-based strategy is not allowed", i)
		}

		anchored, err := regexp.Compile(`\A(?:` + r.PathPattern.String() + `)\z`)
		if err != nil {
			return RuleBased{}, fmt.Errorf("rule %d: anchor path pattern: %w", i, err)
		}

		compiled[i] = r
		compiled[i].anchored = anchored
	}

	if defaultStrategy != nil && !defaultStrategy.isLeaf() {
		return RuleBased{}, fmt.Errorf("default strategy must be a leaf strategy")
	}

	return RuleBased{
		rules:           compiled,
		defaultStrategy: defaultStrategy,
	}, nil
}

// Rules returns the declared rules in match order.
func (s RuleBased) Rules() []Rule {
	return s.rules
}

// DefaultStrategy returns the fallback strategy, or nil if none was set.
func (s RuleBased) DefaultStrategy() Strategy {
	return s.defaultStrategy
}
