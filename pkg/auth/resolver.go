package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

// Resolver turns a strategy into the concrete header mutations for one
// request. Resolution always terminates in exactly one leaf strategy or a
// no-op; indirections are followed at most one level.
type Resolver struct {
	logger zerolog.Logger
}

// NewResolver creates a resolver.
func NewResolver(logger zerolog.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve produces the headers to apply for the given request. A nil or
// empty result means no mutation. The returned error can only originate
// from a caller-supplied token provider; resolution itself never fails.
func (r *Resolver) Resolve(ctx context.Context, strategy Strategy, method, pathOrURL string) (http.Header, error) {
	leaf := r.effectiveStrategy(strategy, method, pathOrURL)
	if leaf == nil {
		return nil, nil
	}

	switch s := leaf.(type) {
	case NoAuth:
		return nil, nil

	case Basic:
		h := http.Header{}
		applyCustom(h, s.CustomHeaders)
		credentials := base64.StdEncoding.EncodeToString([]byte(s.Username + ":" + s.Password))
		h.Set("Authorization", "Basic "+credentials)
		return h, nil

	case Bearer:
		if s.TokenProvider == nil {
			return nil, fmt.Errorf("bearer strategy has no token provider")
		}
		token, err := s.TokenProvider(ctx)
		if err != nil {
			return nil, fmt.Errorf("bearer token provider: %w", err)
		}
		h := http.Header{}
		applyCustom(h, s.CustomHeaders)
		h.Set("Authorization", "Bearer "+token)
		return h, nil

	case Custom:
		h := http.Header{}
		applyCustom(h, s.StaticHeaders)
		if s.DynamicHeaders != nil {
			s.DynamicHeaders(h)
		}
		return h, nil

	default:
		// Unreachable: effectiveStrategy only returns leaf variants.
		return nil, nil
	}
}

// effectiveStrategy follows at most one level of Dynamic or RuleBased
// indirection and returns the leaf strategy to apply, or nil for no-op.
func (r *Resolver) effectiveStrategy(strategy Strategy, method, pathOrURL string) Strategy {
	switch s := strategy.(type) {
	case nil:
		return nil

	case Dynamic:
		if s.Selector == nil {
			return nil
		}
		path := ExtractPath(pathOrURL)
		selected := s.Selector(method, path)
		if selected == nil {
			return nil
		}
		if !selected.isLeaf() {
			r.logger.Warn().
				Str("method", method).
				Str("path", path).
				Msg("Dynamic selector returned a non-leaf strategy, treating as no auth")
			return nil
		}
		return selected

	case RuleBased:
		path := ExtractPath(pathOrURL)
		for _, rule := range s.rules {
			if rule.matches(method, path) {
				return rule.Strategy
			}
		}
		return s.defaultStrategy

	default:
		return strategy
	}
}

// matches reports whether the rule applies to the request. The anchored
// pattern compiled by NewRuleBased must match the entire path.
func (rl Rule) matches(method, path string) bool {
	if len(rl.Methods) > 0 {
		found := false
		for _, m := range rl.Methods {
			if m == method {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return rl.anchored.MatchString(path)
}

func applyCustom(h http.Header, custom map[string]string) {
	for key, value := range custom {
		h.Set(key, value)
	}
}
