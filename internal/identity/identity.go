// Package identity resolves the opaque per-user identifier.
//
// Absence is a normal outcome: a provider that cannot identify the visitor
// returns "", nil and the rest of the system falls back to anonymous,
// local-only behaviour.
package identity

import (
	"context"
	"io"
	"log/slog"
)

// Provider resolves the current visitor's identifier.
type Provider interface {
	Identifier(ctx context.Context) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (string, error)

// Identifier implements Provider.
func (f ProviderFunc) Identifier(ctx context.Context) (string, error) {
	return f(ctx)
}

// Static always returns the same identifier. An empty Static is anonymous.
type Static string

// Identifier implements Provider.
func (s Static) Identifier(context.Context) (string, error) {
	return string(s), nil
}

// Chain tries providers in order and returns the first non-empty identifier.
// Provider errors are logged and skipped.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain creates a chain over providers. Nil providers are ignored.
func NewChain(logger *slog.Logger, providers ...Provider) *Chain {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Chain{logger: logger}
	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	return c
}

// Identifier implements Provider. It never returns an error.
func (c *Chain) Identifier(ctx context.Context) (string, error) {
	for i, p := range c.providers {
		id, err := p.Identifier(ctx)
		if err != nil {
			c.logger.Warn("identity provider failed", "index", i, "error", err)
			continue
		}
		if id != "" {
			return id, nil
		}
	}
	return "", nil
}

// Resolve asks p for an identifier, treating errors as absence.
func Resolve(ctx context.Context, p Provider, logger *slog.Logger) string {
	if p == nil {
		return ""
	}
	id, err := p.Identifier(ctx)
	if err != nil {
		if logger != nil {
			logger.Warn("identity resolution failed", "error", err)
		}
		return ""
	}
	return id
}
