// Package identity provides the pseudo-identity used to attribute attempts
// made without an authenticated user. The identifier is generated once and
// persisted so repeated attempts from the same installation stay attributable
// to the same anonymous identity.
package identity

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Generator produces a new pseudo-identifier. Generation is best-effort
// collision-free, not cryptographically unique.
type Generator func() string

// Local mirrors the historical client format: a timestamp plus a short
// random base36 suffix.
func Local() string {
	suffix := strconv.FormatInt(rand.Int63(), 36)
	if len(suffix) > 9 {
		suffix = suffix[:9]
	}
	return fmt.Sprintf("user_%d_%s", time.Now().UnixMilli(), suffix)
}

// UUID generates a v4 UUID pseudo-identifier.
func UUID() string {
	return uuid.NewString()
}

// ByName resolves a configured strategy name, defaulting to Local.
func ByName(name string) Generator {
	if name == "uuid" {
		return UUID
	}
	return Local
}

// Store persists the generated identifier between runs.
type Store interface {
	AnonymousID(ctx context.Context) (string, error)
	SetAnonymousID(ctx context.Context, id string) error
}

type Config struct {
	Store    Store
	Generate Generator
}

type Provider struct {
	store    Store
	generate Generator
}

func NewProvider(c Config) *Provider {
	gen := c.Generate
	if gen == nil {
		gen = Local
	}

	return &Provider{
		store:    c.Store,
		generate: gen,
	}
}

// UserID returns the persisted pseudo-identifier, generating and persisting
// one on first use.
func (p *Provider) UserID(ctx context.Context) (string, error) {
	id, err := p.store.AnonymousID(ctx)
	if err != nil {
		return "", fmt.Errorf("read anonymous id: %w", err)
	}
	if id != "" {
		return id, nil
	}

	id = p.generate()
	if err := p.store.SetAnonymousID(ctx, id); err != nil {
		return "", fmt.Errorf("persist anonymous id: %w", err)
	}

	return id, nil
}
