package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/repository"

	"github.com/oklog/ulid/v2"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

type IDGen interface {
	New(t time.Time) (string, error)
}

// ulidGen is safe for concurrent use; ulid's monotonic reader is not.
type ulidGen struct {
	mu      sync.Mutex
	entropy io.Reader
}

func newULIDGen() *ulidGen {
	return &ulidGen{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ulidGen) New(t time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(t.UTC()), g.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Option customises a service at construction
type Option func(*base)

func WithClock(c Clock) Option {
	return func(b *base) { b.clock = c }
}

func WithIDGen(g IDGen) Option {
	return func(b *base) { b.ids = g }
}

// base is embedded by every service that writes
type base struct {
	store repository.Store
	clock Clock
	ids   IDGen
}

func newBase(store repository.Store, opts []Option) base {
	b := base{store: store, clock: realClock{}, ids: newULIDGen()}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) now() time.Time {
	return b.clock.Now()
}

// audit appends one history row through the transaction's repositories
func (b *base) audit(ctx context.Context, repos repository.Repositories, now time.Time, action domain.AuditAction, entity, entityID, details string) error {
	id, err := b.ids.New(now)
	if err != nil {
		return fmt.Errorf("service.audit: %w", err)
	}
	return repos.Audit.Append(ctx, &domain.AuditLog{
		ID:        id,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   details,
		CreatedAt: now,
	})
}
