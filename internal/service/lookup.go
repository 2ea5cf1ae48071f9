package service

import (
	"context"
	"strings"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/repository"

	"github.com/google/uuid"
)

// LookupService manages categories, conditions, locations and tags
type LookupService struct {
	base
}

func NewLookupService(store repository.Store, opts ...Option) *LookupService {
	return &LookupService{base: newBase(store, opts)}
}

func (s *LookupService) Create(ctx context.Context, l *domain.Lookup) error {
	if err := validateLookup(l); err != nil {
		return err
	}
	l.ID = uuid.New()
	l.IsActive = true
	l.CreatedAt = s.now()
	return s.store.Repos().Lookups.Create(ctx, l)
}

// Update writes name, icon, color, sort order and the active flag. The kind
// of an existing entry is fixed.
func (s *LookupService) Update(ctx context.Context, l *domain.Lookup) error {
	repos := s.store.Repos()
	current, err := repos.Lookups.GetByID(ctx, l.ID)
	if err != nil {
		return err
	}
	if l.Kind == "" {
		l.Kind = current.Kind
	}
	if l.Kind != current.Kind {
		return domain.Validationf("cannot change %s %q into a %s", current.Kind, current.Name, l.Kind)
	}
	if err := validateLookup(l); err != nil {
		return err
	}
	l.CreatedAt = current.CreatedAt
	return repos.Lookups.Update(ctx, l)
}

func (s *LookupService) Get(ctx context.Context, id uuid.UUID) (*domain.Lookup, error) {
	return s.store.Repos().Lookups.GetByID(ctx, id)
}

func (s *LookupService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Repos().Lookups.Delete(ctx, id)
}

func (s *LookupService) List(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error) {
	if _, err := domain.ParseLookupKind(string(kind)); err != nil {
		return nil, err
	}
	return s.store.Repos().Lookups.List(ctx, kind)
}

func validateLookup(l *domain.Lookup) error {
	if _, err := domain.ParseLookupKind(string(l.Kind)); err != nil {
		return err
	}
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return domain.Validationf("%s name is required", l.Kind)
	}
	return nil
}
