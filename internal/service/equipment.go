package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/logger"
	"mediarent-backend/internal/repository"
	"mediarent-backend/internal/utils"

	"github.com/google/uuid"
)

const entityEquipment = "equipment"

// EquipmentHistory is everything that happened to one unit outside rentals
type EquipmentHistory struct {
	Maintenance []domain.MaintenanceRecord
	Damage      []domain.DamageReport
}

type EquipmentService struct {
	base
	numbering *NumberingService
	log       *slog.Logger
}

func NewEquipmentService(store repository.Store, numbering *NumberingService, opts ...Option) *EquipmentService {
	return &EquipmentService{
		base:      newBase(store, opts),
		numbering: numbering,
		log:       logger.WithService("equipment"),
	}
}

// Create assigns the next inventory number. New units are active and available.
func (s *EquipmentService) Create(ctx context.Context, e *domain.Equipment) error {
	if err := validateEquipment(e); err != nil {
		return err
	}

	now := s.now()
	err := s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := checkClassification(ctx, repos.Lookups, e); err != nil {
			return err
		}
		number, err := s.numbering.With(repos.Counters).NextInventoryNumber(ctx)
		if err != nil {
			return err
		}
		e.ID = uuid.New()
		e.InventoryNumber = number
		e.IsAvailable = true
		e.IsActive = true
		e.CreatedAt = now
		e.UpdatedAt = now

		if err := repos.Equipment.Create(ctx, e); err != nil {
			return err
		}
		return s.audit(ctx, repos, now, domain.AuditEquipmentCreated, entityEquipment, e.ID.String(), "number="+number)
	})
	if err != nil {
		return err
	}

	s.log.Info("Equipment created", "equipment_id", e.ID, "inventory_number", e.InventoryNumber)
	return nil
}

// Update writes descriptive fields. Availability is owned by the rental
// workflow and is never taken from the caller.
func (s *EquipmentService) Update(ctx context.Context, e *domain.Equipment) error {
	if err := validateEquipment(e); err != nil {
		return err
	}
	return s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Equipment.GetByID(ctx, e.ID); err != nil {
			return err
		}
		if err := checkClassification(ctx, repos.Lookups, e); err != nil {
			return err
		}
		now := s.now()
		e.UpdatedAt = now
		if err := repos.Equipment.Update(ctx, e); err != nil {
			return err
		}
		return s.audit(ctx, repos, now, domain.AuditEquipmentUpdated, entityEquipment, e.ID.String(), "")
	})
}

// Retire soft-deletes a unit. Units held by a rental cannot be retired.
func (s *EquipmentService) Retire(ctx context.Context, id uuid.UUID) error {
	return s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		set, err := repos.Equipment.LockByIDs(ctx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		e, ok := set[id]
		if !ok {
			return fmt.Errorf("equipment %s: %w", id, domain.ErrNotFound)
		}
		if !e.IsAvailable {
			return fmt.Errorf("%w: equipment %s is on a rental", domain.ErrConflict, e.InventoryNumber)
		}
		now := s.now()
		if err := repos.Equipment.SetActive(ctx, id, false, now); err != nil {
			return err
		}
		return s.audit(ctx, repos, now, domain.AuditEquipmentRetired, entityEquipment, id.String(), "number="+e.InventoryNumber)
	})
}

func (s *EquipmentService) Get(ctx context.Context, id uuid.UUID) (*domain.Equipment, error) {
	return s.store.Repos().Equipment.GetByID(ctx, id)
}

func (s *EquipmentService) GetByInventoryNumber(ctx context.Context, number string) (*domain.Equipment, error) {
	return s.store.Repos().Equipment.GetByInventoryNumber(ctx, number)
}

func (s *EquipmentService) List(ctx context.Context, filter domain.EquipmentFilter) ([]domain.Equipment, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.store.Repos().Equipment.List(ctx, filter)
}

func (s *EquipmentService) RecordMaintenance(ctx context.Context, m *domain.MaintenanceRecord) error {
	if strings.TrimSpace(m.Description) == "" {
		return domain.Validationf("maintenance description is required")
	}
	if m.Cost.Valid {
		if m.Cost.Decimal.IsNegative() {
			return domain.Validationf("maintenance cost cannot be negative")
		}
		if err := utils.ValidateScale("maintenance cost", m.Cost.Decimal); err != nil {
			return err
		}
	}

	repos := s.store.Repos()
	if _, err := repos.Equipment.GetByID(ctx, m.EquipmentID); err != nil {
		return err
	}
	now := s.now()
	m.ID = uuid.New()
	m.CreatedAt = now
	if m.PerformedAt.IsZero() {
		m.PerformedAt = now
	}
	return repos.History.AddMaintenance(ctx, m)
}

func (s *EquipmentService) History(ctx context.Context, id uuid.UUID) (*EquipmentHistory, error) {
	repos := s.store.Repos()
	maintenance, err := repos.History.ListMaintenance(ctx, id)
	if err != nil {
		return nil, err
	}
	damage, err := repos.History.ListDamage(ctx, id)
	if err != nil {
		return nil, err
	}
	return &EquipmentHistory{Maintenance: maintenance, Damage: damage}, nil
}

// ReconcileAvailability recomputes is_available from the open rentals and
// repairs every unit that disagrees. The repaired units are returned.
func (s *EquipmentService) ReconcileAvailability(ctx context.Context) ([]domain.Equipment, error) {
	var repaired []domain.Equipment
	err := s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		all, err := repos.Equipment.List(ctx, domain.EquipmentFilter{})
		if err != nil {
			return err
		}
		held, err := heldSet(ctx, repos)
		if err != nil {
			return err
		}

		var suspects []uuid.UUID
		for _, e := range all {
			if e.IsAvailable == held[e.ID] {
				suspects = append(suspects, e.ID)
			}
		}
		if len(suspects) == 0 {
			return nil
		}

		// re-read under lock so a rental committed meanwhile is not undone
		set, err := repos.Equipment.LockByIDs(ctx, suspects)
		if err != nil {
			return err
		}
		if held, err = heldSet(ctx, repos); err != nil {
			return err
		}

		now := s.now()
		drifted := make(domain.EquipmentSet)
		for id, e := range set {
			if e.IsAvailable != held[id] {
				continue
			}
			e.IsAvailable = !held[id]
			e.UpdatedAt = now
			drifted[id] = e
		}
		if len(drifted) == 0 {
			return nil
		}
		if err := repos.Equipment.UpdateAvailability(ctx, drifted); err != nil {
			return err
		}
		for _, e := range drifted {
			if err := s.audit(ctx, repos, now, domain.AuditAvailabilityRepaired, entityEquipment, e.ID.String(),
				fmt.Sprintf("number=%s available=%t", e.InventoryNumber, e.IsAvailable)); err != nil {
				return err
			}
			repaired = append(repaired, *e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, e := range repaired {
		s.log.Warn("Equipment availability repaired", "equipment_id", e.ID, "inventory_number", e.InventoryNumber, "available", e.IsAvailable)
	}
	return repaired, nil
}

func heldSet(ctx context.Context, repos repository.Repositories) (map[uuid.UUID]bool, error) {
	ids, err := repos.Rentals.HeldEquipmentIDs(ctx)
	if err != nil {
		return nil, err
	}
	held := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		held[id] = true
	}
	return held, nil
}

// checkClassification makes sure each referenced lookup exists and is of the
// kind its field expects.
func checkClassification(ctx context.Context, lookups repository.LookupRepository, e *domain.Equipment) error {
	refs := []struct {
		kind domain.LookupKind
		id   *uuid.UUID
	}{
		{domain.LookupCategory, e.CategoryID},
		{domain.LookupCondition, e.ConditionID},
		{domain.LookupLocation, e.LocationID},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		l, err := lookups.GetByID(ctx, *ref.id)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Validationf("%s %s does not exist", ref.kind, *ref.id)
		}
		if err != nil {
			return err
		}
		if l.Kind != ref.kind {
			return domain.Validationf("%s is a %s, not a %s", l.Name, l.Kind, ref.kind)
		}
	}
	return nil
}

func validateEquipment(e *domain.Equipment) error {
	if strings.TrimSpace(e.Name) == "" {
		return domain.Validationf("equipment name is required")
	}
	if e.DailyRate.Valid {
		if e.DailyRate.Decimal.IsNegative() {
			return domain.Validationf("daily rate cannot be negative")
		}
		if err := utils.ValidateScale("daily rate", e.DailyRate.Decimal); err != nil {
			return err
		}
	}
	if e.PurchasePrice.Valid {
		if e.PurchasePrice.Decimal.IsNegative() {
			return domain.Validationf("purchase price cannot be negative")
		}
		if err := utils.ValidateScale("purchase price", e.PurchasePrice.Decimal); err != nil {
			return err
		}
	}
	return nil
}
