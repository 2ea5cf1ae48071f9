package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/logger"
	"mediarent-backend/internal/repository"
	"mediarent-backend/internal/storage"
	"mediarent-backend/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const entityRental = "rental"

type ItemInput struct {
	EquipmentID uuid.UUID
	Quantity    int
	// Days defaults to the rental's planned duration when zero.
	Days int
	// DailyRate overrides the equipment's rate when set.
	DailyRate *decimal.Decimal
}

type CreateRentalInput struct {
	CustomerID                 *uuid.UUID
	PlannedStartDate           time.Time
	PlannedEndDate             time.Time
	Items                      []ItemInput
	DiscountPercent            decimal.Decimal
	AdditionalCosts            decimal.Decimal
	AdditionalCostsDescription string
	DepositAmount              decimal.Decimal
	Purpose                    string
	EventLocation              string
	Notes                      string
}

type PricingInput struct {
	DiscountPercent            decimal.Decimal
	AdditionalCosts            decimal.Decimal
	AdditionalCostsDescription string
	DepositAmount              decimal.Decimal
}

type HandoverInput struct {
	Notes     string
	Signature []byte
	// ItemConditions is keyed by rental item ID.
	ItemConditions map[uuid.UUID]string
}

type ItemReturn struct {
	Condition         string
	Damaged           bool
	DamageDescription string
}

type ReturnInput struct {
	Notes           string
	DepositReturned bool
	Signature       []byte
	// Items is keyed by rental item ID.
	Items map[uuid.UUID]ItemReturn
}

type RentalService struct {
	base
	numbering  *NumberingService
	signatures storage.SignatureStore
	log        *slog.Logger
}

// NewRentalService wires the rental workflow. signatures may be nil, in which
// case protocols carrying a signature are rejected.
func NewRentalService(store repository.Store, numbering *NumberingService, signatures storage.SignatureStore, opts ...Option) *RentalService {
	return &RentalService{
		base:       newBase(store, opts),
		numbering:  numbering,
		signatures: signatures,
		log:        logger.WithService("rental"),
	}
}

func (s *RentalService) CreateRental(ctx context.Context, in CreateRentalInput) (*domain.Rental, error) {
	if in.PlannedEndDate.Before(in.PlannedStartDate) {
		return nil, domain.Validationf("planned end %s is before planned start %s",
			in.PlannedEndDate.Format(time.DateOnly), in.PlannedStartDate.Format(time.DateOnly))
	}
	if err := utils.ValidatePricing(in.DiscountPercent, in.AdditionalCosts); err != nil {
		return nil, err
	}
	if err := utils.ValidateDeposit(in.DepositAmount); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(in.Items))
	seen := make(map[uuid.UUID]bool, len(in.Items))
	for _, it := range in.Items {
		if seen[it.EquipmentID] {
			return nil, domain.Validationf("equipment %s is listed twice", it.EquipmentID)
		}
		seen[it.EquipmentID] = true
		ids = append(ids, it.EquipmentID)
	}

	now := s.now()
	rental := &domain.Rental{
		ID:                         uuid.New(),
		CustomerID:                 in.CustomerID,
		PlannedStartDate:           in.PlannedStartDate,
		PlannedEndDate:             in.PlannedEndDate,
		Status:                     domain.RentalStatusReserved,
		DepositAmount:              in.DepositAmount,
		DiscountPercent:            in.DiscountPercent,
		AdditionalCosts:            in.AdditionalCosts,
		AdditionalCostsDescription: in.AdditionalCostsDescription,
		Purpose:                    in.Purpose,
		EventLocation:              in.EventLocation,
		Notes:                      in.Notes,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}

	err := s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if in.CustomerID != nil {
			if _, err := repos.Customers.GetByID(ctx, *in.CustomerID); err != nil {
				return fmt.Errorf("customer %s: %w", in.CustomerID, err)
			}
		}

		equipment, err := lockRentable(ctx, repos, ids)
		if err != nil {
			return err
		}

		for _, it := range in.Items {
			item, err := newRentalItem(rental, equipment[it.EquipmentID], it, now)
			if err != nil {
				return err
			}
			rental.Items = append(rental.Items, item)
		}
		rental.TotalPrice = utils.CalculateTotalPrice(rental.Items, rental.DiscountPercent, rental.AdditionalCosts)

		number, err := s.numbering.With(repos.Counters).NextRentalNumber(ctx, now)
		if err != nil {
			return err
		}
		rental.RentalNumber = number

		if err := repos.Rentals.Create(ctx, rental); err != nil {
			return err
		}
		// a reservation holds its equipment
		hold(equipment, now)
		if err := repos.Equipment.UpdateAvailability(ctx, equipment); err != nil {
			return err
		}
		return s.audit(ctx, repos, now, domain.AuditRentalCreated, entityRental, rental.ID.String(),
			fmt.Sprintf("number=%s items=%d total=%s", rental.RentalNumber, len(rental.Items), rental.TotalPrice.StringFixed(2)))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Rental created", "rental_id", rental.ID, "rental_number", rental.RentalNumber, "items", len(rental.Items))
	return rental, nil
}

// AddItem appends a line to a reserved rental and reprices it.
func (s *RentalService) AddItem(ctx context.Context, rentalID uuid.UUID, in ItemInput) (*domain.Rental, error) {
	var rental *domain.Rental
	err := s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		r, err := repos.Rentals.GetForUpdate(ctx, rentalID)
		if err != nil {
			return err
		}
		if r.Status != domain.RentalStatusReserved {
			return &domain.TransitionError{Op: "add items to", From: r.Status}
		}
		for _, id := range r.EquipmentIDs() {
			if id == in.EquipmentID {
				return domain.Validationf("equipment %s is already on rental %s", id, r.RentalNumber)
			}
		}

		equipment, err := lockRentable(ctx, repos, []uuid.UUID{in.EquipmentID})
		if err != nil {
			return err
		}

		now := s.now()
		item, err := newRentalItem(r, equipment[in.EquipmentID], in, now)
		if err != nil {
			return err
		}
		if err := repos.Rentals.AddItem(ctx, &item); err != nil {
			return err
		}
		r.Items = append(r.Items, item)
		r.TotalPrice = utils.CalculateTotalPrice(r.Items, r.DiscountPercent, r.AdditionalCosts)
		r.UpdatedAt = now
		if err := repos.Rentals.Update(ctx, r); err != nil {
			return err
		}

		hold(equipment, now)
		if err := repos.Equipment.UpdateAvailability(ctx, equipment); err != nil {
			return err
		}
		rental = r
		return s.audit(ctx, repos, now, domain.AuditRentalItemAdded, entityRental, r.ID.String(),
			fmt.Sprintf("equipment=%s total=%s", in.EquipmentID, r.TotalPrice.StringFixed(2)))
	})
	if err != nil {
		return nil, err
	}
	return rental, nil
}

func (s *RentalService) UpdatePricing(ctx context.Context, rentalID uuid.UUID, in PricingInput) (*domain.Rental, error) {
	if err := utils.ValidatePricing(in.DiscountPercent, in.AdditionalCosts); err != nil {
		return nil, err
	}
	if err := utils.ValidateDeposit(in.DepositAmount); err != nil {
		return nil, err
	}

	return s.mutate(ctx, rentalID, domain.AuditRentalPricingUpdated, func(r *domain.Rental, now time.Time) (string, error) {
		if err := domain.CanEdit(r.Status); err != nil {
			return "", err
		}
		r.DiscountPercent = in.DiscountPercent
		r.AdditionalCosts = in.AdditionalCosts
		r.AdditionalCostsDescription = in.AdditionalCostsDescription
		r.DepositAmount = in.DepositAmount
		r.TotalPrice = utils.CalculateTotalPrice(r.Items, r.DiscountPercent, r.AdditionalCosts)
		r.UpdatedAt = now
		return fmt.Sprintf("discount=%s additional=%s total=%s", r.DiscountPercent, r.AdditionalCosts, r.TotalPrice.StringFixed(2)), nil
	})
}

func (s *RentalService) MarkDepositReceived(ctx context.Context, rentalID uuid.UUID) (*domain.Rental, error) {
	return s.mutate(ctx, rentalID, domain.AuditRentalDepositReceived, func(r *domain.Rental, now time.Time) (string, error) {
		if err := domain.CanEdit(r.Status); err != nil {
			return "", err
		}
		r.DepositReceived = true
		r.UpdatedAt = now
		return "amount=" + r.DepositAmount.StringFixed(2), nil
	})
}

// mutate runs a rental-only change under a row lock and audits it
func (s *RentalService) mutate(ctx context.Context, rentalID uuid.UUID, action domain.AuditAction, fn func(r *domain.Rental, now time.Time) (string, error)) (*domain.Rental, error) {
	var rental *domain.Rental
	err := s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		r, err := repos.Rentals.GetForUpdate(ctx, rentalID)
		if err != nil {
			return err
		}
		now := s.now()
		details, err := fn(r, now)
		if err != nil {
			return err
		}
		if err := repos.Rentals.Update(ctx, r); err != nil {
			return err
		}
		rental = r
		return s.audit(ctx, repos, now, action, entityRental, r.ID.String(), details)
	})
	if err != nil {
		return nil, err
	}
	return rental, nil
}

// Start hands the equipment over: reserved -> active.
func (s *RentalService) Start(ctx context.Context, rentalID uuid.UUID, in HandoverInput) (*domain.Rental, error) {
	var rental *domain.Rental
	var savedKey string

	err := s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		r, err := repos.Rentals.GetForUpdate(ctx, rentalID)
		if err != nil {
			return err
		}
		if err := domain.CanStart(r.Status); err != nil {
			return err
		}
		if err := checkItemKeys(r, keysOf(in.ItemConditions)); err != nil {
			return err
		}
		equipment, err := repos.Equipment.LockByIDs(ctx, r.EquipmentIDs())
		if err != nil {
			return err
		}

		now := s.now()
		if err := domain.StartRental(r, equipment, now); err != nil {
			return err
		}

		if len(in.Signature) > 0 {
			if savedKey, err = s.saveSignature(ctx, r.ID, storage.SignatureHandover, in.Signature); err != nil {
				return err
			}
			r.HandoverSignatureKey = savedKey
		}
		r.HandoverNotes = in.Notes
		r.HandoverDate = &now

		changed := applyItems(r, in.ItemConditions, func(it *domain.RentalItem, cond string) {
			it.HandoverCondition = cond
		})

		if err := s.persistTransition(ctx, repos, r, equipment, changed); err != nil {
			return err
		}
		rental = r
		return s.audit(ctx, repos, now, domain.AuditRentalStarted, entityRental, r.ID.String(), "from=reserved to=active")
	})
	if err != nil {
		s.discardSignature(ctx, savedKey)
		return nil, err
	}

	logger.Transition(s.log, rental.ID.String(), rental.RentalNumber, string(domain.RentalStatusReserved), string(rental.Status))
	return rental, nil
}

// Cancel drops a reservation and frees its equipment: reserved -> cancelled.
func (s *RentalService) Cancel(ctx context.Context, rentalID uuid.UUID) (*domain.Rental, error) {
	var rental *domain.Rental
	err := s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		r, err := repos.Rentals.GetForUpdate(ctx, rentalID)
		if err != nil {
			return err
		}
		equipment, err := repos.Equipment.LockByIDs(ctx, r.EquipmentIDs())
		if err != nil {
			return err
		}

		now := s.now()
		if err := domain.CancelRental(r, equipment, now); err != nil {
			return err
		}
		if err := s.persistTransition(ctx, repos, r, equipment, nil); err != nil {
			return err
		}
		rental = r
		return s.audit(ctx, repos, now, domain.AuditRentalCancelled, entityRental, r.ID.String(), "from=reserved to=cancelled")
	})
	if err != nil {
		return nil, err
	}

	logger.Transition(s.log, rental.ID.String(), rental.RentalNumber, string(domain.RentalStatusReserved), string(rental.Status))
	return rental, nil
}

// Complete takes the equipment back: active (or overdue) -> returned.
// Damaged items produce a damage report for their equipment.
func (s *RentalService) Complete(ctx context.Context, rentalID uuid.UUID, in ReturnInput) (*domain.Rental, error) {
	var rental *domain.Rental
	var savedKey string
	var from domain.RentalStatus

	err := s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		r, err := repos.Rentals.GetForUpdate(ctx, rentalID)
		if err != nil {
			return err
		}
		if err := domain.CanComplete(r.Status); err != nil {
			return err
		}
		if err := checkItemKeys(r, keysOf(in.Items)); err != nil {
			return err
		}
		equipment, err := repos.Equipment.LockByIDs(ctx, r.EquipmentIDs())
		if err != nil {
			return err
		}

		now := s.now()
		from = domain.DisplayStatus(r, now)
		if err := domain.CompleteRental(r, equipment, domain.ReturnProtocol{DepositReturned: in.DepositReturned, Notes: in.Notes}, now); err != nil {
			return err
		}

		if len(in.Signature) > 0 {
			if savedKey, err = s.saveSignature(ctx, r.ID, storage.SignatureReturn, in.Signature); err != nil {
				return err
			}
			r.ReturnSignatureKey = savedKey
		}
		r.ReturnNotes = in.Notes
		r.ReturnDate = &now

		changed := applyItems(r, in.Items, func(it *domain.RentalItem, ret ItemReturn) {
			it.ReturnCondition = ret.Condition
			it.HasDamage = ret.Damaged
		})

		if err := s.persistTransition(ctx, repos, r, equipment, changed); err != nil {
			return err
		}

		for _, it := range changed {
			ret := in.Items[it.ID]
			if !ret.Damaged || it.EquipmentID == nil {
				continue
			}
			report := &domain.DamageReport{
				ID:          uuid.New(),
				EquipmentID: *it.EquipmentID,
				RentalID:    &r.ID,
				Description: damageDescription(ret),
				ReportedAt:  now,
				CreatedAt:   now,
			}
			if err := repos.History.AddDamage(ctx, report); err != nil {
				return err
			}
		}

		rental = r
		return s.audit(ctx, repos, now, domain.AuditRentalCompleted, entityRental, r.ID.String(),
			fmt.Sprintf("from=%s to=returned deposit_returned=%t", from, r.DepositReturned))
	})
	if err != nil {
		s.discardSignature(ctx, savedKey)
		return nil, err
	}

	logger.Transition(s.log, rental.ID.String(), rental.RentalNumber, string(from), string(rental.Status))
	return rental, nil
}

func (s *RentalService) Get(ctx context.Context, rentalID uuid.UUID) (*domain.RentalView, error) {
	r, err := s.store.Repos().Rentals.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	view := domain.NewRentalView(*r, s.now())
	return &view, nil
}

// List returns rentals with their derived status. Filtering by overdue
// selects active rentals past their planned end.
func (s *RentalService) List(ctx context.Context, filter domain.RentalFilter) ([]domain.RentalView, error) {
	if filter.Status != nil && *filter.Status == domain.RentalStatusOverdue {
		return s.ListOverdue(ctx)
	}
	rentals, err := s.store.Repos().Rentals.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]domain.RentalView, 0, len(rentals))
	for _, r := range rentals {
		views = append(views, domain.NewRentalView(r, now))
	}
	return views, nil
}

func (s *RentalService) ListOverdue(ctx context.Context) ([]domain.RentalView, error) {
	active := domain.RentalStatusActive
	rentals, err := s.store.Repos().Rentals.List(ctx, domain.RentalFilter{Status: &active})
	if err != nil {
		return nil, err
	}
	now := s.now()
	var views []domain.RentalView
	for _, r := range rentals {
		if domain.DisplayStatus(&r, now) == domain.RentalStatusOverdue {
			views = append(views, domain.NewRentalView(r, now))
		}
	}
	return views, nil
}

// Delete removes a returned or cancelled rental together with its items.
func (s *RentalService) Delete(ctx context.Context, rentalID uuid.UUID) error {
	var keys []string
	err := s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		r, err := repos.Rentals.GetForUpdate(ctx, rentalID)
		if err != nil {
			return err
		}
		if !r.Status.IsTerminal() {
			return &domain.TransitionError{Op: "delete", From: r.Status}
		}
		if err := repos.Rentals.Delete(ctx, r.ID); err != nil {
			return err
		}
		for _, k := range []string{r.HandoverSignatureKey, r.ReturnSignatureKey} {
			if k != "" {
				keys = append(keys, k)
			}
		}
		return s.audit(ctx, repos, s.now(), domain.AuditRentalDeleted, entityRental, r.ID.String(), "number="+r.RentalNumber)
	})
	if err != nil {
		return err
	}
	for _, k := range keys {
		s.discardSignature(ctx, k)
	}
	return nil
}

func (s *RentalService) persistTransition(ctx context.Context, repos repository.Repositories, r *domain.Rental, equipment domain.EquipmentSet, items []domain.RentalItem) error {
	if err := repos.Rentals.Update(ctx, r); err != nil {
		return err
	}
	if len(items) > 0 {
		if err := repos.Rentals.UpdateItemConditions(ctx, items); err != nil {
			return err
		}
	}
	return repos.Equipment.UpdateAvailability(ctx, equipment)
}

func (s *RentalService) saveSignature(ctx context.Context, rentalID uuid.UUID, kind storage.SignatureKind, data []byte) (string, error) {
	if s.signatures == nil {
		return "", domain.Validationf("signature capture is not configured")
	}
	key, err := s.signatures.Save(ctx, rentalID, kind, data)
	if err != nil {
		if errors.Is(err, storage.ErrContentType) || errors.Is(err, storage.ErrFileTooLarge) {
			return "", fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		return "", fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return key, nil
}

// discardSignature removes an image whose rental change did not commit
func (s *RentalService) discardSignature(ctx context.Context, key string) {
	if key == "" || s.signatures == nil {
		return
	}
	if err := s.signatures.Delete(ctx, key); err != nil {
		s.log.Warn("Failed to remove signature", "key", key, "error", err)
	}
}

// lockRentable locks the units and fails unless every one can be rented
func lockRentable(ctx context.Context, repos repository.Repositories, ids []uuid.UUID) (domain.EquipmentSet, error) {
	equipment, err := repos.Equipment.LockByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		e, ok := equipment[id]
		if !ok {
			return nil, fmt.Errorf("equipment %s: %w", id, domain.ErrNotFound)
		}
		if !e.Rentable() {
			return nil, fmt.Errorf("%w: %s (%s)", domain.ErrEquipmentUnavailable, e.InventoryNumber, e.Name)
		}
	}
	return equipment, nil
}

func hold(equipment domain.EquipmentSet, now time.Time) {
	for _, e := range equipment {
		e.IsAvailable = false
		e.UpdatedAt = now
	}
}

func newRentalItem(r *domain.Rental, e *domain.Equipment, in ItemInput, now time.Time) (domain.RentalItem, error) {
	rate := decimal.Zero
	if e.DailyRate.Valid {
		rate = e.DailyRate.Decimal
	}
	if in.DailyRate != nil {
		rate = *in.DailyRate
	}
	days := in.Days
	if days == 0 {
		days = domain.NumberOfDays(r)
	}
	if err := utils.ValidateLineItem(in.Quantity, days, rate); err != nil {
		return domain.RentalItem{}, err
	}

	equipmentID := e.ID
	return domain.RentalItem{
		ID:          uuid.New(),
		RentalID:    r.ID,
		EquipmentID: &equipmentID,
		Quantity:    in.Quantity,
		DailyRate:   rate,
		Days:        days,
		CreatedAt:   now,
	}, nil
}

func keysOf[V any](m map[uuid.UUID]V) []uuid.UUID {
	keys := make([]uuid.UUID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func checkItemKeys(r *domain.Rental, keys []uuid.UUID) error {
	known := make(map[uuid.UUID]bool, len(r.Items))
	for _, it := range r.Items {
		known[it.ID] = true
	}
	for _, k := range keys {
		if !known[k] {
			return domain.Validationf("item %s does not belong to rental %s", k, r.RentalNumber)
		}
	}
	return nil
}

// applyItems updates the items named in updates and returns the changed ones
func applyItems[V any](r *domain.Rental, updates map[uuid.UUID]V, fn func(*domain.RentalItem, V)) []domain.RentalItem {
	var changed []domain.RentalItem
	for i := range r.Items {
		v, ok := updates[r.Items[i].ID]
		if !ok {
			continue
		}
		fn(&r.Items[i], v)
		changed = append(changed, r.Items[i])
	}
	return changed
}

func damageDescription(ret ItemReturn) string {
	if ret.DamageDescription != "" {
		return ret.DamageDescription
	}
	if ret.Condition != "" {
		return "Returned damaged: " + ret.Condition
	}
	return "Returned damaged"
}
