package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/logger"
	"mediarent-backend/internal/repository"

	"github.com/google/uuid"
)

const entityCustomer = "customer"

type CustomerService struct {
	base
	numbering *NumberingService
	log       *slog.Logger
}

func NewCustomerService(store repository.Store, numbering *NumberingService, opts ...Option) *CustomerService {
	return &CustomerService{
		base:      newBase(store, opts),
		numbering: numbering,
		log:       logger.WithService("customer"),
	}
}

func (s *CustomerService) Create(ctx context.Context, c *domain.Customer) error {
	if err := validateCustomer(c); err != nil {
		return err
	}

	now := s.now()
	err := s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		number, err := s.numbering.With(repos.Counters).NextCustomerNumber(ctx)
		if err != nil {
			return err
		}
		c.ID = uuid.New()
		c.CustomerNumber = number
		c.IsActive = true
		c.CreatedAt = now
		c.UpdatedAt = now

		if err := repos.Customers.Create(ctx, c); err != nil {
			return err
		}
		return s.audit(ctx, repos, now, domain.AuditCustomerCreated, entityCustomer, c.ID.String(), "number="+number)
	})
	if err != nil {
		return err
	}

	s.log.Info("Customer created", "customer_id", c.ID, "customer_number", c.CustomerNumber)
	return nil
}

func (s *CustomerService) Update(ctx context.Context, c *domain.Customer) error {
	if err := validateCustomer(c); err != nil {
		return err
	}
	return s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		now := s.now()
		c.UpdatedAt = now
		if err := repos.Customers.Update(ctx, c); err != nil {
			return err
		}
		return s.audit(ctx, repos, now, domain.AuditCustomerUpdated, entityCustomer, c.ID.String(), "")
	})
}

func (s *CustomerService) Get(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return s.store.Repos().Customers.GetByID(ctx, id)
}

func (s *CustomerService) List(ctx context.Context, search string) ([]domain.Customer, error) {
	return s.store.Repos().Customers.List(ctx, strings.TrimSpace(search))
}

// HasActiveRentals reports whether the customer holds a reserved or active rental
func (s *CustomerService) HasActiveRentals(ctx context.Context, id uuid.UUID) (bool, error) {
	rentals, err := s.store.Repos().Rentals.List(ctx, domain.RentalFilter{CustomerID: &id, OnlyOpen: true})
	if err != nil {
		return false, err
	}
	return domain.HasActiveRentals(rentals), nil
}

// Delete removes a customer without open rentals; past rentals keep their
// history with the customer reference cleared.
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		c, err := repos.Customers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		rentals, err := repos.Rentals.List(ctx, domain.RentalFilter{CustomerID: &id, OnlyOpen: true})
		if err != nil {
			return err
		}
		if domain.HasActiveRentals(rentals) {
			return fmt.Errorf("%w: customer %s has active rentals", domain.ErrConflict, c.CustomerNumber)
		}
		if err := repos.Customers.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit(ctx, repos, s.now(), domain.AuditCustomerDeleted, entityCustomer, id.String(), "number="+c.CustomerNumber)
	})
}

func validateCustomer(c *domain.Customer) error {
	if strings.TrimSpace(c.DisplayName()) == "" {
		return domain.Validationf("customer needs a name or a company")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return domain.Validationf("invalid email %q", c.Email)
	}
	return nil
}
