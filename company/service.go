package company

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gaborage/fieldsadmin/logger"
)

// Service validates input and stamps ids and timestamps before delegating to a Store
type Service struct {
	store    Store
	validate *validator.Validate
	log      logger.Logger

	now   func() time.Time
	newID func() string
}

func NewService(store Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

func (s *Service) List(ctx context.Context) ([]Company, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Company, error) {
	return s.store.Get(ctx, id)
}

// Create trims and validates in, then stores a new company
func (s *Service) Create(ctx context.Context, in CreateInput) (*Company, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Token = strings.TrimSpace(in.Token)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	now := s.now()
	c := &Company{
		ID:        s.newID(),
		Name:      in.Name,
		AccountID: in.AccountID,
		Token:     in.Token,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info().
		Str("company_id", c.ID).
		Str("name", c.Name).
		Msg("Company created")
	return c, nil
}

// Update applies the non-nil fields of in to the company with id
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Company, error) {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	if in.Token != nil {
		trimmed := strings.TrimSpace(*in.Token)
		in.Token = &trimmed
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Token != nil {
		c.Token = *in.Token
	}
	if in.AccountID != nil {
		c.AccountID = *in.AccountID
	}
	c.UpdatedAt = s.now()

	if err := s.store.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithContext(ctx).Info().Str("company_id", id).Msg("Company deleted")
	return nil
}
