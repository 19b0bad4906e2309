package carriers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/linesalex/netinv/internal/audit"
	"github.com/linesalex/netinv/internal/platform/httpx"
)

// Service handles carrier business logic.
type Service struct {
	repo   Repository
	audits *audit.Recorder
}

// NewService constructs the service.
func NewService(repo Repository, audits *audit.Recorder) *Service {
	return &Service{repo: repo, audits: audits}
}

// List returns carriers matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Carrier, int, error) {
	return s.repo.List(ctx, filters)
}

// Get returns one carrier.
func (s *Service) Get(ctx context.Context, id int64) (Carrier, error) {
	if id <= 0 {
		return Carrier{}, fmt.Errorf("%w: invalid carrier id", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Create inserts a carrier and audits the insertion.
func (s *Service) Create(ctx context.Context, actorID int64, origin audit.Origin, carrier Carrier) (Carrier, error) {
	if err := validate(carrier); err != nil {
		return Carrier{}, err
	}
	created, err := s.repo.Create(ctx, carrier)
	if err != nil {
		return Carrier{}, err
	}
	s.audits.Record(ctx, audit.Change{
		ActorID:  actorID,
		Table:    "carriers",
		RecordID: strconv.FormatInt(created.ID, 10),
		Action:   "CREATE",
		New:      carrierState(created),
		Origin:   origin,
	})
	return created, nil
}

// Update rewrites a carrier and audits the before/after state.
func (s *Service) Update(ctx context.Context, actorID int64, origin audit.Origin, id int64, carrier Carrier) (Carrier, error) {
	if id <= 0 {
		return Carrier{}, fmt.Errorf("%w: invalid carrier id", httpx.ErrValidation)
	}
	if err := validate(carrier); err != nil {
		return Carrier{}, err
	}
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return Carrier{}, err
	}
	after, err := s.repo.Update(ctx, id, carrier)
	if err != nil {
		return Carrier{}, err
	}
	s.audits.Record(ctx, audit.Change{
		ActorID:  actorID,
		Table:    "carriers",
		RecordID: strconv.FormatInt(id, 10),
		Action:   "UPDATE",
		Old:      carrierState(before),
		New:      carrierState(after),
		Origin:   origin,
	})
	return after, nil
}

// Delete removes a carrier and audits its final state.
func (s *Service) Delete(ctx context.Context, actorID int64, origin audit.Origin, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid carrier id", httpx.ErrValidation)
	}
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audits.Record(ctx, audit.Change{
		ActorID:  actorID,
		Table:    "carriers",
		RecordID: strconv.FormatInt(id, 10),
		Action:   "DELETE",
		Old:      carrierState(before),
		Origin:   origin,
	})
	return nil
}

func validate(carrier Carrier) error {
	if strings.TrimSpace(carrier.Name) == "" {
		return fmt.Errorf("%w: name required", httpx.ErrValidation)
	}
	return nil
}

func carrierState(c Carrier) map[string]any {
	return map[string]any{
		"name":          c.Name,
		"region":        c.Region,
		"contact_name":  c.ContactName,
		"contact_email": c.ContactEmail,
		"phone":         c.Phone,
		"status":        c.Status,
	}
}
