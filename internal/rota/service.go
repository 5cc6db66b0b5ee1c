package rota

import (
	"time"
)

// DefaultMaxExpansionDays bounds a single template expansion.
const DefaultMaxExpansionDays = 366

// Options tunes the RotaService.
type Options struct {
	// Location is the timezone shift templates and dates are interpreted in.
	Location *time.Location
	// MaxExpansionDays is the longest inclusive range ExpandTemplate accepts.
	MaxExpansionDays int
}

// RotaService is the orchestration layer for scheduling and time tracking.
// It holds no mutable state of its own; every call is request-scoped against the Store.
type RotaService struct {
	store   Store
	logger  Logger
	clock   Clock
	idgen   IDGenerator
	loc     *time.Location
	maxDays int
}

// NewRotaService creates a new RotaService with the provided dependencies.
func NewRotaService(store Store, logger Logger, clock Clock, idgen IDGenerator, opts Options) *RotaService {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	maxDays := opts.MaxExpansionDays
	if maxDays <= 0 {
		maxDays = DefaultMaxExpansionDays
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &RotaService{
		store:   store,
		logger:  logger,
		clock:   clock,
		idgen:   idgen,
		loc:     loc,
		maxDays: maxDays,
	}
}

// Location returns the timezone the service schedules in.
func (s *RotaService) Location() *time.Location {
	return s.loc
}

// now returns the clock time in UTC, the form persisted by the Store.
func (s *RotaService) now() time.Time {
	return s.clock.Now().UTC()
}
