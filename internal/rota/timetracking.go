package rota

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rota-go/internal/model"
)

// ApprovalMarker prefixes the notes of an approved entry.
const ApprovalMarker = "[APPROVED]"

// EntryState is the state-machine view of a time entry. It refines the
// persisted status by splitting active entries into working and on break.
type EntryState string

const (
	StateActive    EntryState = "active"
	StateOnBreak   EntryState = "on_break"
	StateCompleted EntryState = "completed"
	StateDisputed  EntryState = "disputed"
)

// EntryAction is an event applied to an existing time entry.
type EntryAction string

const (
	ActionClockOut   EntryAction = "clock_out"
	ActionStartBreak EntryAction = "start_break"
	ActionEndBreak   EntryAction = "end_break"
	ActionApprove    EntryAction = "approve"
	ActionDispute    EntryAction = "dispute"
)

// StateOf derives the state of an entry.
func StateOf(e *model.TimeEntry) EntryState {
	switch e.Status {
	case model.EntryDisputed:
		return StateDisputed
	case model.EntryCompleted:
		return StateCompleted
	}
	if e.ClockOut != nil {
		return StateCompleted
	}
	if e.IsOnBreak {
		return StateOnBreak
	}
	return StateActive
}

// CheckTransition reports whether action may be applied to the entry and,
// if not, returns an error suitable for display that matches ErrInvalidState.
func CheckTransition(e *model.TimeEntry, action EntryAction) error {
	state := StateOf(e)
	switch action {
	case ActionClockOut:
		if state == StateActive || state == StateOnBreak {
			return nil
		}
		return invalidStatef("time entry %s is already clocked out", e.ID)
	case ActionStartBreak:
		switch state {
		case StateActive:
			return nil
		case StateOnBreak:
			return invalidStatef("already on break since %s", formatStamp(e.BreakStartedAt))
		default:
			return invalidStatef("time entry %s is not active", e.ID)
		}
	case ActionEndBreak:
		if state == StateOnBreak && e.BreakStartedAt != nil {
			return nil
		}
		return invalidStatef("no active break found")
	case ActionApprove:
		switch {
		case e.ClockOut != nil && (state == StateCompleted || state == StateDisputed):
			return nil
		case state == StateDisputed:
			return invalidStatef("time entry %s was disputed before clock-out and cannot be approved", e.ID)
		default:
			return invalidStatef("time entry %s is still open; clock out before approving", e.ID)
		}
	case ActionDispute:
		return nil
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}
}

// ClockInOptions carries optional clock-in data.
type ClockInOptions struct {
	StoreID      string
	BreakMinutes int // planned break
	Notes        string
}

// ClockIn opens a new session for the user. It fails if the user already has
// an active session without a clock-out, naming that session's clock-in time.
func (s *RotaService) ClockIn(ctx context.Context, tenantID, userID string, opts ClockInOptions) (*model.TimeEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalidInputf("user id is required")
	}
	if opts.BreakMinutes < 0 {
		return nil, invalidInputf("break minutes must not be negative")
	}

	existing, err := s.store.FindOpenTimeEntry(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("checking for open session: %w", err)
	}
	if existing != nil {
		return nil, s.alreadyClockedIn(userID, existing)
	}

	now := s.now()
	entry := &model.TimeEntry{
		ID:           s.idgen.New(),
		TenantID:     tenantID,
		UserID:       userID,
		StoreID:      opts.StoreID,
		ClockIn:      now,
		BreakMinutes: opts.BreakMinutes,
		Status:       model.EntryActive,
		Notes:        opts.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateTimeEntry(ctx, entry); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			// Lost a race with a concurrent clock-in; the index kept one session.
			if winner, ferr := s.store.FindOpenTimeEntry(ctx, tenantID, userID); ferr == nil && winner != nil {
				return nil, s.alreadyClockedIn(userID, winner)
			}
			return nil, invalidStatef("user %s already has an active session", userID)
		}
		return nil, fmt.Errorf("creating time entry: %w", err)
	}

	s.logger.Info("clocked in", "user", userID, "entry", entry.ID)
	return entry, nil
}

func (s *RotaService) alreadyClockedIn(userID string, open *model.TimeEntry) error {
	return invalidStatef("user %s is already clocked in since %s (entry %s)",
		userID, open.ClockIn.In(s.loc).Format("2006-01-02 15:04"), open.ID)
}

// ClockOut closes the session, ending any open break first, and records total
// and net worked minutes.
func (s *RotaService) ClockOut(ctx context.Context, tenantID, entryID string) (*model.TimeEntry, error) {
	return s.applyEntryAction(ctx, "clock out", tenantID, entryID, ActionClockOut, func(e *model.TimeEntry, now time.Time) {
		if e.IsOnBreak && e.BreakStartedAt != nil {
			closeBreak(e, now)
		}
		e.ClockOut = &now
		e.TotalMinutes = WholeMinutes(now.Sub(e.ClockIn))
		e.NetMinutes = e.TotalMinutes - e.BreakDuration
		if e.NetMinutes < 0 {
			e.NetMinutes = 0
		}
		e.Status = model.EntryCompleted
	})
}

// StartBreak begins a break cycle on an active entry.
func (s *RotaService) StartBreak(ctx context.Context, tenantID, entryID string) (*model.TimeEntry, error) {
	return s.applyEntryAction(ctx, "start break", tenantID, entryID, ActionStartBreak, func(e *model.TimeEntry, now time.Time) {
		e.IsOnBreak = true
		e.BreakStartedAt = &now
	})
}

// EndBreak ends the current break cycle and adds its length to BreakDuration.
func (s *RotaService) EndBreak(ctx context.Context, tenantID, entryID string) (*model.TimeEntry, error) {
	return s.applyEntryAction(ctx, "end break", tenantID, entryID, ActionEndBreak, closeBreak)
}

// ApproveTimeEntry stamps approver metadata on a clocked-out entry and marks
// its notes. The status becomes completed.
func (s *RotaService) ApproveTimeEntry(ctx context.Context, tenantID, entryID, approverID string) (*model.TimeEntry, error) {
	if strings.TrimSpace(approverID) == "" {
		return nil, invalidInputf("approver id is required")
	}
	return s.applyEntryAction(ctx, "approve", tenantID, entryID, ActionApprove, func(e *model.TimeEntry, now time.Time) {
		e.Status = model.EntryCompleted
		e.ApprovedBy = approverID
		e.ApprovedAt = &now
		if !strings.HasPrefix(e.Notes, ApprovalMarker) {
			e.Notes = strings.TrimSpace(ApprovalMarker + " " + e.Notes)
		}
	})
}

// DisputeTimeEntry marks the entry disputed with reason. Allowed from any state.
func (s *RotaService) DisputeTimeEntry(ctx context.Context, tenantID, entryID, reason string) (*model.TimeEntry, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, invalidInputf("dispute reason is required")
	}
	return s.applyEntryAction(ctx, "dispute", tenantID, entryID, ActionDispute, func(e *model.TimeEntry, _ time.Time) {
		e.Status = model.EntryDisputed
		e.DisputeReason = reason
	})
}

// GetTimeEntry returns a single entry.
func (s *RotaService) GetTimeEntry(ctx context.Context, tenantID, entryID string) (*model.TimeEntry, error) {
	entry, err := s.store.FindTimeEntry(ctx, tenantID, entryID)
	if err != nil {
		return nil, fmt.Errorf("finding time entry: %w", err)
	}
	if entry == nil {
		return nil, notFound("get", "time entry", entryID)
	}
	return entry, nil
}

// ListTimeEntries returns the entries visible to scope. Notes and dispute
// reasons are blanked unless the scope grants HR-sensitive access.
func (s *RotaService) ListTimeEntries(ctx context.Context, scope Scope, filter model.TimeEntryFilter) ([]*model.TimeEntry, error) {
	narrowed, err := scope.narrow(filter)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.ListTimeEntries(ctx, narrowed)
	if err != nil {
		return nil, fmt.Errorf("listing time entries: %w", err)
	}

	if !scope.HRSensitive {
		for _, e := range entries {
			e.Notes = ""
			e.DisputeReason = ""
		}
	}
	return entries, nil
}

// applyEntryAction loads an entry, validates the transition, applies mutate
// and persists the result.
func (s *RotaService) applyEntryAction(ctx context.Context, op, tenantID, entryID string, action EntryAction, mutate func(*model.TimeEntry, time.Time)) (*model.TimeEntry, error) {
	entry, err := s.store.FindTimeEntry(ctx, tenantID, entryID)
	if err != nil {
		return nil, fmt.Errorf("finding time entry: %w", err)
	}
	if entry == nil {
		return nil, notFound(op, "time entry", entryID)
	}

	if err := CheckTransition(entry, action); err != nil {
		return nil, err
	}

	now := s.now()
	mutate(entry, now)
	entry.UpdatedAt = now

	if err := s.store.UpdateTimeEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("saving time entry: %w", err)
	}

	s.logger.With("entry", entry.ID, "user", entry.UserID).Info("time entry updated", "action", string(action), "status", string(entry.Status))
	return entry, nil
}

// closeBreak folds the running break into BreakDuration.
func closeBreak(e *model.TimeEntry, now time.Time) {
	e.BreakDuration += WholeMinutes(now.Sub(*e.BreakStartedAt))
	e.BreakStartedAt = nil
	e.IsOnBreak = false
}

func formatStamp(t *time.Time) string {
	if t == nil {
		return "an unknown time"
	}
	return t.Format("15:04")
}
