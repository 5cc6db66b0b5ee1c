package rota

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rota-go/internal/model"
)

// ShiftInput describes a shift created directly rather than from a template.
type ShiftInput struct {
	TenantID      string
	StoreID       string
	Date          time.Time // calendar day in the service location
	StartTime     string    // "HH:MM"
	EndTime       string    // "HH:MM"; earlier than StartTime means overnight
	RequiredStaff int
	AssignedUsers []string
	Skills        []string
	Notes         string
}

// CreateShift stores a single draft shift.
func (s *RotaService) CreateShift(ctx context.Context, in ShiftInput) (*model.Shift, error) {
	if strings.TrimSpace(in.TenantID) == "" || strings.TrimSpace(in.StoreID) == "" {
		return nil, invalidInputf("tenant id and store id are required")
	}
	if in.RequiredStaff < 0 {
		return nil, invalidInputf("required staff must not be negative")
	}
	if err := validSpan(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}
	sh, sm, _ := parseClock(in.StartTime)
	eh, em, _ := parseClock(in.EndTime)

	day := dateOf(in.Date, s.loc)
	start := time.Date(day.Year(), day.Month(), day.Day(), sh, sm, 0, 0, s.loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), eh, em, 0, 0, s.loc)
	if eh < sh {
		end = end.AddDate(0, 0, 1)
	}

	shift := &model.Shift{
		ID:            s.idgen.New(),
		TenantID:      in.TenantID,
		StoreID:       in.StoreID,
		Date:          day.Format(DateLayout),
		StartAt:       start.UTC(),
		EndAt:         end.UTC(),
		RequiredStaff: in.RequiredStaff,
		AssignedUsers: dedupe(in.AssignedUsers),
		Type:          ClassifyShift(sh),
		Skills:        append([]string{}, in.Skills...),
		Status:        model.ShiftDraft,
		Notes:         in.Notes,
		CreatedAt:     s.now(),
	}

	if err := s.store.CreateShifts(ctx, []*model.Shift{shift}); err != nil {
		return nil, fmt.Errorf("creating shift: %w", err)
	}

	s.logger.Info("shift created", "shift", shift.ID, "store", shift.StoreID, "date", shift.Date)
	return shift, nil
}

// GetShift returns a shift with its assigned users.
func (s *RotaService) GetShift(ctx context.Context, tenantID, id string) (*model.Shift, error) {
	shift, err := s.store.FindShift(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("finding shift: %w", err)
	}
	if shift == nil {
		return nil, notFound("get", "shift", id)
	}
	return shift, nil
}

// ListShifts returns the store's shifts in the inclusive date range.
func (s *RotaService) ListShifts(ctx context.Context, tenantID, storeID string, from, to time.Time) ([]*model.Shift, error) {
	shifts, err := s.store.ListShifts(ctx, model.ShiftFilter{
		TenantID: tenantID,
		StoreID:  storeID,
		From:     dateOf(from, s.loc).Format(DateLayout),
		To:       dateOf(to, s.loc).Format(DateLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("listing shifts: %w", err)
	}
	return shifts, nil
}

// PublishShift moves a draft shift to published.
func (s *RotaService) PublishShift(ctx context.Context, tenantID, id string) (*model.Shift, error) {
	shift, err := s.GetShift(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if shift.Status != model.ShiftDraft {
		return nil, invalidStatef("shift %s is already %s", id, shift.Status)
	}
	if err := s.store.UpdateShiftStatus(ctx, tenantID, id, model.ShiftPublished); err != nil {
		return nil, fmt.Errorf("publishing shift: %w", err)
	}
	shift.Status = model.ShiftPublished

	s.logger.Info("shift published", "shift", id)
	return shift, nil
}

// AssignUserToShift adds userID to the shift. Assigning a user twice is a no-op.
// Conflicts the assignment causes are not checked here; see DetectConflicts.
func (s *RotaService) AssignUserToShift(ctx context.Context, tenantID, shiftID, userID string) (*model.Shift, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalidInputf("user id is required")
	}
	if _, err := s.GetShift(ctx, tenantID, shiftID); err != nil {
		return nil, err
	}

	err := s.store.AddShiftAssignments(ctx, tenantID, []model.Assignment{{ShiftID: shiftID, UserID: userID}})
	if err != nil {
		return nil, fmt.Errorf("assigning user: %w", err)
	}

	s.logger.Info("user assigned to shift", "shift", shiftID, "user", userID)
	return s.GetShift(ctx, tenantID, shiftID)
}

// RemoveUserFromShift removes userID from the shift.
func (s *RotaService) RemoveUserFromShift(ctx context.Context, tenantID, shiftID, userID string) (*model.Shift, error) {
	if _, err := s.GetShift(ctx, tenantID, shiftID); err != nil {
		return nil, err
	}

	if err := s.store.RemoveShiftAssignment(ctx, tenantID, shiftID, userID); err != nil {
		return nil, fmt.Errorf("removing user: %w", err)
	}

	s.logger.Info("user removed from shift", "shift", shiftID, "user", userID)
	return s.GetShift(ctx, tenantID, shiftID)
}

// dedupe drops repeated and empty ids, keeping first occurrences in order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
