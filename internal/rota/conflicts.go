package rota

import (
	"context"
	"fmt"
	"sort"
	"time"

	"rota-go/internal/model"
)

// MinRestHours is the statutory minimum rest between a user's consecutive shifts.
const MinRestHours = 11.0

// ConflictQuery narrows conflict detection.
type ConflictQuery struct {
	// UserID runs the double-booking and rest checks for this user across all
	// of the tenant's stores.
	UserID string
	// AllUsers runs the user checks for every user assigned in the store.
	AllUsers bool
	// From and To bound the shift dates considered (inclusive). Zero means unbounded.
	From time.Time
	To   time.Time
}

// DetectConflicts returns the advisory conflicts for a store. Understaffing is
// always checked; the user-scoped checks only run when a user id is supplied
// or AllUsers is set. No input ever produces an error for being conflict-free.
func (s *RotaService) DetectConflicts(ctx context.Context, tenantID, storeID string, q ConflictQuery) ([]model.Conflict, error) {
	filter := model.ShiftFilter{TenantID: tenantID, StoreID: storeID}
	if !q.From.IsZero() {
		filter.From = dateOf(q.From, s.loc).Format(DateLayout)
	}
	if !q.To.IsZero() {
		filter.To = dateOf(q.To, s.loc).Format(DateLayout)
	}

	shifts, err := s.store.ListShifts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing shifts: %w", err)
	}

	conflicts := []model.Conflict{}

	if q.UserID != "" {
		userFilter := filter
		userFilter.StoreID = ""
		userFilter.UserID = q.UserID
		userShifts, err := s.store.ListShifts(ctx, userFilter)
		if err != nil {
			return nil, fmt.Errorf("listing user shifts: %w", err)
		}
		conflicts = append(conflicts, DetectDoubleBookings(userShifts, q.UserID)...)
		conflicts = append(conflicts, DetectInsufficientRest(userShifts, q.UserID)...)
		conflicts = append(conflicts, DetectUnderstaffing(shifts)...)
	} else if q.AllUsers {
		conflicts = storeConflicts(shifts)
	} else {
		conflicts = append(conflicts, DetectUnderstaffing(shifts)...)
	}

	s.logger.Debug("conflicts detected", "store", storeID, "user", q.UserID, "count", len(conflicts))
	return conflicts, nil
}

// DetectDoubleBookings flags every pair of the user's shifts whose half-open
// intervals overlap. Shifts that only touch at a boundary do not conflict.
func DetectDoubleBookings(shifts []*model.Shift, userID string) []model.Conflict {
	own := shiftsFor(shifts, userID)

	var conflicts []model.Conflict
	for i := 0; i < len(own); i++ {
		for j := i + 1; j < len(own); j++ {
			a, b := own[i], own[j]
			if !intervalOf(a).Overlaps(intervalOf(b)) {
				continue
			}
			conflicts = append(conflicts, model.Conflict{
				Kind:     model.ConflictDoubleBooking,
				Severity: model.SeverityError,
				ShiftIDs: []string{a.ID, b.ID},
				UserID:   userID,
				Message: fmt.Sprintf("user %s is double-booked: shift %s (%s) overlaps shift %s (%s)",
					userID, a.ID, spanLabel(a), b.ID, spanLabel(b)),
			})
		}
	}
	return conflicts
}

// DetectInsufficientRest flags consecutive shifts of the user, ordered by
// start time, separated by less than MinRestHours. Exactly MinRestHours passes.
func DetectInsufficientRest(shifts []*model.Shift, userID string) []model.Conflict {
	own := shiftsFor(shifts, userID)

	var conflicts []model.Conflict
	for i := 1; i < len(own); i++ {
		prev, next := own[i-1], own[i]
		rest := GapHours(intervalOf(prev), intervalOf(next))
		if rest >= MinRestHours {
			continue
		}
		conflicts = append(conflicts, model.Conflict{
			Kind:     model.ConflictInsufficientRest,
			Severity: model.SeverityError,
			ShiftIDs: []string{prev.ID, next.ID},
			UserID:   userID,
			Message: fmt.Sprintf("user %s has %.1fh rest between shift %s and shift %s (minimum %.0fh)",
				userID, rest, prev.ID, next.ID, MinRestHours),
		})
	}
	return conflicts
}

// DetectUnderstaffing emits a warning for every shift with fewer assigned
// users than required.
func DetectUnderstaffing(shifts []*model.Shift) []model.Conflict {
	var conflicts []model.Conflict
	for _, sh := range shifts {
		if !sh.IsUnderstaffed() {
			continue
		}
		conflicts = append(conflicts, model.Conflict{
			Kind:     model.ConflictUnderstaffed,
			Severity: model.SeverityWarning,
			ShiftIDs: []string{sh.ID},
			Message: fmt.Sprintf("shift %s on %s has %d of %d required staff assigned",
				sh.ID, sh.Date, len(sh.AssignedUsers), sh.RequiredStaff),
		})
	}
	return conflicts
}

// storeConflicts runs every check for every user assigned in shifts.
func storeConflicts(shifts []*model.Shift) []model.Conflict {
	conflicts := []model.Conflict{}
	for _, userID := range assignedUsers(shifts) {
		conflicts = append(conflicts, DetectDoubleBookings(shifts, userID)...)
		conflicts = append(conflicts, DetectInsufficientRest(shifts, userID)...)
	}
	return append(conflicts, DetectUnderstaffing(shifts)...)
}

// shiftsFor returns the user's shifts ordered by start time.
func shiftsFor(shifts []*model.Shift, userID string) []*model.Shift {
	var own []*model.Shift
	for _, sh := range shifts {
		if sh.HasUser(userID) {
			own = append(own, sh)
		}
	}
	sort.SliceStable(own, func(i, j int) bool {
		return own[i].StartAt.Before(own[j].StartAt)
	})
	return own
}

// assignedUsers returns the distinct users assigned across shifts, sorted.
func assignedUsers(shifts []*model.Shift) []string {
	seen := make(map[string]bool)
	var users []string
	for _, sh := range shifts {
		for _, u := range sh.AssignedUsers {
			if !seen[u] {
				seen[u] = true
				users = append(users, u)
			}
		}
	}
	sort.Strings(users)
	return users
}

func intervalOf(sh *model.Shift) Interval {
	return Interval{Start: sh.StartAt, End: sh.EndAt}
}

func spanLabel(sh *model.Shift) string {
	return sh.StartAt.Format("2006-01-02 15:04") + "-" + sh.EndAt.Format("15:04")
}
