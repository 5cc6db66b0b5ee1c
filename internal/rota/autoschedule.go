package rota

import (
	"context"
	"fmt"
	"time"

	"rota-go/internal/model"
)

// AutoScheduleOptions tunes a single auto-schedule run.
type AutoScheduleOptions struct {
	// DryRun computes assignments without persisting them.
	DryRun bool
}

// AutoScheduleStats summarises a run.
type AutoScheduleStats struct {
	TotalShifts       int
	ShiftsUpdated     int
	AssignmentsMade   int
	StillUnderstaffed int
}

// AutoScheduleResult is the combined report of a run.
type AutoScheduleResult struct {
	Shifts    []*model.Shift // shifts that received new assignments
	Conflicts []model.Conflict
	Stats     AutoScheduleStats
}

// AutoSchedule fills understaffed shifts in the date range from the store's
// active roster using a naive greedy policy: candidates are taken in roster
// order and only users already on the shift are skipped. Rest periods,
// overlaps and skills are not considered for the candidate, so the conflict
// report that follows may contain double bookings the run introduced.
// All assignments are written in a single transaction.
func (s *RotaService) AutoSchedule(ctx context.Context, tenantID, storeID string, from, to time.Time, opts AutoScheduleOptions) (*AutoScheduleResult, error) {
	shifts, err := s.ListShifts(ctx, tenantID, storeID, from, to)
	if err != nil {
		return nil, err
	}

	staff, err := s.ListActiveStaff(ctx, tenantID, storeID)
	if err != nil {
		return nil, err
	}

	modified, assignments := PlanAssignments(shifts, staff)

	if !opts.DryRun && len(assignments) > 0 {
		if err := s.store.AddShiftAssignments(ctx, tenantID, assignments); err != nil {
			return nil, fmt.Errorf("saving assignments: %w", err)
		}
	}

	var conflicts []model.Conflict
	if opts.DryRun {
		conflicts = storeConflicts(shifts)
	} else {
		conflicts, err = s.DetectConflicts(ctx, tenantID, storeID, ConflictQuery{AllUsers: true})
		if err != nil {
			return nil, fmt.Errorf("detecting conflicts: %w", err)
		}
	}

	stats := AutoScheduleStats{
		TotalShifts:     len(shifts),
		ShiftsUpdated:   len(modified),
		AssignmentsMade: len(assignments),
	}
	for _, sh := range shifts {
		if sh.IsUnderstaffed() {
			stats.StillUnderstaffed++
		}
	}

	s.logger.Info("auto-schedule complete",
		"store", storeID,
		"shifts", stats.TotalShifts,
		"updated", stats.ShiftsUpdated,
		"assignments", stats.AssignmentsMade,
		"dry_run", opts.DryRun,
	)

	return &AutoScheduleResult{Shifts: modified, Conflicts: conflicts, Stats: stats}, nil
}

// PlanAssignments greedily tops up each understaffed shift from staff, in
// order, never adding more than RequiredStaff minus the current count. The
// shifts are updated in place; the modified shifts and the new assignments
// are returned.
func PlanAssignments(shifts []*model.Shift, staff []*model.StaffMember) ([]*model.Shift, []model.Assignment) {
	modified := []*model.Shift{}
	var assignments []model.Assignment

	for _, sh := range shifts {
		need := sh.RequiredStaff - len(sh.AssignedUsers)
		if need <= 0 {
			continue
		}

		added := 0
		for _, member := range staff {
			if added == need {
				break
			}
			if sh.HasUser(member.UserID) {
				continue
			}
			sh.AssignedUsers = append(sh.AssignedUsers, member.UserID)
			assignments = append(assignments, model.Assignment{ShiftID: sh.ID, UserID: member.UserID})
			added++
		}

		if added > 0 {
			modified = append(modified, sh)
		}
	}
	return modified, assignments
}
