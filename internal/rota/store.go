package rota

import (
	"context"

	"rota-go/internal/model"
)

// Store provides tenant-scoped persistence for the scheduling core.
// Every method takes the tenant id (directly or inside the argument) and must
// never read or write rows belonging to another tenant. Find methods return
// (nil, nil) when the row does not exist.
type Store interface {
	// Shift template operations

	// CreateShiftTemplate inserts a template together with its time slots.
	CreateShiftTemplate(ctx context.Context, tpl *model.ShiftTemplate) error

	// FindShiftTemplate returns a template with its slots ordered by position.
	FindShiftTemplate(ctx context.Context, tenantID, id string) (*model.ShiftTemplate, error)

	// ListShiftTemplates returns all templates for a tenant ordered by name.
	ListShiftTemplates(ctx context.Context, tenantID string) ([]*model.ShiftTemplate, error)

	// UpdateShiftTemplate rewrites the template row and replaces its slots
	// inside a single transaction.
	UpdateShiftTemplate(ctx context.Context, tpl *model.ShiftTemplate) error

	// Shift operations

	// CreateShifts inserts all shifts (and any initial assignments) in one transaction.
	CreateShifts(ctx context.Context, shifts []*model.Shift) error

	// FindShift returns a shift with its assigned users.
	FindShift(ctx context.Context, tenantID, id string) (*model.Shift, error)

	// ListShifts returns shifts matching the filter ordered by start time.
	ListShifts(ctx context.Context, filter model.ShiftFilter) ([]*model.Shift, error)

	// UpdateShiftStatus sets the lifecycle status of a shift.
	UpdateShiftStatus(ctx context.Context, tenantID, id string, status model.ShiftStatus) error

	// AddShiftAssignments records all assignments in one transaction.
	// Assigning a user already on the shift is a no-op.
	AddShiftAssignments(ctx context.Context, tenantID string, assignments []model.Assignment) error

	// RemoveShiftAssignment deletes a single assignment. Removing a user who is
	// not assigned is a no-op.
	RemoveShiftAssignment(ctx context.Context, tenantID, shiftID, userID string) error

	// Staff roster operations

	// CreateStaffMember adds a user to a store roster.
	CreateStaffMember(ctx context.Context, member *model.StaffMember) error

	// SetStaffActive toggles whether a roster entry is eligible for scheduling.
	// Returns false if the member does not exist.
	SetStaffActive(ctx context.Context, tenantID, storeID, userID string, active bool) (bool, error)

	// ListActiveStaff returns active members of a store ordered by creation time.
	ListActiveStaff(ctx context.Context, tenantID, storeID string) ([]*model.StaffMember, error)

	// Time entry operations

	// CreateTimeEntry inserts a new entry. Inserting a second open session for
	// the same tenant and user fails with an error wrapping ErrAlreadyExists.
	CreateTimeEntry(ctx context.Context, entry *model.TimeEntry) error

	// FindTimeEntry returns a single entry.
	FindTimeEntry(ctx context.Context, tenantID, id string) (*model.TimeEntry, error)

	// FindOpenTimeEntry returns the user's active entry with no clock-out.
	FindOpenTimeEntry(ctx context.Context, tenantID, userID string) (*model.TimeEntry, error)

	// UpdateTimeEntry rewrites all mutable columns of an entry.
	UpdateTimeEntry(ctx context.Context, entry *model.TimeEntry) error

	// ListTimeEntries returns entries matching the filter ordered by clock-in time.
	ListTimeEntries(ctx context.Context, filter model.TimeEntryFilter) ([]*model.TimeEntry, error)

	// Close closes the underlying connection.
	Close() error
}
