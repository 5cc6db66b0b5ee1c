package model

import "time"

// EntryStatus is the persisted status of a time-tracking entry.
type EntryStatus string

const (
	EntryActive    EntryStatus = "active"
	EntryCompleted EntryStatus = "completed"
	EntryDisputed  EntryStatus = "disputed"
)

// TimeEntry is a clock-in/out record, possibly containing break cycles.
type TimeEntry struct {
	ID             string // UUID
	TenantID       string
	UserID         string
	StoreID        string
	ClockIn        time.Time
	ClockOut       *time.Time
	BreakMinutes   int // planned break, fixed at clock-in
	BreakDuration  int // minutes accumulated across break cycles
	BreakStartedAt *time.Time
	IsOnBreak      bool
	TotalMinutes   int // set on clock-out
	NetMinutes     int // TotalMinutes minus BreakDuration, set on clock-out
	Status         EntryStatus
	Notes          string
	DisputeReason  string
	ApprovedBy     string
	ApprovedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsOpen reports whether the entry is the user's running session.
func (e *TimeEntry) IsOpen() bool {
	return e.Status == EntryActive && e.ClockOut == nil
}

// IsApproved reports whether approver metadata has been stamped.
func (e *TimeEntry) IsApproved() bool {
	return e.ApprovedAt != nil
}

// TimeEntryFilter selects time entries for a tenant. Zero fields are not
// applied, but a non-nil empty id list matches nothing.
type TimeEntryFilter struct {
	TenantID string
	UserIDs  []string
	StoreIDs []string
	Status   EntryStatus
	From     *time.Time // clock_in >= From
	To       *time.Time // clock_in < To
}
