package model

import "time"

// RecurrencePattern controls which calendar days a template generates shifts for.
type RecurrencePattern string

const (
	PatternDaily  RecurrencePattern = "daily"
	PatternWeekly RecurrencePattern = "weekly"
)

// ShiftType is derived from the start hour of a shift.
type ShiftType string

const (
	ShiftMorning   ShiftType = "morning"
	ShiftAfternoon ShiftType = "afternoon"
	ShiftNight     ShiftType = "night"
)

// ShiftStatus tracks the lifecycle of a shift instance.
type ShiftStatus string

const (
	ShiftDraft     ShiftStatus = "draft"
	ShiftPublished ShiftStatus = "published"
)

// ShiftTemplate is a recurrence rule that generates concrete shifts.
type ShiftTemplate struct {
	ID            string // UUID
	TenantID      string
	Name          string
	Pattern       RecurrencePattern
	DaysOfWeek    []time.Weekday // only used for PatternWeekly
	StartTime     string         // "HH:MM"
	EndTime       string         // "HH:MM"
	RequiredStaff int
	BreakMinutes  int
	Skills        []string
	Slots         []TimeSlot // owned, replaced as a whole on update
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TimeSlot is an ordered sub-period of a shift template.
type TimeSlot struct {
	ID            string // UUID
	TemplateID    string // Foreign key to ShiftTemplate
	Position      int
	Label         string
	StartTime     string // "HH:MM"
	EndTime       string // "HH:MM"
	RequiredStaff int
}

// Shift is a single scheduled work period tied to a store and date.
type Shift struct {
	ID            string // UUID
	TenantID      string
	StoreID       string
	Date          string // "2006-01-02" in the scheduling location
	StartAt       time.Time
	EndAt         time.Time
	RequiredStaff int
	AssignedUsers []string // insertion order, unique per shift
	Type          ShiftType
	TemplateID    string // empty when created directly
	Skills        []string
	Status        ShiftStatus
	Notes         string
	CreatedAt     time.Time
}

// IsUnderstaffed reports whether fewer users are assigned than required.
func (s *Shift) IsUnderstaffed() bool {
	return len(s.AssignedUsers) < s.RequiredStaff
}

// HasUser reports whether userID is assigned to the shift.
func (s *Shift) HasUser(userID string) bool {
	for _, u := range s.AssignedUsers {
		if u == userID {
			return true
		}
	}
	return false
}

// Assignment links a user to a shift.
type Assignment struct {
	ShiftID string
	UserID  string
}

// ShiftFilter selects shifts for a tenant. Empty fields are not applied.
type ShiftFilter struct {
	TenantID string
	StoreID  string
	From     string // inclusive "2006-01-02"
	To       string // inclusive "2006-01-02"
	UserID   string // only shifts this user is assigned to
}

// StaffMember is a roster entry used by the auto-scheduler.
type StaffMember struct {
	TenantID  string
	UserID    string
	StoreID   string
	Name      string
	Active    bool
	CreatedAt time.Time
}
