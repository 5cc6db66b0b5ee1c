package model

// CoverageStatus classifies a coverage bucket.
type CoverageStatus string

const (
	CoverageUnderstaffed CoverageStatus = "understaffed"
	CoverageOptimal      CoverageStatus = "optimal"
	CoverageOverstaffed  CoverageStatus = "overstaffed"
)

// CoverageBucket aggregates required vs scheduled staff for one hour of one day.
// Buckets are computed on demand and never persisted.
type CoverageBucket struct {
	Date      string // "2006-01-02"
	Hour      int    // 0-23
	Required  int
	Scheduled int
	Coverage  float64 // percent
	Status    CoverageStatus
}

// ConflictKind is the closed set of conflicts the detector reports.
type ConflictKind string

const (
	ConflictDoubleBooking    ConflictKind = "double_booking"
	ConflictInsufficientRest ConflictKind = "insufficient_rest"
	ConflictUnderstaffed     ConflictKind = "understaffed"
)

// Severity of a conflict record.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Conflict is an advisory scheduling problem. Never persisted.
type Conflict struct {
	Kind     ConflictKind
	Severity Severity
	ShiftIDs []string
	UserID   string // empty for store-wide conflicts
	Message  string
}
