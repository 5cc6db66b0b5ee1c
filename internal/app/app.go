package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"rota-go/internal/backup"
	"rota-go/internal/config"
	"rota-go/internal/database"
	"rota-go/internal/database/migrations"
	"rota-go/internal/model"
	"rota-go/internal/report"
	"rota-go/internal/rota"
)

// RotaApp is the application layer between the CLI and RotaService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string dates, and manages the DB lifecycle on Close.
type RotaApp struct {
	cfg     *config.Config
	db      *database.SQLiteDatabase
	service *rota.RotaService
	authz   *StaticAuthorizer
	clock   rota.Clock
	logFile *os.File
}

// Options tunes how NewRotaApp wires the application.
type Options struct {
	// Command names the CLI command being run; it appears in every log line.
	Command string
	// Verbose mirrors log records to stderr.
	Verbose bool
	// Clock overrides the real clock.
	Clock rota.Clock
}

// NewRotaApp creates a fully wired RotaApp from the given config.
// The caller must call Close when done.
func NewRotaApp(cfg *config.Config, opts Options) (*RotaApp, error) {
	loc, err := loadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	authz, err := NewStaticAuthorizer(cfg.TenantID, cfg.Auth)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.TenantID)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date, run 'rota db migrate': %w", err)
	}

	logger, logFile, err := newLogger(cfg.LogDir, opts.Command, opts.Verbose)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	clock := opts.Clock
	if clock == nil {
		clock = rota.RealClock{}
	}

	svc := rota.NewRotaService(db, &slogAdapter{l: logger.With("tenant", cfg.TenantID)}, clock, rota.UUIDGenerator{}, rota.Options{
		Location:         loc,
		MaxExpansionDays: cfg.Scheduling.MaxExpansionDays,
	})

	return &RotaApp{
		cfg:     cfg,
		db:      db,
		service: svc,
		authz:   authz,
		clock:   clock,
		logFile: logFile,
	}, nil
}

// MigrateDatabase applies all pending migrations to the configured database.
func MigrateDatabase(cfg *config.Config) error {
	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.TenantID)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

// DatabaseStatus reports the schema version of the configured database.
func DatabaseStatus(cfg *config.Config) (migrations.Status, error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.TenantID)
	if err != nil {
		return migrations.Status{}, fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()
	return db.MigrationStatus()
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return loc, nil
}

// TenantID returns the configured tenant.
func (a *RotaApp) TenantID() string {
	return a.cfg.TenantID
}

// Location returns the scheduling timezone.
func (a *RotaApp) Location() *time.Location {
	return a.service.Location()
}

// DateRange parses an inclusive from/to pair in the scheduling timezone.
// An empty from means today; an empty to means six days after from.
func (a *RotaApp) DateRange(from, to string) (time.Time, time.Time, error) {
	loc := a.Location()

	var start time.Time
	if from == "" {
		now := a.clock.Now().In(loc)
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	} else {
		d, err := rota.ParseDate(from, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = d
	}

	if to == "" {
		return start, start.AddDate(0, 0, 6), nil
	}
	end, err := rota.ParseDate(to, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end date %s is before start date %s", rota.ErrInvalidInput, to, start.Format(rota.DateLayout))
	}
	return start, end, nil
}

// Staff

// AddStaff puts a user on a store roster.
func (a *RotaApp) AddStaff(ctx context.Context, storeID, userID, name string) (*model.StaffMember, error) {
	return a.service.AddStaffMember(ctx, a.cfg.TenantID, storeID, userID, name)
}

// SetStaffActive activates or deactivates a roster entry.
func (a *RotaApp) SetStaffActive(ctx context.Context, storeID, userID string, active bool) error {
	return a.service.SetStaffActive(ctx, a.cfg.TenantID, storeID, userID, active)
}

// ListStaff returns the active roster of a store.
func (a *RotaApp) ListStaff(ctx context.Context, storeID string) ([]*model.StaffMember, error) {
	return a.service.ListActiveStaff(ctx, a.cfg.TenantID, storeID)
}

// Templates

// TemplateParams holds raw CLI input for a shift template.
type TemplateParams struct {
	Name          string
	Pattern       string
	Days          string // "mon,wed,fri"
	StartTime     string
	EndTime       string
	RequiredStaff int
	BreakMinutes  int
	Skills        []string
	Slots         []string // "label=HH:MM-HH:MM[/N]"
}

// Build converts the params into a template for the configured tenant.
func (p TemplateParams) Build(tenantID string) (*model.ShiftTemplate, error) {
	days, err := rota.ParseWeekdays(p.Days)
	if err != nil {
		return nil, err
	}
	slots := make([]model.TimeSlot, 0, len(p.Slots))
	for _, raw := range p.Slots {
		slot, err := ParseSlot(raw, p.RequiredStaff)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return &model.ShiftTemplate{
		TenantID:      tenantID,
		Name:          p.Name,
		Pattern:       model.RecurrencePattern(strings.ToLower(p.Pattern)),
		DaysOfWeek:    days,
		StartTime:     p.StartTime,
		EndTime:       p.EndTime,
		RequiredStaff: p.RequiredStaff,
		BreakMinutes:  p.BreakMinutes,
		Skills:        p.Skills,
		Slots:         slots,
	}, nil
}

// ParseSlot parses "label=HH:MM-HH:MM" with an optional "/N" staff count.
// Without a count the slot requires defaultStaff.
func ParseSlot(raw string, defaultStaff int) (model.TimeSlot, error) {
	label, span, ok := strings.Cut(raw, "=")
	if !ok {
		return model.TimeSlot{}, fmt.Errorf("%w: slot %q must look like label=09:00-12:00", rota.ErrInvalidInput, raw)
	}

	required := defaultStaff
	if before, count, ok := strings.Cut(span, "/"); ok {
		n, err := strconv.Atoi(count)
		if err != nil {
			return model.TimeSlot{}, fmt.Errorf("%w: slot %q has an invalid staff count", rota.ErrInvalidInput, raw)
		}
		span, required = before, n
	}

	start, end, ok := strings.Cut(span, "-")
	if !ok {
		return model.TimeSlot{}, fmt.Errorf("%w: slot span %q must look like 09:00-12:00", rota.ErrInvalidInput, span)
	}
	return model.TimeSlot{
		Label:         strings.TrimSpace(label),
		StartTime:     strings.TrimSpace(start),
		EndTime:       strings.TrimSpace(end),
		RequiredStaff: required,
	}, nil
}

// CreateTemplate validates and stores a template.
func (a *RotaApp) CreateTemplate(ctx context.Context, p TemplateParams) (*model.ShiftTemplate, error) {
	tpl, err := p.Build(a.cfg.TenantID)
	if err != nil {
		return nil, err
	}
	return a.service.CreateTemplate(ctx, tpl)
}

// GetTemplate returns one template.
func (a *RotaApp) GetTemplate(ctx context.Context, id string) (*model.ShiftTemplate, error) {
	return a.service.GetTemplate(ctx, a.cfg.TenantID, id)
}

// ListTemplates returns the tenant's templates.
func (a *RotaApp) ListTemplates(ctx context.Context) ([]*model.ShiftTemplate, error) {
	return a.service.ListTemplates(ctx, a.cfg.TenantID)
}

// UpdateTemplate loads the template, lets edit change it and saves the result.
func (a *RotaApp) UpdateTemplate(ctx context.Context, id string, edit func(*model.ShiftTemplate) error) (*model.ShiftTemplate, error) {
	tpl, err := a.service.GetTemplate(ctx, a.cfg.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := edit(tpl); err != nil {
		return nil, err
	}
	return a.service.UpdateTemplate(ctx, tpl)
}

// ExpandTemplate generates shifts for storeID over the raw date range.
func (a *RotaApp) ExpandTemplate(ctx context.Context, templateID, storeID, from, to string) ([]*model.Shift, error) {
	start, end, err := a.DateRange(from, to)
	if err != nil {
		return nil, err
	}
	return a.service.ExpandTemplate(ctx, a.cfg.TenantID, templateID, storeID, start, end)
}

// Shifts

// ShiftParams holds raw CLI input for a directly created shift.
type ShiftParams struct {
	StoreID       string
	Date          string
	StartTime     string
	EndTime       string
	RequiredStaff int
	AssignedUsers []string
	Skills        []string
	Notes         string
}

// CreateShift stores a draft shift.
func (a *RotaApp) CreateShift(ctx context.Context, p ShiftParams) (*model.Shift, error) {
	day, err := rota.ParseDate(p.Date, a.Location())
	if err != nil {
		return nil, err
	}
	return a.service.CreateShift(ctx, rota.ShiftInput{
		TenantID:      a.cfg.TenantID,
		StoreID:       p.StoreID,
		Date:          day,
		StartTime:     p.StartTime,
		EndTime:       p.EndTime,
		RequiredStaff: p.RequiredStaff,
		AssignedUsers: p.AssignedUsers,
		Skills:        p.Skills,
		Notes:         p.Notes,
	})
}

// ListShifts returns the store's shifts over the raw date range.
func (a *RotaApp) ListShifts(ctx context.Context, storeID, from, to string) ([]*model.Shift, error) {
	start, end, err := a.DateRange(from, to)
	if err != nil {
		return nil, err
	}
	return a.service.ListShifts(ctx, a.cfg.TenantID, storeID, start, end)
}

// PublishShift moves a draft shift to published.
func (a *RotaApp) PublishShift(ctx context.Context, id string) (*model.Shift, error) {
	return a.service.PublishShift(ctx, a.cfg.TenantID, id)
}

// AssignUser adds a user to a shift and reports the conflicts that user now has.
func (a *RotaApp) AssignUser(ctx context.Context, shiftID, userID string) (*model.Shift, []model.Conflict, error) {
	shift, err := a.service.AssignUserToShift(ctx, a.cfg.TenantID, shiftID, userID)
	if err != nil {
		return nil, nil, err
	}
	conflicts, err := a.service.DetectConflicts(ctx, a.cfg.TenantID, shift.StoreID, rota.ConflictQuery{UserID: userID})
	if err != nil {
		return nil, nil, err
	}
	return shift, userConflicts(conflicts), nil
}

// UnassignUser removes a user from a shift.
func (a *RotaApp) UnassignUser(ctx context.Context, shiftID, userID string) (*model.Shift, error) {
	return a.service.RemoveUserFromShift(ctx, a.cfg.TenantID, shiftID, userID)
}

func userConflicts(conflicts []model.Conflict) []model.Conflict {
	out := []model.Conflict{}
	for _, c := range conflicts {
		if c.UserID != "" {
			out = append(out, c)
		}
	}
	return out
}

// Analysis

// Coverage returns hourly coverage buckets for the store over the raw date range.
func (a *RotaApp) Coverage(ctx context.Context, storeID, from, to string) ([]model.CoverageBucket, error) {
	start, end, err := a.DateRange(from, to)
	if err != nil {
		return nil, err
	}
	return a.service.GetCoverageAnalysis(ctx, a.cfg.TenantID, storeID, start, end)
}

// WriteCoverageReport renders coverage and every conflict for the range as a PDF.
func (a *RotaApp) WriteCoverageReport(ctx context.Context, w io.Writer, storeID, from, to string) error {
	start, end, err := a.DateRange(from, to)
	if err != nil {
		return err
	}
	buckets, err := a.service.GetCoverageAnalysis(ctx, a.cfg.TenantID, storeID, start, end)
	if err != nil {
		return err
	}
	conflicts, err := a.service.DetectConflicts(ctx, a.cfg.TenantID, storeID, rota.ConflictQuery{AllUsers: true, From: start, To: end})
	if err != nil {
		return err
	}
	return report.WriteCoveragePDF(w, report.CoverageReport{
		Title:     fmt.Sprintf("Coverage report: %s", a.cfg.TenantID),
		StoreID:   storeID,
		From:      start.Format(rota.DateLayout),
		To:        end.Format(rota.DateLayout),
		Buckets:   buckets,
		Conflicts: conflicts,
	})
}

// ConflictParams holds raw CLI input for conflict detection.
type ConflictParams struct {
	StoreID  string
	UserID   string
	AllUsers bool
	From     string
	To       string
}

// Conflicts runs conflict detection. Empty dates leave the range unbounded.
func (a *RotaApp) Conflicts(ctx context.Context, p ConflictParams) ([]model.Conflict, error) {
	q := rota.ConflictQuery{UserID: p.UserID, AllUsers: p.AllUsers}
	loc := a.Location()
	if p.From != "" {
		d, err := rota.ParseDate(p.From, loc)
		if err != nil {
			return nil, err
		}
		q.From = d
	}
	if p.To != "" {
		d, err := rota.ParseDate(p.To, loc)
		if err != nil {
			return nil, err
		}
		q.To = d
	}
	return a.service.DetectConflicts(ctx, a.cfg.TenantID, p.StoreID, q)
}

// AutoSchedule fills understaffed shifts over the raw date range.
func (a *RotaApp) AutoSchedule(ctx context.Context, storeID, from, to string, dryRun bool) (*rota.AutoScheduleResult, error) {
	start, end, err := a.DateRange(from, to)
	if err != nil {
		return nil, err
	}
	return a.service.AutoSchedule(ctx, a.cfg.TenantID, storeID, start, end, rota.AutoScheduleOptions{DryRun: dryRun})
}

// Time tracking

// userOrSelf falls back to the configured user.
func (a *RotaApp) userOrSelf(userID string) (string, error) {
	if userID != "" {
		return userID, nil
	}
	if a.cfg.Auth.UserID == "" {
		return "", fmt.Errorf("%w: no user given and auth.user_id is not set", rota.ErrInvalidInput)
	}
	return a.cfg.Auth.UserID, nil
}

// ClockIn opens a session for userID, or for the configured user when empty.
func (a *RotaApp) ClockIn(ctx context.Context, userID string, opts rota.ClockInOptions) (*model.TimeEntry, error) {
	user, err := a.userOrSelf(userID)
	if err != nil {
		return nil, err
	}
	return a.service.ClockIn(ctx, a.cfg.TenantID, user, opts)
}

// ClockOut closes a session.
func (a *RotaApp) ClockOut(ctx context.Context, entryID string) (*model.TimeEntry, error) {
	return a.service.ClockOut(ctx, a.cfg.TenantID, entryID)
}

// StartBreak begins a break on a session.
func (a *RotaApp) StartBreak(ctx context.Context, entryID string) (*model.TimeEntry, error) {
	return a.service.StartBreak(ctx, a.cfg.TenantID, entryID)
}

// EndBreak ends the running break on a session.
func (a *RotaApp) EndBreak(ctx context.Context, entryID string) (*model.TimeEntry, error) {
	return a.service.EndBreak(ctx, a.cfg.TenantID, entryID)
}

// ApproveEntry approves a closed entry as the configured user.
func (a *RotaApp) ApproveEntry(ctx context.Context, entryID string) (*model.TimeEntry, error) {
	approver, err := a.userOrSelf("")
	if err != nil {
		return nil, err
	}
	return a.service.ApproveTimeEntry(ctx, a.cfg.TenantID, entryID, approver)
}

// DisputeEntry marks an entry disputed.
func (a *RotaApp) DisputeEntry(ctx context.Context, entryID, reason string) (*model.TimeEntry, error) {
	return a.service.DisputeTimeEntry(ctx, a.cfg.TenantID, entryID, reason)
}

// EntryParams holds raw CLI input for listing time entries.
type EntryParams struct {
	As       string // caller; empty means the configured user
	UserIDs  []string
	StoreIDs []string
	Status   string
	From     string
	To       string
}

// ListEntries returns the entries visible to the caller. From and To are
// inclusive calendar dates on clock-in.
func (a *RotaApp) ListEntries(ctx context.Context, p EntryParams) ([]*model.TimeEntry, error) {
	scope, err := a.authz.Resolve(ctx, p.As)
	if err != nil {
		return nil, err
	}

	filter := model.TimeEntryFilter{
		UserIDs:  p.UserIDs,
		StoreIDs: p.StoreIDs,
		Status:   model.EntryStatus(p.Status),
	}
	loc := a.Location()
	if p.From != "" {
		d, err := rota.ParseDate(p.From, loc)
		if err != nil {
			return nil, err
		}
		from := d.UTC()
		filter.From = &from
	}
	if p.To != "" {
		d, err := rota.ParseDate(p.To, loc)
		if err != nil {
			return nil, err
		}
		to := d.AddDate(0, 0, 1).UTC()
		filter.To = &to
	}
	return a.service.ListTimeEntries(ctx, scope, filter)
}

// Backups

// Backup snapshots the database, encrypts it and stores it in the configured sink.
func (a *RotaApp) Backup(ctx context.Context) (string, error) {
	sink, err := backup.NewSinkFromConfig(ctx, a.cfg.Backup)
	if err != nil {
		return "", fmt.Errorf("creating backup sink: %w", err)
	}
	keys := backup.NewKeyring(a.cfg.Backup.PublicKeyPath, a.cfg.Backup.PrivateKeyPath)
	if !keys.Exists() {
		return "", fmt.Errorf("backup keys not found, run 'rota backup keygen'")
	}
	return backup.Run(ctx, a.db, keys, sink, a.cfg.TenantID, a.clock.Now())
}

// GenerateBackupKeys creates the backup key pair, protecting the private key
// with passphrase.
func GenerateBackupKeys(cfg *config.Config, passphrase string) error {
	keys := backup.NewKeyring(cfg.Backup.PublicKeyPath, cfg.Backup.PrivateKeyPath)
	return keys.Generate(passphrase)
}

// ListBackups returns the tenant's snapshots, oldest first.
func ListBackups(ctx context.Context, cfg *config.Config) ([]string, error) {
	sink, err := backup.NewSinkFromConfig(ctx, cfg.Backup)
	if err != nil {
		return nil, fmt.Errorf("creating backup sink: %w", err)
	}
	names, err := sink.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing backups: %w", err)
	}
	out := []string{}
	for _, n := range names {
		if strings.HasPrefix(n, cfg.TenantID+"-") && strings.HasSuffix(n, backup.SnapshotSuffix) {
			out = append(out, n)
		}
	}
	return out, nil
}

// RestoreBackup restores the named snapshot, or the latest when name is
// empty, into the tenant's database file. It returns the restored name.
func RestoreBackup(ctx context.Context, cfg *config.Config, name, passphrase string) (string, error) {
	dest, err := database.FilePath(cfg.Database, cfg.TenantID)
	if err != nil {
		return "", err
	}

	sink, err := backup.NewSinkFromConfig(ctx, cfg.Backup)
	if err != nil {
		return "", fmt.Errorf("creating backup sink: %w", err)
	}
	if name == "" {
		if name, err = backup.Latest(ctx, sink, cfg.TenantID); err != nil {
			return "", err
		}
	}

	keys := backup.NewKeyring(cfg.Backup.PublicKeyPath, cfg.Backup.PrivateKeyPath)
	unsealer, err := keys.Unlock(passphrase)
	if err != nil {
		return "", err
	}
	if err := backup.Restore(ctx, sink, unsealer, name, dest); err != nil {
		return "", err
	}
	return name, nil
}

// Close closes the database and the log file.
func (a *RotaApp) Close() error {
	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}
	return firstErr
}
