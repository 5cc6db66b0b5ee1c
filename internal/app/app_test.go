package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rota-go/internal/config"
	"rota-go/internal/rota"
	"rota-go/internal/testutil"
)

func newTestConfig(t *testing.T, dbType string) *config.Config {
	t.Helper()
	cfg := config.NewConfig("acme", t.TempDir())
	cfg.Database.Type = dbType
	cfg.Auth = config.AuthConfig{UserID: "manager", Scope: "tenant", HRAccess: true}
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) (*RotaApp, *testutil.StubClock) {
	t.Helper()
	clock := testutil.FixedClock()
	a, err := NewRotaApp(cfg, Options{Command: "test", Clock: clock})
	if err != nil {
		t.Fatalf("NewRotaApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, clock
}

func TestNewRotaApp(t *testing.T) {
	t.Run("unknown timezone", func(t *testing.T) {
		cfg := newTestConfig(t, "memory")
		cfg.Timezone = "Mars/Olympus_Mons"
		if _, err := NewRotaApp(cfg, Options{}); err == nil {
			t.Error("NewRotaApp() expected error for unknown timezone")
		}
	})

	t.Run("unmigrated sqlite database", func(t *testing.T) {
		cfg := newTestConfig(t, "sqlite")
		if _, err := NewRotaApp(cfg, Options{}); err == nil {
			t.Error("NewRotaApp() expected error for unmigrated database")
		}
	})

	t.Run("migrated sqlite database", func(t *testing.T) {
		cfg := newTestConfig(t, "sqlite")
		if err := MigrateDatabase(cfg); err != nil {
			t.Fatalf("MigrateDatabase() error = %v", err)
		}
		a, _ := newTestApp(t, cfg)
		if a.TenantID() != "acme" {
			t.Errorf("TenantID() = %q, want acme", a.TenantID())
		}
		if _, err := os.Stat(filepath.Join(cfg.LogDir, "rota.log")); err != nil {
			t.Errorf("log file not created: %v", err)
		}
	})
}

func TestRotaApp_DateRange(t *testing.T) {
	a, _ := newTestApp(t, newTestConfig(t, "memory"))

	tests := []struct {
		name     string
		from, to string
		want     [2]string
		wantErr  bool
	}{
		{"defaults to this week", "", "", [2]string{"2024-01-15", "2024-01-21"}, false},
		{"explicit range", "2024-02-01", "2024-02-03", [2]string{"2024-02-01", "2024-02-03"}, false},
		{"from only", "2024-02-01", "", [2]string{"2024-02-01", "2024-02-07"}, false},
		{"reversed", "2024-02-03", "2024-02-01", [2]string{}, true},
		{"bad date", "02/01/2024", "", [2]string{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := a.DateRange(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DateRange() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			got := [2]string{from.Format(rota.DateLayout), to.Format(rota.DateLayout)}
			if got != tt.want {
				t.Errorf("DateRange() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSlot(t *testing.T) {
	tests := []struct {
		raw       string
		wantLabel string
		wantStart string
		wantEnd   string
		wantStaff int
		wantErr   bool
	}{
		{"Opening=09:00-12:00", "Opening", "09:00", "12:00", 2, false},
		{"Rush=12:00-14:00/4", "Rush", "12:00", "14:00", 4, false},
		{"09:00-12:00", "", "", "", 0, true},
		{"Late=22:00", "", "", "", 0, true},
		{"Rush=12:00-14:00/x", "", "", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseSlot(tt.raw, 2)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSlot() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, rota.ErrInvalidInput) {
					t.Errorf("ParseSlot() error = %v, want ErrInvalidInput", err)
				}
				return
			}
			if got.Label != tt.wantLabel || got.StartTime != tt.wantStart || got.EndTime != tt.wantEnd || got.RequiredStaff != tt.wantStaff {
				t.Errorf("ParseSlot() = %+v", got)
			}
		})
	}
}

func TestRotaApp_schedulingFlow(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, newTestConfig(t, "memory"))

	tpl, err := a.CreateTemplate(ctx, TemplateParams{
		Name:          "Weekday open",
		Pattern:       "weekly",
		Days:          "mon,tue,wed",
		StartTime:     "09:00",
		EndTime:       "13:00",
		RequiredStaff: 2,
		Slots:         []string{"Open=09:00-11:00", "Rush=11:00-13:00/3"},
	})
	if err != nil {
		t.Fatalf("CreateTemplate() error = %v", err)
	}
	if len(tpl.Slots) != 2 || tpl.Slots[1].RequiredStaff != 3 {
		t.Errorf("CreateTemplate() slots = %+v", tpl.Slots)
	}

	shifts, err := a.ExpandTemplate(ctx, tpl.ID, "store-1", "2024-01-15", "2024-01-21")
	if err != nil {
		t.Fatalf("ExpandTemplate() error = %v", err)
	}
	if len(shifts) != 3 {
		t.Fatalf("ExpandTemplate() = %d shifts, want 3", len(shifts))
	}

	for _, u := range []string{"alice", "bob"} {
		if _, err := a.AddStaff(ctx, "store-1", u, u); err != nil {
			t.Fatalf("AddStaff(%s) error = %v", u, err)
		}
	}

	result, err := a.AutoSchedule(ctx, "store-1", "2024-01-15", "2024-01-21", false)
	if err != nil {
		t.Fatalf("AutoSchedule() error = %v", err)
	}
	if result.Stats.AssignmentsMade != 6 || result.Stats.StillUnderstaffed != 0 {
		t.Errorf("AutoSchedule() stats = %+v", result.Stats)
	}

	buckets, err := a.Coverage(ctx, "store-1", "2024-01-15", "2024-01-15")
	if err != nil {
		t.Fatalf("Coverage() error = %v", err)
	}
	if len(buckets) != 4 {
		t.Errorf("Coverage() = %d buckets, want 4", len(buckets))
	}

	var pdf bytes.Buffer
	if err := a.WriteCoverageReport(ctx, &pdf, "store-1", "2024-01-15", "2024-01-21"); err != nil {
		t.Fatalf("WriteCoverageReport() error = %v", err)
	}
	if !bytes.HasPrefix(pdf.Bytes(), []byte("%PDF-")) {
		t.Error("WriteCoverageReport() did not write a PDF")
	}
}

func TestRotaApp_AssignUserReportsConflicts(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, newTestConfig(t, "memory"))

	late, err := a.CreateShift(ctx, ShiftParams{StoreID: "store-1", Date: "2024-01-15", StartTime: "14:00", EndTime: "23:00", RequiredStaff: 1})
	if err != nil {
		t.Fatalf("CreateShift() error = %v", err)
	}
	early, err := a.CreateShift(ctx, ShiftParams{StoreID: "store-1", Date: "2024-01-16", StartTime: "06:00", EndTime: "12:00", RequiredStaff: 1})
	if err != nil {
		t.Fatalf("CreateShift() error = %v", err)
	}

	if _, conflicts, err := a.AssignUser(ctx, late.ID, "alice"); err != nil || len(conflicts) != 0 {
		t.Fatalf("AssignUser() conflicts = %v, err = %v", conflicts, err)
	}
	_, conflicts, err := a.AssignUser(ctx, early.ID, "alice")
	if err != nil {
		t.Fatalf("AssignUser() error = %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].UserID != "alice" {
		t.Errorf("AssignUser() conflicts = %+v, want one rest conflict", conflicts)
	}
}

func TestRotaApp_timeTracking(t *testing.T) {
	ctx := context.Background()
	a, clock := newTestApp(t, newTestConfig(t, "memory"))

	entry, err := a.ClockIn(ctx, "", rota.ClockInOptions{StoreID: "store-1", Notes: "opening"})
	if err != nil {
		t.Fatalf("ClockIn() error = %v", err)
	}
	if entry.UserID != "manager" {
		t.Errorf("ClockIn() user = %q, want configured user", entry.UserID)
	}

	clock.Advance(8 * time.Hour)
	if _, err := a.ClockOut(ctx, entry.ID); err != nil {
		t.Fatalf("ClockOut() error = %v", err)
	}
	approved, err := a.ApproveEntry(ctx, entry.ID)
	if err != nil {
		t.Fatalf("ApproveEntry() error = %v", err)
	}
	if approved.ApprovedBy != "manager" {
		t.Errorf("ApprovedBy = %q, want manager", approved.ApprovedBy)
	}

	if _, err := a.ClockIn(ctx, "alice", rota.ClockInOptions{StoreID: "store-1"}); err != nil {
		t.Fatalf("ClockIn(alice) error = %v", err)
	}

	t.Run("tenant scope sees everything with notes", func(t *testing.T) {
		entries, err := a.ListEntries(ctx, EntryParams{From: "2024-01-15", To: "2024-01-15"})
		if err != nil {
			t.Fatalf("ListEntries() error = %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("ListEntries() = %d entries, want 2", len(entries))
		}
		if entries[0].Notes == "" {
			t.Error("ListEntries() redacted notes for an HR caller")
		}
	})

	t.Run("other caller sees own entries only", func(t *testing.T) {
		entries, err := a.ListEntries(ctx, EntryParams{As: "alice"})
		if err != nil {
			t.Fatalf("ListEntries() error = %v", err)
		}
		if len(entries) != 1 || entries[0].UserID != "alice" {
			t.Errorf("ListEntries(as alice) = %+v", entries)
		}
	})

	t.Run("date filter excludes other days", func(t *testing.T) {
		entries, err := a.ListEntries(ctx, EntryParams{From: "2024-01-16"})
		if err != nil {
			t.Fatalf("ListEntries() error = %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("ListEntries() = %d entries, want 0", len(entries))
		}
	})
}

func TestBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t, "sqlite")

	if err := GenerateBackupKeys(cfg, "correct horse"); err != nil {
		t.Fatalf("GenerateBackupKeys() error = %v", err)
	}
	if err := MigrateDatabase(cfg); err != nil {
		t.Fatalf("MigrateDatabase() error = %v", err)
	}

	a, err := NewRotaApp(cfg, Options{Clock: testutil.FixedClock()})
	if err != nil {
		t.Fatalf("NewRotaApp() error = %v", err)
	}
	if _, err := a.AddStaff(ctx, "store-1", "alice", "Alice"); err != nil {
		t.Fatalf("AddStaff() error = %v", err)
	}
	name, err := a.Backup(ctx)
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	a.Close()

	names, err := ListBackups(ctx, cfg)
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(names) != 1 || names[0] != name {
		t.Fatalf("ListBackups() = %v, want [%s]", names, name)
	}

	dbPath := filepath.Join(cfg.Database.DataDir, "acme.db")
	if _, err := RestoreBackup(ctx, cfg, "", "correct horse"); err == nil {
		t.Fatal("RestoreBackup() overwrote an existing database")
	}
	if err := os.Remove(dbPath); err != nil {
		t.Fatalf("removing database: %v", err)
	}
	if _, err := RestoreBackup(ctx, cfg, "", "wrong"); err == nil {
		t.Fatal("RestoreBackup() accepted a wrong passphrase")
	}

	restored, err := RestoreBackup(ctx, cfg, "", "correct horse")
	if err != nil {
		t.Fatalf("RestoreBackup() error = %v", err)
	}
	if restored != name {
		t.Errorf("RestoreBackup() = %q, want %q", restored, name)
	}

	b, _ := newTestApp(t, cfg)
	staff, err := b.ListStaff(ctx, "store-1")
	if err != nil {
		t.Fatalf("ListStaff() error = %v", err)
	}
	if len(staff) != 1 || staff[0].UserID != "alice" {
		t.Errorf("ListStaff() after restore = %+v", staff)
	}
}

func TestDatabaseStatus(t *testing.T) {
	cfg := newTestConfig(t, "sqlite")

	st, err := DatabaseStatus(cfg)
	if err != nil {
		t.Fatalf("DatabaseStatus() error = %v", err)
	}
	if st.Pending() == 0 {
		t.Errorf("DatabaseStatus() before migrate = %+v, want pending migrations", st)
	}

	if err := MigrateDatabase(cfg); err != nil {
		t.Fatalf("MigrateDatabase() error = %v", err)
	}
	st, err = DatabaseStatus(cfg)
	if err != nil {
		t.Fatalf("DatabaseStatus() error = %v", err)
	}
	if st.Pending() != 0 || st.Current != st.Latest {
		t.Errorf("DatabaseStatus() after migrate = %+v", st)
	}
}
