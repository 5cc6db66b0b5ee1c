package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"rota-go/internal/model"
	"rota-go/internal/rota"
)

const timeEntryColumns = `id, tenant_id, user_id, store_id, clock_in, clock_out, break_minutes,
	break_duration, break_started_at, is_on_break, total_minutes, net_minutes, status, notes,
	dispute_reason, approved_by, approved_at, created_at, updated_at`

func (s *SQLiteDatabase) CreateTimeEntry(ctx context.Context, e *model.TimeEntry) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO time_entries (`+timeEntryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.TenantID, e.UserID, e.StoreID, e.ClockIn.UTC(), nullTime(e.ClockOut), e.BreakMinutes,
		e.BreakDuration, nullTime(e.BreakStartedAt), boolInt(e.IsOnBreak), e.TotalMinutes, e.NetMinutes,
		string(e.Status), e.Notes, e.DisputeReason, e.ApprovedBy, nullTime(e.ApprovedAt),
		e.CreatedAt.UTC(), e.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("inserting time entry for %s: %w", e.UserID, rota.ErrAlreadyExists)
		}
		return fmt.Errorf("inserting time entry: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindTimeEntry(ctx context.Context, tenantID, id string) (*model.TimeEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+timeEntryColumns+`
		FROM time_entries WHERE tenant_id = ? AND id = ?`, tenantID, id)
	e, err := scanTimeEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding time entry: %w", err)
	}
	return e, nil
}

func (s *SQLiteDatabase) FindOpenTimeEntry(ctx context.Context, tenantID, userID string) (*model.TimeEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+timeEntryColumns+`
		FROM time_entries
		WHERE tenant_id = ? AND user_id = ? AND status = 'active' AND clock_out IS NULL
		ORDER BY clock_in DESC LIMIT 1`, tenantID, userID)
	e, err := scanTimeEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding open time entry: %w", err)
	}
	return e, nil
}

func (s *SQLiteDatabase) UpdateTimeEntry(ctx context.Context, e *model.TimeEntry) error {
	res, err := s.db.ExecContext(ctx, `UPDATE time_entries
		SET store_id = ?, clock_out = ?, break_minutes = ?, break_duration = ?, break_started_at = ?,
		    is_on_break = ?, total_minutes = ?, net_minutes = ?, status = ?, notes = ?,
		    dispute_reason = ?, approved_by = ?, approved_at = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`,
		e.StoreID, nullTime(e.ClockOut), e.BreakMinutes, e.BreakDuration, nullTime(e.BreakStartedAt),
		boolInt(e.IsOnBreak), e.TotalMinutes, e.NetMinutes, string(e.Status), e.Notes,
		e.DisputeReason, e.ApprovedBy, nullTime(e.ApprovedAt), e.UpdatedAt.UTC(),
		e.TenantID, e.ID)
	if err != nil {
		return fmt.Errorf("updating time entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating time entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("updating time entry %s: %w", e.ID, rota.ErrNotFound)
	}
	return nil
}

func (s *SQLiteDatabase) ListTimeEntries(ctx context.Context, filter model.TimeEntryFilter) ([]*model.TimeEntry, error) {
	if (filter.UserIDs != nil && len(filter.UserIDs) == 0) || (filter.StoreIDs != nil && len(filter.StoreIDs) == 0) {
		return []*model.TimeEntry{}, nil
	}

	clauses := []string{"tenant_id = ?"}
	args := []any{filter.TenantID}
	if len(filter.UserIDs) > 0 {
		clauses = append(clauses, "user_id IN ("+placeholders(len(filter.UserIDs))+")")
		for _, id := range filter.UserIDs {
			args = append(args, id)
		}
	}
	if len(filter.StoreIDs) > 0 {
		clauses = append(clauses, "store_id IN ("+placeholders(len(filter.StoreIDs))+")")
		for _, id := range filter.StoreIDs {
			args = append(args, id)
		}
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.From != nil {
		clauses = append(clauses, "clock_in >= ?")
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		clauses = append(clauses, "clock_in < ?")
		args = append(args, filter.To.UTC())
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+timeEntryColumns+`
		FROM time_entries WHERE `+strings.Join(clauses, " AND ")+`
		ORDER BY clock_in, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing time entries: %w", err)
	}
	defer rows.Close()

	entries := []*model.TimeEntry{}
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning time entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing time entries: %w", err)
	}
	return entries, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func scanTimeEntry(row rowScanner) (*model.TimeEntry, error) {
	var (
		e              model.TimeEntry
		clockIn        time.Time
		clockOut       sql.NullTime
		breakStartedAt sql.NullTime
		isOnBreak      int
		status         string
		approvedAt     sql.NullTime
		createdAt      time.Time
		updatedAt      time.Time
	)
	if err := row.Scan(&e.ID, &e.TenantID, &e.UserID, &e.StoreID, &clockIn, &clockOut, &e.BreakMinutes,
		&e.BreakDuration, &breakStartedAt, &isOnBreak, &e.TotalMinutes, &e.NetMinutes, &status, &e.Notes,
		&e.DisputeReason, &e.ApprovedBy, &approvedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.ClockIn = clockIn.UTC()
	e.ClockOut = timePtr(clockOut)
	e.BreakStartedAt = timePtr(breakStartedAt)
	e.IsOnBreak = isOnBreak != 0
	e.Status = model.EntryStatus(status)
	e.ApprovedAt = timePtr(approvedAt)
	e.CreatedAt = createdAt.UTC()
	e.UpdatedAt = updatedAt.UTC()
	return &e, nil
}
