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

const shiftColumns = `id, tenant_id, store_id, shift_date, start_at, end_at, required_staff,
	shift_type, template_id, skills, status, notes, created_at`

func (s *SQLiteDatabase) CreateShifts(ctx context.Context, shifts []*model.Shift) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, sh := range shifts {
		skills, err := encodeList(sh.Skills)
		if err != nil {
			return fmt.Errorf("encoding skills: %w", err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO shifts (`+shiftColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sh.ID, sh.TenantID, sh.StoreID, sh.Date, sh.StartAt.UTC(), sh.EndAt.UTC(), sh.RequiredStaff,
			string(sh.Type), nullString(sh.TemplateID), skills, string(sh.Status), sh.Notes, sh.CreatedAt.UTC())
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("inserting shift %s: %w", sh.ID, rota.ErrAlreadyExists)
			}
			return fmt.Errorf("inserting shift %s: %w", sh.Date, err)
		}
		for _, userID := range sh.AssignedUsers {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO shift_assignments (shift_id, user_id) VALUES (?, ?)`,
				sh.ID, userID); err != nil {
				return fmt.Errorf("assigning user %s: %w", userID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindShift(ctx context.Context, tenantID, id string) (*model.Shift, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shiftColumns+`
		FROM shifts WHERE tenant_id = ? AND id = ?`, tenantID, id)
	sh, err := scanShift(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding shift: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT shift_id, user_id FROM shift_assignments
		WHERE shift_id = ? ORDER BY rowid`, sh.ID)
	if err != nil {
		return nil, fmt.Errorf("finding assignments: %w", err)
	}
	if err := collectAssignments(rows, map[string]*model.Shift{sh.ID: sh}); err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *SQLiteDatabase) ListShifts(ctx context.Context, filter model.ShiftFilter) ([]*model.Shift, error) {
	where, args := shiftWhere(filter)

	rows, err := s.db.QueryContext(ctx, `SELECT `+shiftColumns+`
		FROM shifts WHERE `+where+` ORDER BY start_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing shifts: %w", err)
	}
	defer rows.Close()

	shifts := []*model.Shift{}
	byID := make(map[string]*model.Shift)
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning shift: %w", err)
		}
		shifts = append(shifts, sh)
		byID[sh.ID] = sh
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing shifts: %w", err)
	}
	rows.Close()

	if len(shifts) == 0 {
		return shifts, nil
	}

	arows, err := s.db.QueryContext(ctx, `SELECT a.shift_id, a.user_id FROM shift_assignments a
		WHERE a.shift_id IN (SELECT id FROM shifts WHERE `+where+`)
		ORDER BY a.rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing assignments: %w", err)
	}
	if err := collectAssignments(arows, byID); err != nil {
		return nil, err
	}
	return shifts, nil
}

func (s *SQLiteDatabase) UpdateShiftStatus(ctx context.Context, tenantID, id string, status model.ShiftStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE shifts SET status = ? WHERE tenant_id = ? AND id = ?`,
		string(status), tenantID, id)
	if err != nil {
		return fmt.Errorf("updating shift status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating shift status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("updating shift %s: %w", id, rota.ErrNotFound)
	}
	return nil
}

func (s *SQLiteDatabase) AddShiftAssignments(ctx context.Context, tenantID string, assignments []model.Assignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	// The SELECT yields no row for a shift of another tenant.
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO shift_assignments (shift_id, user_id)
		SELECT id, ? FROM shifts WHERE id = ? AND tenant_id = ?`)
	if err != nil {
		return fmt.Errorf("preparing assignment insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range assignments {
		if _, err := stmt.ExecContext(ctx, a.UserID, a.ShiftID, tenantID); err != nil {
			return fmt.Errorf("assigning user %s to shift %s: %w", a.UserID, a.ShiftID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) RemoveShiftAssignment(ctx context.Context, tenantID, shiftID, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM shift_assignments
		WHERE user_id = ? AND shift_id IN (SELECT id FROM shifts WHERE id = ? AND tenant_id = ?)`,
		userID, shiftID, tenantID)
	if err != nil {
		return fmt.Errorf("removing assignment: %w", err)
	}
	return nil
}

// shiftWhere builds the WHERE clause for a shift filter. Shift dates are
// stored as YYYY-MM-DD text so string comparison orders them correctly.
func shiftWhere(filter model.ShiftFilter) (string, []any) {
	clauses := []string{"tenant_id = ?"}
	args := []any{filter.TenantID}
	if filter.StoreID != "" {
		clauses = append(clauses, "store_id = ?")
		args = append(args, filter.StoreID)
	}
	if filter.From != "" {
		clauses = append(clauses, "shift_date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		clauses = append(clauses, "shift_date <= ?")
		args = append(args, filter.To)
	}
	if filter.UserID != "" {
		clauses = append(clauses, "id IN (SELECT shift_id FROM shift_assignments WHERE user_id = ?)")
		args = append(args, filter.UserID)
	}
	return strings.Join(clauses, " AND "), args
}

// collectAssignments appends each (shift_id, user_id) row to its shift and closes rows.
func collectAssignments(rows *sql.Rows, byID map[string]*model.Shift) error {
	defer rows.Close()
	for rows.Next() {
		var shiftID, userID string
		if err := rows.Scan(&shiftID, &userID); err != nil {
			return fmt.Errorf("scanning assignment: %w", err)
		}
		if sh, ok := byID[shiftID]; ok {
			sh.AssignedUsers = append(sh.AssignedUsers, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading assignments: %w", err)
	}
	return nil
}

func scanShift(row rowScanner) (*model.Shift, error) {
	var (
		sh         model.Shift
		shiftType  string
		templateID sql.NullString
		skills     string
		status     string
		startAt    time.Time
		endAt      time.Time
		createdAt  time.Time
	)
	if err := row.Scan(&sh.ID, &sh.TenantID, &sh.StoreID, &sh.Date, &startAt, &endAt, &sh.RequiredStaff,
		&shiftType, &templateID, &skills, &status, &sh.Notes, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if sh.Skills, err = decodeList[string](skills); err != nil {
		return nil, fmt.Errorf("decoding skills: %w", err)
	}
	sh.StartAt = startAt.UTC()
	sh.EndAt = endAt.UTC()
	sh.CreatedAt = createdAt.UTC()
	sh.Type = model.ShiftType(shiftType)
	sh.TemplateID = templateID.String
	sh.Status = model.ShiftStatus(status)
	sh.AssignedUsers = []string{}
	return &sh, nil
}
