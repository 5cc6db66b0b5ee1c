package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rota-go/internal/model"
	"rota-go/internal/rota"
)

const templateColumns = `id, tenant_id, name, pattern, days_of_week, start_time, end_time,
	required_staff, break_minutes, skills, created_at, updated_at`

func (s *SQLiteDatabase) CreateShiftTemplate(ctx context.Context, tpl *model.ShiftTemplate) error {
	days, err := encodeList(tpl.DaysOfWeek)
	if err != nil {
		return fmt.Errorf("encoding days of week: %w", err)
	}
	skills, err := encodeList(tpl.Skills)
	if err != nil {
		return fmt.Errorf("encoding skills: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO shift_templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tpl.ID, tpl.TenantID, tpl.Name, string(tpl.Pattern), days, tpl.StartTime, tpl.EndTime,
		tpl.RequiredStaff, tpl.BreakMinutes, skills, tpl.CreatedAt.UTC(), tpl.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("inserting shift template %s: %w", tpl.ID, rota.ErrAlreadyExists)
		}
		return fmt.Errorf("inserting shift template: %w", err)
	}

	if err := insertSlots(ctx, tx, tpl); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindShiftTemplate(ctx context.Context, tenantID, id string) (*model.ShiftTemplate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+templateColumns+`
		FROM shift_templates WHERE tenant_id = ? AND id = ?`, tenantID, id)
	tpl, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding shift template: %w", err)
	}

	slots, err := s.findSlots(ctx, tpl.ID)
	if err != nil {
		return nil, err
	}
	tpl.Slots = slots
	return tpl, nil
}

func (s *SQLiteDatabase) ListShiftTemplates(ctx context.Context, tenantID string) ([]*model.ShiftTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+templateColumns+`
		FROM shift_templates WHERE tenant_id = ? ORDER BY name, id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing shift templates: %w", err)
	}
	defer rows.Close()

	tpls := []*model.ShiftTemplate{}
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning shift template: %w", err)
		}
		tpls = append(tpls, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing shift templates: %w", err)
	}
	rows.Close()

	for _, tpl := range tpls {
		slots, err := s.findSlots(ctx, tpl.ID)
		if err != nil {
			return nil, err
		}
		tpl.Slots = slots
	}
	return tpls, nil
}

func (s *SQLiteDatabase) UpdateShiftTemplate(ctx context.Context, tpl *model.ShiftTemplate) error {
	days, err := encodeList(tpl.DaysOfWeek)
	if err != nil {
		return fmt.Errorf("encoding days of week: %w", err)
	}
	skills, err := encodeList(tpl.Skills)
	if err != nil {
		return fmt.Errorf("encoding skills: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE shift_templates
		SET name = ?, pattern = ?, days_of_week = ?, start_time = ?, end_time = ?,
		    required_staff = ?, break_minutes = ?, skills = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`,
		tpl.Name, string(tpl.Pattern), days, tpl.StartTime, tpl.EndTime,
		tpl.RequiredStaff, tpl.BreakMinutes, skills, tpl.UpdatedAt.UTC(),
		tpl.TenantID, tpl.ID)
	if err != nil {
		return fmt.Errorf("updating shift template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating shift template: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("updating shift template %s: %w", tpl.ID, rota.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM time_slots WHERE template_id = ?`, tpl.ID); err != nil {
		return fmt.Errorf("deleting time slots: %w", err)
	}
	if err := insertSlots(ctx, tx, tpl); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertSlots(ctx context.Context, tx *sql.Tx, tpl *model.ShiftTemplate) error {
	for _, slot := range tpl.Slots {
		_, err := tx.ExecContext(ctx, `INSERT INTO time_slots
			(id, template_id, position, label, start_time, end_time, required_staff)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			slot.ID, tpl.ID, slot.Position, slot.Label, slot.StartTime, slot.EndTime, slot.RequiredStaff)
		if err != nil {
			return fmt.Errorf("inserting time slot %d: %w", slot.Position, err)
		}
	}
	return nil
}

func (s *SQLiteDatabase) findSlots(ctx context.Context, templateID string) ([]model.TimeSlot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, template_id, position, label, start_time, end_time, required_staff
		FROM time_slots WHERE template_id = ? ORDER BY position`, templateID)
	if err != nil {
		return nil, fmt.Errorf("finding time slots: %w", err)
	}
	defer rows.Close()

	slots := []model.TimeSlot{}
	for rows.Next() {
		var slot model.TimeSlot
		if err := rows.Scan(&slot.ID, &slot.TemplateID, &slot.Position, &slot.Label,
			&slot.StartTime, &slot.EndTime, &slot.RequiredStaff); err != nil {
			return nil, fmt.Errorf("scanning time slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("finding time slots: %w", err)
	}
	return slots, nil
}

func scanTemplate(row rowScanner) (*model.ShiftTemplate, error) {
	var (
		tpl       model.ShiftTemplate
		pattern   string
		days      string
		skills    string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&tpl.ID, &tpl.TenantID, &tpl.Name, &pattern, &days, &tpl.StartTime, &tpl.EndTime,
		&tpl.RequiredStaff, &tpl.BreakMinutes, &skills, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if tpl.DaysOfWeek, err = decodeList[time.Weekday](days); err != nil {
		return nil, fmt.Errorf("decoding days of week: %w", err)
	}
	if tpl.Skills, err = decodeList[string](skills); err != nil {
		return nil, fmt.Errorf("decoding skills: %w", err)
	}
	tpl.Pattern = model.RecurrencePattern(pattern)
	tpl.CreatedAt = createdAt.UTC()
	tpl.UpdatedAt = updatedAt.UTC()
	return &tpl, nil
}
