package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"aulanet/internal/core/domain"
)

type CalendarRepository struct {
	db *sql.DB
}

func NewCalendarRepository(db *sql.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

func (r *CalendarRepository) Create(ctx context.Context, event *domain.CalendarEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO calendar_events (start_time, end_time, title, comment, call_key, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		fmtTime(event.StartTime), fmtTime(event.EndTime), event.Title, event.Comment, event.CallKey, string(event.Status))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert event id: %w", err)
	}
	event.ID = id

	for _, p := range event.Participants {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO event_participants (event_id, user_id, role) VALUES (?, ?, ?)`,
			id, p.UserID, string(p.Role)); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}
	return tx.Commit()
}

func (r *CalendarRepository) GetByID(ctx context.Context, id int64) (*domain.CalendarEvent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, start_time, end_time, title, comment, call_key, status
		 FROM calendar_events WHERE id = ?`, id)

	event, err := scanEvent(row.Scan)
	if err != nil {
		return nil, err
	}
	if event.Participants, err = r.ListParticipants(ctx, id); err != nil {
		return nil, err
	}
	return event, nil
}

func scanEvent(scan func(...interface{}) error) (*domain.CalendarEvent, error) {
	var event domain.CalendarEvent
	var start, end string
	err := scan(&event.ID, &start, &end, &event.Title, &event.Comment, &event.CallKey, &event.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	if event.StartTime, err = parseTime(start); err != nil {
		return nil, fmt.Errorf("parse event start: %w", err)
	}
	if event.EndTime, err = parseTime(end); err != nil {
		return nil, fmt.Errorf("parse event end: %w", err)
	}
	return &event, nil
}

func (r *CalendarRepository) List(ctx context.Context) ([]*domain.CalendarEvent, error) {
	return r.listWhere(ctx,
		`SELECT id, start_time, end_time, title, comment, call_key, status
		 FROM calendar_events ORDER BY start_time`)
}

func (r *CalendarRepository) ListByUser(ctx context.Context, id domain.UserID) ([]*domain.CalendarEvent, error) {
	return r.listWhere(ctx,
		`SELECT e.id, e.start_time, e.end_time, e.title, e.comment, e.call_key, e.status
		 FROM calendar_events e
		 JOIN event_participants p ON p.event_id = e.id
		 WHERE p.user_id = ? ORDER BY e.start_time`, id)
}

func (r *CalendarRepository) listWhere(ctx context.Context, query string, args ...interface{}) ([]*domain.CalendarEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.CalendarEvent, 0)
	for rows.Next() {
		event, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, event := range out {
		if event.Participants, err = r.ListParticipants(ctx, event.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *CalendarRepository) Update(ctx context.Context, event *domain.CalendarEvent) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE calendar_events SET start_time = ?, end_time = ?, title = ?, comment = ?, status = ?
		 WHERE id = ?`,
		fmtTime(event.StartTime), fmtTime(event.EndTime), event.Title, event.Comment, string(event.Status), event.ID)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if n == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *CalendarRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *CalendarRepository) HasOverlap(ctx context.Context, user domain.UserID, start, end time.Time, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM calendar_events e
			JOIN event_participants p ON p.event_id = e.id
			WHERE p.user_id = ? AND e.id != ? AND e.start_time < ? AND e.end_time > ?
		 )`,
		user, excludeID, fmtTime(end), fmtTime(start)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("overlap check: %w", err)
	}
	return exists, nil
}

func (r *CalendarRepository) CallKeyExists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM calendar_events WHERE call_key = ?)`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("call key exists: %w", err)
	}
	return exists, nil
}

func (r *CalendarRepository) AddParticipant(ctx context.Context, eventID int64, p domain.EventParticipant) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM calendar_events WHERE id = ?)`, eventID).Scan(&exists); err != nil {
		return fmt.Errorf("event exists: %w", err)
	}
	if !exists {
		return domain.ErrEventNotFound
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO event_participants (event_id, user_id, role) VALUES (?, ?, ?)`,
		eventID, p.UserID, string(p.Role))
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (r *CalendarRepository) RemoveParticipant(ctx context.Context, eventID int64, user domain.UserID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM event_participants WHERE event_id = ? AND user_id = ?`, eventID, user)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	return nil
}

func (r *CalendarRepository) ListParticipants(ctx context.Context, eventID int64) ([]domain.EventParticipant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.user_id, p.role, u.name, u.email
		 FROM event_participants p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.event_id = ? ORDER BY p.user_id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	out := make([]domain.EventParticipant, 0)
	for rows.Next() {
		var p domain.EventParticipant
		if err := rows.Scan(&p.UserID, &p.Role, &p.Name, &p.Email); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
