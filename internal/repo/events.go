package repo

import (
	"context"
	"database/sql"
	"errors"

	"eventhub/internal/model"
)

// querier is satisfied by both *dbpg.DB and *sql.Tx so relation loading
// works inside and outside transactions.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const eventColumns = `
	id, name, type, date, description,
	address, city, state, country,
	status, min_capacity, max_capacity, number_of_applications,
	created_at, updated_at
`

func scanEvent(row interface{ Scan(dest ...any) error }) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Name, &e.Type, &e.Date, &e.Description,
		&e.Location.Address, &e.Location.City, &e.Location.State, &e.Location.Country,
		&e.Status, &e.MinCapacity, &e.MaxCapacity, &e.NumberOfApplications,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) loadEventRelations(ctx context.Context, q querier, e *model.Event) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, event_id, name, email, phone, role
		FROM organizers
		WHERE event_id = $1
		ORDER BY id
	`, e.ID)
	if err != nil {
		return wrapErr("load organizers", err)
	}
	defer rows.Close()

	e.Organizers = e.Organizers[:0]
	for rows.Next() {
		var o model.Organizer
		if err := rows.Scan(&o.ID, &o.EventID, &o.Name, &o.Email, &o.Phone, &o.Role); err != nil {
			return wrapErr("scan organizer", err)
		}
		e.Organizers = append(e.Organizers, o)
	}
	if err := rows.Err(); err != nil {
		return wrapErr("load organizers", err)
	}

	usherRows, err := q.QueryContext(ctx, `
		SELECT name FROM ushers WHERE event_id = $1 ORDER BY id
	`, e.ID)
	if err != nil {
		return wrapErr("load ushers", err)
	}
	defer usherRows.Close()

	e.Ushers = e.Ushers[:0]
	for usherRows.Next() {
		var name string
		if err := usherRows.Scan(&name); err != nil {
			return wrapErr("scan usher", err)
		}
		e.Ushers = append(e.Ushers, name)
	}
	return usherRows.Err()
}

func (r *repository) insertEventRelations(ctx context.Context, tx *sql.Tx, e *model.Event) error {
	for _, o := range e.Organizers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO organizers (event_id, name, email, phone, role)
			VALUES ($1, $2, $3, $4, $5)
		`, e.ID, o.Name, o.Email, o.Phone, o.Role); err != nil {
			return wrapErr("insert organizer", err)
		}
	}
	for _, name := range e.Ushers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ushers (event_id, name) VALUES ($1, $2)
		`, e.ID, name); err != nil {
			return wrapErr("insert usher", err)
		}
	}
	return nil
}

func (r *repository) CreateEvent(ctx context.Context, e *model.Event) (int64, error) {
	tx, err := r.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if e.Status == "" {
		e.Status = model.StatusDraft
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO events (name, type, date, description,
			address, city, state, country,
			status, min_capacity, max_capacity, number_of_applications)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0)
		RETURNING id, created_at, updated_at
	`,
		e.Name, e.Type, e.Date, e.Description,
		e.Location.Address, e.Location.City, e.Location.State, e.Location.Country,
		e.Status, e.MinCapacity, e.MaxCapacity,
	)
	if err := row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		_ = tx.Rollback()
		return 0, wrapErr("insert event", err)
	}

	if err := r.insertEventRelations(ctx, tx, e); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, wrapErr("commit event", err)
	}
	e.NumberOfApplications = 0
	return e.ID, nil
}

func (r *repository) GetEventByID(ctx context.Context, id int64) (*model.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)

	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, wrapErr("get event", err)
	}
	if err := r.loadEventRelations(ctx, r.db, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *repository) queryEvents(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("query events", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, wrapErr("scan event", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("query events", err)
	}

	for i := range events {
		if err := r.loadEventRelations(ctx, r.db, &events[i]); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func (r *repository) GetAllEvents(ctx context.Context, onlyPublished bool) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY date ASC`
	if onlyPublished {
		query = `SELECT ` + eventColumns + ` FROM events WHERE status = 'PUBLISHED' ORDER BY date ASC`
	}
	return r.queryEvents(ctx, query)
}

// GetJoinableEvents lists published, future-dated events the user has no
// active application for.
func (r *repository) GetJoinableEvents(ctx context.Context, userID int64) ([]model.Event, error) {
	return r.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE status = 'PUBLISHED'
		  AND date > NOW()
		  AND id NOT IN (SELECT event_id FROM applications WHERE user_id = $1)
		ORDER BY date ASC
	`, userID)
}

// UpdateEventTx rewrites the catalog fields of an event. The row is locked
// so the capacity-shrink check and the ledger's admission path serialize on
// the same boundary; the application counter is never taken from e.
func (r *repository) UpdateEventTx(ctx context.Context, id int64, e *model.Event) (*model.Event, error) {
	tx, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var liveCount int
	err = tx.QueryRowContext(ctx, `
		SELECT number_of_applications FROM events WHERE id = $1 FOR UPDATE
	`, id).Scan(&liveCount)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, wrapErr("lock event", err)
	}

	if e.MaxCapacity < liveCount {
		_ = tx.Rollback()
		return nil, ErrCapacityConflict
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE events
		SET name = $1, type = $2, date = $3, description = $4,
		    address = $5, city = $6, state = $7, country = $8,
		    status = $9, min_capacity = $10, max_capacity = $11,
		    updated_at = NOW()
		WHERE id = $12
	`,
		e.Name, e.Type, e.Date, e.Description,
		e.Location.Address, e.Location.City, e.Location.State, e.Location.Country,
		e.Status, e.MinCapacity, e.MaxCapacity, id,
	); err != nil {
		_ = tx.Rollback()
		return nil, wrapErr("update event", err)
	}

	// Organizer and usher lists are owned by the event; replace them wholesale.
	if _, err := tx.ExecContext(ctx, `DELETE FROM organizers WHERE event_id = $1`, id); err != nil {
		_ = tx.Rollback()
		return nil, wrapErr("delete organizers", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ushers WHERE event_id = $1`, id); err != nil {
		_ = tx.Rollback()
		return nil, wrapErr("delete ushers", err)
	}
	e.ID = id
	if err := r.insertEventRelations(ctx, tx, e); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr("commit event update", err)
	}
	return r.GetEventByID(ctx, id)
}

// DeleteEventTx removes the event and returns the applicant emails so the
// caller can notify them. Applications, organizers and ushers cascade.
func (r *repository) DeleteEventTx(ctx context.Context, id int64) (*model.Event, []string, error) {
	tx, err := r.begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	row := tx.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
	e, err := scanEvent(row)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrEventNotFound
		}
		return nil, nil, wrapErr("lock event", err)
	}

	emails, err := applicantEmails(ctx, tx, id)
	if err != nil {
		_ = tx.Rollback()
		return nil, nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		_ = tx.Rollback()
		return nil, nil, wrapErr("delete event", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, wrapErr("commit event delete", err)
	}

	return e, emails, nil
}

func applicantEmails(ctx context.Context, q querier, eventID int64) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT u.email
		FROM applications a
		JOIN users u ON u.id = a.user_id
		WHERE a.event_id = $1
		ORDER BY a.applied_at ASC
	`, eventID)
	if err != nil {
		return nil, wrapErr("query applicants", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, wrapErr("scan applicant", err)
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}
