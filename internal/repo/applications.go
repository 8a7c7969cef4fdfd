package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventhub/internal/model"
)

// ApplyTx admits one application under the capacity invariant. The event row
// is locked for the whole check-and-increment so concurrent applies against
// the same event serialize; applies against different events do not contend.
func (r *repository) ApplyTx(ctx context.Context, userID, eventID int64) (*model.Event, error) {
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

	row := tx.QueryRowContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE id = $1
		FOR UPDATE
	`, eventID)
	event, err := scanEvent(row)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, wrapErr("lock event", err)
	}

	if event.Status != model.StatusPublished {
		_ = tx.Rollback()
		return nil, ErrEventNotFound
	}

	if event.Date.Before(time.Now()) {
		_ = tx.Rollback()
		return nil, ErrEventEnded
	}

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM applications WHERE event_id = $1 AND user_id = $2
		)
	`, eventID, userID).Scan(&exists)
	if err != nil {
		_ = tx.Rollback()
		return nil, wrapErr("check existing application", err)
	}
	if exists {
		_ = tx.Rollback()
		return nil, ErrAlreadyApplied
	}

	if event.NumberOfApplications >= event.MaxCapacity {
		_ = tx.Rollback()
		return nil, ErrCapacityExceeded
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO applications (event_id, user_id, applied_at)
		VALUES ($1, $2, NOW())
	`, eventID, userID); err != nil {
		_ = tx.Rollback()
		return nil, wrapErr("insert application", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE events
		SET number_of_applications = number_of_applications + 1, updated_at = NOW()
		WHERE id = $1
	`, eventID); err != nil {
		_ = tx.Rollback()
		return nil, wrapErr("increment counter", err)
	}

	if err := r.loadEventRelations(ctx, tx, event); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr("commit apply", err)
	}

	event.NumberOfApplications++
	return event, nil
}

// UnapplyTx removes the application and decrements the counter in the same
// transaction. A second call for the same pair fails with ErrNotApplied.
func (r *repository) UnapplyTx(ctx context.Context, userID, eventID int64) (*model.Event, error) {
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

	row := tx.QueryRowContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE id = $1
		FOR UPDATE
	`, eventID)
	event, err := scanEvent(row)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, wrapErr("lock event", err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM applications WHERE event_id = $1 AND user_id = $2
	`, eventID, userID)
	if err != nil {
		_ = tx.Rollback()
		return nil, wrapErr("delete application", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return nil, wrapErr("delete application", err)
	}
	if affected == 0 {
		_ = tx.Rollback()
		return nil, ErrNotApplied
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE events
		SET number_of_applications = number_of_applications - 1, updated_at = NOW()
		WHERE id = $1
	`, eventID); err != nil {
		_ = tx.Rollback()
		return nil, wrapErr("decrement counter", err)
	}

	if err := r.loadEventRelations(ctx, tx, event); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr("commit unapply", err)
	}

	event.NumberOfApplications--
	return event, nil
}

// GetEventsByUserID returns the events the user holds an active application for.
func (r *repository) GetEventsByUserID(ctx context.Context, userID int64) ([]model.Event, error) {
	return r.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE id IN (SELECT event_id FROM applications WHERE user_id = $1)
		ORDER BY date ASC
	`, userID)
}

// GetRosters returns every event with its applicant emails, for the admin view.
func (r *repository) GetRosters(ctx context.Context) ([]model.Roster, error) {
	events, err := r.GetAllEvents(ctx, false)
	if err != nil {
		return nil, err
	}

	rosters := make([]model.Roster, 0, len(events))
	for _, e := range events {
		emails, err := applicantEmails(ctx, r.db, e.ID)
		if err != nil {
			return nil, err
		}
		rosters = append(rosters, model.Roster{Event: e, Attendees: emails})
	}
	return rosters, nil
}
