package repo

import (
	"context"

	"eventhub/internal/model"
)

// Subscribe inserts the membership if absent. The bool reports whether a new
// row was created; subscribing twice is a no-op, not an error.
func (r *repository) Subscribe(ctx context.Context, userID int64, category string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (user_id, category)
		VALUES ($1, $2)
		ON CONFLICT (user_id, category) DO NOTHING
	`, userID, category)
	if err != nil {
		return false, wrapErr("insert subscription", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("insert subscription", err)
	}
	return affected > 0, nil
}

func (r *repository) Unsubscribe(ctx context.Context, userID int64, category string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM subscriptions WHERE user_id = $1 AND category = $2
	`, userID, category)
	if err != nil {
		return false, wrapErr("delete subscription", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("delete subscription", err)
	}
	return affected > 0, nil
}

func (r *repository) GetSubscriptions(ctx context.Context, userID int64) ([]model.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, category, created_at
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, wrapErr("query subscriptions", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		var s model.Subscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.Category, &s.CreatedAt); err != nil {
			return nil, wrapErr("scan subscription", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// GetSubscriberEmails resolves the mailing list for a category. Subscribers
// to "general" receive every category's announcements.
func (r *repository) GetSubscriberEmails(ctx context.Context, category string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT u.email
		FROM subscriptions s
		JOIN users u ON u.id = s.user_id
		WHERE s.category = $1 OR s.category = $2
	`, category, model.GeneralCategory)
	if err != nil {
		return nil, wrapErr("query subscribers", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, wrapErr("scan subscriber", err)
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}
