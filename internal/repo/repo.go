package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"eventhub/internal/model"
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrEventEnded       = errors.New("event has ended")
	ErrAlreadyApplied   = errors.New("user has already applied to this event")
	ErrNotApplied       = errors.New("user has not applied to this event")
	ErrCapacityExceeded = errors.New("event is at maximum capacity")
	ErrCapacityConflict = errors.New("max capacity below current application count")
	ErrUserNotFound     = errors.New("user not found")
	ErrDuplicateEmail   = errors.New("email is already registered")
	ErrTokenNotFound    = errors.New("activation token not found")
	ErrTokenExpired     = errors.New("activation token expired")
	ErrAlreadyActivated = errors.New("user is already activated")
	ErrTimeout          = errors.New("operation timed out")
)

type Repository interface {
	CreateEvent(ctx context.Context, e *model.Event) (int64, error)
	GetEventByID(ctx context.Context, id int64) (*model.Event, error)
	GetAllEvents(ctx context.Context, onlyPublished bool) ([]model.Event, error)
	GetJoinableEvents(ctx context.Context, userID int64) ([]model.Event, error)
	UpdateEventTx(ctx context.Context, id int64, e *model.Event) (*model.Event, error)
	DeleteEventTx(ctx context.Context, id int64) (*model.Event, []string, error)

	ApplyTx(ctx context.Context, userID, eventID int64) (*model.Event, error)
	UnapplyTx(ctx context.Context, userID, eventID int64) (*model.Event, error)
	GetEventsByUserID(ctx context.Context, userID int64) ([]model.Event, error)
	GetRosters(ctx context.Context) ([]model.Roster, error)

	CreateUser(ctx context.Context, u *model.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	CreateActivationToken(ctx context.Context, t *model.ActivationToken) error
	ActivateUserTx(ctx context.Context, tokenHash string) (*model.User, error)

	Subscribe(ctx context.Context, userID int64, category string) (bool, error)
	Unsubscribe(ctx context.Context, userID int64, category string) (bool, error)
	GetSubscriptions(ctx context.Context, userID int64) ([]model.Subscription, error)
	GetSubscriberEmails(ctx context.Context, category string) ([]string, error)

	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

// wrapErr maps context deadline expiry onto the retryable timeout sentinel.
func wrapErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *repository) begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr("begin transaction", err)
	}
	return tx, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

func (r *repository) MigrateDown(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read rollback file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations rolled back successfully from %s", migrationsDir)
	return nil
}
