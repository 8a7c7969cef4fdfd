package repo

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/dbpg"

	"eventhub/internal/model"
)

// newMockRepo wires the repository to a sqlmock master so the transaction
// choreography can be asserted without a live Postgres.
func newMockRepo(t *testing.T) (*repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := zerolog.Nop()
	return &repository{db: &dbpg.DB{Master: db}, log: &log}, mock
}

var eventCols = []string{
	"id", "name", "type", "date", "description",
	"address", "city", "state", "country",
	"status", "min_capacity", "max_capacity", "number_of_applications",
	"created_at", "updated_at",
}

type eventRow struct {
	id      int64
	status  model.EventStatus
	date    time.Time
	counter int
	max     int
}

func eventRows(r eventRow) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(eventCols).AddRow(
		r.id, "Go Meetup", "MEETUP", r.date, "Monthly meetup",
		"1 Main St", "Springfield", "IL", "USA",
		string(r.status), 0, r.max, r.counter,
		now, now,
	)
}

func expectRelationLoad(mock sqlmock.Sqlmock, eventID int64) {
	mock.ExpectQuery(`FROM organizers`).WithArgs(eventID).WillReturnRows(
		sqlmock.NewRows([]string{"id", "event_id", "name", "email", "phone", "role"}).
			AddRow(1, eventID, "Org", "org@example.com", "", ""),
	)
	mock.ExpectQuery(`FROM ushers`).WithArgs(eventID).WillReturnRows(
		sqlmock.NewRows([]string{"name"}).AddRow("Usher One"),
	)
}
