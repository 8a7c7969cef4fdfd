package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"

	"eventhub/internal/auth"
	"eventhub/internal/dto"
	"eventhub/internal/model"
	"eventhub/internal/policy"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubRepo lets each test wire only the repository calls it expects.
type stubRepo struct {
	createEvent       func(ctx context.Context, e *model.Event) (int64, error)
	getEventByID      func(ctx context.Context, id int64) (*model.Event, error)
	getAllEvents      func(ctx context.Context, onlyPublished bool) ([]model.Event, error)
	getJoinableEvents func(ctx context.Context, userID int64) ([]model.Event, error)
	updateEventTx     func(ctx context.Context, id int64, e *model.Event) (*model.Event, error)
	deleteEventTx     func(ctx context.Context, id int64) (*model.Event, []string, error)

	applyTx           func(ctx context.Context, userID, eventID int64) (*model.Event, error)
	unapplyTx         func(ctx context.Context, userID, eventID int64) (*model.Event, error)
	getEventsByUserID func(ctx context.Context, userID int64) ([]model.Event, error)
	getRosters        func(ctx context.Context) ([]model.Roster, error)

	createUser            func(ctx context.Context, u *model.User) (int64, error)
	getUserByEmail        func(ctx context.Context, email string) (*model.User, error)
	getUserByID           func(ctx context.Context, id int64) (*model.User, error)
	createActivationToken func(ctx context.Context, t *model.ActivationToken) error
	activateUserTx        func(ctx context.Context, tokenHash string) (*model.User, error)

	subscribe           func(ctx context.Context, userID int64, category string) (bool, error)
	unsubscribe         func(ctx context.Context, userID int64, category string) (bool, error)
	getSubscriptions    func(ctx context.Context, userID int64) ([]model.Subscription, error)
	getSubscriberEmails func(ctx context.Context, category string) ([]string, error)
}

func (s *stubRepo) CreateEvent(ctx context.Context, e *model.Event) (int64, error) {
	if s.createEvent == nil {
		panic("unexpected call: CreateEvent")
	}
	return s.createEvent(ctx, e)
}

func (s *stubRepo) GetEventByID(ctx context.Context, id int64) (*model.Event, error) {
	if s.getEventByID == nil {
		panic("unexpected call: GetEventByID")
	}
	return s.getEventByID(ctx, id)
}

func (s *stubRepo) GetAllEvents(ctx context.Context, onlyPublished bool) ([]model.Event, error) {
	if s.getAllEvents == nil {
		panic("unexpected call: GetAllEvents")
	}
	return s.getAllEvents(ctx, onlyPublished)
}

func (s *stubRepo) GetJoinableEvents(ctx context.Context, userID int64) ([]model.Event, error) {
	if s.getJoinableEvents == nil {
		panic("unexpected call: GetJoinableEvents")
	}
	return s.getJoinableEvents(ctx, userID)
}

func (s *stubRepo) UpdateEventTx(ctx context.Context, id int64, e *model.Event) (*model.Event, error) {
	if s.updateEventTx == nil {
		panic("unexpected call: UpdateEventTx")
	}
	return s.updateEventTx(ctx, id, e)
}

func (s *stubRepo) DeleteEventTx(ctx context.Context, id int64) (*model.Event, []string, error) {
	if s.deleteEventTx == nil {
		panic("unexpected call: DeleteEventTx")
	}
	return s.deleteEventTx(ctx, id)
}

func (s *stubRepo) ApplyTx(ctx context.Context, userID, eventID int64) (*model.Event, error) {
	if s.applyTx == nil {
		panic("unexpected call: ApplyTx")
	}
	return s.applyTx(ctx, userID, eventID)
}

func (s *stubRepo) UnapplyTx(ctx context.Context, userID, eventID int64) (*model.Event, error) {
	if s.unapplyTx == nil {
		panic("unexpected call: UnapplyTx")
	}
	return s.unapplyTx(ctx, userID, eventID)
}

func (s *stubRepo) GetEventsByUserID(ctx context.Context, userID int64) ([]model.Event, error) {
	if s.getEventsByUserID == nil {
		panic("unexpected call: GetEventsByUserID")
	}
	return s.getEventsByUserID(ctx, userID)
}

func (s *stubRepo) GetRosters(ctx context.Context) ([]model.Roster, error) {
	if s.getRosters == nil {
		panic("unexpected call: GetRosters")
	}
	return s.getRosters(ctx)
}

func (s *stubRepo) CreateUser(ctx context.Context, u *model.User) (int64, error) {
	if s.createUser == nil {
		panic("unexpected call: CreateUser")
	}
	return s.createUser(ctx, u)
}

func (s *stubRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if s.getUserByEmail == nil {
		panic("unexpected call: GetUserByEmail")
	}
	return s.getUserByEmail(ctx, email)
}

func (s *stubRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	if s.getUserByID == nil {
		panic("unexpected call: GetUserByID")
	}
	return s.getUserByID(ctx, id)
}

func (s *stubRepo) CreateActivationToken(ctx context.Context, t *model.ActivationToken) error {
	if s.createActivationToken == nil {
		panic("unexpected call: CreateActivationToken")
	}
	return s.createActivationToken(ctx, t)
}

func (s *stubRepo) ActivateUserTx(ctx context.Context, tokenHash string) (*model.User, error) {
	if s.activateUserTx == nil {
		panic("unexpected call: ActivateUserTx")
	}
	return s.activateUserTx(ctx, tokenHash)
}

func (s *stubRepo) Subscribe(ctx context.Context, userID int64, category string) (bool, error) {
	if s.subscribe == nil {
		panic("unexpected call: Subscribe")
	}
	return s.subscribe(ctx, userID, category)
}

func (s *stubRepo) Unsubscribe(ctx context.Context, userID int64, category string) (bool, error) {
	if s.unsubscribe == nil {
		panic("unexpected call: Unsubscribe")
	}
	return s.unsubscribe(ctx, userID, category)
}

func (s *stubRepo) GetSubscriptions(ctx context.Context, userID int64) ([]model.Subscription, error) {
	if s.getSubscriptions == nil {
		panic("unexpected call: GetSubscriptions")
	}
	return s.getSubscriptions(ctx, userID)
}

func (s *stubRepo) GetSubscriberEmails(ctx context.Context, category string) ([]string, error) {
	if s.getSubscriberEmails == nil {
		panic("unexpected call: GetSubscriberEmails")
	}
	return s.getSubscriberEmails(ctx, category)
}

func (s *stubRepo) MigrateUp(string) error   { return nil }
func (s *stubRepo) MigrateDown(string) error { return nil }

// fakePublisher records what would have gone to the notification queue.
type fakePublisher struct {
	mu   sync.Mutex
	sent []dto.NotificationMessage
}

func (p *fakePublisher) Publish(message []byte) error {
	var msg dto.NotificationMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)
	return nil
}

func (p *fakePublisher) messages() []dto.NotificationMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]dto.NotificationMessage(nil), p.sent...)
}

func newTestService(r *stubRepo, pub *fakePublisher) Service {
	log := zerolog.Nop()
	jwtm := auth.NewJWTManager("test-secret", time.Hour, "event-hub")
	return NewService(r, &log, pub, jwtm, 72*time.Hour)
}

func newTestContext(t *testing.T, method, target string, body any) (*ginext.Context, *httptest.ResponseRecorder) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	c.Request = httptest.NewRequest(method, target, &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func setCaller(c *ginext.Context, caller policy.Caller) {
	c.Set(policy.CallerContextKey, caller)
}

func setParam(c *ginext.Context, key, value string) {
	c.Params = append(c.Params, gin.Param{Key: key, Value: value})
}

type envelope struct {
	Status string          `json:"status"`
	Error  *dto.Error      `json:"error"`
	Data   json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func member() policy.Caller {
	return policy.Caller{
		UserID:        7,
		Name:          "Ada Lovelace",
		Email:         "ada@example.com",
		IsActivated:   true,
		Authenticated: true,
	}
}

func adminCaller() policy.Caller {
	return policy.Caller{
		UserID:        1,
		Name:          "Root",
		Email:         "root@example.com",
		IsAdmin:       true,
		IsActivated:   true,
		Authenticated: true,
	}
}

func publishedEvent(id int64) *model.Event {
	return &model.Event{
		ID:          id,
		Name:        "Go Meetup",
		Type:        model.TypeMeetup,
		Date:        time.Now().Add(48 * time.Hour),
		Description: "Monthly meetup",
		Location: model.Location{
			Address: "1 Main St",
			City:    "Springfield",
			State:   "IL",
			Country: "USA",
		},
		Status:               model.StatusPublished,
		MinCapacity:          5,
		MaxCapacity:          100,
		NumberOfApplications: 10,
		Organizers:           []model.Organizer{{Name: "Org", Email: "org@example.com"}},
	}
}
