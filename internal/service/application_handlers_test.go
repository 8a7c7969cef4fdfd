package service

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/dto"
	"eventhub/internal/model"
	"eventhub/internal/repo"
)

func TestApplyAdmitsAndNotifies(t *testing.T) {
	event := publishedEvent(5)
	r := &stubRepo{
		applyTx: func(_ context.Context, userID, eventID int64) (*model.Event, error) {
			assert.Equal(t, int64(7), userID)
			assert.Equal(t, int64(5), eventID)
			admitted := *event
			admitted.NumberOfApplications++
			return &admitted, nil
		},
	}
	pub := &fakePublisher{}
	svc := newTestService(r, pub)

	c, w := newTestContext(t, http.MethodPost, "/v1/events/5/apply", nil)
	setCaller(c, member())
	setParam(c, "id", "5")
	svc.Apply(c)

	require.Equal(t, http.StatusCreated, w.Code)
	env := decodeEnvelope(t, w)
	resp := decodeData[dto.EventResponse](t, env)
	assert.Equal(t, 11, resp.NumberOfApplications)
	assert.Equal(t, 89, resp.AvailableSeats)

	msgs := pub.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, dto.NotifyApplicationCreated, msgs[0].Kind)
	assert.Equal(t, []string{"ada@example.com"}, msgs[0].Emails)
	assert.Equal(t, "Go Meetup", msgs[0].EventName)
}

func TestApplyWithoutCaller(t *testing.T) {
	svc := newTestService(&stubRepo{}, &fakePublisher{})

	c, w := newTestContext(t, http.MethodPost, "/v1/events/5/apply", nil)
	setParam(c, "id", "5")
	svc.Apply(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApplyRejectsBadEventID(t *testing.T) {
	svc := newTestService(&stubRepo{}, &fakePublisher{})

	for _, raw := range []string{"abc", "0", "-3"} {
		c, w := newTestContext(t, http.MethodPost, "/v1/events/"+raw+"/apply", nil)
		setCaller(c, member())
		setParam(c, "id", raw)
		svc.Apply(c)

		require.Equal(t, http.StatusBadRequest, w.Code, "id %q", raw)
	}
}

func TestApplyErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		repoErr    error
		wantStatus int
		wantCode   string
	}{
		{"unknown event", repo.ErrEventNotFound, http.StatusNotFound, dto.EventNotFound},
		{"ended event", repo.ErrEventEnded, http.StatusNotFound, dto.EventNotFound},
		{"duplicate application", repo.ErrAlreadyApplied, http.StatusConflict, dto.AlreadyApplied},
		{"full event", repo.ErrCapacityExceeded, http.StatusConflict, dto.CapacityExceeded},
		{"slow storage", repo.ErrTimeout, http.StatusGatewayTimeout, dto.Timeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &stubRepo{
				applyTx: func(context.Context, int64, int64) (*model.Event, error) {
					return nil, tt.repoErr
				},
			}
			pub := &fakePublisher{}
			svc := newTestService(r, pub)

			c, w := newTestContext(t, http.MethodPost, "/v1/events/5/apply", nil)
			setCaller(c, member())
			setParam(c, "id", "5")
			svc.Apply(c)

			require.Equal(t, tt.wantStatus, w.Code)
			env := decodeEnvelope(t, w)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.Empty(t, pub.messages(), "no notification on a failed admission")
		})
	}
}

// TestApplyConcurrentAdmission drives many simultaneous applications against
// an event with limited seats and checks that exactly that many succeed.
func TestApplyConcurrentAdmission(t *testing.T) {
	const seats = 5
	const applicants = 50

	var mu sync.Mutex
	admitted := 0

	r := &stubRepo{
		applyTx: func(_ context.Context, userID, eventID int64) (*model.Event, error) {
			mu.Lock()
			defer mu.Unlock()
			if admitted >= seats {
				return nil, repo.ErrCapacityExceeded
			}
			admitted++
			event := publishedEvent(5)
			event.MaxCapacity = seats
			event.NumberOfApplications = admitted
			return event, nil
		},
	}
	svc := newTestService(r, &fakePublisher{})

	var wg sync.WaitGroup
	statuses := make([]int, applicants)
	for i := 0; i < applicants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			caller := member()
			caller.UserID = int64(100 + i)
			c, w := newTestContext(t, http.MethodPost, "/v1/events/5/apply", nil)
			setCaller(c, caller)
			setParam(c, "id", "5")
			svc.Apply(c)
			statuses[i] = w.Code
		}(i)
	}
	wg.Wait()

	created, conflicts := 0, 0
	for _, code := range statuses {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	assert.Equal(t, seats, created)
	assert.Equal(t, applicants-seats, conflicts)
	assert.Equal(t, seats, admitted)
}

// TestApplySeatRecycling walks one seat through apply, a rejected overflow,
// unapply and a successful retry, with a stateful ledger behind the handlers.
func TestApplySeatRecycling(t *testing.T) {
	const capacity = 2

	var mu sync.Mutex
	applied := map[int64]bool{}
	counter := 1 // one seat already taken by someone else

	r := &stubRepo{
		applyTx: func(_ context.Context, userID, eventID int64) (*model.Event, error) {
			mu.Lock()
			defer mu.Unlock()
			if applied[userID] {
				return nil, repo.ErrAlreadyApplied
			}
			if counter >= capacity {
				return nil, repo.ErrCapacityExceeded
			}
			applied[userID] = true
			counter++
			event := publishedEvent(5)
			event.MaxCapacity = capacity
			event.NumberOfApplications = counter
			return event, nil
		},
		unapplyTx: func(_ context.Context, userID, eventID int64) (*model.Event, error) {
			mu.Lock()
			defer mu.Unlock()
			if !applied[userID] {
				return nil, repo.ErrNotApplied
			}
			delete(applied, userID)
			counter--
			event := publishedEvent(5)
			event.MaxCapacity = capacity
			event.NumberOfApplications = counter
			return event, nil
		},
	}
	svc := newTestService(r, &fakePublisher{})

	apply := func(userID int64) int {
		caller := member()
		caller.UserID = userID
		c, w := newTestContext(t, http.MethodPost, "/v1/events/5/apply", nil)
		setCaller(c, caller)
		setParam(c, "id", "5")
		svc.Apply(c)
		return w.Code
	}
	unapply := func(userID int64) int {
		caller := member()
		caller.UserID = userID
		c, w := newTestContext(t, http.MethodDelete, "/v1/events/5/unapply", nil)
		setCaller(c, caller)
		setParam(c, "id", "5")
		svc.Unapply(c)
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, apply(101), "first applicant takes the last seat")
	assert.Equal(t, http.StatusConflict, apply(102), "full event rejects the second applicant")
	assert.Equal(t, http.StatusConflict, apply(101), "repeat apply is a ledger conflict")
	assert.Equal(t, http.StatusOK, unapply(101), "seat released")
	assert.Equal(t, http.StatusCreated, apply(102), "released seat is admittable again")
	assert.Equal(t, capacity, counter)
}

func TestUnapplyReleasesSeatAndNotifies(t *testing.T) {
	event := publishedEvent(5)
	r := &stubRepo{
		unapplyTx: func(_ context.Context, userID, eventID int64) (*model.Event, error) {
			released := *event
			released.NumberOfApplications--
			return &released, nil
		},
	}
	pub := &fakePublisher{}
	svc := newTestService(r, pub)

	c, w := newTestContext(t, http.MethodDelete, "/v1/events/5/unapply", nil)
	setCaller(c, member())
	setParam(c, "id", "5")
	svc.Unapply(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	resp := decodeData[dto.EventResponse](t, env)
	assert.Equal(t, 9, resp.NumberOfApplications)

	msgs := pub.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, dto.NotifyApplicationRemoved, msgs[0].Kind)
}

func TestUnapplyWithoutApplication(t *testing.T) {
	r := &stubRepo{
		unapplyTx: func(context.Context, int64, int64) (*model.Event, error) {
			return nil, repo.ErrNotApplied
		},
	}
	svc := newTestService(r, &fakePublisher{})

	c, w := newTestContext(t, http.MethodDelete, "/v1/events/5/unapply", nil)
	setCaller(c, member())
	setParam(c, "id", "5")
	svc.Unapply(c)

	require.Equal(t, http.StatusConflict, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.NotApplied, env.Error.Code)
}

func TestGetMyEvents(t *testing.T) {
	r := &stubRepo{
		getEventsByUserID: func(_ context.Context, userID int64) ([]model.Event, error) {
			assert.Equal(t, int64(7), userID)
			return []model.Event{*publishedEvent(5)}, nil
		},
	}
	svc := newTestService(r, &fakePublisher{})

	c, w := newTestContext(t, http.MethodGet, "/v1/eventapps/user", nil)
	setCaller(c, member())
	svc.GetMyEvents(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	events := decodeData[[]dto.EventResponse](t, env)
	require.Len(t, events, 1)
	assert.Equal(t, int64(5), events[0].ID)
}

func TestGetRosters(t *testing.T) {
	event := publishedEvent(5)
	r := &stubRepo{
		getRosters: func(context.Context) ([]model.Roster, error) {
			return []model.Roster{{
				Event:     *event,
				Attendees: []string{"ada@example.com", "bob@example.com"},
			}}, nil
		},
	}
	svc := newTestService(r, &fakePublisher{})

	c, w := newTestContext(t, http.MethodGet, "/v1/eventApps", nil)
	setCaller(c, adminCaller())
	svc.GetRosters(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	rosters := decodeData[[]dto.RosterResponse](t, env)
	require.Len(t, rosters, 1)
	assert.Equal(t, int64(5), rosters[0].Event.ID)
	assert.Equal(t, []string{"ada@example.com", "bob@example.com"}, rosters[0].Attendees)
}
