package service

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"eventhub/internal/auth"
	"eventhub/internal/dto"
	"eventhub/internal/policy"
	"eventhub/internal/rabbit"
	"eventhub/internal/repo"
)

type Service interface {
	Register(ctx *ginext.Context)
	Login(ctx *ginext.Context)
	Activate(ctx *ginext.Context)
	ResendActivation(ctx *ginext.Context)
	GetMe(ctx *ginext.Context)

	GetAllEvents(ctx *ginext.Context)
	GetEvent(ctx *ginext.Context)
	GetJoinableEvents(ctx *ginext.Context)
	CreateEvent(ctx *ginext.Context)
	UpdateEvent(ctx *ginext.Context)
	DeleteEvent(ctx *ginext.Context)

	Apply(ctx *ginext.Context)
	Unapply(ctx *ginext.Context)
	GetMyEvents(ctx *ginext.Context)
	GetRosters(ctx *ginext.Context)

	Subscribe(ctx *ginext.Context)
	Unsubscribe(ctx *ginext.Context)
	GetMySubscriptions(ctx *ginext.Context)
}

type service struct {
	repo          repo.Repository
	log           *zerolog.Logger
	publisher     rabbit.Publisher
	jwt           *auth.JWTManager
	activationTTL time.Duration
}

func NewService(r repo.Repository, logger *zerolog.Logger, pub rabbit.Publisher, jwtm *auth.JWTManager, activationTTL time.Duration) Service {
	return &service{
		repo:          r,
		log:           logger,
		publisher:     pub,
		jwt:           jwtm,
		activationTTL: activationTTL,
	}
}

// callerFrom reads the identity the auth middleware resolved. Handlers behind
// RequireUser/RequireAdmin always find one.
func callerFrom(ctx *ginext.Context) (policy.Caller, bool) {
	v, ok := ctx.Get(policy.CallerContextKey)
	if !ok {
		return policy.Caller{}, false
	}
	caller, ok := v.(policy.Caller)
	return caller, ok
}

// notify publishes a notification message; delivery is best effort and never
// fails the request whose mutation already committed.
func (s *service) notify(msg dto.NotificationMessage) {
	msg.SentAt = time.Now()
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Str("kind", msg.Kind).Msg("failed to marshal notification")
		return
	}
	if err := s.publisher.Publish(payload); err != nil {
		s.log.Error().Err(err).Str("kind", msg.Kind).Msg("failed to publish notification")
	}
}

// respondRepoError maps ledger and catalog sentinels onto the error envelope.
func (s *service) respondRepoError(ctx *ginext.Context, err error) {
	switch {
	case errors.Is(err, repo.ErrTimeout):
		dto.TimeoutError(ctx)
	case errors.Is(err, repo.ErrEventNotFound):
		dto.EventNotFoundError(ctx)
	case errors.Is(err, repo.ErrEventEnded):
		dto.NotFoundError(ctx, dto.EventNotFound, "Event is not joinable")
	case errors.Is(err, repo.ErrAlreadyApplied):
		dto.ConflictError(ctx, dto.AlreadyApplied, "You have already applied to this event")
	case errors.Is(err, repo.ErrNotApplied):
		dto.ConflictError(ctx, dto.NotApplied, "You have not applied to this event")
	case errors.Is(err, repo.ErrCapacityExceeded):
		dto.ConflictError(ctx, dto.CapacityExceeded, "Event is at maximum capacity")
	case errors.Is(err, repo.ErrCapacityConflict):
		dto.ConflictError(ctx, dto.CapacityConflict, "Max capacity cannot drop below the current number of applications")
	case errors.Is(err, repo.ErrUserNotFound):
		dto.NotFoundError(ctx, dto.NotFound, "User not found")
	case errors.Is(err, repo.ErrTokenNotFound):
		dto.BadResponseError(ctx, dto.InvalidToken, "Activation token is invalid")
	case errors.Is(err, repo.ErrTokenExpired):
		dto.BadResponseError(ctx, dto.ExpiredToken, "Activation token has expired")
	case errors.Is(err, repo.ErrAlreadyActivated):
		dto.ConflictError(ctx, dto.AlreadyActivated, "Account is already activated")
	default:
		s.log.Error().Err(err).Msg("unexpected repository error")
		dto.InternalServerError(ctx)
	}
}
