package service

import (
	"errors"
	"fmt"

	"github.com/wb-go/wbf/ginext"
	"golang.org/x/crypto/bcrypt"

	"eventhub/internal/auth"
	"eventhub/internal/dto"
	"eventhub/internal/model"
	"eventhub/internal/repo"
	"eventhub/pkg/validator"
)

func (s *service) Register(ctx *ginext.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash password")
		dto.InternalServerError(ctx)
		return
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
	}

	if _, err := s.repo.CreateUser(ctx.Request.Context(), user); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			dto.BadResponseError(ctx, dto.FieldIncorrect, "Email is already registered")
			return
		}
		s.respondRepoError(ctx, err)
		return
	}

	plaintext, token, err := auth.NewActivationToken(user.ID, s.activationTTL)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to generate activation token")
		dto.InternalServerError(ctx)
		return
	}
	if err := s.repo.CreateActivationToken(ctx.Request.Context(), token); err != nil {
		s.respondRepoError(ctx, err)
		return
	}

	s.notify(dto.NotificationMessage{
		Kind:      dto.NotifyActivation,
		Emails:    []string{user.Email},
		Token:     plaintext,
		ExpiresAt: token.ExpiresAt,
	})

	s.log.Info().Int64("user_id", user.ID).Msg("user registered")
	dto.SuccessCreatedResponse(ctx, dto.NewUserResponse(user))
}

// ResendActivation issues a fresh token for an account whose activation mail
// was lost, or whose registration committed before the first token could be
// stored.
func (s *service) ResendActivation(ctx *ginext.Context) {
	var req dto.ResendActivationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	user, err := s.repo.GetUserByEmail(ctx.Request.Context(), req.Email)
	if err != nil {
		s.respondRepoError(ctx, err)
		return
	}

	if user.IsActivated {
		dto.ConflictError(ctx, dto.AlreadyActivated, "Account is already activated")
		return
	}

	plaintext, token, err := auth.NewActivationToken(user.ID, s.activationTTL)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to generate activation token")
		dto.InternalServerError(ctx)
		return
	}
	if err := s.repo.CreateActivationToken(ctx.Request.Context(), token); err != nil {
		s.respondRepoError(ctx, err)
		return
	}

	s.notify(dto.NotificationMessage{
		Kind:      dto.NotifyActivation,
		Emails:    []string{user.Email},
		Token:     plaintext,
		ExpiresAt: token.ExpiresAt,
	})

	s.log.Info().Int64("user_id", user.ID).Msg("activation token reissued")
	dto.SuccessResponse(ctx, map[string]string{
		"message": "Activation token sent to " + user.Email,
	})
}

func (s *service) Login(ctx *ginext.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	user, err := s.repo.GetUserByEmail(ctx.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			dto.UnauthorizedError(ctx, "Invalid email or password")
			return
		}
		s.respondRepoError(ctx, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		dto.UnauthorizedError(ctx, "Invalid email or password")
		return
	}

	token, err := s.jwt.Generate(user)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to sign session token")
		dto.InternalServerError(ctx)
		return
	}

	// The browser client reads non-secret claims out of this cookie for UI
	// gating; authorization is still re-checked server-side on every call.
	ctx.SetCookie("token", token, int(s.jwt.Expiry().Seconds()), "/", "", false, false)

	s.log.Info().Int64("user_id", user.ID).Msg("user logged in")
	dto.SuccessResponse(ctx, dto.LoginResponse{
		Token: token,
		User:  dto.NewUserResponse(user),
	})
}

func (s *service) Activate(ctx *ginext.Context) {
	plaintext := ctx.Param("token")
	if plaintext == "" {
		dto.BadResponseError(ctx, dto.InvalidToken, "Activation token is required")
		return
	}

	user, err := s.repo.ActivateUserTx(ctx.Request.Context(), auth.HashToken(plaintext))
	if err != nil {
		s.respondRepoError(ctx, err)
		return
	}

	s.log.Info().Int64("user_id", user.ID).Msg("account activated")
	dto.SuccessResponse(ctx, dto.NewUserResponse(user))
}

// GetMe returns the stored user record. Claims in an older token go stale
// after activation, so the client refreshes from here.
func (s *service) GetMe(ctx *ginext.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		dto.UnauthorizedError(ctx, "Authentication required")
		return
	}

	user, err := s.repo.GetUserByID(ctx.Request.Context(), caller.UserID)
	if err != nil {
		s.respondRepoError(ctx, err)
		return
	}

	dto.SuccessResponse(ctx, dto.NewUserResponse(user))
}
