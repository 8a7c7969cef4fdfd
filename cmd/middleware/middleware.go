package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"eventhub/internal/auth"
	"eventhub/internal/dto"
	"eventhub/internal/policy"
)

func LoggingMiddleware() func(*ginext.Context) {
	return func(c *ginext.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Header("X-Request-Id", requestID)

		c.Next()

		zlog.Logger.Info().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	}
}

// TimeoutMiddleware bounds every handler and its transactions; past the
// deadline the repository surfaces a retryable timeout and commits nothing.
func TimeoutMiddleware(d time.Duration) func(*ginext.Context) {
	return func(c *ginext.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func resolveCaller(c *ginext.Context, jwtm *auth.JWTManager) (policy.Caller, error) {
	token, err := auth.TokenFromRequest(c.Request)
	if err != nil {
		return policy.Caller{}, err
	}
	claims, err := jwtm.Validate(token)
	if err != nil {
		return policy.Caller{}, err
	}
	return policy.Caller{
		UserID:        claims.UserID,
		Name:          claims.Name,
		Email:         claims.Email,
		IsAdmin:       claims.IsAdmin,
		IsActivated:   claims.IsActivated,
		Authenticated: true,
	}, nil
}

// OptionalAuth resolves the caller when credentials are present but lets
// anonymous requests through; public reads widen for admins.
func OptionalAuth(jwtm *auth.JWTManager) func(*ginext.Context) {
	return func(c *ginext.Context) {
		if caller, err := resolveCaller(c, jwtm); err == nil {
			c.Set(policy.CallerContextKey, caller)
		}
		c.Next()
	}
}

// RequireUser admits activated, non-admin accounts for application and
// subscription management.
func RequireUser(jwtm *auth.JWTManager) func(*ginext.Context) {
	return func(c *ginext.Context) {
		caller, err := resolveCaller(c, jwtm)
		if err != nil {
			dto.UnauthorizedError(c, "Invalid or missing authentication token")
			c.Abort()
			return
		}
		if !policy.CanAccess(caller, policy.OpManageOwnApplications) {
			if !caller.IsActivated {
				dto.ForbiddenError(c, "Your account must be activated to access this resource")
			} else {
				dto.ForbiddenError(c, "Only non-admin users can access this resource")
			}
			c.Abort()
			return
		}
		c.Set(policy.CallerContextKey, caller)
		c.Next()
	}
}

func RequireAdmin(jwtm *auth.JWTManager) func(*ginext.Context) {
	return func(c *ginext.Context) {
		caller, err := resolveCaller(c, jwtm)
		if err != nil {
			dto.UnauthorizedError(c, "Invalid or missing authentication token")
			c.Abort()
			return
		}
		if !policy.CanAccess(caller, policy.OpMutateEvents) {
			dto.ForbiddenError(c, "Only administrators can access this resource")
			c.Abort()
			return
		}
		c.Set(policy.CallerContextKey, caller)
		c.Next()
	}
}
