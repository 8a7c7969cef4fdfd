package service

import (
	"github.com/wb-go/wbf/ginext"

	"eventhub/internal/dto"
	"eventhub/internal/model"
)

func (s *service) Subscribe(ctx *ginext.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		dto.UnauthorizedError(ctx, "Authentication required")
		return
	}

	category := ctx.Param("category")
	if !model.ValidCategory(category) {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Unknown mailing-list category")
		return
	}

	created, err := s.repo.Subscribe(ctx.Request.Context(), caller.UserID, category)
	if err != nil {
		s.respondRepoError(ctx, err)
		return
	}

	if created {
		s.log.Info().
			Int64("user_id", caller.UserID).
			Str("category", category).
			Msg("subscription created")
		s.notify(dto.NotificationMessage{
			Kind:     dto.NotifySubscribed,
			Emails:   []string{caller.Email},
			Category: category,
		})
	}

	dto.SuccessResponse(ctx, map[string]string{
		"message": "Subscribed to " + category + " mailing list",
	})
}

func (s *service) Unsubscribe(ctx *ginext.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		dto.UnauthorizedError(ctx, "Authentication required")
		return
	}

	category := ctx.Param("category")
	if !model.ValidCategory(category) {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Unknown mailing-list category")
		return
	}

	removed, err := s.repo.Unsubscribe(ctx.Request.Context(), caller.UserID, category)
	if err != nil {
		s.respondRepoError(ctx, err)
		return
	}

	if removed {
		s.log.Info().
			Int64("user_id", caller.UserID).
			Str("category", category).
			Msg("subscription removed")
	}

	dto.SuccessResponse(ctx, map[string]string{
		"message": "Unsubscribed from " + category + " mailing list",
	})
}

func (s *service) GetMySubscriptions(ctx *ginext.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		dto.UnauthorizedError(ctx, "Authentication required")
		return
	}

	subs, err := s.repo.GetSubscriptions(ctx.Request.Context(), caller.UserID)
	if err != nil {
		s.respondRepoError(ctx, err)
		return
	}

	dto.SuccessResponse(ctx, subs)
}
