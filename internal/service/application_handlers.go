package service

import (
	"github.com/wb-go/wbf/ginext"

	"eventhub/internal/dto"
)

func (s *service) Apply(ctx *ginext.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		dto.UnauthorizedError(ctx, "Authentication required")
		return
	}
	eventID, ok := eventIDParam(ctx)
	if !ok {
		return
	}

	event, err := s.repo.ApplyTx(ctx.Request.Context(), caller.UserID, eventID)
	if err != nil {
		s.respondRepoError(ctx, err)
		return
	}

	s.log.Info().
		Int64("event_id", eventID).
		Int64("user_id", caller.UserID).
		Int("applications", event.NumberOfApplications).
		Msg("application created")

	s.notify(dto.NotificationMessage{
		Kind:      dto.NotifyApplicationCreated,
		Emails:    []string{caller.Email},
		EventName: event.Name,
		EventDate: event.Date,
	})

	dto.SuccessCreatedResponse(ctx, dto.NewEventResponse(event))
}

func (s *service) Unapply(ctx *ginext.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		dto.UnauthorizedError(ctx, "Authentication required")
		return
	}
	eventID, ok := eventIDParam(ctx)
	if !ok {
		return
	}

	event, err := s.repo.UnapplyTx(ctx.Request.Context(), caller.UserID, eventID)
	if err != nil {
		s.respondRepoError(ctx, err)
		return
	}

	s.log.Info().
		Int64("event_id", eventID).
		Int64("user_id", caller.UserID).
		Int("applications", event.NumberOfApplications).
		Msg("application removed")

	s.notify(dto.NotificationMessage{
		Kind:      dto.NotifyApplicationRemoved,
		Emails:    []string{caller.Email},
		EventName: event.Name,
		EventDate: event.Date,
	})

	dto.SuccessResponse(ctx, dto.NewEventResponse(event))
}

func (s *service) GetMyEvents(ctx *ginext.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		dto.UnauthorizedError(ctx, "Authentication required")
		return
	}

	events, err := s.repo.GetEventsByUserID(ctx.Request.Context(), caller.UserID)
	if err != nil {
		s.respondRepoError(ctx, err)
		return
	}

	dto.SuccessResponse(ctx, dto.NewEventListResponse(events))
}

func (s *service) GetRosters(ctx *ginext.Context) {
	rosters, err := s.repo.GetRosters(ctx.Request.Context())
	if err != nil {
		s.respondRepoError(ctx, err)
		return
	}

	resp := make([]dto.RosterResponse, 0, len(rosters))
	for i := range rosters {
		resp = append(resp, dto.RosterResponse{
			Event:     dto.NewEventResponse(&rosters[i].Event),
			Attendees: rosters[i].Attendees,
		})
	}

	dto.SuccessResponse(ctx, resp)
}
