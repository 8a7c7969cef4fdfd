package service

import (
	"fmt"
	"strconv"

	"github.com/wb-go/wbf/ginext"

	"eventhub/internal/dto"
	"eventhub/internal/model"
	"eventhub/pkg/validator"
)

func eventIDParam(ctx *ginext.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return 0, false
	}
	return id, true
}

func eventFromPayload(req *dto.EventPayload) *model.Event {
	organizers := make([]model.Organizer, 0, len(req.Organizers))
	for _, o := range req.Organizers {
		organizers = append(organizers, model.Organizer{
			Name:  o.Name,
			Email: o.Email,
			Phone: o.Phone,
			Role:  o.Role,
		})
	}
	status := model.EventStatus(req.Status)
	if req.Status == "" {
		status = model.StatusDraft
	}
	return &model.Event{
		Name:        req.Name,
		Type:        model.EventType(req.Type),
		Date:        req.Date,
		Description: req.Description,
		Location: model.Location{
			Address: req.Location.Address,
			City:    req.Location.City,
			State:   req.Location.State,
			Country: req.Location.Country,
		},
		Status:      status,
		MinCapacity: req.MinCapacity,
		MaxCapacity: req.MaxCapacity,
		Organizers:  organizers,
		Ushers:      req.Ushers,
	}
}

func (s *service) bindEventPayload(ctx *ginext.Context) (*dto.EventPayload, bool) {
	var req dto.EventPayload
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return nil, false
	}

	if req.NumberOfApplications != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect,
			"number_of_applications is maintained by the server and cannot be set")
		return nil, false
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return nil, false
	}
	return &req, true
}

// GetAllEvents is the public catalog. Admin callers see every status.
func (s *service) GetAllEvents(ctx *ginext.Context) {
	caller, _ := callerFrom(ctx)

	events, err := s.repo.GetAllEvents(ctx.Request.Context(), !caller.IsAdmin)
	if err != nil {
		s.respondRepoError(ctx, err)
		return
	}

	dto.SuccessResponse(ctx, dto.NewEventListResponse(events))
}

func (s *service) GetEvent(ctx *ginext.Context) {
	eventID, ok := eventIDParam(ctx)
	if !ok {
		return
	}
	caller, _ := callerFrom(ctx)

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		s.respondRepoError(ctx, err)
		return
	}

	// Unpublished events are invisible outside the admin view.
	if event.Status != model.StatusPublished && !caller.IsAdmin {
		dto.EventNotFoundError(ctx)
		return
	}

	dto.SuccessResponse(ctx, dto.NewEventResponse(event))
}

// GetJoinableEvents is the logged-in home view: published future events the
// caller has not applied to yet.
func (s *service) GetJoinableEvents(ctx *ginext.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		dto.UnauthorizedError(ctx, "Authentication required")
		return
	}

	events, err := s.repo.GetJoinableEvents(ctx.Request.Context(), caller.UserID)
	if err != nil {
		s.respondRepoError(ctx, err)
		return
	}

	dto.SuccessResponse(ctx, dto.NewEventListResponse(events))
}

func (s *service) CreateEvent(ctx *ginext.Context) {
	req, ok := s.bindEventPayload(ctx)
	if !ok {
		return
	}

	event := eventFromPayload(req)
	id, err := s.repo.CreateEvent(ctx.Request.Context(), event)
	if err != nil {
		s.respondRepoError(ctx, err)
		return
	}
	event.ID = id

	s.log.Info().Int64("event_id", id).Str("type", string(event.Type)).Msg("event created")

	if event.Status == model.StatusPublished {
		s.announceEvent(ctx, event)
	}

	dto.SuccessCreatedResponse(ctx, dto.NewEventResponse(event))
}

// announceEvent mails the category and general mailing lists about a newly
// published event.
func (s *service) announceEvent(ctx *ginext.Context, event *model.Event) {
	emails, err := s.repo.GetSubscriberEmails(ctx.Request.Context(), string(event.Type))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to resolve mailing list")
		return
	}
	if len(emails) == 0 {
		return
	}
	s.notify(dto.NotificationMessage{
		Kind:      dto.NotifyEventAnnouncement,
		Emails:    emails,
		EventName: event.Name,
		EventDate: event.Date,
		Category:  string(event.Type),
	})
}

func (s *service) UpdateEvent(ctx *ginext.Context) {
	eventID, ok := eventIDParam(ctx)
	if !ok {
		return
	}
	req, ok := s.bindEventPayload(ctx)
	if !ok {
		return
	}

	prev, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		s.respondRepoError(ctx, err)
		return
	}

	event, err := s.repo.UpdateEventTx(ctx.Request.Context(), eventID, eventFromPayload(req))
	if err != nil {
		s.respondRepoError(ctx, err)
		return
	}

	s.log.Info().Int64("event_id", eventID).Msg("event updated")

	if prev.Status != model.StatusPublished && event.Status == model.StatusPublished {
		s.announceEvent(ctx, event)
	}

	dto.SuccessResponse(ctx, dto.NewEventResponse(event))
}

func (s *service) DeleteEvent(ctx *ginext.Context) {
	eventID, ok := eventIDParam(ctx)
	if !ok {
		return
	}

	event, applicants, err := s.repo.DeleteEventTx(ctx.Request.Context(), eventID)
	if err != nil {
		s.respondRepoError(ctx, err)
		return
	}

	s.log.Info().Int64("event_id", eventID).Int("applicants", len(applicants)).Msg("event deleted")

	if len(applicants) > 0 {
		s.notify(dto.NotificationMessage{
			Kind:      dto.NotifyEventCancelled,
			Emails:    applicants,
			EventName: event.Name,
			EventDate: event.Date,
		})
	}

	dto.SuccessResponse(ctx, map[string]string{"message": "Event deleted successfully"})
}
