package dto

import (
	"time"

	"github.com/wb-go/wbf/ginext"

	"eventhub/internal/model"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	Unauthorized     = "UNAUTHORIZED"
	Forbidden        = "FORBIDDEN"
	EventNotFound    = "EVENT_NOT_FOUND"
	NotFound         = "NOT_FOUND"
	AlreadyApplied   = "ALREADY_APPLIED"
	NotApplied       = "NOT_APPLIED"
	CapacityExceeded = "CAPACITY_EXCEEDED"
	CapacityConflict = "CAPACITY_CONFLICT"
	InvalidToken     = "INVALID_TOKEN"
	ExpiredToken     = "EXPIRED_TOKEN"
	AlreadyActivated = "ALREADY_ACTIVATED"
	Timeout          = "TIMEOUT"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResendActivationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type OrganizerPayload struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

type LocationPayload struct {
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Country string `json:"country" validate:"required"`
}

// EventPayload is shared by create and update. The application counter is
// deliberately absent: it belongs to the ledger.
type EventPayload struct {
	Name        string             `json:"name" validate:"required,max=255"`
	Type        string             `json:"type" validate:"required,category"`
	Date        time.Time          `json:"date" validate:"required,future"`
	Description string             `json:"description" validate:"required"`
	Location    LocationPayload    `json:"location"`
	Status      string             `json:"status" validate:"omitempty,eventstatus"`
	MinCapacity int                `json:"min_capacity" validate:"gte=0"`
	MaxCapacity int                `json:"max_capacity" validate:"required,positive,gtefield=MinCapacity"`
	Organizers  []OrganizerPayload `json:"organizers" validate:"required,min=1,dive"`
	Ushers      []string           `json:"ushers"`
	// Present only to reject clients that try to write the ledger-owned
	// counter directly.
	NumberOfApplications *int `json:"number_of_applications"`
}

type UserResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	IsAdmin     bool      `json:"isAdmin"`
	IsActivated bool      `json:"isActivated"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		IsAdmin:     u.IsAdmin,
		IsActivated: u.IsActivated,
		CreatedAt:   u.CreatedAt,
	}
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type EventResponse struct {
	ID                   int64              `json:"id"`
	Name                 string             `json:"name"`
	Type                 string             `json:"type"`
	Date                 time.Time          `json:"date"`
	Description          string             `json:"description"`
	Location             LocationPayload    `json:"location"`
	Status               string             `json:"status"`
	MinCapacity          int                `json:"min_capacity"`
	MaxCapacity          int                `json:"max_capacity"`
	NumberOfApplications int                `json:"number_of_applications"`
	AvailableSeats       int                `json:"available_seats"`
	Organizers           []OrganizerPayload `json:"organizers"`
	Ushers               []string           `json:"ushers"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

func NewEventResponse(e *model.Event) EventResponse {
	organizers := make([]OrganizerPayload, 0, len(e.Organizers))
	for _, o := range e.Organizers {
		organizers = append(organizers, OrganizerPayload{
			Name:  o.Name,
			Email: o.Email,
			Phone: o.Phone,
			Role:  o.Role,
		})
	}
	return EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Type:        string(e.Type),
		Date:        e.Date,
		Description: e.Description,
		Location: LocationPayload{
			Address: e.Location.Address,
			City:    e.Location.City,
			State:   e.Location.State,
			Country: e.Location.Country,
		},
		Status:               string(e.Status),
		MinCapacity:          e.MinCapacity,
		MaxCapacity:          e.MaxCapacity,
		NumberOfApplications: e.NumberOfApplications,
		AvailableSeats:       e.MaxCapacity - e.NumberOfApplications,
		Organizers:           organizers,
		Ushers:               e.Ushers,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

func NewEventListResponse(events []model.Event) []EventResponse {
	resp := make([]EventResponse, 0, len(events))
	for i := range events {
		resp = append(resp, NewEventResponse(&events[i]))
	}
	return resp
}

type RosterResponse struct {
	Event     EventResponse `json:"event"`
	Attendees []string      `json:"attendees"`
}

// NotificationMessage is the payload pushed to the notification queue and
// drained by the consumer worker into the mailer.
type NotificationMessage struct {
	Kind      string    `json:"kind"`
	Emails    []string  `json:"emails"`
	EventName string    `json:"event_name,omitempty"`
	EventDate time.Time `json:"event_date,omitempty"`
	Category  string    `json:"category,omitempty"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}

const (
	NotifyActivation         = "activation"
	NotifyApplicationCreated = "application_created"
	NotifyApplicationRemoved = "application_removed"
	NotifyEventCancelled     = "event_cancelled"
	NotifyEventAnnouncement  = "event_announcement"
	NotifySubscribed         = "subscribed"
)

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func errorResponse(c *ginext.Context, status int, code, desc string) {
	c.JSON(status, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func BadResponseError(c *ginext.Context, code, desc string) {
	errorResponse(c, 400, code, desc)
}

func UnauthorizedError(c *ginext.Context, desc string) {
	errorResponse(c, 401, Unauthorized, desc)
}

func ForbiddenError(c *ginext.Context, desc string) {
	errorResponse(c, 403, Forbidden, desc)
}

func NotFoundError(c *ginext.Context, code, desc string) {
	errorResponse(c, 404, code, desc)
}

func EventNotFoundError(c *ginext.Context) {
	NotFoundError(c, EventNotFound, "Event not found")
}

func ConflictError(c *ginext.Context, code, desc string) {
	errorResponse(c, 409, code, desc)
}

func TimeoutError(c *ginext.Context) {
	errorResponse(c, 504, Timeout, "Request timed out, please retry")
}

func InternalServerError(c *ginext.Context) {
	errorResponse(c, 500, ServiceUnavailable, InternalError)
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
