package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"communityevents/internal/delivery/http/helpers"
	"communityevents/internal/domain"
)

// yearRegex and monthRegex enforce the query string shape: four-digit year,
// one or two digit month. A five-digit year or three-digit month is a caller
// format error and never reaches the classifier.
var (
	yearRegex  = regexp.MustCompile(`^\d{4}$`)
	monthRegex = regexp.MustCompile(`^\d{1,2}$`)
)

// SubmitEventRequest is the request body for POST /v1/events.
type SubmitEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Hashtag     string `json:"hashtag"`
	Date        string `json:"date"` // RFC 3339
}

// Validate implements Validator. Returns error messages for required and format rules.
func (r SubmitEventRequest) Validate() []string {
	var errs []string
	if r.Title == "" {
		errs = append(errs, "title is required")
	}
	if r.Description == "" {
		errs = append(errs, "description is required")
	}
	if r.Link == "" {
		errs = append(errs, "link is required")
	}
	if r.Hashtag == "" {
		errs = append(errs, "hashtag is required")
	}
	if r.Date == "" {
		errs = append(errs, "date is required")
	} else if _, err := time.Parse(time.RFC3339, r.Date); err != nil {
		errs = append(errs, "date must be RFC 3339")
	}
	return errs
}

// EventController handles the event listing and lifecycle routes.
type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// ListEvents godoc
// @Summary List events
// @Description List events, optionally filtered by category (upcoming or past) or by year and month.
// @Tags events
// @Produce json
// @Param category query string false "upcoming or past"
// @Param year query int false "four-digit year, requires month"
// @Param month query int false "month 1-12, requires year"
// @Success 200 {object} helpers.APIResponse "data contains the event list"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /v1/events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	events, err := c.Service.ListEvents(r.Context(), filter)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPeriod) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// parseFilter reads category or year/month query parameters. On a malformed
// period it writes a 400 and returns ok=false.
func parseFilter(w http.ResponseWriter, r *http.Request) (domain.EventFilter, bool) {
	q := r.URL.Query()
	filter := domain.EventFilter{}

	switch category := q.Get("category"); category {
	case "":
	case "upcoming", "past":
		filter.Category = category
		return filter, true
	default:
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "category must be upcoming or past")
		return filter, false
	}

	year, month := q.Get("year"), q.Get("month")
	if year == "" && month == "" {
		return filter, true
	}
	if !yearRegex.MatchString(year) || !monthRegex.MatchString(month) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "year must be four digits and month 1-12")
		return filter, false
	}
	filter.Year, _ = strconv.Atoi(year)
	filter.Month, _ = strconv.Atoi(month)
	return filter, true
}

// SubmitEvent godoc
// @Summary Submit a new event
// @Description Create an event in draft state. The moderators receive a mail with the publish link.
// @Tags events
// @Accept json
// @Produce json
// @Param event body SubmitEventRequest true "Event data"
// @Success 201 {object} helpers.APIResponse "data contains the created draft event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /v1/events [post]
func (c *EventController) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	var req SubmitEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	date, _ := time.Parse(time.RFC3339, req.Date)
	event, err := c.Service.Submit(r.Context(), domain.SubmitEventInput{
		Title:       req.Title,
		Description: req.Description,
		Link:        req.Link,
		Hashtag:     req.Hashtag,
		Date:        date,
	})
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// PublishEvent godoc
// @Summary Publish a draft event
// @Description One-way transition authorized by the publish token from the moderation mail. Safe to invoke repeatedly; announcements go out once.
// @Tags events
// @Produce json
// @Param publishID path string true "Publish token"
// @Success 200 {object} helpers.APIResponse "data contains the published event; warning set when an announcement channel failed"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /v1/events/publish/{publishID} [get]
func (c *EventController) PublishEvent(w http.ResponseWriter, r *http.Request) {
	publishID := r.PathValue("publishID")
	event, err := c.Service.Publish(r.Context(), publishID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		if pe, ok := domain.AsPartialPublish(err); ok {
			// Publication committed; surface the failed channels to operators.
			c.Logger.WarnContext(r.Context(), "published with failed notifications", "path", r.URL.Path, "err", pe)
			helpers.WriteJSONWarning(w, http.StatusOK, event, pe.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// GetEventBySlug godoc
// @Summary Get an event by slug
// @Tags events
// @Produce json
// @Param slug path string true "Event slug"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /v1/events/{slug} [get]
func (c *EventController) GetEventBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	event, err := c.Service.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}
