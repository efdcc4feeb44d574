package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"communityevents/internal/delivery/http/controllers"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(eventController *controllers.EventController) *http.ServeMux {
	mux := http.NewServeMux()

	// API Routes
	mux.HandleFunc("GET /v1/events", eventController.ListEvents)
	mux.HandleFunc("POST /v1/events", eventController.SubmitEvent)
	mux.HandleFunc("GET /v1/events/publish/{publishID}", eventController.PublishEvent)
	mux.HandleFunc("GET /v1/events/{slug}", eventController.GetEventBySlug)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
