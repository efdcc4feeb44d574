package main

import (
	"database/sql"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"communityevents/config"
	"communityevents/internal/adapters/email"
	"communityevents/internal/adapters/social"
	httpdelivery "communityevents/internal/delivery/http"
	"communityevents/internal/delivery/http/controllers"
	"communityevents/internal/delivery/http/middleware"
	"communityevents/internal/repository/postgres"
	"communityevents/internal/services"
)

const requestTimeout = 10 * time.Second

func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("create mailer", "err", err)
		os.Exit(1)
	}

	poster := social.NewPoster(nil, social.Config{
		EndpointURL: cfg.SocialEndpointURL,
		AccessToken: cfg.SocialAccessToken,
	})

	notifications, err := services.NewNotificationService(mailer, email.NewTemplateRenderer(), poster, services.NotificationConfig{
		ModerationEmail: cfg.EmailForPublication,
		BroadcastEmail:  cfg.EmailForBroadcast,
		PublishBaseURL:  cfg.PublishBaseURL,
		DisplayTimezone: cfg.DisplayTimezone,
	})
	if err != nil {
		logger.Error("create notification service", "err", err)
		os.Exit(1)
	}

	eventRepo := postgres.NewEventRepository(db)
	eventService := services.NewEventService(eventRepo, notifications, logger, requestTimeout)
	eventController := controllers.NewEventController(logger, eventService)

	mux := httpdelivery.NewRouter(eventController)
	var handler http.Handler = middleware.LoggingMiddleware(logger, mux)
	if cfg.CORSAllowedOrigins != "" {
		handler = middleware.CORS(strings.Split(cfg.CORSAllowedOrigins, ","), handler)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port, "env", cfg.Environment)
	if err := server.ListenAndServe(); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
