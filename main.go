package main

import (
	"context"
	"log"
	"net/http"

	"github.com/golang-cafe/job-alerts/internal/alert"
	"github.com/golang-cafe/job-alerts/internal/application"
	"github.com/golang-cafe/job-alerts/internal/config"
	"github.com/golang-cafe/job-alerts/internal/database"
	"github.com/golang-cafe/job-alerts/internal/email"
	"github.com/golang-cafe/job-alerts/internal/external"
	"github.com/golang-cafe/job-alerts/internal/handler"
	"github.com/golang-cafe/job-alerts/internal/job"
	"github.com/golang-cafe/job-alerts/internal/meta"
	"github.com/golang-cafe/job-alerts/internal/role"
	"github.com/golang-cafe/job-alerts/internal/server"
	"github.com/golang-cafe/job-alerts/internal/user"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading configuration from the environment")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("unable to load config: %+v", err)
	}
	logger := server.NewLogger(cfg.Env)
	conn, err := database.GetDbConn(cfg.DatabaseUser, cfg.DatabasePassword, cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseName, cfg.DatabaseSSLMode)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to connect to postgres")
	}
	defer database.CloseDbConn(conn)

	emailClient := email.NewClient(
		cfg.EmailAPIToken,
		cfg.EmailAPIURL,
		email.Address{Name: cfg.EmailSenderName, Email: cfg.EmailSenderAddress},
		cfg.NotificationTimeout,
	)
	if cfg.EmailAPIToken == "" {
		logger.Warn().Msg("EMAIL_API_TOKEN is not set, every email delivery will fail")
	}
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)

	svr := server.NewServer(
		cfg,
		conn,
		mux.NewRouter(),
		sessionStore,
		logger,
	)

	jobRepo := job.NewRepository(conn)
	alertRepo := alert.NewRepository(conn)
	applicationRepo := application.NewRepository(conn)
	userRepo := user.NewRepository(conn)
	roleRepo := role.NewRepository(conn)
	metaRepo := meta.NewRepository(conn)

	dispatcher := alert.NewDispatcher(
		alertRepo,
		emailClient,
		alert.NewRenderer(cfg.AppURL),
		alert.WithLogger(logger.With().Str("component", "job-alerts").Logger()),
		alert.WithSendTimeout(cfg.NotificationTimeout),
		alert.WithConcurrency(cfg.NotificationConcurrency),
	)

	fetcher, err := external.NewFetcher(cfg.ExternalCacheTTL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to create external jobs fetcher")
	}
	defer fetcher.Close()
	registry := external.NewRegistry()
	registry.Register(external.LegacySource(cfg.ExternalSourceURL))
	syncer := external.NewSyncer(registry, fetcher, jobRepo, dispatcher, metaRepo, logger.With().Str("component", "external-sync").Logger())
	scheduler := external.NewScheduler(syncer, cfg.ExternalSyncSchedule, logger)
	if err := scheduler.Start(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("unable to start external sync scheduler")
	}
	defer scheduler.Stop()

	svr.RegisterRoute("/health", handler.HealthCheckHandler(svr), []string{http.MethodGet})
	svr.RegisterHandler("/metrics", handler.MetricsHandler(), []string{http.MethodGet})

	// auth
	svr.RegisterRoute("/auth/login", handler.LoginHandler(svr, userRepo), []string{http.MethodPost})
	svr.RegisterRoute("/auth/logout", handler.LogoutHandler(svr), []string{http.MethodPost})
	svr.RegisterRoute("/auth/me", handler.MeHandler(svr), []string{http.MethodGet})

	// users and roles
	svr.RegisterRoute("/users", handler.ListUsersHandler(svr, userRepo), []string{http.MethodGet})
	svr.RegisterRoute("/users", handler.CreateUserHandler(svr, userRepo, roleRepo), []string{http.MethodPost})
	svr.RegisterRoute("/users/{id}", handler.GetUserHandler(svr, userRepo), []string{http.MethodGet})
	svr.RegisterRoute("/users/{id}", handler.UpdateUserHandler(svr, userRepo, roleRepo), []string{http.MethodPatch})
	svr.RegisterRoute("/users/{id}", handler.DeleteUserHandler(svr, userRepo), []string{http.MethodDelete})
	svr.RegisterRoute("/roles", handler.ListRolesHandler(svr, roleRepo), []string{http.MethodGet})
	svr.RegisterRoute("/roles", handler.CreateRoleHandler(svr, roleRepo), []string{http.MethodPost})
	svr.RegisterRoute("/roles/{id}", handler.GetRoleHandler(svr, roleRepo), []string{http.MethodGet})
	svr.RegisterRoute("/roles/{id}", handler.UpdateRoleHandler(svr, roleRepo), []string{http.MethodPatch})
	svr.RegisterRoute("/roles/{id}", handler.DeleteRoleHandler(svr, roleRepo), []string{http.MethodDelete})

	// jobs, csv routes go before /jobs/{id}
	svr.RegisterRoute("/jobs/export.csv", handler.ExportJobsCSVHandler(svr, jobRepo), []string{http.MethodGet})
	svr.RegisterRoute("/jobs/template.csv", handler.JobsTemplateCSVHandler(svr), []string{http.MethodGet})
	svr.RegisterRoute("/jobs/import", handler.ImportJobsCSVHandler(svr, jobRepo, dispatcher), []string{http.MethodPost})
	svr.RegisterRoute("/jobs", handler.ListJobsHandler(svr, jobRepo), []string{http.MethodGet})
	svr.RegisterRoute("/jobs", handler.CreateJobHandler(svr, jobRepo, dispatcher), []string{http.MethodPost})
	svr.RegisterRoute("/jobs/{id}", handler.GetJobHandler(svr, jobRepo, syncer), []string{http.MethodGet})
	svr.RegisterRoute("/jobs/{id}", handler.UpdateJobHandler(svr, jobRepo), []string{http.MethodPatch})
	svr.RegisterRoute("/jobs/{id}", handler.DeleteJobHandler(svr, jobRepo), []string{http.MethodDelete})
	svr.RegisterRoute("/rss", handler.ServeRSSFeed(svr, jobRepo), []string{http.MethodGet})

	// job applications
	svr.RegisterRoute("/job-applications", handler.ListApplicationsHandler(svr, applicationRepo), []string{http.MethodGet})
	svr.RegisterRoute("/jobs/{jobID}/apply", handler.ApplyToJobHandler(svr, jobRepo, applicationRepo, emailClient, syncer), []string{http.MethodPost})
	svr.RegisterRoute("/jobs/{jobID}/applications", handler.ListJobApplicationsHandler(svr, applicationRepo), []string{http.MethodGet})
	svr.RegisterRoute("/jobs/{jobID}/applications/{id}", handler.GetJobApplicationHandler(svr, applicationRepo), []string{http.MethodGet})
	svr.RegisterRoute("/jobs/{jobID}/applications/{id}", handler.DeleteJobApplicationHandler(svr, applicationRepo), []string{http.MethodDelete})
	svr.RegisterRoute("/jobs/{jobID}/applications/{id}/status", handler.UpdateApplicationStatusHandler(svr, applicationRepo), []string{http.MethodPatch})
	svr.RegisterRoute("/jobs/{jobID}/applications/{id}/resend-notification", handler.ResendApplicationNotificationHandler(svr, jobRepo, applicationRepo, emailClient), []string{http.MethodPost})

	// job alerts
	svr.RegisterRoute("/job-alerts", handler.ListJobAlertsHandler(svr, alertRepo), []string{http.MethodGet})
	svr.RegisterRoute("/job-alerts", handler.CreateJobAlertHandler(svr, alertRepo), []string{http.MethodPost})
	svr.RegisterRoute("/job-alerts/{id}", handler.GetJobAlertHandler(svr, alertRepo), []string{http.MethodGet})
	svr.RegisterRoute("/job-alerts/{id}", handler.UpdateJobAlertHandler(svr, alertRepo), []string{http.MethodPatch})
	svr.RegisterRoute("/job-alerts/{id}", handler.DeleteJobAlertHandler(svr, alertRepo), []string{http.MethodDelete})
	svr.RegisterRoute("/job-alerts/{id}/unsubscribe", handler.UnsubscribeJobAlertHandler(svr, alertRepo), []string{http.MethodGet})
	svr.RegisterRoute("/job-alerts/{id}/jobs/{jobID}/resend", handler.ResendJobAlertHandler(svr, alertRepo, jobRepo, dispatcher), []string{http.MethodPost})

	// external job sources
	svr.RegisterRoute("/external-sources", handler.ListExternalSourcesHandler(svr, syncer, metaRepo), []string{http.MethodGet})
	svr.RegisterRoute("/external-sources", handler.RegisterExternalSourceHandler(svr, syncer), []string{http.MethodPost})
	svr.RegisterRoute("/external-sources/{key}/jobs", handler.PreviewExternalJobsHandler(svr, syncer), []string{http.MethodGet})
	svr.RegisterRoute("/external-sources/{key}/sync", handler.SyncExternalSourceHandler(svr, syncer), []string{http.MethodPost})

	if err := svr.Run(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
