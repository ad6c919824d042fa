package http

import (
	"net/http"

	"advisor-booking/internal/delivery/http/handler"
	"advisor-booking/internal/delivery/http/middleware"
	"advisor-booking/internal/domain/entity"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type Router struct {
	router             *mux.Router
	advisorHandler     *handler.AdvisorHandler
	appointmentHandler *handler.AppointmentHandler
	auditLogHandler    *handler.AuditLogHandler
	authMiddleware     *middleware.AuthMiddleware
	corsMiddleware     *middleware.CORSMiddleware
	rateLimiter        *middleware.RateLimiter
	requestLogger      func(http.Handler) http.Handler
	metricsHandler     http.Handler
}

func NewRouter(
	advisorHandler *handler.AdvisorHandler,
	appointmentHandler *handler.AppointmentHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	rateLimiter *middleware.RateLimiter,
	requestLogger func(http.Handler) http.Handler,
	metricsHandler http.Handler,
) *Router {
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	if requestLogger == nil {
		requestLogger = middleware.RequestLogger(logrus.StandardLogger(), nil)
	}
	return &Router{
		router:             mux.NewRouter(),
		advisorHandler:     advisorHandler,
		appointmentHandler: appointmentHandler,
		auditLogHandler:    auditLogHandler,
		authMiddleware:     authMiddleware,
		corsMiddleware:     corsMiddleware,
		rateLimiter:        rateLimiter,
		requestLogger:      requestLogger,
		metricsHandler:     metricsHandler,
	}
}

func (r *Router) Setup() *mux.Router {
	r.router.Handle("/metrics", r.metricsHandler).Methods(http.MethodGet)

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Advisor directory (public)
	api.HandleFunc("/advisors", r.advisorHandler.SearchAdvisors).Methods(http.MethodGet)
	api.HandleFunc("/advisors/{id}", r.advisorHandler.GetAdvisor).Methods(http.MethodGet)

	// Advisor self-management (advisor owning the profile or admin)
	advisorEdit := api.PathPrefix("/advisors").Subrouter()
	advisorEdit.Use(r.authMiddleware.Authenticate)
	advisorEdit.Use(middleware.RequireRole(entity.RoleAdvisor, entity.RoleAdmin))
	advisorEdit.HandleFunc("/{id}/working-hours", r.advisorHandler.AddWorkingHours).Methods(http.MethodPost)
	advisorEdit.HandleFunc("/{id}/working-hours", r.advisorHandler.ReplaceWorkingHours).Methods(http.MethodPut)
	advisorEdit.HandleFunc("/{id}/availability", r.advisorHandler.SetAvailability).Methods(http.MethodPut)

	// Appointments (protected)
	appointments := api.PathPrefix("/appointments").Subrouter()
	appointments.Use(r.authMiddleware.Authenticate)
	appointments.HandleFunc("/availability/{advisorId}", r.appointmentHandler.CheckAvailability).Methods(http.MethodGet)
	appointments.Handle("", r.rateLimiter.Limit(http.HandlerFunc(r.appointmentHandler.CreateAppointment))).Methods(http.MethodPost)
	appointments.HandleFunc("", r.appointmentHandler.ListAppointments).Methods(http.MethodGet)
	appointments.HandleFunc("/{id}", r.appointmentHandler.GetAppointment).Methods(http.MethodGet)
	appointments.HandleFunc("/{id}/status", r.appointmentHandler.UpdateStatus).Methods(http.MethodPut)
	appointments.HandleFunc("/{id}", r.appointmentHandler.CancelAppointment).Methods(http.MethodDelete)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireRole(entity.RoleAdmin))
	admin.HandleFunc("/audit-logs", r.auditLogHandler.ListAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	r.router.Use(r.requestLogger)
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
