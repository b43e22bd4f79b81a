package routes

import (
	"net/http"
	"time"

	"github.com/templui/goalflow/internal/app"
	"github.com/templui/goalflow/internal/handler"
	"github.com/templui/goalflow/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	goal := handler.NewGoalHandler(app.GoalService)
	ledger := handler.NewLedgerHandler(app.LedgerWebhookService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Healthz)

	// ============================================================================
	// API ROUTES (/api/*, bearer token)
	// ============================================================================

	writeLimiter := middleware.RateLimit(120, time.Minute)

	mux.HandleFunc("GET /api/goals", middleware.RequireAuth(goal.List))
	mux.HandleFunc("POST /api/goals", middleware.RequireAuth(writeLimiter(goal.Create)))
	mux.HandleFunc("GET /api/goals/{id}", middleware.RequireAuth(goal.Show))
	mux.HandleFunc("POST /api/goals/{id}/milestones", middleware.RequireAuth(writeLimiter(goal.AddMilestone)))
	mux.HandleFunc("POST /api/goals/{id}/milestones/reconcile", middleware.RequireAuth(writeLimiter(goal.Reconcile)))
	mux.HandleFunc("POST /api/goals/{id}/contributions", middleware.RequireAuth(writeLimiter(goal.AddContribution)))
	mux.HandleFunc("GET /api/goals/{id}/contributions", middleware.RequireAuth(goal.Contributions))
	mux.HandleFunc("GET /api/goals/{id}/tracking", middleware.RequireAuth(goal.Tracking))

	// ============================================================================
	// WEBHOOKS
	// ============================================================================

	// Posted journal entries from the accounting system (standard-webhooks signed)
	mux.HandleFunc("POST /webhooks/ledger", middleware.RateLimit(600, time.Minute)(ledger.Webhook))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.AuthMiddleware(app.AuthService),
		middleware.RequestLogging, // After auth so the caller is logged
	)

	return handler
}
