package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/templui/goalflow/internal/ctxkeys"
	"github.com/templui/goalflow/internal/model"
	"github.com/templui/goalflow/internal/service"
)

type GoalHandler struct {
	goalService *service.GoalService
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
	}
}

type createGoalRequest struct {
	AccountID    string          `json:"account_id"`
	Name         string          `json:"name"`
	GoalType     string          `json:"goal_type"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	StartDate    string          `json:"start_date"`
	TargetDate   string          `json:"target_date"`
}

type addMilestoneRequest struct {
	Title        string          `json:"title"`
	TargetAmount decimal.Decimal `json:"target_amount"`
}

type addContributionRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Date          string          `json:"date"`
	Type          string          `json:"type"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id"`
	Note          string          `json:"note"`
}

type goalResponse struct {
	Goal       *model.Goal            `json:"goal"`
	Milestones []*model.GoalMilestone `json:"milestones"`
	Projected  *time.Time             `json:"projected_completion_date"`
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	goals, err := h.goalService.Goals(r.Context(), ctxkeys.Tenant(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"goals": goals})
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	start, err := optionalDate(req.StartDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	target, err := optionalDate(req.TargetDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	goal, err := h.goalService.Create(r.Context(), ctxkeys.Tenant(r.Context()), ctxkeys.Actor(r.Context()), service.CreateGoalInput{
		AccountID:    req.AccountID,
		Name:         req.Name,
		GoalType:     req.GoalType,
		TargetAmount: req.TargetAmount,
		StartDate:    start,
		TargetDate:   target,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) Show(w http.ResponseWriter, r *http.Request) {
	tenantID := ctxkeys.Tenant(r.Context())
	goalID := r.PathValue("id")

	goal, milestones, err := h.goalService.GoalWithMilestones(r.Context(), tenantID, goalID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	projected, err := h.goalService.Projection(r.Context(), tenantID, goalID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goalResponse{
		Goal:       goal,
		Milestones: milestones,
		Projected:  projected,
	})
}

func (h *GoalHandler) AddMilestone(w http.ResponseWriter, r *http.Request) {
	var req addMilestoneRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	milestone, err := h.goalService.AddMilestone(r.Context(), ctxkeys.Tenant(r.Context()), r.PathValue("id"), req.Title, req.TargetAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, milestone)
}

// AddContribution answers 201 when funds were recorded and 200 with status
// "noop" when nothing was accepted.
func (h *GoalHandler) AddContribution(w http.ResponseWriter, r *http.Request) {
	var req addContributionRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	date, err := optionalDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.goalService.AddContribution(r.Context(), service.ContributionInput{
		GoalID:        r.PathValue("id"),
		Amount:        req.Amount,
		Date:          date,
		Type:          req.Type,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		Note:          req.Note,
		ActorID:       ctxkeys.Actor(r.Context()),
		TenantID:      ctxkeys.Tenant(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if result.NoOp() {
		writeJSON(w, http.StatusOK, map[string]any{"status": "noop", "result": result})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"status": "recorded", "result": result})
}

func (h *GoalHandler) Contributions(w http.ResponseWriter, r *http.Request) {
	contributions, err := h.goalService.Contributions(r.Context(), ctxkeys.Tenant(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"contributions": contributions})
}

func (h *GoalHandler) Tracking(w http.ResponseWriter, r *http.Request) {
	trackings, err := h.goalService.Trackings(r.Context(), ctxkeys.Tenant(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"trackings": trackings})
}

func (h *GoalHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.goalService.ReconcileMilestones(r.Context(), ctxkeys.Tenant(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
