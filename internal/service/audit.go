package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/templui/goalflow/internal/storage"
)

// AuditReport is the result of a dry-run reconciliation over every active goal.
type AuditReport struct {
	GeneratedAt  time.Time          `json:"generated_at"`
	GoalsChecked int                `json:"goals_checked"`
	Diverged     []*ReconcileReport `json:"diverged"`
	Failed       map[string]string  `json:"failed,omitempty"`
	Key          string             `json:"key,omitempty"`
	URL          string             `json:"url,omitempty"`
}

// AuditService checks milestone allocations against goal totals without
// changing them.
type AuditService struct {
	goals   *GoalService
	storage storage.Storage
	prefix  string
}

// NewAuditService creates the audit runner. storage may be nil, in which case
// reports are only logged.
func NewAuditService(goals *GoalService, storage storage.Storage, prefix string) *AuditService {
	return &AuditService{
		goals:   goals,
		storage: storage,
		prefix:  prefix,
	}
}

func (s *AuditService) Run(ctx context.Context) (*AuditReport, error) {
	active, err := s.goals.store.Repos().Goals.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active goals: %w", err)
	}

	report := &AuditReport{
		GeneratedAt:  s.goals.clock(),
		GoalsChecked: len(active),
		Diverged:     []*ReconcileReport{},
	}

	for _, goal := range active {
		preview, err := s.goals.PreviewReconcile(ctx, goal.ID)
		if err != nil {
			if report.Failed == nil {
				report.Failed = make(map[string]string)
			}
			report.Failed[goal.ID] = err.Error()
			slog.Error("failed to audit goal", "error", err, "goal_id", goal.ID)
			continue
		}
		if preview.Diverged() {
			report.Diverged = append(report.Diverged, preview)
		}
	}

	if s.storage != nil {
		err = s.upload(ctx, report)
		if err != nil {
			return report, err
		}
	}

	slog.Info("goal audit finished",
		"goals_checked", report.GoalsChecked,
		"diverged", len(report.Diverged),
		"failed", len(report.Failed),
		"key", report.Key,
	)
	return report, nil
}

func (s *AuditService) upload(ctx context.Context, report *AuditReport) error {
	report.Key = path.Join(s.prefix, report.GeneratedAt.Format("20060102T150405Z")+".json")

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode audit report: %w", err)
	}

	err = s.storage.Save(ctx, report.Key, bytes.NewReader(body), "application/json")
	if err != nil {
		return fmt.Errorf("failed to store audit report: %w", err)
	}

	url, err := s.storage.PresignedURL(ctx, report.Key)
	if err != nil {
		slog.Warn("failed to presign audit report", "error", err, "key", report.Key)
		return nil
	}
	report.URL = url
	return nil
}
