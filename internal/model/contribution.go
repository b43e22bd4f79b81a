package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ContributionTypeManual    = "manual"
	ContributionTypeAutomatic = "automatic"
)

const (
	ReferenceTypeJournalEntry = "journal_entry"
)

type GoalContribution struct {
	ID                 string          `db:"id" json:"id"`
	GoalID             string          `db:"goal_id" json:"goal_id"`
	TenantID           string          `db:"tenant_id" json:"tenant_id"`
	ContributionDate   time.Time       `db:"contribution_date" json:"contribution_date"`
	ContributionAmount decimal.Decimal `db:"contribution_amount" json:"contribution_amount"`
	ContributionType   string          `db:"contribution_type" json:"contribution_type"`
	ReferenceType      *string         `db:"reference_type" json:"reference_type,omitempty"`
	ReferenceID        *string         `db:"reference_id" json:"reference_id,omitempty"`
	Note               string          `db:"note" json:"note"`
	CreatedBy          string          `db:"created_by" json:"created_by"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
}
