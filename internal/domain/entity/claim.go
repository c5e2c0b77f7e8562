package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cmcs/claims-api/internal/domain/claim"
)

// Claim represents one hours-worked payment claim by a lecturer.
// Amount is fixed at submission time (hours x the lecturer's hourly rate)
// and never recomputed, so later rate changes do not affect it.
type Claim struct {
	ID             int64           `json:"id"`
	LecturerID     int64           `json:"lecturer_id"`
	HoursWorked    decimal.Decimal `json:"hours_worked"`
	Amount         decimal.Decimal `json:"amount"`
	Status         claim.Status    `json:"status"`
	SubmissionDate time.Time       `json:"submission_date"`
	ApprovalDate   *time.Time      `json:"approval_date,omitempty"`
	Notes          string          `json:"notes"`
	IsPaid         bool            `json:"is_paid"`
	PaymentDate    *time.Time      `json:"payment_date,omitempty"`
	PaymentBatchID *int64          `json:"payment_batch_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// SupportingDocument is a file attached to a claim. FileName is the name
// the lecturer uploaded; StoredName is the opaque on-disk name.
type SupportingDocument struct {
	ID         int64     `json:"id"`
	ClaimID    int64     `json:"claim_id"`
	FileName   string    `json:"file_name"`
	StoredName string    `json:"stored_name"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Lecturer is the profile record a claim belongs to. HourlyRate is read at
// submission time only.
type Lecturer struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Department string          `json:"department"`
	Email      string          `json:"email"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
}

// PaymentBatch groups approved claims marked paid together. Immutable
// after generation.
type PaymentBatch struct {
	ID          int64           `json:"id"`
	BatchNumber string          `json:"batch_number"`
	GeneratedAt time.Time       `json:"generated_at"`
	GeneratedBy string          `json:"generated_by"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalClaims int             `json:"total_claims"`
}
