package port

import (
	"context"
	"time"

	"github.com/cmcs/claims-api/internal/domain/claim"
	"github.com/cmcs/claims-api/internal/domain/entity"
)

// ClaimRepository defines persistence operations for Claim
type ClaimRepository interface {
	Create(ctx context.Context, c *entity.Claim) error
	GetByID(ctx context.Context, id int64) (*entity.Claim, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*entity.Claim, error)
	ListByLecturer(ctx context.Context, lecturerID int64) ([]*entity.Claim, error)
	ListByStatus(ctx context.Context, status claim.Status) ([]*entity.Claim, error)
	ListAll(ctx context.Context) ([]*entity.Claim, error)
	ListBetween(ctx context.Context, start, end time.Time) ([]*entity.Claim, error)
	ListPayable(ctx context.Context, start, end time.Time) ([]*entity.Claim, error)
	ListByBatchID(ctx context.Context, batchID int64) ([]*entity.Claim, error)

	// UpdateStatus applies a compare-and-swap on the status column: the row
	// is written only if it still holds `from`. A concurrent transition that
	// got there first leaves zero rows affected, reported as claim.ErrConflict.
	UpdateStatus(ctx context.Context, id int64, from, to claim.Status, now time.Time) error

	SetApprovalDate(ctx context.Context, id int64, t time.Time) error
	AppendNotes(ctx context.Context, id int64, text string, now time.Time) error
	MarkPaid(ctx context.Context, id int64, batchID int64, paidAt time.Time) error

	CountByStatus(ctx context.Context, status claim.Status) (int, error)
	CountAll(ctx context.Context) (int, error)
}

// DocumentRepository defines persistence operations for SupportingDocument
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.SupportingDocument) error
	GetByID(ctx context.Context, id int64) (*entity.SupportingDocument, error)
	GetByClaimID(ctx context.Context, claimID int64) ([]*entity.SupportingDocument, error)
	Delete(ctx context.Context, id int64) error
}

// AuditRepository defines persistence operations for AuditEntry.
// Entries are append-only: there is no update or delete.
type AuditRepository interface {
	Create(ctx context.Context, entry *entity.AuditEntry) error
	GetByClaimID(ctx context.Context, claimID int64) ([]*entity.AuditEntry, error)
	GetRecent(ctx context.Context, limit int) ([]*entity.AuditEntry, error)
}

// BatchRepository defines persistence operations for PaymentBatch
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.PaymentBatch) error
	GetByID(ctx context.Context, id int64) (*entity.PaymentBatch, error)
	List(ctx context.Context, limit, offset int) ([]*entity.PaymentBatch, error)
}

// LecturerRepository defines read operations against the lecturer directory
type LecturerRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Lecturer, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Lecturer, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
