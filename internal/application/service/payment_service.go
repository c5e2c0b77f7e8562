package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cmcs/claims-api/internal/application/port"
	"github.com/cmcs/claims-api/internal/domain/claim"
	"github.com/cmcs/claims-api/internal/domain/entity"
	"github.com/cmcs/claims-api/internal/domain/event"
)

// BatchDetail is a payment batch with the claims it paid
type BatchDetail struct {
	Batch  *entity.PaymentBatch `json:"batch"`
	Claims []*entity.Claim      `json:"claims"`
}

// PaymentService turns approved claims into payment batches. A batch is the
// unit HR hands to payroll: once generated, every claim in it is stamped paid
// and can never enter another batch.
type PaymentService interface {
	ListPayableClaims(ctx context.Context, start, end time.Time) ([]*entity.Claim, error)
	GenerateBatch(ctx context.Context, actor claim.Actor, claimIDs []int64) (*entity.PaymentBatch, error)
	GetBatch(ctx context.Context, batchID int64) (*BatchDetail, error)
	ListBatches(ctx context.Context, limit, offset int) ([]*entity.PaymentBatch, error)
}

type paymentServiceImpl struct {
	claimRepo port.ClaimRepository
	batchRepo port.BatchRepository
	auditRepo port.AuditRepository
	txManager port.TransactionManager
	clock     port.Clock
	logger    Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	claimRepo port.ClaimRepository,
	batchRepo port.BatchRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	clock port.Clock,
	logger Logger,
) PaymentService {
	return &paymentServiceImpl{
		claimRepo: claimRepo,
		batchRepo: batchRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		clock:     clock,
		logger:    logger,
	}
}

// ListPayableClaims returns approved, not-yet-paid claims submitted within
// the period
func (s *paymentServiceImpl) ListPayableClaims(ctx context.Context, start, end time.Time) ([]*entity.Claim, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: period end precedes start", claim.ErrValidation)
	}
	return s.claimRepo.ListPayable(ctx, start, end)
}

// GenerateBatch creates a payment batch from the given claims. Every claim
// must be Approved and unpaid; one ineligible claim fails the whole batch.
// The batch row, the paid stamps and the audit entries commit together.
func (s *paymentServiceImpl) GenerateBatch(ctx context.Context, actor claim.Actor, claimIDs []int64) (*entity.PaymentBatch, error) {
	if actor.Role != claim.RoleHR {
		return nil, fmt.Errorf("%w: only HR may generate payment batches", claim.ErrForbidden)
	}
	if len(claimIDs) == 0 {
		return nil, fmt.Errorf("%w: no claims selected", claim.ErrValidation)
	}

	claims, err := s.claimRepo.GetByIDs(ctx, claimIDs)
	if err != nil {
		return nil, err
	}
	if len(claims) != len(claimIDs) {
		return nil, fmt.Errorf("%w: %d of %d selected claims not found", claim.ErrNotFound, len(claimIDs)-len(claims), len(claimIDs))
	}

	total := decimal.Zero
	for _, c := range claims {
		if c.Status != claim.StatusApproved {
			return nil, fmt.Errorf("%w: claim %d is %s, only Approved claims are payable", claim.ErrValidation, c.ID, c.Status)
		}
		if c.IsPaid {
			return nil, fmt.Errorf("%w: claim %d is already in batch %d", claim.ErrValidation, c.ID, *c.PaymentBatchID)
		}
		total = total.Add(c.Amount)
	}

	now := s.clock.Now()
	batch := &entity.PaymentBatch{
		BatchNumber: newBatchNumber(now),
		GeneratedAt: now,
		GeneratedBy: actor.Name,
		TotalAmount: total,
		TotalClaims: len(claims),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.batchRepo.Create(txCtx, batch); err != nil {
			return fmt.Errorf("create batch: %w", err)
		}
		for _, c := range claims {
			if err := s.claimRepo.MarkPaid(txCtx, c.ID, batch.ID, now); err != nil {
				return fmt.Errorf("mark claim %d paid: %w", c.ID, err)
			}
			entry := &entity.AuditEntry{
				ClaimID:   c.ID,
				ActorID:   actor.ID,
				ActorName: actor.Name,
				Kind:      event.KindBatchGenerated,
				Message:   fmt.Sprintf("Included in payment batch %s", batch.BatchNumber),
				Timestamp: now,
			}
			if err := s.auditRepo.Create(txCtx, entry); err != nil {
				return fmt.Errorf("create audit entry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to generate payment batch", "error", err, "claim_count", len(claimIDs))
		return nil, err
	}

	s.logger.Info("Payment batch generated",
		"batch_number", batch.BatchNumber, "claims", batch.TotalClaims, "total", batch.TotalAmount.String())
	return batch, nil
}

// GetBatch returns a batch with the claims it contains
func (s *paymentServiceImpl) GetBatch(ctx context.Context, batchID int64) (*BatchDetail, error) {
	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	claims, err := s.claimRepo.ListByBatchID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return &BatchDetail{Batch: batch, Claims: claims}, nil
}

// ListBatches returns batches newest first
func (s *paymentServiceImpl) ListBatches(ctx context.Context, limit, offset int) ([]*entity.PaymentBatch, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.batchRepo.List(ctx, limit, offset)
}

// newBatchNumber builds an identifier like BATCH-20260115-3F2A9C01
func newBatchNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("BATCH-%s-%s", t.Format("20060102"), suffix)
}
