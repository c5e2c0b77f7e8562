package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cmcs/claims-api/internal/domain/claim"
	"github.com/cmcs/claims-api/internal/domain/entity"
	"github.com/cmcs/claims-api/internal/domain/event"
)

var hrActor = claim.Actor{ID: "hr-1", Role: claim.RoleHR, Name: "Dana Wolfe"}

type paymentServiceFixture struct {
	claimRepo *mockClaimRepo
	batchRepo *mockBatchRepo
	auditRepo *mockAuditRepo
	service   PaymentService
}

func newPaymentServiceFixture() *paymentServiceFixture {
	f := &paymentServiceFixture{
		claimRepo: &mockClaimRepo{},
		batchRepo: &mockBatchRepo{},
		auditRepo: &mockAuditRepo{},
	}
	f.service = NewPaymentService(
		f.claimRepo, f.batchRepo, f.auditRepo,
		&mockTxManager{}, &mockClock{}, &mockLogger{},
	)
	return f
}

func approvedClaim(id int64, amount string) *entity.Claim {
	return &entity.Claim{
		ID:         id,
		LecturerID: 1,
		Status:     claim.StatusApproved,
		Amount:     decimal.RequireFromString(amount),
	}
}

func TestPaymentService_GenerateBatch(t *testing.T) {
	f := newPaymentServiceFixture()
	f.claimRepo.getByIDsFunc = func(ctx context.Context, ids []int64) ([]*entity.Claim, error) {
		return []*entity.Claim{approvedClaim(1, "500"), approvedClaim(2, "250.50")}, nil
	}
	var paid []int64
	f.claimRepo.markPaidFunc = func(ctx context.Context, id int64, batchID int64, paidAt time.Time) error {
		paid = append(paid, id)
		return nil
	}

	batch, err := f.service.GenerateBatch(context.Background(), hrActor, []int64{1, 2})
	if err != nil {
		t.Fatalf("GenerateBatch() error = %v", err)
	}

	if want := decimal.RequireFromString("750.50"); !batch.TotalAmount.Equal(want) {
		t.Errorf("GenerateBatch() total = %s, want %s", batch.TotalAmount, want)
	}
	if batch.TotalClaims != 2 {
		t.Errorf("GenerateBatch() total claims = %d, want 2", batch.TotalClaims)
	}
	if !strings.HasPrefix(batch.BatchNumber, "BATCH-20260115-") {
		t.Errorf("GenerateBatch() batch number = %q, want BATCH-20260115-XXXXXXXX", batch.BatchNumber)
	}
	if len(batch.BatchNumber) != len("BATCH-20260115-")+8 {
		t.Errorf("GenerateBatch() batch number length = %d", len(batch.BatchNumber))
	}
	if batch.BatchNumber != strings.ToUpper(batch.BatchNumber) {
		t.Errorf("GenerateBatch() batch number not upper case: %q", batch.BatchNumber)
	}
	if len(paid) != 2 {
		t.Errorf("GenerateBatch() marked %d claims paid, want 2", len(paid))
	}
	if len(f.auditRepo.entries) != 2 {
		t.Fatalf("GenerateBatch() audit entries = %d, want 2", len(f.auditRepo.entries))
	}
	for _, entry := range f.auditRepo.entries {
		if entry.Kind != event.KindBatchGenerated {
			t.Errorf("GenerateBatch() audit kind = %v, want %v", entry.Kind, event.KindBatchGenerated)
		}
		if !strings.Contains(entry.Message, batch.BatchNumber) {
			t.Errorf("GenerateBatch() audit message = %q, want batch number included", entry.Message)
		}
	}
}

func TestPaymentService_GenerateBatch_Guards(t *testing.T) {
	paidID := int64(2)
	tests := []struct {
		name    string
		actor   claim.Actor
		ids     []int64
		claims  []*entity.Claim
		wantErr error
	}{
		{
			name:    "only HR may generate",
			actor:   managerActor,
			ids:     []int64{1},
			wantErr: claim.ErrForbidden,
		},
		{
			name:    "empty selection",
			actor:   hrActor,
			ids:     nil,
			wantErr: claim.ErrValidation,
		},
		{
			name:    "missing claim",
			actor:   hrActor,
			ids:     []int64{1, 9},
			claims:  []*entity.Claim{approvedClaim(1, "100")},
			wantErr: claim.ErrNotFound,
		},
		{
			name:  "unapproved claim in selection",
			actor: hrActor,
			ids:   []int64{1, 2},
			claims: []*entity.Claim{
				approvedClaim(1, "100"),
				{ID: 2, Status: claim.StatusPending, Amount: decimal.NewFromInt(50)},
			},
			wantErr: claim.ErrValidation,
		},
		{
			name:  "already paid claim in selection",
			actor: hrActor,
			ids:   []int64{1, 2},
			claims: []*entity.Claim{
				approvedClaim(1, "100"),
				{ID: 2, Status: claim.StatusApproved, Amount: decimal.NewFromInt(50), IsPaid: true, PaymentBatchID: &paidID},
			},
			wantErr: claim.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentServiceFixture()
			if tt.claims != nil {
				f.claimRepo.getByIDsFunc = func(ctx context.Context, ids []int64) ([]*entity.Claim, error) {
					return tt.claims, nil
				}
			}
			var created bool
			f.batchRepo.createFunc = func(ctx context.Context, batch *entity.PaymentBatch) error {
				created = true
				batch.ID = 1
				return nil
			}

			_, err := f.service.GenerateBatch(context.Background(), tt.actor, tt.ids)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("GenerateBatch() error = %v, want %v", err, tt.wantErr)
			}
			if created {
				t.Errorf("GenerateBatch() created a batch despite failed validation")
			}
		})
	}
}

func TestPaymentService_GenerateBatch_AtomicOnMarkPaidFailure(t *testing.T) {
	f := newPaymentServiceFixture()
	f.claimRepo.getByIDsFunc = func(ctx context.Context, ids []int64) ([]*entity.Claim, error) {
		return []*entity.Claim{approvedClaim(1, "100"), approvedClaim(2, "200")}, nil
	}
	f.claimRepo.markPaidFunc = func(ctx context.Context, id int64, batchID int64, paidAt time.Time) error {
		if id == 2 {
			return errors.New("claim 2 already paid")
		}
		return nil
	}

	_, err := f.service.GenerateBatch(context.Background(), hrActor, []int64{1, 2})
	if err == nil {
		t.Fatal("GenerateBatch() expected error when marking fails")
	}
}

func TestPaymentService_ListPayableClaims(t *testing.T) {
	f := newPaymentServiceFixture()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	f.claimRepo.listPayableFunc = func(ctx context.Context, s, e time.Time) ([]*entity.Claim, error) {
		if !s.Equal(start) || !e.Equal(end) {
			t.Errorf("ListPayableClaims() forwarded period %v..%v", s, e)
		}
		return []*entity.Claim{approvedClaim(1, "100")}, nil
	}

	claims, err := f.service.ListPayableClaims(context.Background(), start, end)
	if err != nil {
		t.Fatalf("ListPayableClaims() error = %v", err)
	}
	if len(claims) != 1 {
		t.Errorf("ListPayableClaims() = %d claims, want 1", len(claims))
	}

	if _, err := f.service.ListPayableClaims(context.Background(), end, start); !errors.Is(err, claim.ErrValidation) {
		t.Errorf("ListPayableClaims() inverted period error = %v, want validation", err)
	}
}

func TestPaymentService_GetBatch(t *testing.T) {
	f := newPaymentServiceFixture()

	detail, err := f.service.GetBatch(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetBatch() error = %v", err)
	}
	if detail.Batch == nil || detail.Batch.ID != 1 {
		t.Errorf("GetBatch() batch = %+v", detail.Batch)
	}
}
