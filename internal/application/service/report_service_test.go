package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cmcs/claims-api/internal/domain/claim"
	"github.com/cmcs/claims-api/internal/domain/entity"
	"github.com/cmcs/claims-api/internal/domain/event"
)

type reportServiceFixture struct {
	claimRepo    *mockClaimRepo
	auditRepo    *mockAuditRepo
	lecturerRepo *mockLecturerRepo
	service      ReportService
}

func newReportServiceFixture() *reportServiceFixture {
	f := &reportServiceFixture{
		claimRepo:    &mockClaimRepo{},
		auditRepo:    &mockAuditRepo{},
		lecturerRepo: &mockLecturerRepo{},
	}
	f.service = NewReportService(f.claimRepo, f.auditRepo, f.lecturerRepo, &mockClock{}, &mockLogger{})
	return f
}

func reportClaim(id, lecturerID int64, status claim.Status, amount string, submitted time.Time) *entity.Claim {
	return &entity.Claim{
		ID:             id,
		LecturerID:     lecturerID,
		Status:         status,
		Amount:         decimal.RequireFromString(amount),
		SubmissionDate: submitted,
	}
}

func TestReportService_Summary(t *testing.T) {
	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	f := newReportServiceFixture()
	f.claimRepo.listBetweenFunc = func(ctx context.Context, start, end time.Time) ([]*entity.Claim, error) {
		return []*entity.Claim{
			reportClaim(1, 1, claim.StatusApproved, "100", jan),
			reportClaim(2, 1, claim.StatusCoordinatorApproved, "200", jan),
			reportClaim(3, 2, claim.StatusRejected, "300", jan),
			reportClaim(4, 2, claim.StatusPending, "50", jan),
		}, nil
	}

	summary, err := f.service.Summary(context.Background(), jan.AddDate(0, 0, -9), jan.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}

	if summary.TotalClaims != 4 {
		t.Errorf("Summary() total = %d, want 4", summary.TotalClaims)
	}
	// Committed spend covers Approved plus Coordinator Approved
	if want := decimal.RequireFromString("300"); !summary.TotalApproved.Equal(want) {
		t.Errorf("Summary() total approved = %s, want %s", summary.TotalApproved, want)
	}
	if want := decimal.RequireFromString("150"); !summary.AverageAmount.Equal(want) {
		t.Errorf("Summary() average = %s, want %s", summary.AverageAmount, want)
	}
	if summary.ApprovalRate != 25.0 {
		t.Errorf("Summary() approval rate = %v, want 25.0", summary.ApprovalRate)
	}
	if summary.ByStatus[claim.StatusRejected] != 1 {
		t.Errorf("Summary() by status = %v", summary.ByStatus)
	}
}

func TestReportService_Summary_Empty(t *testing.T) {
	f := newReportServiceFixture()

	summary, err := f.service.Summary(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.TotalClaims != 0 || summary.ApprovalRate != 0 {
		t.Errorf("Summary() on empty period = %+v, want zeros", summary)
	}
}

func TestReportService_MonthlyBreakdown(t *testing.T) {
	f := newReportServiceFixture()
	f.claimRepo.listBetweenFunc = func(ctx context.Context, start, end time.Time) ([]*entity.Claim, error) {
		return []*entity.Claim{
			reportClaim(1, 1, claim.StatusApproved, "100", time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)),
			reportClaim(2, 1, claim.StatusApproved, "150", time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)),
			reportClaim(3, 1, claim.StatusPending, "75", time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC)),
		}, nil
	}

	buckets, err := f.service.MonthlyBreakdown(context.Background(), time.Time{}, time.Now())
	if err != nil {
		t.Fatalf("MonthlyBreakdown() error = %v", err)
	}

	if len(buckets) != 2 {
		t.Fatalf("MonthlyBreakdown() buckets = %d, want 2", len(buckets))
	}
	// Chronological order
	if buckets[0].Month != time.January || buckets[1].Month != time.February {
		t.Errorf("MonthlyBreakdown() order = %v, %v", buckets[0].Month, buckets[1].Month)
	}
	if buckets[0].Submitted != 2 || buckets[0].Approved != 1 {
		t.Errorf("MonthlyBreakdown() january = %+v", buckets[0])
	}
	if want := decimal.RequireFromString("150"); !buckets[0].ApprovedAmount.Equal(want) {
		t.Errorf("MonthlyBreakdown() january amount = %s, want %s", buckets[0].ApprovedAmount, want)
	}
}

func TestReportService_DepartmentBreakdown(t *testing.T) {
	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	f := newReportServiceFixture()
	f.claimRepo.listBetweenFunc = func(ctx context.Context, start, end time.Time) ([]*entity.Claim, error) {
		return []*entity.Claim{
			reportClaim(1, 1, claim.StatusApproved, "100", jan),
			reportClaim(2, 1, claim.StatusPending, "50", jan),
			reportClaim(3, 2, claim.StatusApproved, "200", jan),
		}, nil
	}
	f.lecturerRepo.getByIDsFunc = func(ctx context.Context, ids []int64) (map[int64]*entity.Lecturer, error) {
		return map[int64]*entity.Lecturer{
			1: {ID: 1, Department: "Computer Science"},
			2: {ID: 2, Department: "Mathematics"},
		}, nil
	}

	buckets, err := f.service.DepartmentBreakdown(context.Background(), time.Time{}, time.Now())
	if err != nil {
		t.Fatalf("DepartmentBreakdown() error = %v", err)
	}

	if len(buckets) != 2 {
		t.Fatalf("DepartmentBreakdown() buckets = %d, want 2", len(buckets))
	}
	// Busiest department first
	if buckets[0].Department != "Computer Science" || buckets[0].Claims != 2 {
		t.Errorf("DepartmentBreakdown() first = %+v", buckets[0])
	}
	if buckets[1].Department != "Mathematics" || buckets[1].Approved != 1 {
		t.Errorf("DepartmentBreakdown() second = %+v", buckets[1])
	}
}

func TestReportService_AverageProcessingDays(t *testing.T) {
	submitted := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	approvedStatus := claim.StatusApproved
	rejectedStatus := claim.StatusRejected
	underReview := claim.StatusUnderReview

	f := newReportServiceFixture()
	f.claimRepo.listBetweenFunc = func(ctx context.Context, start, end time.Time) ([]*entity.Claim, error) {
		return []*entity.Claim{
			{ID: 1, Status: claim.StatusApproved, SubmissionDate: submitted},
			{ID: 2, Status: claim.StatusRejected, SubmissionDate: submitted},
			{ID: 3, Status: claim.StatusPending, SubmissionDate: submitted},
		}, nil
	}
	f.auditRepo.getByClaimIDFunc = func(ctx context.Context, claimID int64) ([]*entity.AuditEntry, error) {
		switch claimID {
		case 1:
			// Decided after 2 days; a later unrelated entry must not count
			return []*entity.AuditEntry{
				{ClaimID: 1, Kind: event.KindStatusChanged, ToStatus: &underReview, Timestamp: submitted.AddDate(0, 0, 1)},
				{ClaimID: 1, Kind: event.KindStatusChanged, ToStatus: &approvedStatus, Timestamp: submitted.AddDate(0, 0, 2)},
				{ClaimID: 1, Kind: event.KindDocumentUploaded, Timestamp: submitted.AddDate(0, 0, 9)},
			}, nil
		case 2:
			return []*entity.AuditEntry{
				{ClaimID: 2, Kind: event.KindStatusChanged, ToStatus: &rejectedStatus, Timestamp: submitted.AddDate(0, 0, 5)},
			}, nil
		}
		return nil, nil
	}

	days, err := f.service.AverageProcessingDays(context.Background(), submitted, submitted.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("AverageProcessingDays() error = %v", err)
	}
	// (2 + 5) / 2 rounded to one decimal
	if days != 3.5 {
		t.Errorf("AverageProcessingDays() = %v, want 3.5", days)
	}
}

func TestReportService_AverageProcessingDays_NoDecidedClaims(t *testing.T) {
	f := newReportServiceFixture()
	f.claimRepo.listBetweenFunc = func(ctx context.Context, start, end time.Time) ([]*entity.Claim, error) {
		return []*entity.Claim{
			{ID: 1, Status: claim.StatusPending, SubmissionDate: time.Now()},
		}, nil
	}

	days, err := f.service.AverageProcessingDays(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())
	if err != nil {
		t.Fatalf("AverageProcessingDays() error = %v", err)
	}
	if days != 0 {
		t.Errorf("AverageProcessingDays() = %v, want 0", days)
	}
}

func TestReportService_ClaimsTrend(t *testing.T) {
	f := newReportServiceFixture()
	f.claimRepo.listBetweenFunc = func(ctx context.Context, start, end time.Time) ([]*entity.Claim, error) {
		return []*entity.Claim{
			reportClaim(1, 1, claim.StatusPending, "10", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)),
			reportClaim(2, 1, claim.StatusPending, "10", time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)),
			reportClaim(3, 1, claim.StatusPending, "10", time.Date(2025, 12, 8, 0, 0, 0, 0, time.UTC)),
		}, nil
	}

	// Clock fixed at 2026-01-15, trailing 3 months: Nov, Dec, Jan
	points, err := f.service.ClaimsTrend(context.Background(), 3)
	if err != nil {
		t.Fatalf("ClaimsTrend() error = %v", err)
	}

	if len(points) != 3 {
		t.Fatalf("ClaimsTrend() points = %d, want 3", len(points))
	}
	if points[0].Month != time.November || points[0].Submitted != 0 {
		t.Errorf("ClaimsTrend() points[0] = %+v, want empty November", points[0])
	}
	if points[1].Month != time.December || points[1].Submitted != 1 {
		t.Errorf("ClaimsTrend() points[1] = %+v, want one December claim", points[1])
	}
	if points[2].Month != time.January || points[2].Submitted != 2 {
		t.Errorf("ClaimsTrend() points[2] = %+v, want two January claims", points[2])
	}
}
