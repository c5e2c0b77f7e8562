package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cmcs/claims-api/internal/application/port"
	"github.com/cmcs/claims-api/internal/domain/claim"
)

// ReportSummary aggregates a reporting period
type ReportSummary struct {
	TotalClaims    int                  `json:"total_claims"`
	ApprovedClaims int                  `json:"approved_claims"`
	RejectedClaims int                  `json:"rejected_claims"`
	PendingClaims  int                  `json:"pending_claims"`
	TotalApproved  decimal.Decimal      `json:"total_approved_amount"`
	AverageAmount  decimal.Decimal      `json:"average_approved_amount"`
	ApprovalRate   float64              `json:"approval_rate"`
	ByStatus       map[claim.Status]int `json:"by_status"`
}

// MonthlyBucket is one month of claim activity
type MonthlyBucket struct {
	Year           int             `json:"year"`
	Month          time.Month      `json:"month"`
	Submitted      int             `json:"submitted"`
	Approved       int             `json:"approved"`
	ApprovedAmount decimal.Decimal `json:"approved_amount"`
}

// DepartmentBucket is one department's claim activity
type DepartmentBucket struct {
	Department     string          `json:"department"`
	Claims         int             `json:"claims"`
	Approved       int             `json:"approved"`
	ApprovedAmount decimal.Decimal `json:"approved_amount"`
}

// TrendPoint is one month in the claims trend series
type TrendPoint struct {
	Year      int        `json:"year"`
	Month     time.Month `json:"month"`
	Submitted int        `json:"submitted"`
}

// ReportService computes read-side aggregates over claims. Amounts counted
// as "approved" include claims waiting on the manager (Coordinator Approved)
// so the totals reflect committed spend, not just finalized spend.
type ReportService interface {
	Summary(ctx context.Context, start, end time.Time) (*ReportSummary, error)
	MonthlyBreakdown(ctx context.Context, start, end time.Time) ([]MonthlyBucket, error)
	DepartmentBreakdown(ctx context.Context, start, end time.Time) ([]DepartmentBucket, error)
	AverageProcessingDays(ctx context.Context, start, end time.Time) (float64, error)
	ClaimsTrend(ctx context.Context, months int) ([]TrendPoint, error)
}

type reportServiceImpl struct {
	claimRepo    port.ClaimRepository
	auditRepo    port.AuditRepository
	lecturerRepo port.LecturerRepository
	clock        port.Clock
	logger       Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	claimRepo port.ClaimRepository,
	auditRepo port.AuditRepository,
	lecturerRepo port.LecturerRepository,
	clock port.Clock,
	logger Logger,
) ReportService {
	return &reportServiceImpl{
		claimRepo:    claimRepo,
		auditRepo:    auditRepo,
		lecturerRepo: lecturerRepo,
		clock:        clock,
		logger:       logger,
	}
}

// approvedForReporting counts money that is committed: fully approved claims
// plus those cleared by a coordinator and awaiting the manager
func approvedForReporting(status claim.Status) bool {
	return status == claim.StatusApproved || status == claim.StatusCoordinatorApproved
}

// Summary aggregates claim counts, amounts and approval rate over the period
func (s *reportServiceImpl) Summary(ctx context.Context, start, end time.Time) (*ReportSummary, error) {
	claims, err := s.claimRepo.ListBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	summary := &ReportSummary{ByStatus: make(map[claim.Status]int)}
	approvedCount := 0
	for _, c := range claims {
		summary.TotalClaims++
		summary.ByStatus[c.Status]++
		switch c.Status {
		case claim.StatusApproved:
			summary.ApprovedClaims++
		case claim.StatusRejected:
			summary.RejectedClaims++
		case claim.StatusPending:
			summary.PendingClaims++
		}
		if approvedForReporting(c.Status) {
			summary.TotalApproved = summary.TotalApproved.Add(c.Amount)
			approvedCount++
		}
	}

	if approvedCount > 0 {
		summary.AverageAmount = summary.TotalApproved.Div(decimal.NewFromInt(int64(approvedCount))).Round(2)
	}
	if summary.TotalClaims > 0 {
		summary.ApprovalRate = round1(float64(summary.ApprovedClaims) / float64(summary.TotalClaims) * 100)
	}
	return summary, nil
}

// MonthlyBreakdown buckets the period's claims by submission month,
// chronologically
func (s *reportServiceImpl) MonthlyBreakdown(ctx context.Context, start, end time.Time) ([]MonthlyBucket, error) {
	claims, err := s.claimRepo.ListBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	type ym struct {
		year  int
		month time.Month
	}
	buckets := make(map[ym]*MonthlyBucket)
	for _, c := range claims {
		key := ym{c.SubmissionDate.Year(), c.SubmissionDate.Month()}
		b, ok := buckets[key]
		if !ok {
			b = &MonthlyBucket{Year: key.year, Month: key.month}
			buckets[key] = b
		}
		b.Submitted++
		if approvedForReporting(c.Status) {
			b.Approved++
			b.ApprovedAmount = b.ApprovedAmount.Add(c.Amount)
		}
	}

	result := make([]MonthlyBucket, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year < result[j].Year
		}
		return result[i].Month < result[j].Month
	})
	return result, nil
}

// DepartmentBreakdown buckets the period's claims by lecturer department,
// busiest departments first
func (s *reportServiceImpl) DepartmentBreakdown(ctx context.Context, start, end time.Time) ([]DepartmentBucket, error) {
	claims, err := s.claimRepo.ListBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(claims))
	seen := make(map[int64]bool)
	for _, c := range claims {
		if !seen[c.LecturerID] {
			seen[c.LecturerID] = true
			ids = append(ids, c.LecturerID)
		}
	}
	lecturers, err := s.lecturerRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*DepartmentBucket)
	for _, c := range claims {
		dept := "Unknown"
		if l, ok := lecturers[c.LecturerID]; ok && l.Department != "" {
			dept = l.Department
		}
		b, ok := buckets[dept]
		if !ok {
			b = &DepartmentBucket{Department: dept}
			buckets[dept] = b
		}
		b.Claims++
		if approvedForReporting(c.Status) {
			b.Approved++
			b.ApprovedAmount = b.ApprovedAmount.Add(c.Amount)
		}
	}

	result := make([]DepartmentBucket, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Claims != result[j].Claims {
			return result[i].Claims > result[j].Claims
		}
		return result[i].Department < result[j].Department
	})
	return result, nil
}

// AverageProcessingDays is the mean days from submission to the first
// terminal decision, over claims decided in the period. Claims still in
// flight are excluded rather than skewing the average.
func (s *reportServiceImpl) AverageProcessingDays(ctx context.Context, start, end time.Time) (float64, error) {
	claims, err := s.claimRepo.ListBetween(ctx, start, end)
	if err != nil {
		return 0, err
	}

	var total float64
	var counted int
	for _, c := range claims {
		if !c.Status.IsTerminal() {
			continue
		}
		entries, err := s.auditRepo.GetByClaimID(ctx, c.ID)
		if err != nil {
			return 0, err
		}
		for _, entry := range entries {
			if entry.IsTerminalDecision() {
				total += entry.Timestamp.Sub(c.SubmissionDate).Hours() / 24
				counted++
				break
			}
		}
	}

	if counted == 0 {
		return 0, nil
	}
	return round1(total / float64(counted)), nil
}

// ClaimsTrend counts submissions per month over the trailing window,
// including empty months, oldest first
func (s *reportServiceImpl) ClaimsTrend(ctx context.Context, months int) ([]TrendPoint, error) {
	if months <= 0 {
		months = 6
	}

	now := s.clock.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)
	claims, err := s.claimRepo.ListBetween(ctx, first, now)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, c := range claims {
		counts[c.SubmissionDate.Format("2006-01")]++
	}

	points := make([]TrendPoint, 0, months)
	for i := 0; i < months; i++ {
		m := first.AddDate(0, i, 0)
		points = append(points, TrendPoint{
			Year:      m.Year(),
			Month:     m.Month(),
			Submitted: counts[m.Format("2006-01")],
		})
	}
	return points, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
