package service

import (
	"context"
	"time"

	"github.com/cmcs/claims-api/internal/application/port"
	"github.com/cmcs/claims-api/internal/domain/entity"
	"github.com/cmcs/claims-api/internal/export"
)

// ExportService assembles downloadable report files
type ExportService interface {
	InvoiceExcel(ctx context.Context, start, end time.Time) ([]byte, error)
	InvoiceCSV(ctx context.Context, start, end time.Time) ([]byte, error)
	BatchExcel(ctx context.Context, batchID int64) ([]byte, error)
}

type exportServiceImpl struct {
	claimRepo    port.ClaimRepository
	batchRepo    port.BatchRepository
	lecturerRepo port.LecturerRepository
	excel        *export.ExcelExporter
	logger       Logger
}

// NewExportService creates a new ExportService
func NewExportService(
	claimRepo port.ClaimRepository,
	batchRepo port.BatchRepository,
	lecturerRepo port.LecturerRepository,
	excel *export.ExcelExporter,
	logger Logger,
) ExportService {
	return &exportServiceImpl{
		claimRepo:    claimRepo,
		batchRepo:    batchRepo,
		lecturerRepo: lecturerRepo,
		excel:        excel,
		logger:       logger,
	}
}

// InvoiceExcel renders the period's claims as an xlsx workbook
func (s *exportServiceImpl) InvoiceExcel(ctx context.Context, start, end time.Time) ([]byte, error) {
	claims, lecturers, err := s.periodClaims(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return s.excel.InvoiceReport(claims, lecturers, start, end)
}

// InvoiceCSV renders the period's claims as CSV
func (s *exportServiceImpl) InvoiceCSV(ctx context.Context, start, end time.Time) ([]byte, error) {
	claims, lecturers, err := s.periodClaims(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return export.ClaimsCSV(claims, lecturers)
}

// BatchExcel renders one payment batch as an xlsx workbook
func (s *exportServiceImpl) BatchExcel(ctx context.Context, batchID int64) ([]byte, error) {
	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	claims, err := s.claimRepo.ListByBatchID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	lecturers, err := s.lecturersFor(ctx, claims)
	if err != nil {
		return nil, err
	}
	return s.excel.BatchReport(batch, claims, lecturers)
}

func (s *exportServiceImpl) periodClaims(ctx context.Context, start, end time.Time) ([]*entity.Claim, map[int64]*entity.Lecturer, error) {
	claims, err := s.claimRepo.ListBetween(ctx, start, end)
	if err != nil {
		return nil, nil, err
	}
	lecturers, err := s.lecturersFor(ctx, claims)
	if err != nil {
		return nil, nil, err
	}
	return claims, lecturers, nil
}

func (s *exportServiceImpl) lecturersFor(ctx context.Context, claims []*entity.Claim) (map[int64]*entity.Lecturer, error) {
	ids := make([]int64, 0, len(claims))
	seen := make(map[int64]bool)
	for _, c := range claims {
		if !seen[c.LecturerID] {
			seen[c.LecturerID] = true
			ids = append(ids, c.LecturerID)
		}
	}
	return s.lecturerRepo.GetByIDs(ctx, ids)
}
