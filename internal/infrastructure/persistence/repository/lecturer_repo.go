package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cmcs/claims-api/internal/application/port"
	"github.com/cmcs/claims-api/internal/domain/claim"
	"github.com/cmcs/claims-api/internal/domain/entity"
	"github.com/cmcs/claims-api/internal/infrastructure/persistence/sqlite"
)

// LecturerRepository implements port.LecturerRepository
type LecturerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLecturerRepository creates a new lecturer repository
func NewLecturerRepository(db *sql.DB, logger *zap.Logger) port.LecturerRepository {
	return &LecturerRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a lecturer by ID
func (r *LecturerRepository) GetByID(ctx context.Context, id int64) (*entity.Lecturer, error) {
	query := `SELECT id, name, department, email, hourly_rate FROM lecturers WHERE id = ?`

	lecturer, err := scanLecturer(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: lecturer %d", claim.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get lecturer", zap.Int64("lecturer_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get lecturer: %w", err)
	}
	return lecturer, nil
}

// GetByIDs retrieves lecturers by ID. Missing IDs are absent from the map.
func (r *LecturerRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Lecturer, error) {
	result := make(map[int64]*entity.Lecturer, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `SELECT id, name, department, email, hourly_rate FROM lecturers WHERE id IN (` + placeholders + `)`

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query lecturers", zap.Error(err))
		return nil, fmt.Errorf("failed to query lecturers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		lecturer, err := scanLecturer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lecturer: %w", err)
		}
		result[lecturer.ID] = lecturer
	}
	return result, rows.Err()
}

func scanLecturer(row rowScanner) (*entity.Lecturer, error) {
	var (
		lecturer entity.Lecturer
		rate     string
	)
	err := row.Scan(&lecturer.ID, &lecturer.Name, &lecturer.Department, &lecturer.Email, &rate)
	if err != nil {
		return nil, err
	}
	if lecturer.HourlyRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("invalid hourly_rate %q: %w", rate, err)
	}
	return &lecturer, nil
}

// Verify interface compliance
var _ port.LecturerRepository = (*LecturerRepository)(nil)
