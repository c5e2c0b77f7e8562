package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cmcs/claims-api/internal/domain/claim"
	"github.com/cmcs/claims-api/internal/domain/entity"
)

// Mock repositories

type mockClaimRepo struct {
	createFunc        func(ctx context.Context, c *entity.Claim) error
	getByIDFunc       func(ctx context.Context, id int64) (*entity.Claim, error)
	getByIDsFunc      func(ctx context.Context, ids []int64) ([]*entity.Claim, error)
	listBetweenFunc   func(ctx context.Context, start, end time.Time) ([]*entity.Claim, error)
	listPayableFunc   func(ctx context.Context, start, end time.Time) ([]*entity.Claim, error)
	updateStatusFunc  func(ctx context.Context, id int64, from, to claim.Status, now time.Time) error
	appendNotesFunc   func(ctx context.Context, id int64, text string, now time.Time) error
	markPaidFunc      func(ctx context.Context, id int64, batchID int64, paidAt time.Time) error
	setApprovalFunc   func(ctx context.Context, id int64, t time.Time) error
	countByStatusFunc func(ctx context.Context, status claim.Status) (int, error)
}

func (m *mockClaimRepo) Create(ctx context.Context, c *entity.Claim) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, c)
	}
	c.ID = 1
	return nil
}

func (m *mockClaimRepo) GetByID(ctx context.Context, id int64) (*entity.Claim, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Claim{ID: id, LecturerID: 1, Status: claim.StatusPending}, nil
}

func (m *mockClaimRepo) GetByIDs(ctx context.Context, ids []int64) ([]*entity.Claim, error) {
	if m.getByIDsFunc != nil {
		return m.getByIDsFunc(ctx, ids)
	}
	claims := make([]*entity.Claim, 0, len(ids))
	for _, id := range ids {
		claims = append(claims, &entity.Claim{ID: id, LecturerID: 1, Status: claim.StatusApproved})
	}
	return claims, nil
}

func (m *mockClaimRepo) ListByLecturer(ctx context.Context, lecturerID int64) ([]*entity.Claim, error) {
	return []*entity.Claim{}, nil
}

func (m *mockClaimRepo) ListByStatus(ctx context.Context, status claim.Status) ([]*entity.Claim, error) {
	return []*entity.Claim{}, nil
}

func (m *mockClaimRepo) ListAll(ctx context.Context) ([]*entity.Claim, error) {
	return []*entity.Claim{}, nil
}

func (m *mockClaimRepo) ListBetween(ctx context.Context, start, end time.Time) ([]*entity.Claim, error) {
	if m.listBetweenFunc != nil {
		return m.listBetweenFunc(ctx, start, end)
	}
	return []*entity.Claim{}, nil
}

func (m *mockClaimRepo) ListPayable(ctx context.Context, start, end time.Time) ([]*entity.Claim, error) {
	if m.listPayableFunc != nil {
		return m.listPayableFunc(ctx, start, end)
	}
	return []*entity.Claim{}, nil
}

func (m *mockClaimRepo) ListByBatchID(ctx context.Context, batchID int64) ([]*entity.Claim, error) {
	return []*entity.Claim{}, nil
}

func (m *mockClaimRepo) UpdateStatus(ctx context.Context, id int64, from, to claim.Status, now time.Time) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, from, to, now)
	}
	return nil
}

func (m *mockClaimRepo) SetApprovalDate(ctx context.Context, id int64, t time.Time) error {
	if m.setApprovalFunc != nil {
		return m.setApprovalFunc(ctx, id, t)
	}
	return nil
}

func (m *mockClaimRepo) AppendNotes(ctx context.Context, id int64, text string, now time.Time) error {
	if m.appendNotesFunc != nil {
		return m.appendNotesFunc(ctx, id, text, now)
	}
	return nil
}

func (m *mockClaimRepo) MarkPaid(ctx context.Context, id int64, batchID int64, paidAt time.Time) error {
	if m.markPaidFunc != nil {
		return m.markPaidFunc(ctx, id, batchID, paidAt)
	}
	return nil
}

func (m *mockClaimRepo) CountByStatus(ctx context.Context, status claim.Status) (int, error) {
	if m.countByStatusFunc != nil {
		return m.countByStatusFunc(ctx, status)
	}
	return 0, nil
}

func (m *mockClaimRepo) CountAll(ctx context.Context) (int, error) {
	return 0, nil
}

type mockDocumentRepo struct {
	createFunc       func(ctx context.Context, doc *entity.SupportingDocument) error
	getByIDFunc      func(ctx context.Context, id int64) (*entity.SupportingDocument, error)
	getByClaimIDFunc func(ctx context.Context, claimID int64) ([]*entity.SupportingDocument, error)
	deleteFunc       func(ctx context.Context, id int64) error
}

func (m *mockDocumentRepo) Create(ctx context.Context, doc *entity.SupportingDocument) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, doc)
	}
	doc.ID = 1
	return nil
}

func (m *mockDocumentRepo) GetByID(ctx context.Context, id int64) (*entity.SupportingDocument, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.SupportingDocument{ID: id, ClaimID: 1, FileName: "timesheet.pdf", StoredName: "abc.pdf"}, nil
}

func (m *mockDocumentRepo) GetByClaimID(ctx context.Context, claimID int64) ([]*entity.SupportingDocument, error) {
	if m.getByClaimIDFunc != nil {
		return m.getByClaimIDFunc(ctx, claimID)
	}
	return []*entity.SupportingDocument{}, nil
}

func (m *mockDocumentRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockAuditRepo struct {
	createFunc       func(ctx context.Context, entry *entity.AuditEntry) error
	getByClaimIDFunc func(ctx context.Context, claimID int64) ([]*entity.AuditEntry, error)
	entries          []*entity.AuditEntry
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *entity.AuditEntry) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, entry)
	}
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) GetByClaimID(ctx context.Context, claimID int64) ([]*entity.AuditEntry, error) {
	if m.getByClaimIDFunc != nil {
		return m.getByClaimIDFunc(ctx, claimID)
	}
	var matched []*entity.AuditEntry
	for _, entry := range m.entries {
		if entry.ClaimID == claimID {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

func (m *mockAuditRepo) GetRecent(ctx context.Context, limit int) ([]*entity.AuditEntry, error) {
	return m.entries, nil
}

type mockLecturerRepo struct {
	getByIDFunc  func(ctx context.Context, id int64) (*entity.Lecturer, error)
	getByIDsFunc func(ctx context.Context, ids []int64) (map[int64]*entity.Lecturer, error)
}

func (m *mockLecturerRepo) GetByID(ctx context.Context, id int64) (*entity.Lecturer, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Lecturer{
		ID:         id,
		Name:       "Ada Okoye",
		Department: "Computer Science",
		Email:      "ada@example.edu",
		HourlyRate: decimal.NewFromInt(50),
	}, nil
}

func (m *mockLecturerRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Lecturer, error) {
	if m.getByIDsFunc != nil {
		return m.getByIDsFunc(ctx, ids)
	}
	result := make(map[int64]*entity.Lecturer, len(ids))
	for _, id := range ids {
		l, _ := m.GetByID(ctx, id)
		result[id] = l
	}
	return result, nil
}

type mockBatchRepo struct {
	createFunc  func(ctx context.Context, batch *entity.PaymentBatch) error
	getByIDFunc func(ctx context.Context, id int64) (*entity.PaymentBatch, error)
}

func (m *mockBatchRepo) Create(ctx context.Context, batch *entity.PaymentBatch) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, batch)
	}
	batch.ID = 1
	return nil
}

func (m *mockBatchRepo) GetByID(ctx context.Context, id int64) (*entity.PaymentBatch, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.PaymentBatch{ID: id, BatchNumber: "BATCH-20260101-ABCDEF12"}, nil
}

func (m *mockBatchRepo) List(ctx context.Context, limit, offset int) ([]*entity.PaymentBatch, error) {
	return []*entity.PaymentBatch{}, nil
}

type mockFileStore struct {
	saveFunc   func(ctx context.Context, storedName string, content []byte) error
	readFunc   func(ctx context.Context, storedName string) ([]byte, error)
	deleteFunc func(ctx context.Context, storedName string) error
	saved      map[string][]byte
}

func (m *mockFileStore) Save(ctx context.Context, storedName string, content []byte) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, storedName, content)
	}
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[storedName] = content
	return nil
}

func (m *mockFileStore) Read(ctx context.Context, storedName string) ([]byte, error) {
	if m.readFunc != nil {
		return m.readFunc(ctx, storedName)
	}
	content, ok := m.saved[storedName]
	if !ok {
		return nil, fmt.Errorf("no file stored under %s", storedName)
	}
	return content, nil
}

func (m *mockFileStore) Delete(ctx context.Context, storedName string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, storedName)
	}
	delete(m.saved, storedName)
	return nil
}

func (m *mockFileStore) Exists(ctx context.Context, storedName string) bool {
	_, ok := m.saved[storedName]
	return ok
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockClock struct {
	now time.Time
}

func (m *mockClock) Now() time.Time {
	if m.now.IsZero() {
		return time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	}
	return m.now
}

type mockMailer struct {
	sendFunc func(to, subject, body string) error
	sent     []string
}

func (m *mockMailer) Send(to, subject, body string) error {
	if m.sendFunc != nil {
		return m.sendFunc(to, subject, body)
	}
	m.sent = append(m.sent, subject)
	return nil
}

type mockNotifier struct {
	notified []claim.Action
	err      error
}

func (m *mockNotifier) NotifyDecision(ctx context.Context, c *entity.Claim, action claim.Action, reason string) error {
	m.notified = append(m.notified, action)
	return m.err
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
