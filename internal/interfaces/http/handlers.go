package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cmcs/claims-api/internal/application/service"
	"github.com/cmcs/claims-api/internal/domain/claim"
	"github.com/cmcs/claims-api/internal/domain/entity"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	claimService   service.ClaimService
	paymentService service.PaymentService
	reportService  service.ReportService
	exportService  service.ExportService
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	claimService service.ClaimService,
	paymentService service.PaymentService,
	reportService service.ReportService,
	exportService service.ExportService,
	logger Logger,
) *Handlers {
	return &Handlers{
		claimService:   claimService,
		paymentService: paymentService,
		reportService:  reportService,
		exportService:  exportService,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SubmitClaimRequest is the body for POST /api/claims
type SubmitClaimRequest struct {
	HoursWorked decimal.Decimal `json:"hours_worked" binding:"required"`
	Notes       string          `json:"notes"`
}

// TransitionRequest is the body for POST /api/claims/:id/transition
type TransitionRequest struct {
	Action string `json:"action" binding:"required"`
	Reason string `json:"reason"`
}

// BulkTransitionRequest is the body for POST /api/claims/transition/bulk
type BulkTransitionRequest struct {
	ClaimIDs []int64 `json:"claim_ids" binding:"required"`
	Action   string  `json:"action" binding:"required"`
	Reason   string  `json:"reason"`
}

// BulkTransitionResult is one claim's outcome in the bulk response
type BulkTransitionResult struct {
	ClaimID int64  `json:"claim_id"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// VerifyDocumentRequest is the body for POST /api/documents/:id/verify
type VerifyDocumentRequest struct {
	Valid bool   `json:"valid"`
	Notes string `json:"notes"`
}

// GenerateBatchRequest is the body for POST /api/payments/batches
type GenerateBatchRequest struct {
	ClaimIDs []int64 `json:"claim_ids" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// SubmitClaim handles POST /api/claims
func (h *Handlers) SubmitClaim(c *gin.Context) {
	lecturerID, ok := lecturerIDFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, Response{Error: "token carries no lecturer identity"})
		return
	}

	var req SubmitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	result, err := h.claimService.Submit(c.Request.Context(), actorFrom(c), lecturerID, req.HoursWorked, req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: result})
}

// ResubmitClaim handles POST /api/claims/:id/resubmit
func (h *Handlers) ResubmitClaim(c *gin.Context) {
	lecturerID, ok := lecturerIDFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, Response{Error: "token carries no lecturer identity"})
		return
	}
	claimID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	result, err := h.claimService.Resubmit(c.Request.Context(), actorFrom(c), lecturerID, claimID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: result})
}

// MyClaims handles GET /api/claims/mine
func (h *Handlers) MyClaims(c *gin.Context) {
	lecturerID, ok := lecturerIDFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, Response{Error: "token carries no lecturer identity"})
		return
	}

	claims, err := h.claimService.ListByLecturer(c.Request.Context(), lecturerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: claims})
}

// GetClaim handles GET /api/claims/:id
func (h *Handlers) GetClaim(c *gin.Context) {
	claimID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	actor, lecturerID, ok := viewerFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, Response{Error: "token carries no lecturer identity"})
		return
	}

	detail, err := h.claimService.GetClaim(c.Request.Context(), actor, lecturerID, claimID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: detail})
}

// ListClaims handles GET /api/claims?status=... A missing status lists
// every claim.
func (h *Handlers) ListClaims(c *gin.Context) {
	var (
		claims []*entity.Claim
		err    error
	)
	if status := c.Query("status"); status != "" {
		claims, err = h.claimService.ListByStatus(c.Request.Context(), claim.Status(status))
	} else {
		claims, err = h.claimService.ListAll(c.Request.Context())
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: claims})
}

// ClaimTimeline handles GET /api/claims/:id/timeline
func (h *Handlers) ClaimTimeline(c *gin.Context) {
	claimID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	actor, lecturerID, ok := viewerFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, Response{Error: "token carries no lecturer identity"})
		return
	}

	timeline, err := h.claimService.TimelineFor(c.Request.Context(), actor, lecturerID, claimID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: timeline})
}

// TransitionClaim handles POST /api/claims/:id/transition
func (h *Handlers) TransitionClaim(c *gin.Context) {
	claimID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	result, err := h.claimService.ApplyTransition(c.Request.Context(), actorFrom(c), claimID, claim.Action(req.Action), req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// BulkTransitionClaims handles POST /api/claims/transition/bulk
func (h *Handlers) BulkTransitionClaims(c *gin.Context) {
	var req BulkTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	results := h.claimService.BulkApplyTransition(c.Request.Context(), actorFrom(c), req.ClaimIDs, claim.Action(req.Action), req.Reason)

	out := make([]BulkTransitionResult, 0, len(results))
	for _, r := range results {
		item := BulkTransitionResult{ClaimID: r.ClaimID, OK: r.Err == nil}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: out})
}

// UploadDocument handles POST /api/claims/:id/documents
func (h *Handlers) UploadDocument(c *gin.Context) {
	claimID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: "missing file field"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, service.MaxDocumentSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	doc, err := h.claimService.UploadDocument(c.Request.Context(), actorFrom(c), claimID, fileHeader.Filename, content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: doc})
}

// DeleteDocument handles DELETE /api/documents/:id
func (h *Handlers) DeleteDocument(c *gin.Context) {
	lecturerID, ok := lecturerIDFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, Response{Error: "token carries no lecturer identity"})
		return
	}
	documentID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	if err := h.claimService.DeleteDocument(c.Request.Context(), actorFrom(c), lecturerID, documentID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// DownloadDocument handles GET /api/documents/:id/download
func (h *Handlers) DownloadDocument(c *gin.Context) {
	documentID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	actor, lecturerID, ok := viewerFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, Response{Error: "token carries no lecturer identity"})
		return
	}

	doc, content, err := h.claimService.ReadDocument(c.Request.Context(), actor, lecturerID, documentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	serveFile(c, doc.FileName, "application/octet-stream", content)
}

// VerifyDocument handles POST /api/documents/:id/verify
func (h *Handlers) VerifyDocument(c *gin.Context) {
	documentID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	var req VerifyDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	if err := h.claimService.VerifyDocument(c.Request.Context(), actorFrom(c), documentID, req.Valid, req.Notes); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// DashboardCounts handles GET /api/dashboard/counts
func (h *Handlers) DashboardCounts(c *gin.Context) {
	counts, err := h.claimService.Counts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: counts})
}

// RecentActivity handles GET /api/dashboard/recent?limit=20
func (h *Handlers) RecentActivity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	entries, err := h.claimService.RecentActivity(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// PayableClaims handles GET /api/payments/payable?start=...&end=...
func (h *Handlers) PayableClaims(c *gin.Context) {
	start, end, err := periodFrom(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	claims, err := h.paymentService.ListPayableClaims(c.Request.Context(), start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: claims})
}

// GenerateBatch handles POST /api/payments/batches
func (h *Handlers) GenerateBatch(c *gin.Context) {
	var req GenerateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	batch, err := h.paymentService.GenerateBatch(c.Request.Context(), actorFrom(c), req.ClaimIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: batch})
}

// ListBatches handles GET /api/payments/batches
func (h *Handlers) ListBatches(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	batches, err := h.paymentService.ListBatches(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: batches})
}

// GetBatch handles GET /api/payments/batches/:id
func (h *Handlers) GetBatch(c *gin.Context) {
	batchID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	detail, err := h.paymentService.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: detail})
}

// ExportBatch handles GET /api/payments/batches/:id/export
func (h *Handlers) ExportBatch(c *gin.Context) {
	batchID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	content, err := h.exportService.BatchExcel(c.Request.Context(), batchID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	serveFile(c, fmt.Sprintf("payment_batch_%d.xlsx", batchID), xlsxContentType, content)
}

// ReportSummary handles GET /api/reports/summary
func (h *Handlers) ReportSummary(c *gin.Context) {
	start, end, err := periodFrom(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	summary, err := h.reportService.Summary(c.Request.Context(), start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: summary})
}

// MonthlyReport handles GET /api/reports/monthly
func (h *Handlers) MonthlyReport(c *gin.Context) {
	start, end, err := periodFrom(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	buckets, err := h.reportService.MonthlyBreakdown(c.Request.Context(), start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: buckets})
}

// DepartmentReport handles GET /api/reports/departments
func (h *Handlers) DepartmentReport(c *gin.Context) {
	start, end, err := periodFrom(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	buckets, err := h.reportService.DepartmentBreakdown(c.Request.Context(), start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: buckets})
}

// ProcessingTimeReport handles GET /api/reports/processing-time
func (h *Handlers) ProcessingTimeReport(c *gin.Context) {
	start, end, err := periodFrom(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	days, err := h.reportService.AverageProcessingDays(c.Request.Context(), start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"average_days": days}})
}

// ClaimsTrend handles GET /api/reports/trend?months=6
func (h *Handlers) ClaimsTrend(c *gin.Context) {
	months, _ := strconv.Atoi(c.DefaultQuery("months", "6"))

	points, err := h.reportService.ClaimsTrend(c.Request.Context(), months)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: points})
}

// ExportReport handles GET /api/reports/export?format=xlsx|csv
func (h *Handlers) ExportReport(c *gin.Context) {
	start, end, err := periodFrom(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	switch c.DefaultQuery("format", "xlsx") {
	case "xlsx":
		content, err := h.exportService.InvoiceExcel(c.Request.Context(), start, end)
		if err != nil {
			h.respondError(c, err)
			return
		}
		serveFile(c, "claims_report.xlsx", xlsxContentType, content)
	case "csv":
		content, err := h.exportService.InvoiceCSV(c.Request.Context(), start, end)
		if err != nil {
			h.respondError(c, err)
			return
		}
		serveFile(c, "claims_report.csv", "text/csv", content)
	default:
		c.JSON(http.StatusBadRequest, Response{Error: "format must be xlsx or csv"})
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func serveFile(c *gin.Context, name, contentType string, content []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, content)
}

// respondError maps domain errors to HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, claim.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, claim.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, claim.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, claim.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(status, Response{Error: "internal error"})
		return
	}
	c.JSON(status, Response{Error: err.Error()})
}

// viewerFrom resolves the requesting actor. A lecturer token must carry a
// lecturer identity so reads can be scoped to the lecturer's own claims.
func viewerFrom(c *gin.Context) (claim.Actor, int64, bool) {
	actor := actorFrom(c)
	lecturerID, ok := lecturerIDFrom(c)
	if actor.Role == claim.RoleLecturer && !ok {
		return actor, 0, false
	}
	return actor, lecturerID, true
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// periodFrom reads the start/end query parameters as YYYY-MM-DD dates. A
// missing period defaults to the trailing year, with end inclusive of the
// whole day.
func periodFrom(c *gin.Context) (time.Time, time.Time, error) {
	const layout = "2006-01-02"
	now := time.Now().UTC()

	start := now.AddDate(-1, 0, 0)
	end := now
	if v := c.Query("start"); v != "" {
		t, err := time.Parse(layout, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q", v)
		}
		start = t
	}
	if v := c.Query("end"); v != "" {
		t, err := time.Parse(layout, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", v)
		}
		end = t.Add(24*time.Hour - time.Nanosecond)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end precedes start")
	}
	return start, end, nil
}
