package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/cmcs/claims-api/internal/domain/entity"
)

// ClaimsCSV renders the claims as CSV with a header row and a trailing
// summary row. encoding/csv handles quoting, so lecturer names and notes
// containing commas or quotes round-trip cleanly.
func ClaimsCSV(claims []*entity.Claim, lecturers map[int64]*entity.Lecturer) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"claim_id", "lecturer", "department", "hours_worked", "amount", "status", "submission_date", "approval_date"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	total := decimal.Zero
	for _, c := range claims {
		name, dept := "Unknown", ""
		if l, ok := lecturers[c.LecturerID]; ok {
			name, dept = l.Name, l.Department
		}
		approved := ""
		if c.ApprovalDate != nil {
			approved = c.ApprovalDate.Format(dateLayout)
		}
		total = total.Add(c.Amount)

		record := []string{
			strconv.FormatInt(c.ID, 10),
			name,
			dept,
			c.HoursWorked.String(),
			c.Amount.StringFixed(2),
			c.Status.String(),
			c.SubmissionDate.Format(dateLayout),
			approved,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	summary := []string{"", "", "", "", total.StringFixed(2), "", "", fmt.Sprintf("total claims: %d", len(claims))}
	if err := w.Write(summary); err != nil {
		return nil, fmt.Errorf("failed to write csv summary: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
