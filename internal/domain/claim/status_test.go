package claim

import (
	"errors"
	"testing"
)

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusPending, false},
		{StatusUnderReview, false},
		{StatusRevisionRequested, false},
		{StatusCoordinatorApproved, false},
		{StatusApproved, true},
		{StatusRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.expected {
				t.Errorf("Status.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStatus_IsEditable(t *testing.T) {
	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusPending, true},
		{StatusUnderReview, true},
		{StatusRevisionRequested, true},
		{StatusCoordinatorApproved, false},
		{StatusApproved, false},
		{StatusRejected, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsEditable(); got != tt.expected {
				t.Errorf("Status.IsEditable() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		expected bool
	}{
		{"pending", StatusPending, true},
		{"rejected", StatusRejected, true},
		{"unknown", Status("Archived"), false},
		{"empty", Status(""), false},
		{"case sensitive", Status("pending"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.expected {
				t.Errorf("Status.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("Under Review")
	if err != nil {
		t.Fatalf("ParseStatus() unexpected error: %v", err)
	}
	if status != StatusUnderReview {
		t.Errorf("ParseStatus() = %v, want %v", status, StatusUnderReview)
	}

	_, err = ParseStatus("Cancelled")
	if err == nil {
		t.Fatal("ParseStatus() should reject an unknown status")
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("ParseStatus() error = %v, want ErrValidation", err)
	}
}
