package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cmcs/claims-api/internal/application/service"
	"github.com/cmcs/claims-api/internal/domain/claim"
	"github.com/cmcs/claims-api/internal/domain/entity"
)

const testSecret = "test-secret"

// mockClaimService overrides only the methods a test exercises; calling
// anything else panics via the embedded nil interface.
type mockClaimService struct {
	service.ClaimService
	getClaimFunc     func(ctx context.Context, actor claim.Actor, actingLecturerID, claimID int64) (*service.ClaimDetail, error)
	listAllFunc      func(ctx context.Context) ([]*entity.Claim, error)
	listByStatusFunc func(ctx context.Context, status claim.Status) ([]*entity.Claim, error)
}

func (m *mockClaimService) GetClaim(ctx context.Context, actor claim.Actor, actingLecturerID, claimID int64) (*service.ClaimDetail, error) {
	return m.getClaimFunc(ctx, actor, actingLecturerID, claimID)
}

func (m *mockClaimService) ListAll(ctx context.Context) ([]*entity.Claim, error) {
	return m.listAllFunc(ctx)
}

func (m *mockClaimService) ListByStatus(ctx context.Context, status claim.Status) ([]*entity.Claim, error) {
	return m.listByStatusFunc(ctx, status)
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

func newTestServer(claimService service.ClaimService) *Server {
	return NewServer(ServerConfig{
		Host:      "127.0.0.1",
		Port:      0,
		JWTSecret: testSecret,
	}, claimService, nil, nil, nil, nopLogger{})
}

func signToken(t *testing.T, role claim.Role, lecturerID int64) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  "user-1",
		"name": "Test User",
		"role": role.String(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	if lecturerID > 0 {
		claims["lecturer_id"] = lecturerID
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func doRequest(server *Server, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func TestServer_AuthRequired(t *testing.T) {
	server := newTestServer(&mockClaimService{})

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "garbage token", token: "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(server, http.MethodGet, "/api/claims/1", tt.token)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestServer_RoleGuard(t *testing.T) {
	server := newTestServer(&mockClaimService{})

	tests := []struct {
		name   string
		role   claim.Role
		method string
		path   string
		want   int
	}{
		{name: "lecturer blocked from payments", role: claim.RoleLecturer, method: http.MethodGet, path: "/api/payments/batches", want: http.StatusForbidden},
		{name: "coordinator blocked from payments", role: claim.RoleCoordinator, method: http.MethodGet, path: "/api/payments/payable", want: http.StatusForbidden},
		{name: "manager blocked from document verify", role: claim.RoleManager, method: http.MethodPost, path: "/api/documents/1/verify", want: http.StatusForbidden},
		{name: "hr blocked from review transition", role: claim.RoleHR, method: http.MethodPost, path: "/api/claims/1/transition", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(server, tt.method, tt.path, signToken(t, tt.role, 0))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestServer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: fmt.Errorf("%w: claim 1", claim.ErrNotFound), want: http.StatusNotFound},
		{name: "forbidden", err: fmt.Errorf("%w: not yours", claim.ErrForbidden), want: http.StatusForbidden},
		{name: "validation", err: fmt.Errorf("%w: bad input", claim.ErrValidation), want: http.StatusBadRequest},
		{name: "conflict", err: fmt.Errorf("%w: moved", claim.ErrConflict), want: http.StatusConflict},
		{name: "unknown", err: fmt.Errorf("disk on fire"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(&mockClaimService{
				getClaimFunc: func(ctx context.Context, actor claim.Actor, actingLecturerID, claimID int64) (*service.ClaimDetail, error) {
					return nil, tt.err
				},
			})

			w := doRequest(server, http.MethodGet, "/api/claims/1", signToken(t, claim.RoleManager, 0))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestServer_ListClaims_StatusOptional(t *testing.T) {
	var listedAll bool
	var gotStatus claim.Status
	server := newTestServer(&mockClaimService{
		listAllFunc: func(ctx context.Context) ([]*entity.Claim, error) {
			listedAll = true
			return []*entity.Claim{}, nil
		},
		listByStatusFunc: func(ctx context.Context, status claim.Status) ([]*entity.Claim, error) {
			gotStatus = status
			return []*entity.Claim{}, nil
		},
	})
	token := signToken(t, claim.RoleCoordinator, 0)

	w := doRequest(server, http.MethodGet, "/api/claims", token)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !listedAll {
		t.Error("missing status query did not list all claims")
	}

	w = doRequest(server, http.MethodGet, "/api/claims?status=Pending", token)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotStatus != claim.StatusPending {
		t.Errorf("status filter = %q, want %q", gotStatus, claim.StatusPending)
	}
}

func TestServer_GetClaim_PassesViewerIdentity(t *testing.T) {
	var gotActor claim.Actor
	var gotLecturerID int64
	server := newTestServer(&mockClaimService{
		getClaimFunc: func(ctx context.Context, actor claim.Actor, actingLecturerID, claimID int64) (*service.ClaimDetail, error) {
			gotActor = actor
			gotLecturerID = actingLecturerID
			return &service.ClaimDetail{}, nil
		},
	})

	w := doRequest(server, http.MethodGet, "/api/claims/1", signToken(t, claim.RoleLecturer, 9))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotActor.Role != claim.RoleLecturer || gotLecturerID != 9 {
		t.Errorf("viewer = (%v, %d), want (lecturer, 9)", gotActor.Role, gotLecturerID)
	}

	// A lecturer token without lecturer identity cannot read claims
	w = doRequest(server, http.MethodGet, "/api/claims/1", signToken(t, claim.RoleLecturer, 0))
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestServer_LecturerIdentityRequired(t *testing.T) {
	server := newTestServer(&mockClaimService{})

	// A lecturer token without lecturer_id cannot act on claims
	w := doRequest(server, http.MethodGet, "/api/claims/mine", signToken(t, claim.RoleLecturer, 0))
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}
