package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edutrack/assessment-service/internal/auth"
	"github.com/edutrack/assessment-service/internal/config"
	"github.com/edutrack/assessment-service/internal/logging"
	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/repositories"
	"github.com/edutrack/assessment-service/internal/services"
)

func TestHandleServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", services.NewValidationError("points_earned", "must not exceed 2", 3), http.StatusBadRequest},
		{"credentials", fmt.Errorf("login: %w", services.ErrInvalidCredentials), http.StatusUnauthorized},
		{"permission", services.NewPermissionError(2, 9, "submission", "view", "not the owner"), http.StatusForbidden},
		{"not found", fmt.Errorf("get: %w", services.ErrAssessmentNotFound), http.StatusNotFound},
		{"repository not found", repositories.ErrNotFound, http.StatusNotFound},
		{"duplicate submission", services.ErrSubmissionExists, http.StatusConflict},
		{"duplicate row", repositories.ErrDuplicate, http.StatusConflict},
		{"status changed", services.ErrStatusConflict, http.StatusConflict},
		{"row still referenced", fmt.Errorf("delete question: %w", repositories.ErrConflict), http.StatusConflict},
		{"business rule", services.NewBusinessRuleError("assessment_closed", "closed", nil), http.StatusUnprocessableEntity},
		{"locked", services.ErrAssessmentLocked, http.StatusUnprocessableEntity},
		{"not open", services.ErrAssessmentNotOpen, http.StatusUnprocessableEntity},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h := NewBaseHandler(logging.Nop())
			h.handleServiceError(c, tt.err)

			expectStatus(t, w, tt.want)
			var body ErrorResponse
			decodeBody(t, w, &body)
			if body.Message == "" {
				t.Fatal("error response without message")
			}
			if tt.want == http.StatusInternalServerError && strings.Contains(w.Body.String(), "connection reset") {
				t.Fatalf("internal error leaked to client: %s", w.Body.String())
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t)

	foreign := auth.NewTokenManager(config.JWTConfig{Secret: "other", Expiration: time.Hour, Issuer: "edutrack-test"})
	foreignToken, _, err := foreign.Issue(studentUser)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreignToken, http.StatusUnauthorized},
		{"valid", "Bearer " + s.token(t, studentUser), http.StatusOK},
		{"lower case scheme", "bearer " + s.token(t, studentUser), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			expectStatus(t, w, tt.want)
		})
	}
}

func TestRequireRole(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/users/sections", s.token(t, studentUser), nil)
	expectStatus(t, w, http.StatusForbidden)

	w = s.do(t, http.MethodGet, "/api/v1/users/sections", s.token(t, adminUser), nil)
	expectStatus(t, w, http.StatusOK)
	var sections []string
	decodeBody(t, w, &sections)
	if len(sections) != 2 {
		t.Fatalf("sections = %v", sections)
	}

	// admins cannot submit
	w = s.do(t, http.MethodPost, "/api/v1/submissions", s.token(t, adminUser), map[string]interface{}{"assessment_id": 1})
	expectStatus(t, w, http.StatusForbidden)
}

func TestPublicAuthRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "secret1"})
	expectStatus(t, w, http.StatusOK)
	var resp services.AuthResponse
	decodeBody(t, w, &resp)
	if resp.Token != "token-for-alice" {
		t.Fatalf("token = %q", resp.Token)
	}

	s.services.auth.loginErr = services.ErrInvalidCredentials
	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "wrong"})
	expectStatus(t, w, http.StatusUnauthorized)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest)

	w = s.do(t, http.MethodGet, "/api/v1/auth/security-question", "", nil)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestSubmitRoute(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, studentUser)

	body := map[string]interface{}{
		"assessment_id": 3,
		"answers": []map[string]interface{}{
			{"question_id": 1, "answer_text": "A"},
		},
	}
	w := s.do(t, http.MethodPost, "/api/v1/submissions", token, body)
	expectStatus(t, w, http.StatusCreated)

	got := s.services.submissions.lastActor
	want := services.Actor{ID: 2, Role: models.RoleStudent, Section: "A"}
	if got != want {
		t.Fatalf("actor = %+v, want %+v", got, want)
	}
	if req := s.services.submissions.lastReq; req.AssessmentID != 3 || len(req.Answers) != 1 || *req.Answers[0].AnswerText != "A" {
		t.Fatalf("request not bound: %+v", req)
	}

	var result services.SubmissionResult
	decodeBody(t, w, &result)
	if result.Percentage != 40 || result.PendingCount != 1 {
		t.Fatalf("result = %+v", result)
	}

	s.services.submissions.submitErr = services.ErrSubmissionExists
	w = s.do(t, http.MethodPost, "/api/v1/submissions", token, body)
	expectStatus(t, w, http.StatusConflict)
}

func TestAssessmentRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, adminUser)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"invalid id", http.MethodGet, "/api/v1/assessments/abc", nil, http.StatusBadRequest},
		{"zero id", http.MethodGet, "/api/v1/assessments/0", nil, http.StatusBadRequest},
		{"missing", http.MethodGet, "/api/v1/assessments/404", nil, http.StatusNotFound},
		{"found", http.MethodGet, "/api/v1/assessments/5", nil, http.StatusOK},
		{"unknown status", http.MethodPut, "/api/v1/assessments/5/status", map[string]string{"status": "archived"}, http.StatusBadRequest},
		{"missing status", http.MethodPut, "/api/v1/assessments/5/status", map[string]string{}, http.StatusBadRequest},
		{"publish", http.MethodPut, "/api/v1/assessments/5/status", map[string]string{"status": "published"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, token, tt.body)
			expectStatus(t, w, tt.want)
		})
	}

	if s.services.assessments.statusCalls != 1 {
		t.Fatalf("status service called %d times, want 1", s.services.assessments.statusCalls)
	}

	w := s.do(t, http.MethodGet, "/api/v1/assessments/5", s.token(t, studentUser), nil)
	expectStatus(t, w, http.StatusForbidden)
}

func TestExportRoute(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/assessments/5/export", s.token(t, adminUser), nil)
	expectStatus(t, w, http.StatusOK)

	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="scores.xlsx"` {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/vnd.openxmlformats") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if w.Body.String() != "xlsx" {
		t.Fatalf("body = %q", w.Body.String())
	}
}

func TestFileSubmissionUpload(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "essay.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("my essay")); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts/4/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token(t, studentUser))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	expectStatus(t, w, http.StatusCreated)
	if string(s.services.content.uploaded) != "my essay" || s.services.content.filename != "essay.txt" {
		t.Fatalf("upload = %q %q", s.services.content.uploaded, s.services.content.filename)
	}

	// the file part is required
	req = httptest.NewRequest(http.MethodPost, "/api/v1/posts/4/files", strings.NewReader(""))
	req.Header.Set("Authorization", "Bearer "+s.token(t, studentUser))
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestHealthAndMiddleware(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	expectStatus(t, w, http.StatusOK)
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing generated request id")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing security headers")
	}

	s.services.healthErr = errors.New("database ping failed")
	w = s.do(t, http.MethodGet, "/health", "", nil)
	expectStatus(t, w, http.StatusServiceUnavailable)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "req-123" {
		t.Fatalf("request id not propagated: %q", rec.Header().Get("X-Request-ID"))
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/posts", nil)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusNoContent)
}

func TestPanicIsRecovered(t *testing.T) {
	s := newTestServer(t)

	// fakeContent does not implement ListPosts, so the embedded nil interface panics
	w := s.do(t, http.MethodGet, "/api/v1/posts", s.token(t, studentUser), nil)
	expectStatus(t, w, http.StatusInternalServerError)

	var body ErrorResponse
	decodeBody(t, w, &body)
	if body.Message != "Internal server error" {
		t.Fatalf("message = %q", body.Message)
	}
}

func TestUploadsRequireAuth(t *testing.T) {
	srv := newTestServer(t)
	dir := filepath.Join(srv.uploadsDir, "file_submissions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "1_essay.txt"), []byte("essay"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := srv.do(t, http.MethodGet, "/uploads/file_submissions/1_essay.txt", "", nil)
	expectStatus(t, w, http.StatusUnauthorized)

	w = srv.do(t, http.MethodGet, "/uploads/file_submissions/1_essay.txt", srv.token(t, studentUser), nil)
	expectStatus(t, w, http.StatusOK)
	if w.Body.String() != "essay" {
		t.Errorf("body = %q, want essay", w.Body.String())
	}
}
