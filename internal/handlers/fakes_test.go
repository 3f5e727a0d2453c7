package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edutrack/assessment-service/internal/auth"
	"github.com/edutrack/assessment-service/internal/config"
	"github.com/edutrack/assessment-service/internal/logging"
	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/services"
	"github.com/edutrack/assessment-service/internal/validator"
)

// Each fake embeds its service interface; calling a method that is not overridden panics.

type fakeServices struct {
	auth        *fakeAuth
	users       *fakeUsers
	assessments *fakeAssessments
	submissions *fakeSubmissions
	grading     *fakeGrading
	statistics  *fakeStatistics
	content     *fakeContent
	healthErr   error
}

func newFakeServices() *fakeServices {
	return &fakeServices{
		auth:        &fakeAuth{},
		users:       &fakeUsers{},
		assessments: &fakeAssessments{},
		submissions: &fakeSubmissions{},
		grading:     &fakeGrading{},
		statistics:  &fakeStatistics{},
		content:     &fakeContent{},
	}
}

func (f *fakeServices) Auth() services.AuthService             { return f.auth }
func (f *fakeServices) User() services.UserService             { return f.users }
func (f *fakeServices) Assessment() services.AssessmentService { return f.assessments }
func (f *fakeServices) Submission() services.SubmissionService { return f.submissions }
func (f *fakeServices) Grading() services.GradingService       { return f.grading }
func (f *fakeServices) Statistics() services.StatisticsService { return f.statistics }
func (f *fakeServices) Content() services.ContentService       { return f.content }

func (f *fakeServices) Initialize(context.Context) error {
	return nil
}

func (f *fakeServices) HealthCheck(context.Context) error {
	return f.healthErr
}

func (f *fakeServices) Shutdown(context.Context) error {
	return nil
}

type fakeAuth struct {
	services.AuthService
	loginErr error
}

func (f *fakeAuth) Login(_ context.Context, req *services.LoginRequest) (*services.AuthResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &services.AuthResponse{
		Token: "token-for-" + req.Username,
		User:  &models.User{ID: 1, Username: req.Username, Role: models.RoleStudent},
	}, nil
}

type fakeUsers struct {
	services.UserService
}

func (f *fakeUsers) GetProfile(_ context.Context, userID uint) (*models.User, error) {
	return &models.User{ID: userID, Username: "alice", Role: models.RoleStudent}, nil
}

func (f *fakeUsers) ListSections(context.Context) ([]string, error) {
	return []string{"A", "B"}, nil
}

type fakeAssessments struct {
	services.AssessmentService
	statusCalls int
}

func (f *fakeAssessments) UpdateStatus(_ context.Context, id uint, status models.AssessmentStatus, _ services.Actor) (*models.Assessment, error) {
	f.statusCalls++
	return &models.Assessment{ID: id, Status: status}, nil
}

func (f *fakeAssessments) GetByID(_ context.Context, id uint, _ services.Actor) (*models.Assessment, error) {
	if id == 404 {
		return nil, services.ErrAssessmentNotFound
	}
	return &models.Assessment{ID: id, Title: "Quiz"}, nil
}

type fakeSubmissions struct {
	services.SubmissionService
	submitErr error
	lastActor services.Actor
	lastReq   *services.SubmitRequest
}

func (f *fakeSubmissions) Submit(_ context.Context, req *services.SubmitRequest, student services.Actor) (*services.SubmissionResult, error) {
	f.lastActor = student
	f.lastReq = req
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &services.SubmissionResult{
		Submission:   &models.Submission{ID: 7, AssessmentID: req.AssessmentID, StudentID: student.ID, TotalScore: 2, MaxScore: 5},
		Percentage:   40,
		PendingCount: 1,
	}, nil
}

type fakeGrading struct {
	services.GradingService
}

type fakeStatistics struct {
	services.StatisticsService
}

func (f *fakeStatistics) ExportAssessmentScores(_ context.Context, id uint, _ services.Actor) (*services.ExportFile, error) {
	return &services.ExportFile{
		Filename:    "scores.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     []byte("xlsx"),
	}, nil
}

type fakeContent struct {
	services.ContentService
	uploaded []byte
	filename string
}

func (f *fakeContent) SubmitFile(_ context.Context, postID uint, upload *services.Upload, student services.Actor) (*models.FileSubmission, error) {
	data, err := io.ReadAll(upload.Reader)
	if err != nil {
		return nil, err
	}
	f.uploaded = data
	f.filename = upload.Filename
	return &models.FileSubmission{ID: 1, PostID: postID, StudentID: student.ID, OriginalName: upload.Filename}, nil
}

// ===== HELPERS =====

type testServer struct {
	router     *gin.Engine
	tokens     *auth.TokenManager
	services   *fakeServices
	uploadsDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := auth.NewTokenManager(config.JWTConfig{
		Secret:     "handler-test-secret",
		Expiration: time.Hour,
		Issuer:     "edutrack-test",
	})
	svc := newFakeServices()
	uploadsDir := t.TempDir()

	router := gin.New()
	SetupMiddleware(router, logging.Nop())
	NewHandlerManager(svc, validator.New(), tokens, logging.Nop(), uploadsDir).SetupRoutes(router)

	return &testServer{router: router, tokens: tokens, services: svc, uploadsDir: uploadsDir}
}

func (s *testServer) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, _, err := s.tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func strPtr(s string) *string { return &s }

var (
	adminUser   = &models.User{ID: 1, Username: "teacher", Role: models.RoleAdmin}
	studentUser = &models.User{ID: 2, Username: "alice", Role: models.RoleStudent, Section: strPtr("A")}
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d, body %s", w.Code, want, w.Body.String())
	}
}
