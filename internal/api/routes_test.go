package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hallelx2/legal-ai-backend/internal/api/middleware"
	"github.com/hallelx2/legal-ai-backend/internal/config"
	"github.com/hallelx2/legal-ai-backend/internal/db"
	"github.com/hallelx2/legal-ai-backend/internal/docusign"
	"github.com/hallelx2/legal-ai-backend/internal/render"
	"github.com/hallelx2/legal-ai-backend/internal/services"
	"github.com/hallelx2/legal-ai-backend/internal/store"
	"github.com/hallelx2/legal-ai-backend/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	return "**Drafted** " + strings.SplitN(prompt, "\n", 2)[0], nil
}

type stubESignature struct{}

func (stubESignature) AuthCodeURL(state string) string {
	return "https://account-d.docusign.com/oauth/auth?state=" + state
}

func (stubESignature) Exchange(context.Context, string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}, nil
}

func (stubESignature) Refresh(context.Context, string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "a2", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}, nil
}

func (stubESignature) DefaultAccount(context.Context, string) (*docusign.Account, error) {
	return &docusign.Account{AccountID: "acct"}, nil
}

func (stubESignature) CreateEnvelope(context.Context, string, *docusign.Account, docusign.EnvelopeDefinition) (*docusign.EnvelopeSummary, error) {
	return &docusign.EnvelopeSummary{EnvelopeID: "env-1", Status: "sent"}, nil
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	token  string
	userID string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()

	database, err := db.OpenMemory(log)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	tokenCipher, err := services.NewTokenCipher("test")
	if err != nil {
		t.Fatal(err)
	}
	mc := metrics.NewMetricsCollector()

	templates := services.NewTemplateService(store.NewTemplateStore(database, nil, log), log, mc)
	if _, err := templates.Seed(context.Background(), services.PredefinedTemplates()); err != nil {
		t.Fatal(err)
	}
	agreementStore := store.NewAgreementStore(database, log)
	generator := services.NewGeneratorService(templates, stubGenerator{}, log, mc)
	tokens := services.NewDocuSignTokenService(database, stubESignature{}, tokenCipher, log)
	limiter := middleware.NewIPAttemptTracker(cfg.Security.MaxFailedAttempts, cfg.Security.LockoutDuration)
	t.Cleanup(limiter.Close)

	router := NewRouter(log, Dependencies{
		DB:         database,
		Metrics:    mc,
		Limiter:    limiter,
		Auth:       services.NewAuthService(database, cfg.Security, log, mc),
		Users:      services.NewUserService(database, log),
		Templates:  templates,
		Agreements: services.NewAgreementService(templates, generator, agreementStore, render.New(false), log, mc),
		Signatures: services.NewSignatureService(agreementStore, tokens, stubESignature{}, t.TempDir(), log, mc),
		Tokens:     tokens,
	})
	router.SetupRoutes()

	return &testServer{t: t, engine: router.GetEngine()}
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) login() {
	s.t.Helper()
	w := s.do(http.MethodPost, "/auth/register", gin.H{
		"email": "ada@example.com", "password": "correct-horse", "confirmPassword": "correct-horse",
	})
	if w.Code != http.StatusCreated {
		s.t.Fatalf("register = %d %s", w.Code, w.Body)
	}

	w = s.do(http.MethodPost, "/auth/login", gin.H{"email": "ada@example.com", "password": "correct-horse"})
	if w.Code != http.StatusOK {
		s.t.Fatalf("login = %d %s", w.Code, w.Body)
	}
	var pair services.TokenPair
	decode(s.t, w, &pair)
	s.token = pair.AccessToken
	s.userID = pair.UserID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body, err)
	}
}

func ndaRequest() gin.H {
	return gin.H{
		"templateId": "nda",
		"sections": []gin.H{
			{"sectionId": "parties", "variables": []gin.H{
				{"id": "disclosingParty", "value": "Acme"},
				{"id": "receivingParty", "value": "Globex"},
			}},
			{"sectionId": "confidential-information", "variables": []gin.H{
				{"id": "purpose", "value": "Evaluating a merger"},
			}},
		},
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	if w := s.do(http.MethodGet, "/health", nil); w.Code != http.StatusOK {
		t.Fatalf("health = %d", w.Code)
	}
	s.do(http.MethodGet, "/templates", nil)

	w := s.do(http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "legal_ai_http_requests_total") {
		t.Fatalf("metrics = %d", w.Code)
	}
}

func TestRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/templates", "/agreements", "/users", "/docusign/connect"} {
		w := s.do(http.MethodGet, path, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s = %d, want 401", path, w.Code)
		}
	}
	w := s.do(http.MethodPost, "/agreements/generate", ndaRequest())
	if w.Code != http.StatusUnauthorized {
		t.Errorf("generate without token = %d", w.Code)
	}
}

func TestTemplateRoutes(t *testing.T) {
	s := newTestServer(t)
	s.login()

	w := s.do(http.MethodGet, "/templates/predefined", nil)
	var list []map[string]interface{}
	decode(t, w, &list)
	if w.Code != http.StatusOK || len(list) != 21 {
		t.Fatalf("predefined = %d with %d templates", w.Code, len(list))
	}

	if w := s.do(http.MethodGet, "/templates/nda", nil); w.Code != http.StatusOK {
		t.Errorf("get nda = %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/templates/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("get missing = %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/templates/categories/NOPE", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad category = %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/templates/search?limit=abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit = %d", w.Code)
	}

	w = s.do(http.MethodGet, "/templates/search?tags=confidential,legal&limit=5", nil)
	decode(t, w, &list)
	if w.Code != http.StatusOK || len(list) != 1 || list[0]["id"] != "nda" {
		t.Errorf("tag search = %d %v", w.Code, list)
	}

	w = s.do(http.MethodPost, "/templates/nda/version", gin.H{"type": "MINOR", "changes": "tweak"})
	var versioned map[string]interface{}
	decode(t, w, &versioned)
	if w.Code != http.StatusCreated || versioned["version"] != "1.1.0" {
		t.Fatalf("version = %d %v", w.Code, versioned)
	}

	w = s.do(http.MethodPost, "/templates/custom", gin.H{"baseTemplateId": "nda", "name": "My NDA"})
	if w.Code != http.StatusCreated {
		t.Fatalf("custom = %d %s", w.Code, w.Body)
	}
	w = s.do(http.MethodGet, "/templates/user", nil)
	decode(t, w, &list)
	if len(list) != 2 {
		t.Errorf("user templates = %d, want the version and the custom template", len(list))
	}
}

func TestAgreementLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.login()

	bad := ndaRequest()
	bad["sections"] = []gin.H{{"sectionId": "parties", "variables": []gin.H{{"id": "disclosingParty", "value": "Acme"}}}}
	w := s.do(http.MethodPost, "/agreements/generate", bad)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Required variable receivingParty is missing in section parties") {
		t.Fatalf("invalid generate = %d %s", w.Code, w.Body)
	}

	w = s.do(http.MethodPost, "/agreements/generate", ndaRequest())
	if w.Code != http.StatusCreated {
		t.Fatalf("generate = %d %s", w.Code, w.Body)
	}
	var agreement struct {
		ID       string `json:"id"`
		UserID   string `json:"userId"`
		Metadata struct {
			Status string `json:"status"`
		} `json:"metadata"`
		Sections []struct {
			ID string `json:"id"`
		} `json:"sections"`
	}
	decode(t, w, &agreement)
	if agreement.UserID != s.userID || agreement.Metadata.Status != "generated" || len(agreement.Sections) != 3 {
		t.Fatalf("agreement = %+v", agreement)
	}

	w = s.do(http.MethodGet, "/agreements/"+agreement.ID+"/html", nil)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("html = %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "<strong>Drafted</strong>") {
		t.Error("section markdown not rendered")
	}

	w = s.do(http.MethodPost, "/agreements/"+agreement.ID+"/sign", gin.H{"userId": s.userID})
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "user not connected to DocuSign") {
		t.Fatalf("sign before connect = %d %s", w.Code, w.Body)
	}

	if w := s.do(http.MethodPost, "/docusign/create", gin.H{"code": "abc"}); w.Code != http.StatusCreated {
		t.Fatalf("docusign create = %d %s", w.Code, w.Body)
	}
	if w := s.do(http.MethodGet, "/docusign/token/"+s.userID, nil); w.Code != http.StatusOK || strings.Contains(w.Body.String(), "accessToken") {
		t.Fatalf("docusign token = %d %s", w.Code, w.Body)
	}
	if w := s.do(http.MethodGet, "/docusign/token/someone-else", nil); w.Code != http.StatusForbidden {
		t.Errorf("other user's token = %d", w.Code)
	}

	w = s.do(http.MethodPost, "/agreements/"+agreement.ID+"/sign", gin.H{"userId": s.userID})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "env-1") {
		t.Fatalf("sign = %d %s", w.Code, w.Body)
	}

	w = s.do(http.MethodPut, "/agreements/"+agreement.ID+"/status", gin.H{"status": "signed"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"signed"`) {
		t.Fatalf("status = %d %s", w.Code, w.Body)
	}
	if w := s.do(http.MethodPut, "/agreements/"+agreement.ID+"/status", gin.H{"status": "lost"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad status = %d", w.Code)
	}

	var list []map[string]interface{}
	decode(t, s.do(http.MethodGet, "/agreements/user/"+s.userID, nil), &list)
	if len(list) != 1 {
		t.Errorf("user agreements = %d", len(list))
	}

	if w := s.do(http.MethodDelete, "/agreements/"+agreement.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/agreements/"+agreement.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("get deleted = %d", w.Code)
	}
}

func TestLogoutRevokesTokens(t *testing.T) {
	s := newTestServer(t)
	s.login()

	if w := s.do(http.MethodPost, "/auth/logout", nil); w.Code != http.StatusOK {
		t.Fatalf("logout = %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/templates", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token = %d", w.Code)
	}
}

func TestLoginLockout(t *testing.T) {
	s := newTestServer(t)
	s.login()
	s.token = ""

	for i := 0; i < 5; i++ {
		w := s.do(http.MethodPost, "/auth/login", gin.H{"email": "ada@example.com", "password": "wrong-pass"})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d = %d", i+1, w.Code)
		}
	}
	w := s.do(http.MethodPost, "/auth/login", gin.H{"email": "ada@example.com", "password": "correct-horse"})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("login after lockout = %d, want 429", w.Code)
	}
}
