package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avaldez/sqlquest/internal/catalog"
	"github.com/avaldez/sqlquest/internal/course"
	"github.com/avaldez/sqlquest/internal/domain"
	"github.com/avaldez/sqlquest/internal/identity"
	"github.com/avaldez/sqlquest/internal/store"
)

const testUserID = "anon_0123456789abcdef0123456789abcdef"

func newTestRouter(t *testing.T) (chi.Router, store.Repository, *sql.DB) {
	t.Helper()

	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	courseDB, err := course.OpenInMemory()
	if err != nil {
		t.Fatalf("Failed to open course db: %v", err)
	}
	t.Cleanup(func() { courseDB.Close() })

	cat, err := catalog.Load("")
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}

	now := time.Now()
	if err := repo.UpsertUser(context.Background(), &domain.User{
		UserID:     testUserID,
		Username:   "aluno-9abcdef",
		LastSeenAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}

	h := NewHandler(repo, courseDB, cat, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(identity.WithUserID(req.Context(), testUserID)))
		})
	})
	h.RegisterRoutes(r)
	return r, repo, courseDB
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp := w.Result()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp, decoded
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestGetMe(t *testing.T) {
	r, _, _ := newTestRouter(t)

	resp, body := doJSON(t, r, http.MethodGet, "/api/me", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if body["username"] != "aluno-9abcdef" {
		t.Errorf("Expected username aluno-9abcdef, got %v", body["username"])
	}
}

func TestGetSchema(t *testing.T) {
	r, _, _ := newTestRouter(t)

	resp, body := doJSON(t, r, http.MethodGet, "/api/schema", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	tables, ok := body["tables"].([]any)
	if !ok || len(tables) != 3 {
		t.Fatalf("Expected 3 tables, got %v", body["tables"])
	}
}

func TestRunQuery(t *testing.T) {
	r, _, _ := newTestRouter(t)

	resp, body := doJSON(t, r, http.MethodPost, "/api/query",
		map[string]string{"query": "SELECT canal FROM dim_campanha ORDER BY canal"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if body["ok"] != true {
		t.Fatalf("Expected ok=true, got %v", body)
	}

	result := body["result"].(map[string]any)
	rows := result["rows"].([]any)
	if len(rows) != 3 {
		t.Errorf("Expected 3 rows, got %d", len(rows))
	}
}

func TestRunQueryError(t *testing.T) {
	r, _, _ := newTestRouter(t)

	resp, body := doJSON(t, r, http.MethodPost, "/api/query",
		map[string]string{"query": "SELECT * FROM nao_existe"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if body["ok"] != false {
		t.Errorf("Expected ok=false, got %v", body["ok"])
	}
	if body["error"] == nil || body["error"] == "" {
		t.Errorf("Expected an error message, got %v", body["error"])
	}
}

func TestRunQueryEmptyBody(t *testing.T) {
	r, _, _ := newTestRouter(t)

	resp, _ := doJSON(t, r, http.MethodPost, "/api/query", map[string]string{"query": "  "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
}

func TestListChallenges(t *testing.T) {
	r, _, _ := newTestRouter(t)

	resp, body := doJSON(t, r, http.MethodGet, "/api/challenges", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	challenges := body["challenges"].([]any)
	if len(challenges) != 3 {
		t.Fatalf("Expected 3 challenges, got %d", len(challenges))
	}
	first := challenges[0].(map[string]any)
	if _, leaked := first["reference_sql"]; leaked {
		t.Error("Reference query must not be exposed to clients")
	}
	if first["completed"] != false {
		t.Errorf("Expected completed=false, got %v", first["completed"])
	}
}

func TestGetHint(t *testing.T) {
	r, _, _ := newTestRouter(t)

	resp, body := doJSON(t, r, http.MethodGet, "/api/challenges/1/hint", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if body["hint"] == "" {
		t.Error("Expected a hint")
	}

	resp, _ = doJSON(t, r, http.MethodGet, "/api/challenges/99/hint", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown challenge, got %d", resp.StatusCode)
	}
}

const correctQuery1 = `SELECT p.nome_produto, SUM(f.vendas) AS total_vendas
FROM fato_marketing f JOIN dim_produto p ON f.id_produto = p.id_produto
GROUP BY p.nome_produto`

func TestValidateChallengeSuccessAndIdempotence(t *testing.T) {
	r, _, _ := newTestRouter(t)

	resp, body := doJSON(t, r, http.MethodPost, "/api/challenges/1/validate",
		map[string]string{"query": correctQuery1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if body["ok"] != true {
		t.Fatalf("Expected ok=true, got %v", body)
	}
	if body["xp_awarded"].(float64) != 20 {
		t.Errorf("Expected xp_awarded=20, got %v", body["xp_awarded"])
	}
	if body["xp_total"].(float64) != 20 {
		t.Errorf("Expected xp_total=20, got %v", body["xp_total"])
	}
	if body["level"] != "Estagiário SQL" {
		t.Errorf("Expected level Estagiário SQL, got %v", body["level"])
	}

	// Submitting again stays correct but awards nothing.
	_, body = doJSON(t, r, http.MethodPost, "/api/challenges/1/validate",
		map[string]string{"query": correctQuery1})
	if body["ok"] != true {
		t.Fatalf("Expected ok=true on resubmission, got %v", body)
	}
	if body["xp_awarded"].(float64) != 0 {
		t.Errorf("Expected xp_awarded=0 on resubmission, got %v", body["xp_awarded"])
	}
	if body["already_done"] != true {
		t.Errorf("Expected already_done=true, got %v", body["already_done"])
	}
	if body["xp_total"].(float64) != 20 {
		t.Errorf("Expected xp_total to stay 20, got %v", body["xp_total"])
	}
}

func TestValidateChallengeColumnOrder(t *testing.T) {
	r, _, _ := newTestRouter(t)

	reversed := `SELECT SUM(f.vendas) AS total_vendas, p.nome_produto
FROM fato_marketing f JOIN dim_produto p ON f.id_produto = p.id_produto
GROUP BY p.nome_produto`

	_, body := doJSON(t, r, http.MethodPost, "/api/challenges/1/validate",
		map[string]string{"query": reversed})
	if body["ok"] != true {
		t.Fatalf("Expected ok=true for reversed column order, got %v", body)
	}
}

func TestValidateChallengeMismatch(t *testing.T) {
	r, _, _ := newTestRouter(t)

	wrong := `SELECT p.nome_produto, AVG(f.vendas) AS total_vendas
FROM fato_marketing f JOIN dim_produto p ON f.id_produto = p.id_produto
GROUP BY p.nome_produto`

	resp, body := doJSON(t, r, http.MethodPost, "/api/challenges/1/validate",
		map[string]string{"query": wrong})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if body["ok"] != false {
		t.Fatalf("Expected ok=false, got %v", body)
	}
	if body["learner"] == nil || body["expected"] == nil {
		t.Error("Expected both result sets attached for side-by-side display")
	}
	if body["xp_awarded"].(float64) != 0 {
		t.Errorf("Expected no XP for a mismatch, got %v", body["xp_awarded"])
	}
}

func TestValidateChallengeLearnerError(t *testing.T) {
	r, _, _ := newTestRouter(t)

	_, body := doJSON(t, r, http.MethodPost, "/api/challenges/1/validate",
		map[string]string{"query": "SELECT coluna_errada FROM dim_produto"})
	if body["ok"] != false {
		t.Fatalf("Expected ok=false, got %v", body)
	}
	if body["error"] == nil {
		t.Error("Expected the raw SQL error in the response")
	}
}

func TestGetProgress(t *testing.T) {
	r, repo, _ := newTestRouter(t)

	if _, err := repo.AwardChallenge(context.Background(), testUserID, 1, 20); err != nil {
		t.Fatalf("Failed to seed award: %v", err)
	}
	if _, err := repo.AwardChallenge(context.Background(), testUserID, 2, 20); err != nil {
		t.Fatalf("Failed to seed award: %v", err)
	}

	resp, body := doJSON(t, r, http.MethodGet, "/api/progress", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if body["xp"].(float64) != 40 {
		t.Errorf("Expected xp=40, got %v", body["xp"])
	}
	if body["level"] != "Estagiário SQL" {
		t.Errorf("Expected level Estagiário SQL, got %v", body["level"])
	}
	if body["total"].(float64) != 3 {
		t.Errorf("Expected total=3, got %v", body["total"])
	}
	completed := body["completed"].([]any)
	if len(completed) != 2 {
		t.Errorf("Expected 2 completed, got %v", completed)
	}
}

func TestListLessons(t *testing.T) {
	r, _, _ := newTestRouter(t)

	resp, body := doJSON(t, r, http.MethodGet, "/api/lessons", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	lessons := body["lessons"].([]any)
	if len(lessons) != 5 {
		t.Errorf("Expected 5 lessons, got %d", len(lessons))
	}
}

func TestChatWithoutAgent(t *testing.T) {
	r, _, _ := newTestRouter(t)

	resp, _ := doJSON(t, r, http.MethodPost, "/api/chat", map[string]string{"message": "oi"})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503 without an agent, got %d", resp.StatusCode)
	}
}

func TestGetConfig(t *testing.T) {
	r, _, _ := newTestRouter(t)

	resp, body := doJSON(t, r, http.MethodGet, "/api/config", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if body["ai_enabled"] != false {
		t.Errorf("Expected ai_enabled=false, got %v", body["ai_enabled"])
	}
}
