package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"mindwell/internal/app/server"
	"mindwell/internal/platform/config"
	"mindwell/internal/platform/db"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   any             `json:"error"`
}

func testApp(t *testing.T) (*server.App, *httptest.Server) {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		Environment:        "test",
		EmailFrom:          "no-reply@test.local",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
		ExportDir:          t.TempDir(),
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("db connect failed: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool, "../../../../migrations"); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}
	if err := db.Seed(ctx, pool, cfg); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	app, err := server.New(ctx, cfg, pool)
	if err != nil {
		t.Fatalf("wiring failed: %v", err)
	}

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return app, ts
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any) (int, envelope) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, url, err)
	}
	return resp.StatusCode, env
}

func register(t *testing.T, client *http.Client, baseURL string) (string, string) {
	t.Helper()
	email := fmt.Sprintf("journey-%d@example.com", time.Now().UnixNano())
	status, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/register", "", map[string]any{
		"email":       email,
		"password":    "CorrectHorse1!",
		"displayName": "Journey User",
	})
	if status != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", status, env.Data)
	}
	var out struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return out.Token, email
}

func flowState(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var view map[string]any
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode flow state: %v", err)
	}
	return view
}

func TestImmediateDeletionJourney(t *testing.T) {
	_, ts := testApp(t)
	client := ts.Client()
	token, email := register(t, client, ts.URL)

	// A fresh account goes straight to the warning with immediate mode.
	status, env := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/account/deletion-flow/start", token, nil)
	if status != http.StatusOK {
		t.Fatalf("start status = %d", status)
	}
	view := flowState(t, env)
	if view["state"] != "warning" {
		t.Fatalf("state = %v, want warning", view["state"])
	}
	if view["mode"] != "immediate" {
		t.Fatalf("mode = %v, want immediate", view["mode"])
	}

	// A second start while the flow is open is rejected.
	status, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/account/deletion-flow/start", token, nil)
	if status != http.StatusConflict {
		t.Fatalf("second start status = %d, want 409", status)
	}

	status, env = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/account/deletion-flow/continue", token, nil)
	if status != http.StatusOK {
		t.Fatalf("continue status = %d", status)
	}
	if view = flowState(t, env); view["state"] != "confirmation" {
		t.Fatalf("state = %v, want confirmation", view["state"])
	}

	// Confirm without the phrase is rejected.
	status, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/account/deletion-flow/confirm", token, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("premature confirm status = %d, want 400", status)
	}

	status, env = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/account/deletion-flow/confirmation-text", token, map[string]string{"text": "DELETE MY ACCOUNT"})
	if status != http.StatusOK {
		t.Fatalf("confirmation-text status = %d", status)
	}
	view = flowState(t, env)
	if enabled, _ := view["confirmEnabled"].(bool); !enabled {
		t.Fatal("expected confirm to be enabled after exact phrase")
	}

	status, env = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/account/deletion-flow/confirm", token, nil)
	if status != http.StatusOK {
		t.Fatalf("confirm status = %d", status)
	}
	view = flowState(t, env)
	if view["state"] != "closed" {
		t.Fatalf("state = %v, want closed", view["state"])
	}
	outcome, _ := view["outcome"].(map[string]any)
	if deleted, _ := outcome["deleted"].(bool); !deleted {
		t.Fatalf("outcome = %v, want deleted", outcome)
	}

	// The account is gone: logging in again fails.
	status, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": "CorrectHorse1!",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("login after deletion status = %d, want 401", status)
	}
}

func TestScheduledDeletionAndCancelJourney(t *testing.T) {
	_, ts := testApp(t)
	client := ts.Client()
	token, _ := register(t, client, ts.URL)

	status, env := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/account/delete", token, map[string]any{
		"gracePeriodDays": 14,
		"reason":          "taking a break",
	})
	if status != http.StatusOK {
		t.Fatalf("delete status = %d", status)
	}
	var result struct {
		Scheduled    bool       `json:"scheduled"`
		DeletionDate *time.Time `json:"deletionDate"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !result.Scheduled || result.DeletionDate == nil {
		t.Fatalf("expected scheduled deletion with a date, got %+v", result)
	}

	// A second request conflicts.
	status, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/account/delete", token, map[string]any{"gracePeriodDays": 7})
	if status != http.StatusConflict {
		t.Fatalf("second delete status = %d, want 409", status)
	}

	// The flow opens directly in the scheduled state.
	status, env = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/account/deletion-flow/start", token, nil)
	if status != http.StatusOK {
		t.Fatalf("flow start status = %d", status)
	}
	view := flowState(t, env)
	if view["state"] != "scheduled" {
		t.Fatalf("state = %v, want scheduled", view["state"])
	}

	status, env = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/account/deletion-flow/cancel-scheduled", token, nil)
	if status != http.StatusOK {
		t.Fatalf("cancel-scheduled status = %d", status)
	}
	view = flowState(t, env)
	outcome, _ := view["outcome"].(map[string]any)
	if cancelled, _ := outcome["cancelled"].(bool); !cancelled {
		t.Fatalf("outcome = %v, want cancelled", outcome)
	}

	status, env = doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/account/deletion-status", token, nil)
	if status != http.StatusOK {
		t.Fatalf("deletion-status status = %d", status)
	}
	var ds struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &ds); err != nil {
		t.Fatalf("decode deletion status: %v", err)
	}
	if ds.Status != "active" {
		t.Fatalf("account status = %q, want active after cancel", ds.Status)
	}
}

func TestConsentWithdrawalJourney(t *testing.T) {
	_, ts := testApp(t)
	client := ts.Client()
	token, _ := register(t, client, ts.URL)

	status, _ := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/consents", token, map[string]any{
		"type":    "dataUsage",
		"granted": true,
	})
	if status != http.StatusCreated {
		t.Fatalf("set consent status = %d", status)
	}

	status, env := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/consents/withdraw", token, nil)
	if status != http.StatusOK {
		t.Fatalf("withdraw status = %d", status)
	}

	var current map[string]struct {
		Granted bool `json:"granted"`
	}
	if err := json.Unmarshal(env.Data, &current); err != nil {
		t.Fatalf("decode current consents: %v", err)
	}
	if !current["withdrawConsent"].Granted {
		t.Fatal("expected withdrawConsent=true after withdrawal")
	}
	if current["dataUsage"].Granted {
		t.Fatal("expected dataUsage=false after withdrawal")
	}
}

func TestSurveySubmissionRequiresConsent(t *testing.T) {
	_, ts := testApp(t)
	client := ts.Client()
	token, _ := register(t, client, ts.URL)

	status, env := doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/surveys", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list surveys status = %d", status)
	}
	var surveys []struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &surveys); err != nil {
		t.Fatalf("decode surveys: %v", err)
	}
	if len(surveys) == 0 {
		t.Fatal("expected seeded surveys")
	}

	url := fmt.Sprintf("%s/api/v1/surveys/%d/responses", ts.URL, surveys[0].ID)
	answers := map[string]any{"answers": map[string]any{"q1": "fine"}}

	status, _ = doJSON(t, client, http.MethodPost, url, token, answers)
	if status != http.StatusForbidden {
		t.Fatalf("submit without consent status = %d, want 403", status)
	}

	status, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/consents", token, map[string]any{
		"type":    "surveySubmission",
		"granted": true,
	})
	if status != http.StatusCreated {
		t.Fatalf("grant consent status = %d", status)
	}

	status, _ = doJSON(t, client, http.MethodPost, url, token, answers)
	if status != http.StatusCreated {
		t.Fatalf("submit with consent status = %d, want 201", status)
	}
}

func TestCheckinSummaryJourney(t *testing.T) {
	_, ts := testApp(t)
	client := ts.Client()
	token, _ := register(t, client, ts.URL)

	for _, mood := range []int{3, 4, 5} {
		status, _ := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/checkins", token, map[string]any{
			"mood": mood,
			"note": "journey note",
		})
		if status != http.StatusCreated {
			t.Fatalf("create checkin status = %d", status)
		}
	}

	status, _ := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/checkins", token, map[string]any{"mood": 9})
	if status != http.StatusBadRequest {
		t.Fatalf("invalid mood status = %d, want 400", status)
	}

	status, env := doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/checkins/summary", token, nil)
	if status != http.StatusOK {
		t.Fatalf("summary status = %d", status)
	}
	var summary struct {
		Count       int     `json:"count"`
		AverageMood float64 `json:"averageMood"`
		StreakDays  int     `json:"streakDays"`
	}
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Count != 3 || summary.StreakDays != 1 {
		t.Fatalf("summary = %+v, want count 3 streak 1", summary)
	}
}

func TestDeletionBlockedByProcessingExport(t *testing.T) {
	app, ts := testApp(t)
	client := ts.Client()
	token, _ := register(t, client, ts.URL)

	status, env := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/exports", token, map[string]string{"kind": "consents"})
	if status != http.StatusCreated {
		t.Fatalf("request export status = %d", status)
	}
	var exp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &exp); err != nil {
		t.Fatalf("decode export: %v", err)
	}

	// Force the export into processing to make it a blocker.
	if _, err := app.DB.Exec(context.Background(), "UPDATE data_exports SET status = 'processing' WHERE id = $1", exp.ID); err != nil {
		t.Fatalf("flag export processing: %v", err)
	}

	status, env = doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/account/deletion-eligibility", token, nil)
	if status != http.StatusOK {
		t.Fatalf("eligibility status = %d", status)
	}
	var eligibility struct {
		CanDelete bool     `json:"canDelete"`
		Blockers  []string `json:"blockers"`
	}
	if err := json.Unmarshal(env.Data, &eligibility); err != nil {
		t.Fatalf("decode eligibility: %v", err)
	}
	if eligibility.CanDelete || len(eligibility.Blockers) == 0 {
		t.Fatalf("expected export blocker, got %+v", eligibility)
	}

	status, env = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/account/deletion-flow/start", token, nil)
	if status != http.StatusOK {
		t.Fatalf("flow start status = %d", status)
	}
	if view := flowState(t, env); view["state"] != "blocked" {
		t.Fatalf("state = %v, want blocked", view["state"])
	}
}
