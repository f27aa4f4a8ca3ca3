package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/duet/internal/config"
	"github.com/terraincognita07/duet/internal/db"
	"github.com/terraincognita07/duet/internal/fertility"
	"github.com/terraincognita07/duet/internal/i18n"
	"github.com/terraincognita07/duet/internal/services"
)

const testSecretKey = "0123456789abcdef0123456789abcdef"

type testApp struct {
	app     *fiber.App
	handler *Handler
}

func newTestApp(t *testing.T) testApp {
	t.Helper()

	databasePath := filepath.Join(t.TempDir(), "duet-api-test.db")
	database, err := db.OpenSQLite(databasePath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	i18nManager, err := i18n.NewManager("en")
	if err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	handler, err := NewHandler(database, testSecretKey, config.Default(), time.UTC, i18nManager)
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}

	app := fiber.New()
	app.Use(handler.LanguageMiddleware)
	RegisterRoutes(app, handler)
	app.Use(handler.NotFound)
	return testApp{app: app, handler: handler}
}

func (env testApp) token(t *testing.T, userID string, role services.Role, entitlement services.Entitlement, coupleCode string) string {
	t.Helper()
	token, err := IssueToken([]byte(testSecretKey), Viewer{
		UserID:      userID,
		Role:        role,
		Entitlement: entitlement,
		CoupleCode:  coupleCode,
	}, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func (env testApp) do(t *testing.T, method string, path string, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := env.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	t.Cleanup(func() {
		_ = response.Body.Close()
	})
	return response
}

func decodeJSON(t *testing.T, response *http.Response, target any) {
	t.Helper()
	raw, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		t.Fatalf("decode response body %q: %v", raw, err)
	}
}

func readAPIError(t *testing.T, response *http.Response) map[string]string {
	t.Helper()
	payload := map[string]string{}
	decodeJSON(t, response, &payload)
	return payload
}

func expectStatus(t *testing.T, response *http.Response, want int) {
	t.Helper()
	if response.StatusCode != want {
		raw, _ := io.ReadAll(response.Body)
		t.Fatalf("expected status %d, got %d: %s", want, response.StatusCode, raw)
	}
}

// daysAgo is relative to the wall clock because the handler's services use
// real time.
func daysAgo(days int) string {
	return fertility.DateOf(time.Now().UTC()).AddDays(-days).String()
}

type projectionBody struct {
	Visible       bool     `json:"visible"`
	Gated         bool     `json:"gated"`
	Version       int64    `json:"version"`
	Horizon       int      `json:"horizon"`
	Periods       []string `json:"periods"`
	FertileDays   []string `json:"fertile_days"`
	OvulationDays []string `json:"ovulation_days"`
}

func contains(values []string, want string) bool {
	for _, value := range values {
		if value == want {
			return true
		}
	}
	return false
}
