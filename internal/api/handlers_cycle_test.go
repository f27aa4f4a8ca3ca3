package api

import (
	"net/http"
	"testing"

	"github.com/terraincognita07/duet/internal/services"
)

func TestSaveAndReadCycle(t *testing.T) {
	env := newTestApp(t)
	owner := env.token(t, "owner-1", services.RoleOwner, services.EntitlementFree, "")
	lastPeriod := daysAgo(3)

	response := env.do(t, http.MethodGet, "/api/cycle", owner, nil)
	expectStatus(t, response, http.StatusNotFound)
	if payload := readAPIError(t, response); payload["error"] != "cycle_not_configured" {
		t.Fatalf("expected cycle_not_configured, got %#v", payload)
	}

	response = env.do(t, http.MethodPost, "/api/cycle", owner, map[string]any{
		"last_period_date": lastPeriod,
		"cycle_length":     28,
		"period_length":    5,
	})
	expectStatus(t, response, http.StatusOK)
	saved := services.CycleProfileView{}
	decodeJSON(t, response, &saved)
	if saved.Revision != 1 || saved.LastPeriodDate.String() != lastPeriod {
		t.Fatalf("unexpected saved profile %#v", saved)
	}

	response = env.do(t, http.MethodGet, "/api/cycle", owner, nil)
	expectStatus(t, response, http.StatusOK)
	view := services.VisibleCycle{}
	decodeJSON(t, response, &view)
	if !view.Visible || view.Profile == nil || view.Profile.CycleLength != 28 {
		t.Fatalf("unexpected cycle view %#v", view)
	}

	response = env.do(t, http.MethodGet, "/api/fertility", owner, nil)
	expectStatus(t, response, http.StatusOK)
	projection := projectionBody{}
	decodeJSON(t, response, &projection)
	if !projection.Visible || projection.Version != 1 || projection.Horizon != 6 {
		t.Fatalf("unexpected projection header %#v", projection)
	}
	if !contains(projection.Periods, lastPeriod) || len(projection.OvulationDays) != 6 {
		t.Fatalf("unexpected projection dates %#v", projection)
	}
}

func TestSaveCycleValidationErrors(t *testing.T) {
	env := newTestApp(t)
	owner := env.token(t, "owner-1", services.RoleOwner, services.EntitlementFree, "")

	tests := []struct {
		name      string
		body      map[string]any
		wantField string
	}{
		{name: "cycle too short", body: map[string]any{"last_period_date": daysAgo(3), "cycle_length": 20, "period_length": 5}, wantField: "cycle_length"},
		{name: "cycle too long", body: map[string]any{"last_period_date": daysAgo(3), "cycle_length": 36, "period_length": 5}, wantField: "cycle_length"},
		{name: "period too long", body: map[string]any{"last_period_date": daysAgo(3), "cycle_length": 28, "period_length": 8}, wantField: "period_length"},
		{name: "bad date", body: map[string]any{"last_period_date": "03/01/2026", "cycle_length": 28, "period_length": 5}, wantField: "last_period_date"},
		{name: "future date", body: map[string]any{"last_period_date": daysAgo(-2), "cycle_length": 28, "period_length": 5}, wantField: "last_period_date"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			response := env.do(t, http.MethodPost, "/api/cycle", owner, testCase.body)
			expectStatus(t, response, http.StatusBadRequest)
			payload := readAPIError(t, response)
			if payload["error"] != "invalid_field" || payload["field"] != testCase.wantField {
				t.Fatalf("expected invalid %s, got %#v", testCase.wantField, payload)
			}
		})
	}

	response := env.do(t, http.MethodGet, "/api/cycle", owner, nil)
	expectStatus(t, response, http.StatusNotFound)
}

func TestValidationMessageIsLocalized(t *testing.T) {
	env := newTestApp(t)
	owner := env.token(t, "owner-1", services.RoleOwner, services.EntitlementFree, "")

	response := env.do(t, http.MethodPost, "/api/cycle?lang=it", owner, map[string]any{
		"last_period_date": daysAgo(3),
		"cycle_length":     20,
		"period_length":    5,
	})
	expectStatus(t, response, http.StatusBadRequest)
	if got := response.Header.Get("Content-Language"); got != "it" {
		t.Fatalf("expected Content-Language it, got %q", got)
	}
	payload := readAPIError(t, response)
	if payload["message"] != "Valore non valido per cycle_length" {
		t.Fatalf("expected italian message, got %q", payload["message"])
	}
}

func TestPeriodLifecycle(t *testing.T) {
	env := newTestApp(t)
	owner := env.token(t, "owner-1", services.RoleOwner, services.EntitlementFree, "")

	response := env.do(t, http.MethodPost, "/api/cycle/periods", owner, map[string]any{"period_start_date": daysAgo(40), "notes": " light "})
	expectStatus(t, response, http.StatusCreated)
	first := services.StartPeriodResult{}
	decodeJSON(t, response, &first)
	if first.Profile.CycleLength != 28 || first.Entry.Notes != "light" {
		t.Fatalf("unexpected first period %#v", first)
	}

	response = env.do(t, http.MethodPost, "/api/cycle/periods", owner, map[string]any{"period_start_date": daysAgo(10)})
	expectStatus(t, response, http.StatusCreated)
	second := services.StartPeriodResult{}
	decodeJSON(t, response, &second)
	if second.Entry.CycleLength == nil || *second.Entry.CycleLength != 30 {
		t.Fatalf("expected measured cycle of 30 days, got %#v", second.Entry)
	}
	if second.Profile.LastPeriodDate.String() != daysAgo(10) {
		t.Fatalf("expected profile to move to the new period, got %s", second.Profile.LastPeriodDate)
	}

	response = env.do(t, http.MethodPut, "/api/cycle/periods/"+second.Entry.ID+"/end", owner, map[string]any{"end_date": daysAgo(6)})
	expectStatus(t, response, http.StatusOK)
	ended := services.HistoryEntryView{}
	decodeJSON(t, response, &ended)
	if ended.PeriodEnd.String() != daysAgo(6) {
		t.Fatalf("expected end date %s, got %s", daysAgo(6), ended.PeriodEnd)
	}

	response = env.do(t, http.MethodPut, "/api/cycle/periods/missing/end", owner, map[string]any{"end_date": daysAgo(6)})
	expectStatus(t, response, http.StatusNotFound)
	if payload := readAPIError(t, response); payload["error"] != "history_entry_not_found" {
		t.Fatalf("expected history_entry_not_found, got %#v", payload)
	}

	response = env.do(t, http.MethodGet, "/api/cycle/history", owner, nil)
	expectStatus(t, response, http.StatusOK)
	history := services.HistoryView{}
	decodeJSON(t, response, &history)
	if len(history.Entries) != 2 || history.Entries[0].ID != second.Entry.ID {
		t.Fatalf("expected newest-first history of two entries, got %#v", history.Entries)
	}
	if history.Stats.Tracked != 2 || history.Stats.Measured != 1 {
		t.Fatalf("unexpected history stats %#v", history.Stats)
	}
}
