package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/charbodjc/daddy-caddy/internal/backup"
	"github.com/charbodjc/daddy-caddy/internal/live"
	"github.com/charbodjc/daddy-caddy/internal/models"
	"github.com/charbodjc/daddy-caddy/internal/services"
	"github.com/charbodjc/daddy-caddy/internal/session"
	"github.com/charbodjc/daddy-caddy/internal/stats"
	"github.com/charbodjc/daddy-caddy/internal/store/storetest"
)

type fixedSummary struct{}

func (fixedSummary) SummarizeRound(_ context.Context, r models.Round, _ []models.Media) string {
	return "nice round at " + r.CourseName
}

func (fixedSummary) SummarizeHole(_ context.Context, h models.Hole, _ []models.Media) string {
	return fmt.Sprintf("hole %d in %d", h.HoleNumber, h.Strokes)
}

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	st := storetest.New(t)
	log := storetest.Logger()
	hub := live.NewHub(st, log)
	bus := live.NewDeletionBus(log)
	live.Attach(st, hub, bus)
	t.Cleanup(hub.Close)

	prefs := session.New(st)
	rounds := services.NewRoundService(st, prefs, fixedSummary{}, log)
	app := fiber.New()
	Register(app, Deps{
		Store:       st,
		Rounds:      rounds,
		Tournaments: services.NewTournamentService(st, rounds, log),
		Media:       services.NewMediaService(st, log),
		Contacts:    services.NewContactService(st, log),
		Session:     prefs,
		Hub:         hub,
		Deletions:   bus,
		Logger:      log,
	})
	return app
}

// call sends a request and decodes a JSON response into out when out is non-nil.
func call(t *testing.T, app *fiber.App, method, path, body string, out any) int {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	var body map[string]string
	if code := call(t, newApp(t), "GET", "/health", "", &body); code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("GET /health = %d %v", code, body)
	}
}

func TestRoundLifecycle(t *testing.T) {
	app := newApp(t)

	var round models.Round
	if code := call(t, app, "POST", "/api/v1/rounds", `{"courseName":"Pebble Beach","date":"2026-05-01"}`, &round); code != http.StatusCreated {
		t.Fatalf("create status = %d", code)
	}
	if len(round.Holes) != models.HolesPerRound {
		t.Fatalf("created round has %d holes", len(round.Holes))
	}

	var active models.Round
	if code := call(t, app, "GET", "/api/v1/rounds/active", "", &active); code != http.StatusOK || active.ID != round.ID {
		t.Errorf("active = %d %s", code, active.ID)
	}

	var updated models.Round
	code := call(t, app, "PATCH", "/api/v1/rounds/"+round.ID+"/holes/1", `{"strokes":5,"putts":2,"fairwayHit":true}`, &updated)
	if code != http.StatusOK {
		t.Fatalf("patch status = %d", code)
	}
	if updated.TotalScore == nil || *updated.TotalScore != 5 || *updated.TotalPutts != 2 || *updated.FairwaysHit != 1 {
		t.Errorf("aggregates after patch = %v %v %v", updated.TotalScore, updated.TotalPutts, updated.FairwaysHit)
	}

	var rs stats.Statistics
	if code := call(t, app, "GET", "/api/v1/rounds/"+round.ID+"/stats", "", &rs); code != http.StatusOK || rs.BestScore != 5 || rs.ScoreDistribution.Bogey != 1 {
		t.Errorf("round stats = %d %+v", code, rs)
	}

	var analysis map[string]string
	if code := call(t, app, "POST", "/api/v1/rounds/"+round.ID+"/analysis", "", &analysis); code != http.StatusOK || analysis["analysis"] != "nice round at Pebble Beach" {
		t.Errorf("analysis = %d %v", code, analysis)
	}

	var holeAnalysis map[string]string
	if code := call(t, app, "POST", "/api/v1/rounds/"+round.ID+"/holes/1/analysis", "", &holeAnalysis); code != http.StatusOK || holeAnalysis["analysis"] != "hole 1 in 5" {
		t.Errorf("hole analysis = %d %v", code, holeAnalysis)
	}

	if code := call(t, app, "POST", "/api/v1/rounds/"+round.ID+"/finish", "", nil); code != http.StatusNoContent {
		t.Errorf("finish status = %d", code)
	}
	if code := call(t, app, "GET", "/api/v1/rounds/active", "", nil); code != http.StatusNoContent {
		t.Errorf("active after finish = %d", code)
	}

	var career stats.Statistics
	if code := call(t, app, "GET", "/api/v1/stats", "", &career); code != http.StatusOK || career.TotalRounds != 1 {
		t.Errorf("career stats = %d %+v", code, career)
	}

	if code := call(t, app, "DELETE", "/api/v1/rounds/"+round.ID, "", nil); code != http.StatusNoContent {
		t.Errorf("delete status = %d", code)
	}
	if code := call(t, app, "GET", "/api/v1/rounds/"+round.ID, "", nil); code != http.StatusNotFound {
		t.Errorf("get after delete = %d", code)
	}
}

func TestOnboardingRoutes(t *testing.T) {
	app := newApp(t)

	var state OnboardingState
	if code := call(t, app, "GET", "/api/v1/session/onboarding", "", &state); code != http.StatusOK || state.Completed == nil || *state.Completed {
		t.Fatalf("initial onboarding = %d %v", code, state.Completed)
	}
	if code := call(t, app, "PUT", "/api/v1/session/onboarding", `{}`, nil); code != http.StatusBadRequest {
		t.Errorf("PUT without completed = %d, want 400", code)
	}
	if code := call(t, app, "PUT", "/api/v1/session/onboarding", `{"completed":true}`, nil); code != http.StatusOK {
		t.Fatalf("PUT status = %d", code)
	}
	state = OnboardingState{}
	if code := call(t, app, "GET", "/api/v1/session/onboarding", "", &state); code != http.StatusOK || state.Completed == nil || !*state.Completed {
		t.Errorf("onboarding after PUT = %d %v", code, state.Completed)
	}
}

func TestErrorStatuses(t *testing.T) {
	app := newApp(t)
	var round models.Round
	call(t, app, "POST", "/api/v1/rounds", `{"courseName":"Muni"}`, &round)

	tests := []struct {
		method, path, body string
		want               int
	}{
		{"POST", "/api/v1/rounds", `{"courseName":""}`, http.StatusBadRequest},
		{"POST", "/api/v1/rounds", `{"courseName":"x","date":"yesterday"}`, http.StatusBadRequest},
		{"PATCH", "/api/v1/rounds/" + round.ID + "/holes/19", `{"strokes":3}`, http.StatusConflict},
		{"PATCH", "/api/v1/rounds/" + round.ID + "/holes/1", `{"par":7}`, http.StatusBadRequest},
		{"PATCH", "/api/v1/rounds/" + round.ID + "/holes/1", `{}`, http.StatusBadRequest},
		{"PATCH", "/api/v1/rounds/missing/holes/1", `{"strokes":3}`, http.StatusNotFound},
		{"POST", "/api/v1/rounds/missing/finish", "", http.StatusNotFound},
		{"GET", "/api/v1/rounds/missing/holes/stream", "", http.StatusNotFound},
		{"POST", "/api/v1/rounds/" + round.ID + "/holes/19/analysis", "", http.StatusConflict},
		{"POST", "/api/v1/rounds/" + round.ID + "/holes/first/analysis", "", http.StatusBadRequest},
		{"POST", "/api/v1/rounds/missing/holes/1/analysis", "", http.StatusNotFound},
		{"PUT", "/api/v1/session/onboarding", `{"completed":"yes"}`, http.StatusBadRequest},
		{"POST", "/api/v1/tournaments", `{"name":"Cup","courseName":"Links","startDate":"2026-06-03","endDate":"2026-06-01"}`, http.StatusBadRequest},
		{"DELETE", "/api/v1/tournaments/missing", "", http.StatusNotFound},
		{"PATCH", "/api/v1/contacts/missing", `{"isActive":true}`, http.StatusNotFound},
		{"PATCH", "/api/v1/contacts/missing", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if code := call(t, app, tt.method, tt.path, tt.body, nil); code != tt.want {
			t.Errorf("%s %s %s = %d, want %d", tt.method, tt.path, tt.body, code, tt.want)
		}
	}
}

func TestTournamentRoutes(t *testing.T) {
	app := newApp(t)

	var tour models.Tournament
	if code := call(t, app, "POST", "/api/v1/tournaments", `{"name":"Cup","courseName":"Links","startDate":"2026-06-01","endDate":"2026-06-02"}`, &tour); code != http.StatusCreated {
		t.Fatalf("create tournament = %d", code)
	}
	var round models.Round
	call(t, app, "POST", "/api/v1/rounds", `{"courseName":"Links","tournamentId":"`+tour.ID+`"}`, &round)
	if round.TournamentName == nil || *round.TournamentName != "Cup" {
		t.Errorf("round tournamentName = %v", round.TournamentName)
	}

	var renamed models.Tournament
	if code := call(t, app, "PATCH", "/api/v1/tournaments/"+tour.ID, `{"name":"Club Cup"}`, &renamed); code != http.StatusOK || renamed.Name != "Club Cup" {
		t.Errorf("rename = %d %s", code, renamed.Name)
	}

	var rounds []models.Round
	call(t, app, "GET", "/api/v1/tournaments/"+tour.ID+"/rounds", "", &rounds)
	if len(rounds) != 1 || rounds[0].ID != round.ID {
		t.Errorf("tournament rounds = %v", rounds)
	}

	if code := call(t, app, "DELETE", "/api/v1/tournaments/"+tour.ID, "", nil); code != http.StatusNoContent {
		t.Fatalf("delete tournament = %d", code)
	}
	if code := call(t, app, "GET", "/api/v1/rounds/"+round.ID, "", nil); code != http.StatusNotFound {
		t.Errorf("round survived tournament delete: %d", code)
	}
	var list []models.Tournament
	call(t, app, "GET", "/api/v1/tournaments", "", &list)
	if len(list) != 0 {
		t.Errorf("tournaments = %v", list)
	}
}

func TestMediaContactsAndExport(t *testing.T) {
	app := newApp(t)
	var round models.Round
	call(t, app, "POST", "/api/v1/rounds", `{"courseName":"Muni"}`, &round)

	var m models.Media
	if code := call(t, app, "POST", "/api/v1/media", `{"uri":"file:///p.jpg","type":"photo","roundId":"`+round.ID+`","holeNumber":2}`, &m); code != http.StatusCreated {
		t.Fatalf("add media = %d", code)
	}
	var media []models.Media
	call(t, app, "GET", "/api/v1/media?roundId="+round.ID+"&holeNumber=2", "", &media)
	if len(media) != 1 || media[0].ID != m.ID {
		t.Errorf("media = %v", media)
	}

	var contact models.Contact
	if code := call(t, app, "POST", "/api/v1/contacts", `{"name":"Pat","phoneNumber":"555-0100"}`, &contact); code != http.StatusCreated || !contact.IsActive {
		t.Fatalf("add contact = %d %+v", code, contact)
	}
	if code := call(t, app, "PATCH", "/api/v1/contacts/"+contact.ID, `{"isActive":false}`, nil); code != http.StatusNoContent {
		t.Errorf("deactivate = %d", code)
	}
	var active []models.Contact
	call(t, app, "GET", "/api/v1/contacts?active=true", "", &active)
	if len(active) != 0 {
		t.Errorf("active contacts = %v", active)
	}

	var doc backup.Document
	if code := call(t, app, "GET", "/api/v1/export", "", &doc); code != http.StatusOK {
		t.Fatalf("export = %d", code)
	}
	if doc.Version != backup.Version || len(doc.Rounds) != 1 || len(doc.Rounds[0].Holes) != models.HolesPerRound ||
		len(doc.Media) != 1 || len(doc.Contacts) != 1 {
		t.Errorf("export doc = %+v", doc)
	}

	if code := call(t, app, "DELETE", "/api/v1/media/"+m.ID, "", nil); code != http.StatusNoContent {
		t.Errorf("delete media = %d", code)
	}
}
