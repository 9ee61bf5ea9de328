package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"custodycal/internal/config"
	"custodycal/internal/model"
)

var thursday = time.Date(2024, time.January, 11, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.CacheDir = t.TempDir()
	cfg.Capture.Output = filepath.Join(t.TempDir(), "preview.png")
	if mutate != nil {
		mutate(cfg)
	}
	fam, err := cfg.FamilyModel()
	if err != nil {
		t.Fatalf("family: %v", err)
	}
	s, err := NewServer(cfg, fam)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	s.now = func() time.Time { return thursday }
	t.Cleanup(s.Close)
	return s
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestBasicAuth(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.BasicAuth = &config.BasicAuthConfig{Username: "family", Password: "s3cret"}
	})

	if rec := get(t, s, "/health"); rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("expected /health to bypass auth, got %d %q", rec.Code, rec.Body.String())
	}

	rec := get(t, s, "/api/family")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("WWW-Authenticate"), "Basic") {
		t.Error("expected WWW-Authenticate challenge")
	}

	for _, tc := range []struct {
		user, pass string
		want       int
	}{
		{"family", "wrong", http.StatusUnauthorized},
		{"other", "s3cret", http.StatusUnauthorized},
		{"family", "s3cret", http.StatusOK},
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/family", nil)
		req.SetBasicAuth(tc.user, tc.pass)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s/%s: expected %d, got %d", tc.user, tc.pass, tc.want, rec.Code)
		}
	}
}

func TestBasicAuthDisabledWhenHalfConfigured(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.BasicAuth = &config.BasicAuthConfig{Username: "family"}
	})
	if rec := get(t, s, "/api/family"); rec.Code != http.StatusOK {
		t.Errorf("expected open API, got %d", rec.Code)
	}
}

type eventsBody struct {
	Start    string            `json:"start"`
	End      string            `json:"end"`
	Timezone string            `json:"timezone"`
	Events   []json.RawMessage `json:"events"`
}

func TestEventsDefaultRange(t *testing.T) {
	s := newTestServer(t, nil)
	rec := get(t, s, "/api/events")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != contentTypeJSON {
		t.Errorf("unexpected content type %q", ct)
	}

	var body eventsBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Start != "2024-01-01" || body.End != "2024-02-02" || body.Timezone != "UTC" {
		t.Errorf("unexpected range %s..%s %s", body.Start, body.End, body.Timezone)
	}

	custodyDays := 0
	for _, raw := range body.Events {
		var head struct {
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			t.Fatal(err)
		}
		if head.Kind == string(model.KindCustody) {
			custodyDays++
		}
	}
	if custodyDays != 33 {
		t.Errorf("expected 33 custody days, got %d", custodyDays)
	}
}

func TestEventsExplicitDay(t *testing.T) {
	s := newTestServer(t, nil)
	rec := get(t, s, "/api/events?start=2024-01-11&end=2024-01-11")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body eventsBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Events) != 9 {
		t.Errorf("expected 9 events, got %d", len(body.Events))
	}
}

func TestEventsRangeErrors(t *testing.T) {
	s := newTestServer(t, nil)
	tests := map[string]string{
		"bad start": "/api/events?start=2024-13-01",
		"bad end":   "/api/events?start=2024-01-01&end=tomorrow",
		"inverted":  "/api/events?start=2024-02-01&end=2024-01-01",
		"too wide":  "/api/events?start=2024-01-01&end=2025-06-01",
	}
	for name, target := range tests {
		t.Run(name, func(t *testing.T) {
			rec := get(t, s, target)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var e struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil || e.Error == "" {
				t.Errorf("expected JSON error body, got %q", rec.Body.String())
			}
		})
	}
}

type monthBody struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Weeks []struct {
		Days []struct {
			Date        time.Time          `json:"date"`
			InMonth     bool               `json:"in_month"`
			IsToday     bool               `json:"is_today"`
			Occurrences []model.Occurrence `json:"occurrences"`
		} `json:"days"`
	} `json:"weeks"`
	Stats struct {
		TotalDays int `json:"total_days"`
		Shares    []struct {
			ParentID  string `json:"parent_id"`
			Days      int    `json:"days"`
			Percent   int    `json:"percent"`
			Logistics int    `json:"logistics"`
		} `json:"shares"`
	} `json:"stats"`
	FeedErrors []string `json:"feed_errors"`
}

func TestMonthJanuary(t *testing.T) {
	s := newTestServer(t, nil)
	rec := get(t, s, "/api/month?year=2024&month=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body monthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Year != 2024 || body.Month != 1 || len(body.Weeks) != 5 {
		t.Fatalf("unexpected month %d-%d with %d weeks", body.Year, body.Month, len(body.Weeks))
	}
	if !body.Weeks[1].Days[3].IsToday {
		t.Error("expected Thursday 11th to be today")
	}
	if body.Stats.TotalDays != 31 || len(body.Stats.Shares) != 2 {
		t.Fatalf("unexpected stats %+v", body.Stats)
	}
	mama, papa := body.Stats.Shares[0], body.Stats.Shares[1]
	if mama.ParentID != "mama" || mama.Days != 21 || mama.Percent != 68 || mama.Logistics != 114 {
		t.Errorf("unexpected mama share %+v", mama)
	}
	if papa.ParentID != "papa" || papa.Days != 10 || papa.Percent != 32 || papa.Logistics != 52 {
		t.Errorf("unexpected papa share %+v", papa)
	}
	if len(body.FeedErrors) != 0 {
		t.Errorf("expected no feed errors, got %v", body.FeedErrors)
	}
}

func TestMonthBadParams(t *testing.T) {
	s := newTestServer(t, nil)
	for _, target := range []string{"/api/month?month=13", "/api/month?month=0", "/api/month?year=0"} {
		if rec := get(t, s, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

const meetingFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//school//calendar//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:meeting@school\r\n" +
	"SUMMARY:Parents meeting\r\n" +
	"DTSTART:20240110T120000Z\r\n" +
	"DTEND:20240110T130000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestMonthOverlaysFeeds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/school.ics", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(meetingFeed))
	})
	feedSrv := httptest.NewServer(mux)
	defer feedSrv.Close()

	s := newTestServer(t, func(c *config.Config) {
		c.Feeds = []config.FeedConfig{
			{ID: "school", Name: "School", URL: feedSrv.URL + "/school.ics"},
			{ID: "broken", Name: "Broken", URL: feedSrv.URL + "/missing.ics"},
		}
	})

	rec := get(t, s, "/api/month?year=2024&month=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body monthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}

	if len(body.FeedErrors) != 1 || !strings.Contains(body.FeedErrors[0], "feed broken") {
		t.Errorf("expected one error for the broken feed, got %v", body.FeedErrors)
	}
	wednesday := body.Weeks[1].Days[2]
	if wednesday.Date.Day() != 10 || len(wednesday.Occurrences) != 1 {
		t.Fatalf("expected one occurrence on the 10th, got %+v", wednesday)
	}
	if o := wednesday.Occurrences[0]; o.Summary != "Parents meeting" || o.FeedID != "school" {
		t.Errorf("unexpected occurrence %+v", o)
	}
	if n := len(body.Weeks[1].Days[3].Occurrences); n != 0 {
		t.Errorf("expected nothing on the 11th, got %d", n)
	}
}

func TestFamily(t *testing.T) {
	s := newTestServer(t, nil)
	rec := get(t, s, "/api/family")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var fam config.FamilyConfig
	if err := json.Unmarshal(rec.Body.Bytes(), &fam); err != nil {
		t.Fatal(err)
	}
	if len(fam.Parents) != 2 || len(fam.Children) != 2 || len(fam.Activities) != 7 {
		t.Errorf("unexpected family %d parents, %d children, %d activities",
			len(fam.Parents), len(fam.Children), len(fam.Activities))
	}
}

func TestCalendarICSCached(t *testing.T) {
	s := newTestServer(t, nil)

	first := get(t, s, "/calendar.ics")
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}
	if ct := first.Header().Get("Content-Type"); ct != contentTypeICS {
		t.Errorf("unexpected content type %q", ct)
	}
	if first.Header().Get("X-Cache") != "MISS" {
		t.Error("expected first response to miss the cache")
	}
	body := first.Body.String()
	for _, want := range []string{"BEGIN:VCALENDAR", "SUMMARY:Custody: Papá"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected calendar to contain %q", want)
		}
	}
	// January through March 2024.
	if n := strings.Count(body, "SUMMARY:Custody:"); n != 91 {
		t.Errorf("expected 91 custody days, got %d", n)
	}

	s.cache.wait()
	second := get(t, s, "/calendar.ics")
	if second.Header().Get("X-Cache") != "HIT" {
		t.Error("expected second response to hit the cache")
	}
	if second.Body.String() != body {
		t.Error("expected cached body to match")
	}

	if rec := get(t, s, "/calendar.ics?start=2024-03-01&end=2024-01-01"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for inverted range, got %d", rec.Code)
	}
}

func TestTimetableICS(t *testing.T) {
	s := newTestServer(t, nil)
	rec := get(t, s, "/timetable.ics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "RRULE:FREQ=WEEKLY") || !strings.Contains(body, "X-WR-CALNAME:Activities") {
		t.Errorf("unexpected timetable:\n%s", body)
	}
}

func TestPreview(t *testing.T) {
	s := newTestServer(t, nil)
	if rec := get(t, s, "/preview.png"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 before the first capture, got %d", rec.Code)
	}

	png := []byte("\x89PNG\r\n\x1a\nfake")
	if err := os.WriteFile(s.cfg.Capture.Output, png, 0o644); err != nil {
		t.Fatal(err)
	}
	rec := get(t, s, "/preview.png")
	if rec.Code != http.StatusOK || rec.Body.String() != string(png) {
		t.Errorf("expected preview bytes, got %d", rec.Code)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("expected no-store")
	}
}

func TestSecureCompare(t *testing.T) {
	if !secureCompare("abc", "abc") || secureCompare("abc", "abd") || secureCompare("abc", "ab") {
		t.Error("secureCompare mismatch")
	}
}
