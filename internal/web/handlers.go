package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"custodycal/internal/calendar"
	"custodycal/internal/config"
	"custodycal/internal/custody"
	"custodycal/internal/ics"
	appLog "custodycal/internal/log"
	"custodycal/internal/model"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Start    string        `json:"start"`
	End      string        `json:"end"`
	Timezone string        `json:"timezone"`
	Events   []model.Event `json:"events"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	start, end, err := s.parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.cached(w, r, contentTypeJSON, func() ([]byte, error) {
		return encodeJSON(eventsResponse{
			Start:    start.Format(time.DateOnly),
			End:      end.Format(time.DateOnly),
			Timezone: s.loc.String(),
			Events:   custody.Generate(start, end, s.family),
		})
	})
}

// monthResponse is the JSON response shape for /api/month.
type monthResponse struct {
	calendar.Month
	FeedErrors []string `json:"feed_errors,omitempty"`
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	now := s.now().In(s.loc)
	q := r.URL.Query()
	year := parseIntDefault(q.Get("year"), now.Year())
	month := parseIntDefault(q.Get("month"), int(now.Month()))
	if year < 1 || year > 9999 {
		writeError(w, http.StatusBadRequest, "year out of range")
		return
	}
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be 1-12")
		return
	}

	s.cached(w, r, contentTypeJSON, func() ([]byte, error) {
		m := calendar.BuildMonth(year, time.Month(month), s.loc, s.family, now)
		resp := monthResponse{Month: m}

		if feeds := s.feeds(); len(feeds) > 0 {
			win := ics.Window{
				From: m.Start,
				To:   model.StartOfDay(model.CivilDate(m.End).AddDate(0, 0, 1), s.loc).Add(-time.Second),
				Loc:  s.loc,
			}
			occs, err := ics.Overlay(r.Context(), s.fetcher, feeds, win)
			resp.Month.AttachOccurrences(occs)
			resp.FeedErrors = flattenErrors(err)
		}
		return encodeJSON(resp)
	})
}

func (s *Server) handleFamily(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, config.FamilyFromModel(s.family))
}

// handleCalendarICS serves custody and handover events as a subscribable
// calendar. Without start/end it covers export.months months from the
// first of the current month.
func (s *Server) handleCalendarICS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var start, end time.Time
	if q.Get("start") == "" && q.Get("end") == "" {
		start, end = s.exportRange()
		end = model.StartOfDay(model.CivilDate(end).AddDate(0, 0, -1), s.loc)
	} else {
		var err error
		if start, end, err = s.parseRange(r); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	s.cached(w, r, contentTypeICS, func() ([]byte, error) {
		out := ics.ExportEvents(custody.Generate(start, end, s.family), ics.ExportOptions{
			Name:  "Custody calendar",
			Stamp: s.now(),
		})
		return []byte(out), nil
	})
}

func (s *Server) handleTimetableICS(w http.ResponseWriter, r *http.Request) {
	from, until := s.exportRange()
	s.cached(w, r, contentTypeICS, func() ([]byte, error) {
		out, err := ics.ExportTimetable(s.family, from, until, s.loc, ics.ExportOptions{
			Name:  "Activities",
			Stamp: s.now(),
		})
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	})
}

// handlePreview serves the last screenshot taken by the capture job.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	// ServeFile answers 404 for a missing file.
	http.ServeFile(w, r, s.cfg.Capture.Output)
}

// cached serves the body rendered by build, reusing a previous rendering of
// the same request URI for the current day while it is still in the cache.
func (s *Server) cached(w http.ResponseWriter, r *http.Request, contentType string, build func() ([]byte, error)) {
	key := s.now().In(s.loc).Format(time.DateOnly) + " " + r.URL.RequestURI()
	if hit, ok := s.cache.get(key); ok {
		w.Header().Set("X-Cache", "HIT")
		writeBody(w, hit.contentType, hit.body)
		return
	}

	body, err := build()
	if err != nil {
		appLog.Error("failed to render response", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.cache.set(key, cachedResponse{contentType: contentType, body: body})
	w.Header().Set("X-Cache", "MISS")
	writeBody(w, contentType, body)
}

// parseRange reads start/end (YYYY-MM-DD, inclusive) in the configured
// timezone. Missing values default to the visible range of the current month.
func (s *Server) parseRange(r *http.Request) (time.Time, time.Time, error) {
	now := s.now().In(s.loc)
	start, end := calendar.VisibleRange(now.Year(), now.Month(), s.loc)

	// Dates are parsed as civil dates; local midnight may not exist.
	q := r.URL.Query()
	if v := q.Get("start"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start %q: want YYYY-MM-DD", v)
		}
		start = model.StartOfDay(t, s.loc)
	}
	if v := q.Get("end"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end %q: want YYYY-MM-DD", v)
		}
		end = model.StartOfDay(t, s.loc)
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end is before start")
	}
	days := int(model.CivilDate(end).Sub(model.CivilDate(start)).Hours()/24) + 1
	if days > maxRangeDays {
		return time.Time{}, time.Time{}, fmt.Errorf("range of %d days exceeds %d", days, maxRangeDays)
	}
	return start, end, nil
}

// exportRange is [first of current month, +export.months months).
func (s *Server) exportRange() (time.Time, time.Time) {
	now := s.now().In(s.loc)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	months := s.cfg.Export.Months
	if months <= 0 {
		months = 1
	}
	return model.StartOfDay(first, s.loc), model.StartOfDay(first.AddDate(0, months, 0), s.loc)
}

func (s *Server) feeds() []ics.Feed {
	out := make([]ics.Feed, 0, len(s.cfg.Feeds))
	for _, fc := range s.cfg.Feeds {
		out = append(out, ics.Feed{ID: fc.ID, Name: fc.Name, URL: fc.URL})
	}
	return out
}

func flattenErrors(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBody(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		appLog.Error("failed to write response", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
