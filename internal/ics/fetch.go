package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	appLog "custodycal/internal/log"
)

// maxFeedBytes bounds a single feed download.
const maxFeedBytes = 8 << 20

// Feed is one external calendar subscription overlaid on the month view.
type Feed struct {
	ID   string
	Name string
	URL  string
}

// Payload is the raw body of a feed, fresh or from the disk cache.
type Payload struct {
	Feed Feed
	Body []byte
	// Stale is true when the body came from cache, either because the server
	// answered 304 or because the request failed.
	Stale bool
}

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads feeds with conditional requests (ETag / Last-Modified)
// and keeps the last good body on disk so a flaky server does not blank the
// calendar.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a Fetcher storing its cache under cacheDir. An empty
// cacheDir uses <user cache dir>/custodycal/feeds.
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		cacheDir = filepath.Join(base, "custodycal", "feeds")
	}
	return &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		cacheDir: cacheDir,
	}
}

// FetchAll fetches feeds concurrently, at most four at a time. Failing feeds
// are logged and reported in the error slice; the payloads keep the order of
// feeds and only hold feeds that produced a body.
func (f *Fetcher) FetchAll(ctx context.Context, feeds []Feed) ([]Payload, []error) {
	results := make([]Payload, len(feeds))
	failed := make([]error, len(feeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, feed := range feeds {
		g.Go(func() error {
			p, err := f.Fetch(gctx, feed)
			if err != nil {
				appLog.Error("feed fetch failed", err, "id", feed.ID, "url", redactURL(feed.URL))
				failed[i] = fmt.Errorf("feed %s: %w", feed.ID, err)
				// Keep going with the other feeds.
				return nil
			}
			results[i] = p
			return nil
		})
	}
	_ = g.Wait()

	payloads := make([]Payload, 0, len(feeds))
	var errs []error
	for i := range feeds {
		if failed[i] != nil {
			errs = append(errs, failed[i])
			continue
		}
		payloads = append(payloads, results[i])
	}
	return payloads, errs
}

// Fetch downloads one feed, falling back to the cached body on 304, network
// errors and non-2xx answers.
func (f *Fetcher) Fetch(ctx context.Context, feed Feed) (Payload, error) {
	if feed.URL == "" {
		return Payload{}, errors.New("feed URL is empty")
	}

	dir := f.cachePath(feed.URL)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Payload{}, err
	}
	meta, _ := loadMeta(dir)
	cached, _ := os.ReadFile(filepath.Join(dir, "body.ics"))

	stale := func(reason string, err error) (Payload, error) {
		if len(cached) == 0 {
			return Payload{}, err
		}
		appLog.Warn("using cached feed body", "id", feed.ID, "url", redactURL(feed.URL), "reason", reason)
		return Payload{Feed: feed, Body: cached, Stale: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return Payload{}, err
	}
	if meta.URL == feed.URL {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	appLog.Debug("feed fetch start", "id", feed.ID, "url", redactURL(feed.URL))
	resp, err := f.client.Do(req)
	if err != nil {
		return stale("network error", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		if len(cached) == 0 {
			return Payload{}, errors.New("304 Not Modified without cached body")
		}
		appLog.Debug("feed not modified", "id", feed.ID)
		return Payload{Feed: feed, Body: cached, Stale: true}, nil

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes+1))
		if err != nil {
			return stale("read error", err)
		}
		if len(body) > maxFeedBytes {
			return stale("too large", fmt.Errorf("feed larger than %d bytes", maxFeedBytes))
		}
		next := cacheMeta{
			URL:          feed.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(dir, next, body); err != nil {
			appLog.Error("feed cache save failed", err, "id", feed.ID)
		}
		appLog.Info("feed fetched", "id", feed.ID, "url", redactURL(feed.URL), "bytes", len(body))
		return Payload{Feed: feed, Body: body}, nil

	default:
		return stale(resp.Status, errors.New(resp.Status))
	}
}

func (f *Fetcher) cachePath(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadMeta(dir string) (cacheMeta, error) {
	var meta cacheMeta
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheMeta{}, err
	}
	return meta, nil
}

func saveCache(dir string, meta cacheMeta, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(dir, "body.ics"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), data, 0o600)
}

// redactURL keeps only scheme and host; feed URLs often embed private tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
