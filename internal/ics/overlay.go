package ics

import (
	"context"
	"errors"
	"fmt"

	appLog "custodycal/internal/log"
	"custodycal/internal/model"
)

// Overlay fetches, parses and expands all feeds into w. A failing feed does
// not hide the others: its error is joined into the returned error alongside
// whatever occurrences were produced.
func Overlay(ctx context.Context, f *Fetcher, feeds []Feed, w Window) ([]model.Occurrence, error) {
	if len(feeds) == 0 {
		return nil, nil
	}

	payloads, errs := f.FetchAll(ctx, feeds)

	var events []FeedEvent
	for _, p := range payloads {
		evs, err := ParseFeed(p.Feed.ID, p.Body)
		if err != nil {
			appLog.Error("feed parse failed", err, "id", p.Feed.ID, "url", redactURL(p.Feed.URL))
			errs = append(errs, fmt.Errorf("feed %s: %w", p.Feed.ID, err))
			continue
		}
		events = append(events, evs...)
	}

	occs, err := Expand(events, w)
	if err != nil {
		errs = append(errs, err)
	}
	return occs, errors.Join(errs...)
}
