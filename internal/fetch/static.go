package fetch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/AdilYassar/companies-scrapper/internal/robots"
	"github.com/AdilYassar/companies-scrapper/pkg/types"
)

const defaultMaxPages = 5

// Static scrapes server-rendered directory pages over plain HTTP.
type Static struct {
	Client    *Client
	Robots    *robots.Agent
	Pacer     *Pacer
	PageDelay time.Duration
	UnitDelay time.Duration
	Logger    *slog.Logger
}

// Fetch walks every unit of the source, paginating each until a page yields
// zero listings or the page cap is reached. A failed unit is recorded and
// skipped; the remaining units still run.
func (s *Static) Fetch(ctx context.Context, src Source) (Result, error) {
	logger := s.logger().With("source", src.ID, "mode", string(ModeStatic))

	var res Result
	for i, unit := range src.Units() {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if i > 0 {
			if err := Sleep(ctx, s.UnitDelay); err != nil {
				return res, err
			}
		}

		listings, err := s.fetchUnit(ctx, src, unit)
		res.record(unit, listings, err)
		if err != nil {
			logger.Warn("unit failed", "unit", unit.Label, "error", err)
			continue
		}
		logger.Info("unit complete", "unit", unit.Label, "listings", len(listings))
	}
	return res, nil
}

func (s *Static) fetchUnit(ctx context.Context, src Source, unit Unit) ([]types.RawListing, error) {
	maxPages := src.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	var all []types.RawListing
	for page := 1; page <= maxPages; page++ {
		pageURL := PageURL(unit.URL, src.PageParam, page)
		if s.Robots != nil && !s.Robots.AllowedURL(ctx, pageURL) {
			s.logger().Warn("robots disallows url, stopping unit", "source", src.ID, "url", pageURL)
			break
		}

		if err := s.waitHost(ctx, pageURL); err != nil {
			return all, err
		}

		body, err := s.Client.Get(ctx, pageURL)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
			}
			// Later pages fail soft: keep what the unit already yielded.
			s.logger().Warn("page fetch failed, stopping unit", "source", src.ID, "page", page, "error", err)
			break
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("parse %s: %w", pageURL, err)
			}
			break
		}

		listings := ParseListings(doc, src, pageURL)
		if len(listings) == 0 {
			break
		}
		all = append(all, listings...)

		if page < maxPages {
			if err := Sleep(ctx, s.PageDelay); err != nil {
				return all, err
			}
		}
	}
	return all, nil
}

func (s *Static) waitHost(ctx context.Context, rawurl string) error {
	if s.Pacer == nil {
		return nil
	}
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil
	}
	return s.Pacer.Wait(ctx, u.Hostname())
}

func (s *Static) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// PageURL appends the pagination parameter for pages beyond the first. The
// first page is always the bare unit URL, matching how the directories link
// their own result pages.
func PageURL(base, pageParam string, page int) string {
	if page <= 1 || pageParam == "" {
		return base
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set(pageParam, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
