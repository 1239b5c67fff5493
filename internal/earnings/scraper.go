package earnings

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/newthinker/straddle/internal/core"
)

const (
	defaultBaseURL = "https://finance.yahoo.com"
	defaultLimit   = 20

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Scraper retrieves earnings dates from the Yahoo Finance earnings calendar
// page. The underlying collector is created per call and released with it,
// never shared across requests.
type Scraper struct {
	baseURL string
	limit   int
	timeout time.Duration
	logger  *zap.Logger
}

// NewScraper creates a calendar scraper.
func NewScraper(logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		baseURL: defaultBaseURL,
		limit:   defaultLimit,
		timeout: 20 * time.Second,
		logger:  logger,
	}
}

// PastEarnings scrapes the calendar for a ticker and returns events that
// already occurred, most recent first, capped at the scraper's row limit.
func (s *Scraper) PastEarnings(ctx context.Context, ticker string) ([]core.EarningsEvent, error) {
	var (
		events   []core.EarningsEvent
		rowCount int
	)

	c := colly.NewCollector(colly.MaxDepth(1))
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		r.Headers.Set("User-Agent", userAgent)
	})

	c.OnHTML("table", func(e *colly.HTMLElement) {
		dateCol := columnIndex(e.DOM, "Earnings Date")
		if dateCol < 0 {
			return
		}

		e.DOM.Find("tbody tr, tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() <= dateCol {
				return
			}
			rowCount++

			raw := strings.TrimSpace(cells.Eq(dateCol).Text())
			date, timing, err := parseEarningsCell(raw)
			if err != nil {
				s.logger.Debug("skipping unparseable earnings row",
					zap.String("ticker", ticker), zap.String("cell", raw), zap.Error(err))
				return
			}
			events = append(events, core.EarningsEvent{Ticker: ticker, Date: date, Timing: timing})
		})
	})

	var visitErr error
	c.OnError(func(r *colly.Response, err error) {
		visitErr = err
	})

	url := fmt.Sprintf("%s/calendar/earnings?day=%s&symbol=%s&offset=0&size=%d",
		s.baseURL, time.Now().Format("2006-01-02"), ticker, s.limit)

	s.logger.Debug("scraping earnings calendar", zap.String("url", url))

	if err := ctx.Err(); err != nil {
		return nil, core.WrapError(core.ErrScrapeFailed, err)
	}
	if err := c.Visit(url); err != nil {
		return nil, core.WrapError(core.ErrScrapeFailed, err)
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, core.WrapError(core.ErrScrapeFailed, err)
	}
	if visitErr != nil {
		return nil, core.WrapError(core.ErrScrapeFailed, visitErr)
	}
	if rowCount == 0 {
		return nil, core.WrapError(core.ErrScrapeFailed,
			fmt.Errorf("earnings table not found for %s", ticker))
	}

	// Keep only announcements that already happened, newest first.
	now := time.Now()
	past := events[:0]
	for _, e := range events {
		if e.Date.Before(now) {
			past = append(past, e)
		}
	}
	sort.Slice(past, func(i, j int) bool { return past[i].Date.After(past[j].Date) })

	if len(past) > s.limit {
		past = past[:s.limit]
	}
	if len(past) == 0 {
		return nil, core.ErrNoEarningsDates
	}
	return past, nil
}

// columnIndex finds the position of a header label in the table, or -1.
func columnIndex(table *goquery.Selection, label string) int {
	idx := -1
	table.Find("th").Each(func(i int, th *goquery.Selection) {
		if idx < 0 && strings.EqualFold(strings.TrimSpace(th.Text()), label) {
			idx = i
		}
	})
	return idx
}

// parseEarningsCell decodes a calendar cell like
// "Feb 21, 2024 at 4 PM EST". The portion before " at " is the date; a "PM"
// marker anywhere in the cell means an after-market announcement.
func parseEarningsCell(raw string) (time.Time, core.Timing, error) {
	if raw == "" || raw == "-" {
		return time.Time{}, "", fmt.Errorf("empty earnings date cell")
	}

	datePart := raw
	if i := strings.Index(raw, " at "); i >= 0 {
		datePart = raw[:i]
	}
	datePart = strings.TrimSuffix(strings.TrimSpace(datePart), ",")

	var (
		date time.Time
		err  error
	)
	for _, layout := range []string{"Jan 2, 2006", "January 2, 2006", "2006-01-02"} {
		if date, err = time.Parse(layout, datePart); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, "", fmt.Errorf("unrecognized date %q", datePart)
	}

	timing := core.TimingBeforeMarket
	if strings.Contains(raw, "PM") {
		timing = core.TimingAfterMarket
	}
	return date, timing, nil
}
