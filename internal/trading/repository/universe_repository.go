package repository

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"momentum-trader/internal/trading/config"
	"momentum-trader/pkg/logger"

	"github.com/PuerkitoBio/goquery"
	"github.com/patrickmn/go-cache"
)

const universeCacheKey = "universe:tickers"

// UniverseRepository supplies the fixed candidate symbol set evaluated each
// run.
type UniverseRepository interface {
	GetTickers(ctx context.Context) ([]string, error)
}

type universeRepository struct {
	cfg        *config.Config
	log        *logger.Logger
	httpClient *http.Client
	cache      *cache.Cache
}

// NewUniverseRepository creates a universe repository. Tickers come from the
// configured symbol list when present, otherwise from scraping the S&P 500
// constituents table, with a static fallback when the scrape fails. Scraped
// results are cached for a trading day.
func NewUniverseRepository(cfg *config.Config, log *logger.Logger) UniverseRepository {
	ttl := 24 * time.Hour
	if cfg.Universe.CacheTTL != "" {
		if parsed, err := time.ParseDuration(cfg.Universe.CacheTTL); err == nil {
			ttl = parsed
		}
	}
	return &universeRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *universeRepository) GetTickers(ctx context.Context) ([]string, error) {
	if len(r.cfg.Universe.Symbols) > 0 {
		return sanitizeTickers(r.cfg.Universe.Symbols), nil
	}

	if cached, ok := r.cache.Get(universeCacheKey); ok {
		return cached.([]string), nil
	}

	tickers, err := r.scrapeTickers(ctx)
	if err != nil {
		r.log.WarnContext(ctx, "Universe scrape failed, using fallback list", logger.ErrorField(err))
		return fallbackTickers(), nil
	}

	r.cache.Set(universeCacheKey, tickers, cache.DefaultExpiration)
	r.log.InfoContext(ctx, "Universe loaded", logger.IntField("tickers", len(tickers)))
	return tickers, nil
}

func (r *universeRepository) scrapeTickers(ctx context.Context) ([]string, error) {
	sourceURL := r.cfg.Universe.SourceURL
	if sourceURL == "" {
		sourceURL = "https://www.slickcharts.com/sp500"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0 Safari/537.36")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, sourceURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse universe page: %w", err)
	}

	var raw []string
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		// Constituents table: rank, company, symbol, weight, ...
		symbol := strings.TrimSpace(row.Find("td").Eq(2).Text())
		if symbol != "" {
			raw = append(raw, symbol)
		}
	})

	tickers := sanitizeTickers(raw)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers found at %s", sourceURL)
	}

	return tickers, nil
}

// sanitizeTickers upper-cases, converts dots to dashes for data-provider
// compatibility, and de-duplicates while preserving order.
func sanitizeTickers(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	tickers := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(t)), ".", "-")
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tickers = append(tickers, t)
	}
	return tickers
}

// fallbackTickers is a static list of major S&P 500 constituents used when
// the universe source is unreachable.
func fallbackTickers() []string {
	return []string{
		"AAPL", "MSFT", "AMZN", "NVDA", "GOOGL", "TSLA", "GOOG", "META", "UNH", "XOM",
		"LLY", "JNJ", "JPM", "V", "PG", "MA", "HD", "CVX", "MRK", "ABBV",
		"PEP", "KO", "AVGO", "PFE", "TMO", "COST", "WMT", "BAC", "CRM", "ACN",
		"NFLX", "LIN", "AMD", "CSCO", "ABT", "DHR", "TXN", "VZ", "ADBE", "NKE",
		"WFC", "COP", "BMY", "RTX", "QCOM", "PM", "T", "UPS", "SPGI", "LOW",
	}
}
