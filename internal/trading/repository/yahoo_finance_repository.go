package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"momentum-trader/internal/trading/config"
	"momentum-trader/internal/trading/dto"
	"momentum-trader/pkg/logger"
	"momentum-trader/pkg/retry"

	"golang.org/x/time/rate"
)

// MarketDataRepository supplies daily OHLCV history and latest quotes. The
// decision engine only ever sees the returned snapshots.
type MarketDataRepository interface {
	GetDailyBars(ctx context.Context, param dto.GetDailyBarsParam) ([]dto.PriceBar, error)
	GetQuote(ctx context.Context, symbol string) (*dto.Quote, error)
}

type yahooFinanceRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
	retryPolicy    retry.Policy
}

// NewYahooFinanceRepository creates a market data repository backed by the
// Yahoo Finance chart API.
func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) MarketDataRepository {
	maxPerMinute := cfg.YahooFinance.MaxRequestPerMinute
	if maxPerMinute <= 0 {
		maxPerMinute = 60
	}
	secondsPerRequest := time.Minute / time.Duration(maxPerMinute)
	return &yahooFinanceRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		retryPolicy:    retry.DefaultPolicy,
	}
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (r *yahooFinanceRepository) GetDailyBars(ctx context.Context, param dto.GetDailyBarsParam) ([]dto.PriceBar, error) {
	lookback := param.LookbackDays
	if lookback <= 0 {
		lookback = r.cfg.YahooFinance.LookbackDays
	}
	if lookback <= 0 {
		// ~600 calendar days covers the 252 trading days the momentum
		// window needs.
		lookback = 600
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%dd",
		r.cfg.YahooFinance.BaseURL, param.Symbol, lookback)

	body, err := r.sendRequest(ctx, url)
	if err != nil {
		return nil, &dto.DataUnavailableError{Symbol: param.Symbol, Reason: err.Error()}
	}

	var response yahooChartResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &dto.DataUnavailableError{Symbol: param.Symbol, Reason: fmt.Sprintf("malformed chart response: %v", err)}
	}

	if response.Chart.Error != nil {
		return nil, &dto.DataUnavailableError{Symbol: param.Symbol, Reason: response.Chart.Error.Description}
	}
	if len(response.Chart.Result) == 0 || len(response.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, &dto.DataUnavailableError{Symbol: param.Symbol, Reason: "empty chart result"}
	}

	result := response.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make([]dto.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == 0 {
			continue
		}
		bars = append(bars, dto.PriceBar{
			Symbol: param.Symbol,
			Date:   time.Unix(ts, 0).UTC(),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  quote.Close[i],
			Volume: atInt(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	r.log.DebugContext(ctx, "Fetched daily bars",
		logger.StringField("symbol", param.Symbol),
		logger.IntField("bars", len(bars)))

	return bars, nil
}

func (r *yahooFinanceRepository) GetQuote(ctx context.Context, symbol string) (*dto.Quote, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", r.cfg.YahooFinance.BaseURL, symbol)

	body, err := r.sendRequest(ctx, url)
	if err != nil {
		return nil, &dto.DataUnavailableError{Symbol: symbol, Reason: err.Error()}
	}

	var response yahooChartResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &dto.DataUnavailableError{Symbol: symbol, Reason: fmt.Sprintf("malformed chart response: %v", err)}
	}
	if response.Chart.Error != nil || len(response.Chart.Result) == 0 {
		return nil, &dto.DataUnavailableError{Symbol: symbol, Reason: "empty quote result"}
	}

	price := response.Chart.Result[0].Meta.RegularMarketPrice
	if price == 0 {
		return nil, &dto.DataUnavailableError{Symbol: symbol, Reason: "no market price"}
	}

	return &dto.Quote{Symbol: symbol, Price: price, AsOf: time.Now().UTC()}, nil
}

func (r *yahooFinanceRepository) sendRequest(ctx context.Context, url string) ([]byte, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body []byte
	err := r.retryPolicy.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0 Safari/537.36")
		req.Header.Set("Accept", "application/json")

		resp, err := r.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		r.log.ErrorContext(ctx, "Market data request failed",
			logger.StringField("url", url), logger.ErrorField(err))
		return nil, err
	}

	return body, nil
}

func at(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}

func atInt(values []int64, i int) int64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}
