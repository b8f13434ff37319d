package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"momentum-trader/internal/entity"
	"momentum-trader/internal/trading/config"
	"momentum-trader/internal/trading/dto"
	"momentum-trader/pkg/logger"
	"momentum-trader/pkg/retry"
	"momentum-trader/pkg/utils"

	"golang.org/x/time/rate"
)

// BrokerRepository is the execution adapter contract consumed by the
// algorithm: submit orders, read positions, read the account snapshot.
type BrokerRepository interface {
	SubmitOrder(ctx context.Context, intent dto.OrderIntent) (*dto.Fill, error)
	GetAccount(ctx context.Context) (*dto.AccountSnapshot, error)
	GetPositions(ctx context.Context) ([]entity.Position, error)
}

type alpacaRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
	retryPolicy    retry.Policy
}

// NewAlpacaRepository creates a broker repository backed by the Alpaca
// trading API (paper endpoint by default).
func NewAlpacaRepository(cfg *config.Config, log *logger.Logger) BrokerRepository {
	maxPerMinute := cfg.Alpaca.MaxRequestPerMinute
	if maxPerMinute <= 0 {
		maxPerMinute = 180
	}
	secondsPerRequest := time.Minute / time.Duration(maxPerMinute)
	return &alpacaRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		retryPolicy:    retry.DefaultPolicy,
	}
}

type alpacaAccount struct {
	Cash           string `json:"cash"`
	BuyingPower    string `json:"buying_power"`
	PortfolioValue string `json:"portfolio_value"`
}

type alpacaPosition struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	AvgEntryPrice string `json:"avg_entry_price"`
	CurrentPrice  string `json:"current_price"`
	UnrealizedPL  string `json:"unrealized_pl"`
}

type alpacaOrderRequest struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	LimitPrice    string `json:"limit_price,omitempty"`
	ExtendedHours bool   `json:"extended_hours,omitempty"`
}

type alpacaOrder struct {
	ID             string  `json:"id"`
	Symbol         string  `json:"symbol"`
	Qty            string  `json:"qty"`
	Side           string  `json:"side"`
	Status         string  `json:"status"`
	FilledQty      string  `json:"filled_qty"`
	FilledAvgPrice *string `json:"filled_avg_price"`
}

func (r *alpacaRepository) GetAccount(ctx context.Context) (*dto.AccountSnapshot, error) {
	body, err := r.sendRequest(ctx, http.MethodGet, "/v2/account", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	var account alpacaAccount
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, fmt.Errorf("malformed account response: %w", err)
	}

	positions, err := r.GetPositions(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.AccountSnapshot{
		Cash:           parseFloat(account.Cash),
		BuyingPower:    parseFloat(account.BuyingPower),
		PortfolioValue: parseFloat(account.PortfolioValue),
		Positions:      positions,
	}, nil
}

func (r *alpacaRepository) GetPositions(ctx context.Context) ([]entity.Position, error) {
	body, err := r.sendRequest(ctx, http.MethodGet, "/v2/positions", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}

	var raw []alpacaPosition
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("malformed positions response: %w", err)
	}

	positions := make([]entity.Position, 0, len(raw))
	for _, p := range raw {
		positions = append(positions, entity.Position{
			Symbol:        p.Symbol,
			Quantity:      int64(parseFloat(p.Qty)),
			AvgEntryPrice: parseFloat(p.AvgEntryPrice),
			CurrentPrice:  parseFloat(p.CurrentPrice),
			UnrealizedPnL: parseFloat(p.UnrealizedPL),
		})
	}

	return positions, nil
}

func (r *alpacaRepository) SubmitOrder(ctx context.Context, intent dto.OrderIntent) (*dto.Fill, error) {
	if intent.Quantity <= 0 {
		return nil, &dto.ExecutionError{Symbol: intent.Symbol, Side: intent.Side, Err: fmt.Errorf("quantity must be positive")}
	}

	orderReq := alpacaOrderRequest{
		Symbol:      intent.Symbol,
		Qty:         strconv.FormatInt(intent.Quantity, 10),
		Side:        intent.Side,
		Type:        "market",
		TimeInForce: "day",
	}

	// Extended-hours eligibility requires DAY limit orders; pad the limit
	// slightly past the decision price so the order still crosses.
	if r.cfg.Alpaca.ExtendedHours {
		orderReq.Type = "limit"
		orderReq.ExtendedHours = true
		if intent.Side == dto.OrderSideBuy {
			orderReq.LimitPrice = formatPrice(maxFloat(intent.Price*1.005, intent.Price+0.50))
		} else {
			orderReq.LimitPrice = formatPrice(minFloat(intent.Price*0.995, intent.Price-0.50))
		}
	}

	payload, err := json.Marshal(orderReq)
	if err != nil {
		return nil, &dto.ExecutionError{Symbol: intent.Symbol, Side: intent.Side, Err: err}
	}

	body, err := r.sendRequest(ctx, http.MethodPost, "/v2/orders", payload)
	if err != nil {
		return nil, &dto.ExecutionError{Symbol: intent.Symbol, Side: intent.Side, Err: err}
	}

	var order alpacaOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, &dto.ExecutionError{Symbol: intent.Symbol, Side: intent.Side, Err: fmt.Errorf("malformed order response: %w", err)}
	}

	fillPrice := intent.Price
	if order.FilledAvgPrice != nil && parseFloat(*order.FilledAvgPrice) > 0 {
		fillPrice = parseFloat(*order.FilledAvgPrice)
	}

	r.log.InfoContext(ctx, "Order submitted",
		logger.StringField("symbol", intent.Symbol),
		logger.StringField("side", intent.Side),
		logger.Field("quantity", intent.Quantity),
		logger.StringField("status", order.Status))

	return &dto.Fill{
		Symbol:    intent.Symbol,
		Side:      intent.Side,
		Quantity:  intent.Quantity,
		Price:     utils.Round4(fillPrice),
		Timestamp: time.Now().UTC(),
	}, nil
}

func (r *alpacaRepository) sendRequest(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := r.cfg.Alpaca.BaseURL + path

	var body []byte
	err := r.retryPolicy.Do(ctx, func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return err
		}
		req.Header.Set("APCA-API-KEY-ID", r.cfg.Alpaca.APIKey)
		req.Header.Set("APCA-API-SECRET-KEY", r.cfg.Alpaca.SecretKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := r.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("broker returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil
	})
	if err != nil {
		r.log.ErrorContext(ctx, "Broker request failed",
			logger.StringField("method", method),
			logger.StringField("path", path),
			logger.ErrorField(err))
		return nil, err
	}

	return body, nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(utils.Round2(v), 'f', 2, 64)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
