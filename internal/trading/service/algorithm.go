package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"

	"momentum-trader/internal/entity"
	"momentum-trader/internal/trading/config"
	"momentum-trader/internal/trading/dto"
	"momentum-trader/internal/trading/repository"
	"momentum-trader/pkg/common"
	"momentum-trader/pkg/logger"
	"momentum-trader/pkg/redis"
	"momentum-trader/pkg/telegram"
	"momentum-trader/pkg/utils"
)

const runLockTTL = 6 * time.Hour

// AlgorithmService executes one full daily run: gather data, decide,
// execute, record. Runs are idempotent per date.
type AlgorithmService interface {
	Run(ctx context.Context, runDate time.Time) (*dto.RunSummary, error)
}

type algorithmService struct {
	cfg          *config.Config
	log          *logger.Logger
	redis        *redis.Client
	marketData   repository.MarketDataRepository
	broker       repository.BrokerRepository
	universe     repository.UniverseRepository
	positionRepo repository.PositionRepository
	runRepo      repository.AlgorithmRunRepository
	recorder     RunRecorder
	notifier     telegram.Notifier

	indicators *IndicatorEngine
	ranker     *SignalRanker
	allocator  *CashAllocator
	positions  *PositionManager

	now func() time.Time
}

func NewAlgorithmService(
	cfg *config.Config,
	log *logger.Logger,
	redisClient *redis.Client,
	marketData repository.MarketDataRepository,
	broker repository.BrokerRepository,
	universe repository.UniverseRepository,
	positionRepo repository.PositionRepository,
	runRepo repository.AlgorithmRunRepository,
	recorder RunRecorder,
	notifier telegram.Notifier,
) AlgorithmService {
	allocator := NewCashAllocator(cfg.Algorithm.CashBufferPct, cfg.Algorithm.BenchmarkSymbol)
	return &algorithmService{
		cfg:          cfg,
		log:          log,
		redis:        redisClient,
		marketData:   marketData,
		broker:       broker,
		universe:     universe,
		positionRepo: positionRepo,
		runRepo:      runRepo,
		recorder:     recorder,
		notifier:     notifier,
		indicators:   NewIndicatorEngine(cfg.Algorithm.MinHistoryDays),
		ranker:       NewSignalRanker(cfg.Algorithm.TopMomentumCount, cfg.Algorithm.RelaxedFilters),
		allocator:    allocator,
		positions:    NewPositionManager(cfg.Algorithm.MaxPositions, cfg.Algorithm.StopLossPct, allocator),
		now:          utils.TimeNowNY,
	}
}

// Decision is the full output of one pure decision pass. It is computed
// without any I/O so the same inputs always yield the same decision.
type Decision struct {
	Signals    []entity.DailySignal
	Intents    []dto.OrderIntent
	TopSymbols []string
	State      *PortfolioState
	Prices     map[string]float64
}

// gatherResult is everything Run fetched before deciding.
type gatherResult struct {
	market      *dto.MarketSnapshot
	account     *dto.AccountSnapshot
	dbPositions map[string]entity.Position
	benchmark   float64
	skipped     int
}

func (s *algorithmService) Run(ctx context.Context, runDate time.Time) (*dto.RunSummary, error) {
	runDate = runDate.Truncate(24 * time.Hour)
	dateKey := utils.FormatRunDate(runDate)

	existing, err := s.runRepo.GetByDate(ctx, runDate)
	if err != nil {
		return nil, &dto.RunAbortedError{Stage: "run_lookup", Err: err}
	}
	if existing != nil {
		s.log.InfoContext(ctx, "run already recorded, skipping",
			logger.StringField("run_date", dateKey),
			logger.StringField("status", existing.Status))
		return summaryFromRun(existing), nil
	}

	acquired, err := s.redis.SetNX(ctx, fmt.Sprintf(common.RedisKeyRunLock, dateKey), "1", runLockTTL).Result()
	if err != nil {
		return nil, &dto.RunAbortedError{Stage: "run_lock", Err: err}
	}
	if !acquired {
		s.log.InfoContext(ctx, "run lock held elsewhere, skipping",
			logger.StringField("run_date", dateKey))
		return nil, nil
	}

	start := s.now()
	s.log.InfoContext(ctx, "starting algorithm run", logger.StringField("run_date", dateKey))

	summary, err := s.execute(ctx, runDate, start)
	if err != nil {
		s.recordFailure(ctx, runDate, start, err)
		return nil, err
	}
	return summary, nil
}

func (s *algorithmService) execute(ctx context.Context, runDate, start time.Time) (*dto.RunSummary, error) {
	gathered, err := s.gather(ctx, runDate)
	if err != nil {
		return nil, err
	}

	decision := s.decide(runDate, gathered.market, gathered.account, gathered.dbPositions, gathered.benchmark)

	trades, failedBuys, failedSells, marketClosed := s.executeIntents(ctx, runDate, decision)

	record := s.buildRecord(runDate, start, gathered, decision, trades, failedBuys, failedSells, marketClosed)
	if err := s.recorder.Record(ctx, record); err != nil {
		return nil, &dto.RunAbortedError{Stage: "record", Err: err}
	}

	summary := summaryFromRun(record.Run)
	summary.TopMomentumStocks = decision.TopSymbols

	s.log.InfoContext(ctx, "algorithm run finished",
		logger.StringField("run_date", utils.FormatRunDate(runDate)),
		logger.StringField("status", summary.Status),
		logger.IntField("signals", summary.SignalsGenerated),
		logger.IntField("trades", summary.TradesExecuted),
		logger.IntField("symbols_skipped", gathered.skipped),
		logger.IntField("execution_time_seconds", summary.ExecutionTime))

	s.notify(telegram.FormatRunSummaryMessage(runDate, summary.Status, summary.SignalsGenerated, summary.TradesExecuted, decision.TopSymbols))

	return summary, nil
}

// gather fetches everything the decision pass needs. A failure here is
// systemic and aborts the run; a single symbol without usable history is
// only skipped.
func (s *algorithmService) gather(ctx context.Context, runDate time.Time) (*gatherResult, error) {
	tickers, err := s.universe.GetTickers(ctx)
	if err != nil {
		return nil, &dto.RunAbortedError{Stage: "universe", Err: err}
	}

	account, err := s.broker.GetAccount(ctx)
	if err != nil {
		return nil, &dto.RunAbortedError{Stage: "account", Err: err}
	}
	positions, err := s.broker.GetPositions(ctx)
	if err != nil {
		return nil, &dto.RunAbortedError{Stage: "positions", Err: err}
	}
	account.Positions = positions

	dbPositions, err := s.positionRepo.GetAll(ctx)
	if err != nil {
		return nil, &dto.RunAbortedError{Stage: "stored_positions", Err: err}
	}
	dbBySymbol := make(map[string]entity.Position, len(dbPositions))
	for _, p := range dbPositions {
		dbBySymbol[p.Symbol] = p
	}

	benchmark := s.cfg.Algorithm.BenchmarkSymbol
	quote, err := s.marketData.GetQuote(ctx, benchmark)
	if err != nil {
		return nil, &dto.RunAbortedError{Stage: "benchmark_quote", Err: err}
	}

	symbols := make(map[string]struct{}, len(tickers)+len(positions))
	for _, t := range tickers {
		symbols[t] = struct{}{}
	}
	for _, p := range positions {
		if p.Symbol != benchmark {
			symbols[p.Symbol] = struct{}{}
		}
	}

	market := &dto.MarketSnapshot{
		RunDate: runDate,
		Bars:    make(map[string][]dto.PriceBar, len(symbols)),
	}

	skipped, err := s.fetchBars(ctx, sortedKeys(symbols), market)
	if err != nil {
		return nil, err
	}
	if len(market.Bars) == 0 {
		return nil, &dto.RunAbortedError{Stage: "market_data", Err: errors.New("no symbol has usable history")}
	}

	return &gatherResult{
		market:      market,
		account:     account,
		dbPositions: dbBySymbol,
		benchmark:   quote.Price,
		skipped:     skipped,
	}, nil
}

// fetchBars loads daily history for every symbol with a bounded number of
// concurrent requests. Symbols without enough history are counted and
// skipped; any other fetch error aborts the run.
func (s *algorithmService) fetchBars(ctx context.Context, symbols []string, market *dto.MarketSnapshot) (int, error) {
	workers := s.cfg.YahooFinance.MaxConcurrentFetch
	if workers <= 0 {
		workers = 5
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		skipped int
		fatal   error
	)
	sem := make(chan struct{}, workers)

	for _, symbol := range symbols {
		mu.Lock()
		stop := fatal != nil
		mu.Unlock()
		if stop {
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			defer func() { <-sem }()

			bars, err := s.marketData.GetDailyBars(ctx, dto.GetDailyBarsParam{
				Symbol:       symbol,
				LookbackDays: s.cfg.YahooFinance.LookbackDays,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				var unavailable *dto.DataUnavailableError
				if errors.As(err, &unavailable) {
					skipped++
					s.log.WarnContext(ctx, "skipping symbol without usable history",
						logger.StringField("symbol", symbol),
						logger.ErrorField(err))
					return
				}
				if fatal == nil {
					fatal = err
				}
				return
			}
			market.Bars[symbol] = bars
		})
	}
	wg.Wait()

	if fatal != nil {
		return 0, &dto.RunAbortedError{Stage: "market_data", Err: fatal}
	}
	return skipped, nil
}

// decide is the pure decision pass: indicators, ranking, exits, entries,
// cash sweep. It never touches the network or the database.
func (s *algorithmService) decide(runDate time.Time, market *dto.MarketSnapshot, account *dto.AccountSnapshot, dbPositions map[string]entity.Position, benchmarkPrice float64) *Decision {
	benchmark := s.cfg.Algorithm.BenchmarkSymbol

	snapshots := make([]dto.IndicatorSnapshot, 0, len(market.Bars))
	for _, symbol := range sortedBarSymbols(market) {
		if symbol == benchmark {
			continue
		}
		snap, err := s.indicators.ComputeSnapshot(symbol, market.Bars[symbol])
		if err != nil {
			continue
		}
		snapshots = append(snapshots, *snap)
	}

	rank := s.ranker.Rank(snapshots)

	state := NewPortfolioState(account, benchmark, benchmarkPrice)
	for symbol, pos := range state.Positions {
		if stored, ok := dbPositions[symbol]; ok {
			pos.AvgEntryPrice = stored.AvgEntryPrice
			pos.EntryDate = stored.EntryDate
		}
	}

	prices := make(map[string]float64, len(market.Bars))
	for symbol := range market.Bars {
		if last, ok := market.LastClose(symbol); ok {
			prices[symbol] = last
		}
	}

	exitIntents, exitSignals := s.positions.ProcessExits(state, &rank, prices, runDate)
	entryIntents, entrySignals := s.positions.ProcessEntries(state, &rank, runDate)

	intents := append(exitIntents, entryIntents...)
	if sweep := s.allocator.SweepExcess(state); sweep != nil {
		intents = append(intents, *sweep)
	}

	return &Decision{
		Signals:    append(exitSignals, entrySignals...),
		Intents:    intents,
		TopSymbols: rank.TopSymbols,
		State:      state,
		Prices:     prices,
	}
}

// executeIntents submits the decided orders one at a time in decision
// order. A rejected order is logged, its signal is marked order_failed and
// the remaining intents still run. When trading is disabled or the market
// is closed without after-hours enabled, nothing is submitted and every
// trade signal is marked trading_disabled instead.
func (s *algorithmService) executeIntents(ctx context.Context, runDate time.Time, decision *Decision) (trades []entity.Trade, failedBuys, failedSells map[string]bool, marketClosed bool) {
	failedBuys = make(map[string]bool)
	failedSells = make(map[string]bool)

	marketClosed = s.cfg.Algorithm.TradingEnabled &&
		!s.cfg.Algorithm.AllowAfterHours && !utils.IsMarketOpen(s.now())
	if !s.cfg.Algorithm.TradingEnabled || marketClosed {
		s.log.WarnContext(ctx, "trading disabled, recording decisions without submitting orders",
			logger.IntField("intents", len(decision.Intents)))
		for i := range decision.Signals {
			action := decision.Signals[i].ActionTaken
			if action == entity.SignalActionBought || action == entity.SignalActionSold {
				decision.Signals[i].ActionTaken = entity.SignalActionTradingDisabled
			}
		}
		// Nothing was submitted, so every intent counts as unexecuted and
		// the stored positions stay as they are.
		for _, intent := range decision.Intents {
			if intent.Side == dto.OrderSideBuy {
				failedBuys[intent.Symbol] = true
			} else {
				failedSells[intent.Symbol] = true
			}
		}
		return nil, failedBuys, failedSells, marketClosed
	}

	for _, intent := range decision.Intents {
		fill, err := s.broker.SubmitOrder(ctx, intent)
		if err != nil {
			s.log.ErrorContext(ctx, "order failed, continuing with remaining intents",
				logger.StringField("symbol", intent.Symbol),
				logger.StringField("side", intent.Side),
				logger.ErrorField(err))
			if intent.Side == dto.OrderSideBuy {
				failedBuys[intent.Symbol] = true
			} else {
				failedSells[intent.Symbol] = true
			}
			markOrderFailed(decision.Signals, intent)
			continue
		}
		trades = append(trades, s.tradeFromFill(runDate, intent, fill))
	}

	return trades, failedBuys, failedSells, false
}

func (s *algorithmService) tradeFromFill(runDate time.Time, intent dto.OrderIntent, fill *dto.Fill) entity.Trade {
	trade := entity.Trade{
		TradeDate:      runDate,
		Symbol:         intent.Symbol,
		Quantity:       fill.Quantity,
		Price:          utils.Round4(fill.Price),
		EntryPrice:     intent.EntryPrice,
		SignalStrength: intent.SignalStrength,
		Reason:         intent.Reason,
		Commission:     utils.Round2(s.cfg.Algorithm.CommissionPerUnit * float64(fill.Quantity)),
	}
	if intent.Side == dto.OrderSideBuy {
		trade.Action = entity.TradeActionBuy
	} else {
		trade.Action = entity.TradeActionSell
		if intent.EntryPrice != nil {
			trade.PnL = utils.ToPointer(utils.Round2((fill.Price - *intent.EntryPrice) * float64(fill.Quantity)))
		}
	}
	return trade
}

// buildRecord assembles the single atomic write for this run. Positions
// whose buy order failed are not persisted; positions whose sell order
// failed stay on the books.
func (s *algorithmService) buildRecord(runDate, start time.Time, gathered *gatherResult, decision *Decision, trades []entity.Trade, failedBuys, failedSells map[string]bool, marketClosed bool) *RunRecord {
	state := decision.State

	var upserts []entity.Position
	for _, symbol := range state.HeldSymbols() {
		if failedBuys[symbol] {
			continue
		}
		pos := *state.Positions[symbol]
		if price, ok := decision.Prices[symbol]; ok {
			pos.CurrentPrice = utils.Round4(price)
			pos.UnrealizedPnL = utils.Round2((price - pos.AvgEntryPrice) * float64(pos.Quantity))
		}
		pos.ID = 0
		upserts = append(upserts, pos)
	}

	var deletes []string
	for symbol := range gathered.dbPositions {
		if _, held := state.Positions[symbol]; held {
			continue
		}
		if failedSells[symbol] {
			continue
		}
		deletes = append(deletes, symbol)
	}
	sort.Strings(deletes)

	status := entity.RunStatusSuccess
	switch {
	case marketClosed:
		status = entity.RunStatusSkipped
	case len(decision.Signals) == 0:
		status = entity.RunStatusNoSignals
	}

	topJSON, _ := json.Marshal(decision.TopSymbols)

	run := &entity.AlgorithmRun{
		RunDate:              runDate,
		Status:               status,
		SignalsGenerated:     len(decision.Signals),
		TradesExecuted:       len(trades),
		ExecutionTimeSeconds: int(s.now().Sub(start).Seconds()),
		TopMomentumStocks:    datatypes.JSON(topJSON),
	}

	snapshot := s.buildSnapshot(runDate, gathered, decision, trades)

	return &RunRecord{
		Run:             run,
		Signals:         decision.Signals,
		Trades:          trades,
		PositionUpserts: upserts,
		PositionDeletes: deletes,
		Snapshot:        snapshot,
	}
}

// buildSnapshot values the portfolio from the broker account at run start
// plus the trades that actually filled. Decisions that never reached the
// broker leave no trace here.
func (s *algorithmService) buildSnapshot(runDate time.Time, gathered *gatherResult, decision *Decision, trades []entity.Trade) *entity.PortfolioSnapshot {
	benchmark := s.cfg.Algorithm.BenchmarkSymbol

	cash := gathered.account.Cash
	var benchmarkShares int64
	held := make(map[string]int64)
	for _, p := range gathered.account.Positions {
		if p.Symbol == benchmark {
			benchmarkShares = p.Quantity
			continue
		}
		if p.Quantity > 0 {
			held[p.Symbol] = p.Quantity
		}
	}

	for _, t := range trades {
		notional := t.Price * float64(t.Quantity)
		if t.Action == entity.TradeActionBuy {
			cash -= notional
			if t.Symbol == benchmark {
				benchmarkShares += t.Quantity
			} else {
				held[t.Symbol] += t.Quantity
			}
			continue
		}
		cash += notional
		if t.Symbol == benchmark {
			benchmarkShares -= t.Quantity
			continue
		}
		held[t.Symbol] -= t.Quantity
		if held[t.Symbol] <= 0 {
			delete(held, t.Symbol)
		}
	}

	var stockValue float64
	for symbol, qty := range held {
		if price, ok := decision.Prices[symbol]; ok {
			stockValue += float64(qty) * price
		}
	}
	benchmarkValue := float64(benchmarkShares) * gathered.benchmark

	return &entity.PortfolioSnapshot{
		SnapshotDate:    runDate,
		TotalValue:      utils.Round2(cash + stockValue + benchmarkValue),
		CashBalance:     utils.Round2(cash),
		StockValue:      utils.Round2(stockValue),
		BenchmarkShares: benchmarkShares,
		BenchmarkValue:  utils.Round2(benchmarkValue),
		NumPositions:    len(held),
	}
}

// recordFailure writes an error run row with the verbatim failure message
// so the date stays claimed and the failure is visible in history.
func (s *algorithmService) recordFailure(ctx context.Context, runDate, start time.Time, runErr error) {
	run := &entity.AlgorithmRun{
		RunDate:              runDate,
		Status:               entity.RunStatusError,
		ErrorMessage:         runErr.Error(),
		ExecutionTimeSeconds: int(s.now().Sub(start).Seconds()),
		TopMomentumStocks:    datatypes.JSON([]byte("[]")),
	}
	if err := s.recorder.Record(ctx, &RunRecord{Run: run}); err != nil {
		s.log.ErrorContext(ctx, "failed to record error run",
			logger.StringField("run_date", utils.FormatRunDate(runDate)),
			logger.ErrorField(err))
	}
	s.log.ErrorContext(ctx, "algorithm run failed",
		logger.StringField("run_date", utils.FormatRunDate(runDate)),
		logger.ErrorField(runErr))
	s.notify(telegram.FormatErrorAlertMessage(s.now(), runErr.Error()))
}

func (s *algorithmService) notify(message string) {
	utils.GoSafe(func() {
		if err := s.notifier.SendMessage(message); err != nil {
			s.log.ErrorContext(context.Background(), "failed to send telegram notification",
				logger.ErrorField(err))
		}
	})
}

// markOrderFailed flags the signal behind a rejected order. The match is by
// symbol and side: an exited symbol re-entered in the same pass carries both
// a sold and a bought signal.
func markOrderFailed(signals []entity.DailySignal, intent dto.OrderIntent) {
	want := entity.SignalActionSold
	if intent.Side == dto.OrderSideBuy {
		want = entity.SignalActionBought
	}
	for i := range signals {
		if signals[i].Symbol == intent.Symbol && signals[i].ActionTaken == want {
			signals[i].ActionTaken = entity.SignalActionOrderFailed
			return
		}
	}
}

func summaryFromRun(run *entity.AlgorithmRun) *dto.RunSummary {
	summary := &dto.RunSummary{
		RunDate:          run.RunDate,
		Status:           run.Status,
		SignalsGenerated: run.SignalsGenerated,
		TradesExecuted:   run.TradesExecuted,
		ErrorMessage:     run.ErrorMessage,
		ExecutionTime:    run.ExecutionTimeSeconds,
	}
	if len(run.TopMomentumStocks) > 0 {
		var top []string
		if err := json.Unmarshal(run.TopMomentumStocks, &top); err == nil {
			summary.TopMomentumStocks = top
		}
	}
	return summary
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedBarSymbols(m *dto.MarketSnapshot) []string {
	keys := make([]string, 0, len(m.Bars))
	for k := range m.Bars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
