// Package main wires the autonomous trading engine together: five
// long-lived agents (Sentinel, Analyst, RiskManager, OrderThrottler,
// Executor) connected by bounded channels, a sqlite-backed persistence
// layer, an event bus, an agent-health registry exposed over HTTP, and
// scheduled database maintenance/backup jobs.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/agents"
	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/domain"
	"github.com/aristath/aegis/internal/evaluation"
	"github.com/aristath/aegis/internal/events"
	"github.com/aristath/aegis/internal/market"
	"github.com/aristath/aegis/internal/persistence"
	"github.com/aristath/aegis/internal/ports"
	"github.com/aristath/aegis/internal/registry"
	"github.com/aristath/aegis/internal/reliability"
	"github.com/aristath/aegis/internal/risk"
	"github.com/aristath/aegis/internal/scheduler"
	"github.com/aristath/aegis/internal/sectors"
	"github.com/aristath/aegis/internal/warmup"
	"github.com/aristath/aegis/pkg/broker"
	"github.com/aristath/aegis/pkg/logger"
)

// Channel depths for the inter-agent pipeline. Bounded so a slow
// downstream agent applies backpressure instead of growing memory
// without limit; the Analyst drops proposals under sustained
// backpressure, while the RiskManager's order send blocks until the
// throttler takes the order or ctx ends (spec §4.1-§4.5).
const (
	marketEventBuffer = 1024
	proposalBuffer    = 64
	orderBuffer       = 64
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{Level: "info", Pretty: true}).Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)
	log.Info().Strs("symbols", cfg.Symbols).Msg("starting aegis")

	db, err := persistence.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	startingCash, err := decimal.NewFromString(cfg.StartingCash)
	if err != nil {
		log.Fatal().Err(err).Str("starting_cash", cfg.StartingCash).Msg("invalid STARTING_CASH")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewBus(log)
	reg := registry.New(log)

	riskRepo := persistence.NewRiskStateRepository(db)
	tradeRepo := persistence.NewTradeRepository(db)

	store, err := risk.Load(ctx, riskRepo, startingCash, time.Now().Format("2006-01-02"), time.Now().Unix())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load risk state")
	}

	portfolio := domain.NewPortfolio(startingCash)
	sectorProvider := sectors.NewStaticProvider(config.ParseSectors(cfg.SectorsCSV))

	feed := buildMarketDataService(cfg, log)
	executionSvc := broker.NewPaperBroker(startingCash)

	warmupSvc := warmup.NewService(feed, nil, log)

	rawMarketEvents := make(chan domain.MarketEvent, marketEventBuffer)
	analystMarketEvents := make(chan domain.MarketEvent, marketEventBuffer)
	riskPriceUpdates := make(chan domain.MarketEvent, marketEventBuffer)
	newsEvents := make(chan domain.NewsSignal)
	proposals := make(chan domain.TradeProposal, proposalBuffer)
	throttledIn := make(chan domain.Order, orderBuffer)
	throttledOut := make(chan domain.Order, orderBuffer)

	spreadCache := market.NewSpreadCache()
	sentinel := agents.NewSentinel(feed, rawMarketEvents, spreadCache, reg, bus, log)
	go fanoutMarketEvents(ctx, rawMarketEvents, analystMarketEvents, riskPriceUpdates)

	orderUpdates, err := executionSvc.SubscribeOrderUpdates(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe to order updates")
	}
	analystOrderUpdates := make(chan domain.OrderUpdate, orderBuffer)
	riskOrderUpdates := make(chan domain.OrderUpdate, orderBuffer)
	go fanoutOrderUpdates(ctx, orderUpdates, analystOrderUpdates, riskOrderUpdates)

	winRates := evaluation.NewWinRateProvider(20, 0.5)
	analyst := agents.NewAnalyst(analystMarketEvents, analystOrderUpdates, newsEvents, proposals, portfolio, winRates, warmupSvc, executionSvc, cfg, reg, log)

	costEvaluator := evaluation.NewCostEvaluator(cfg.FeeRate, decimal.NewFromFloat(cfg.ModeledSpreadCents/100))
	tradeFilter := evaluation.NewTradeFilter(cfg.OrderCooldownSeconds, cfg.MinHoldTimeMinutes)
	expectancy := evaluation.NewExpectancyEvaluator(winRates)
	correlation := market.NewCorrelationFilter(cfg.Risk.CorrelationThreshold)

	riskManager := agents.NewRiskManager(
		proposals, riskOrderUpdates, riskPriceUpdates, throttledIn,
		portfolio, store, sectorProvider, correlation, costEvaluator, spreadCache, tradeFilter, expectancy,
		cfg.Risk, cfg.AssetClass, cfg.NonPDTMode, reg, bus, log,
	)

	throttler := agents.NewOrderThrottler(cfg.MaxOrdersPerMinute, throttledIn, throttledOut, log)
	throttler.OnQueueDepth(func(depth int) {
		log.Debug().Int("depth", depth).Msg("order throttle queue depth")
	})

	feeModel := agents.FeeSlippageModel{FeeRate: cfg.FeeRate, SlippageFraction: cfg.Risk.SlippageTolerance}
	limitTimeout := time.Duration(cfg.PendingOrderTTLMs) * time.Millisecond
	executor := agents.NewExecutor(executionSvc, tradeRepo, portfolio, feeModel, limitTimeout, throttledOut, bus, log)

	go sentinel.Run(ctx, cfg.Symbols)
	go analyst.Run(ctx)
	go riskManager.Run(ctx)
	go throttler.Run(ctx)
	go executor.Run(ctx)

	go runRegistrySweep(ctx, reg)

	sched := scheduler.New(log)
	if err := wireMaintenance(ctx, sched, db, cfg, log); err != nil {
		log.Error().Err(err).Msg("failed to schedule maintenance jobs")
	}
	sched.Start()
	defer sched.Stop()

	httpServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: reg.Router()}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server failed")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("health server listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("aegis stopped")
}

// buildMarketDataService selects the websocket demo feed when
// QUOTE_FEED_URL is configured, or an in-process synthetic feed
// otherwise, so the binary runs standalone by default (spec §4
// Non-goals: no production broker integration is in scope).
func buildMarketDataService(cfg *config.Config, log zerolog.Logger) ports.MarketDataService {
	if cfg.QuoteFeedURL != "" {
		return broker.NewWebSocketFeed(cfg.QuoteFeedURL, log)
	}
	return broker.NewSyntheticFeed(log)
}

// fanoutMarketEvents copies every event Sentinel publishes to both the
// Analyst's market channel and the RiskManager's price-tracking
// channel, since a channel has exactly one consumer and both agents
// need every tick (spec §4.1 feeds Analyst directly; §4.4 step 4 needs
// live prices for equity valuation). The Analyst send blocks (it must
// see every candle); the RiskManager send is best-effort so a stalled
// RiskManager never backs up Sentinel's delivery to the Analyst. The
// RiskManager values positions at the last prices it received, so a
// dropped tick leaves that symbol's price one tick stale.
func fanoutMarketEvents(ctx context.Context, in <-chan domain.MarketEvent, analystOut, riskOut chan<- domain.MarketEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-in:
			if !ok {
				return
			}
			select {
			case analystOut <- evt:
			case <-ctx.Done():
				return
			}
			select {
			case riskOut <- evt:
			default:
			}
		}
	}
}

// fanoutOrderUpdates copies every broker order update to both the
// Analyst (which tracks fills against its per-symbol trailing-stop
// state) and the RiskManager (which tracks fills for today's
// round-trip/PDT bookkeeping and ledger reservation cleanup).
func fanoutOrderUpdates(ctx context.Context, in <-chan domain.OrderUpdate, analystOut, riskOut chan<- domain.OrderUpdate) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-in:
			if !ok {
				return
			}
			select {
			case analystOut <- upd:
			default:
			}
			select {
			case riskOut <- upd:
			default:
			}
		}
	}
}

// runRegistrySweep recomputes agent staleness every second so
// heartbeat gaps surface in /healthz promptly (spec §5: ">10s stale ->
// Degraded; >30s -> Dead").
func runRegistrySweep(ctx context.Context, reg *registry.Registry) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			reg.Sweep(now)
		}
	}
}

// wireMaintenance registers the database integrity/checkpoint job
// always, and the S3 backup job only when a bucket is configured.
// Credentials come from the default AWS credential chain unless
// S3AccessKeyID/S3SecretAccessKey are both set, for S3-compatible
// endpoints with no IAM role to assume.
func wireMaintenance(ctx context.Context, sched *scheduler.Scheduler, db *persistence.DB, cfg *config.Config, log zerolog.Logger) error {
	health := reliability.NewHealthService(db, log)
	if err := sched.AddJob("0 0 3 * * *", reliability.NewMaintenanceJob(health)); err != nil {
		return fmt.Errorf("schedule maintenance job: %w", err)
	}

	if cfg.S3Bucket == "" {
		log.Info().Msg("no backup bucket configured, skipping S3 backup job")
		return nil
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKeyID != "" && cfg.S3SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	s3Client := s3.NewFromConfig(awsCfg)
	backupSvc := reliability.NewBackupService(s3Client, cfg.S3Bucket, cfg.DatabasePath, log)

	// BACKUP_CRON_SPEC is documented as a standard 5-field cron
	// expression; the scheduler runs seconds-first 6-field cron, so
	// prefix a literal "0" seconds field.
	schedule := "0 " + cfg.BackupCronSpec
	if err := sched.AddJob(schedule, reliability.NewBackupJob(backupSvc)); err != nil {
		return fmt.Errorf("schedule backup job: %w", err)
	}
	return nil
}
