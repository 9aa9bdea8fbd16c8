// Package config loads and validates engine configuration, following the
// teacher's env-first pattern: .env via godotenv, then process
// environment, with every percentage field validated into [0,1] at load
// time (spec §6: "invalid configuration is a startup error").
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/aristath/aegis/internal/utils"
)

// AssetClass changes PDT enforcement and default risk config (spec §6).
type AssetClass string

const (
	AssetStock  AssetClass = "stock"
	AssetCrypto AssetClass = "crypto"
)

// StrategyMode selects the active strategy variant for a symbol context
// (spec §4.3, §6).
type StrategyMode string

const (
	StrategyStandard        StrategyMode = "standard"
	StrategyAdvanced        StrategyMode = "advanced"
	StrategyDynamic         StrategyMode = "dynamic"
	StrategyTrendRiding     StrategyMode = "trend_riding"
	StrategyMeanReversion   StrategyMode = "mean_reversion"
	StrategyRegimeAdaptive  StrategyMode = "regime_adaptive"
	StrategySMC             StrategyMode = "smc"
	StrategyVWAP            StrategyMode = "vwap"
	StrategyBreakout        StrategyMode = "breakout"
	StrategyMomentum        StrategyMode = "momentum"
	StrategyEnsemble        StrategyMode = "ensemble"
	StrategyZScoreMR        StrategyMode = "zscore_mr"
	StrategyStatMomentum    StrategyMode = "stat_momentum"
	StrategyOrderFlow       StrategyMode = "order_flow"
	StrategyML              StrategyMode = "ml"
)

// RiskConfig is the set of per-symbol-context-independent risk limits
// RiskManager enforces (spec §4.4, §6).
type RiskConfig struct {
	RiskPerTradePercent  float64 // [0,1]
	MaxPositions         int
	MaxPositionSizePct   float64 // [0,1]
	MaxSectorExposurePct float64 // [0,1]
	MaxDailyLossPct      float64 // [0,1]
	MaxDrawdownPct       float64 // [0,1]
	ConsecutiveLossLimit int
	SlippageTolerance    float64 // [0,1]
	MinRewardRisk        float64
	MinProfitRatio       float64
	ProfitTargetMultiplier float64
	TakeProfitPct        float64
	CorrelationEnabled   bool
	CorrelationThreshold float64
}

// StrategyParams bundles every strategy's tunable periods/thresholds
// (spec §6 "Strategy-specific" list).
type StrategyParams struct {
	SMAFast, SMASlow, SMATrend int
	RSIPeriod                  int
	RSIThreshold               float64
	MACDFast, MACDSlow, MACDSignal int
	ATRPeriod                  int
	TrailingStopATRMultiplier  float64
	BollingerPeriod            int
	BollingerStdDev            float64
	ZScoreLookback             int
	ZScoreEntry, ZScoreExit    float64
	BreakoutLookback           int
	BreakoutThreshold          float64
	BreakoutVolumeMultiplier   float64
	OrderFlowOFIThreshold      float64
	EnsembleVotingThreshold    float64
}

// Config is the complete, validated engine configuration.
type Config struct {
	// Server
	Port    int
	DevMode bool
	LogLevel string
	LogPretty bool

	// Persistence
	DatabasePath string

	// Broker / market data (demo adapter defaults; a real deployment
	// swaps these for broker credentials)
	BrokerAPIKey    string
	BrokerAPISecret string

	// Backup (internal/reliability). AccessKeyID/SecretAccessKey are
	// optional: when both are set, the backup job authenticates with
	// them directly instead of the default AWS credential chain, for
	// S3-compatible endpoints (e.g. Cloudflare R2) that don't have IAM
	// roles to assume.
	S3Bucket          string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	BackupCronSpec    string

	Risk     RiskConfig
	Strategy StrategyParams

	StrategyMode StrategyMode
	AssetClass   AssetClass
	NonPDTMode   bool

	OrderCooldownSeconds    int64
	MinHoldTimeMinutes      int64
	PendingOrderTTLMs       int64
	ValuationIntervalSeconds int64
	MaxOrdersPerMinute      int

	RiskAppetiteScore int // 1..9

	// Watchlist / demo market data, since this engine has no universe
	// selection subsystem of its own (spec is silent on automated
	// symbol discovery): the tracked symbol set and starting paper cash
	// are config-supplied rather than computed.
	Symbols      []string
	StartingCash string // parsed to decimal.Decimal by the caller
	QuoteFeedURL string // ws(s):// URL for pkg/broker.WebSocketFeed; empty selects the in-process synthetic feed
	MLModelPath  string // model file for strategies.NewML, when StrategyMode == StrategyML

	// Sectors maps symbol->sector for RiskManager's sector-exposure cap
	// (spec §4.4 step 8), e.g. "AAPL:Technology,JPM:Financials".
	SectorsCSV string

	// Cost model (spec §4.7 step 5): round-trip fee rate as a fraction
	// of notional, and a modeled per-share spread in cents (cmd/server
	// divides it by 100 into price units).
	FeeRate           float64
	ModeledSpreadCents float64
}

// Load reads configuration from environment variables, falling back to
// .env, then to the defaults below.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnvAsInt("AEGIS_PORT", 8080),
		DevMode:   getEnvAsBool("DEV_MODE", false),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),

		DatabasePath: getEnv("DATABASE_PATH", "./data/aegis.db"),

		BrokerAPIKey:    getEnv("BROKER_API_KEY", ""),
		BrokerAPISecret: getEnv("BROKER_API_SECRET", ""),

		S3Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
		S3Region:          getEnv("BACKUP_S3_REGION", "us-east-1"),
		S3AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
		BackupCronSpec:    getEnv("BACKUP_CRON_SPEC", "0 0 * * *"),

		Risk: RiskConfig{
			RiskPerTradePercent:    getEnvAsFloat("RISK_PER_TRADE_PERCENT", 0.01),
			MaxPositions:           getEnvAsInt("MAX_POSITIONS", 10),
			MaxPositionSizePct:     getEnvAsFloat("MAX_POSITION_SIZE_PCT", 0.20),
			MaxSectorExposurePct:   getEnvAsFloat("MAX_SECTOR_EXPOSURE_PCT", 0.40),
			MaxDailyLossPct:        getEnvAsFloat("MAX_DAILY_LOSS_PCT", 0.03),
			MaxDrawdownPct:         getEnvAsFloat("MAX_DRAWDOWN_PCT", 0.10),
			ConsecutiveLossLimit:   getEnvAsInt("CONSECUTIVE_LOSS_LIMIT", 3),
			SlippageTolerance:      getEnvAsFloat("SLIPPAGE_TOLERANCE", 0.005),
			MinRewardRisk:          getEnvAsFloat("MIN_REWARD_RISK", 1.2),
			MinProfitRatio:         getEnvAsFloat("MIN_PROFIT_RATIO", 1.5),
			ProfitTargetMultiplier: getEnvAsFloat("PROFIT_TARGET_MULTIPLIER", 2.0),
			TakeProfitPct:          getEnvAsFloat("TAKE_PROFIT_PCT", 0.05),
			CorrelationEnabled:     getEnvAsBool("CORRELATION_FILTER_ENABLED", true),
			CorrelationThreshold:   getEnvAsFloat("CORRELATION_THRESHOLD", 0.80),
		},

		Strategy: StrategyParams{
			SMAFast:                   getEnvAsInt("SMA_FAST_PERIOD", 10),
			SMASlow:                   getEnvAsInt("SMA_SLOW_PERIOD", 30),
			SMATrend:                  getEnvAsInt("SMA_TREND_PERIOD", 200),
			RSIPeriod:                 getEnvAsInt("RSI_PERIOD", 14),
			RSIThreshold:              getEnvAsFloat("RSI_OVERBOUGHT_THRESHOLD", 70),
			MACDFast:                  getEnvAsInt("MACD_FAST_PERIOD", 12),
			MACDSlow:                  getEnvAsInt("MACD_SLOW_PERIOD", 26),
			MACDSignal:                getEnvAsInt("MACD_SIGNAL_PERIOD", 9),
			ATRPeriod:                 getEnvAsInt("ATR_PERIOD", 14),
			TrailingStopATRMultiplier: getEnvAsFloat("TRAILING_STOP_ATR_MULTIPLIER", 2.0),
			BollingerPeriod:           getEnvAsInt("BOLLINGER_PERIOD", 20),
			BollingerStdDev:           getEnvAsFloat("BOLLINGER_STDDEV", 2.0),
			ZScoreLookback:            getEnvAsInt("ZSCORE_LOOKBACK", 20),
			ZScoreEntry:               getEnvAsFloat("ZSCORE_ENTRY", 2.0),
			ZScoreExit:                getEnvAsFloat("ZSCORE_EXIT", 0.5),
			BreakoutLookback:          getEnvAsInt("BREAKOUT_LOOKBACK", 20),
			BreakoutThreshold:         getEnvAsFloat("BREAKOUT_THRESHOLD", 0.01),
			BreakoutVolumeMultiplier:  getEnvAsFloat("BREAKOUT_VOLUME_MULTIPLIER", 1.5),
			OrderFlowOFIThreshold:     getEnvAsFloat("ORDER_FLOW_OFI_THRESHOLD", 0.3),
			EnsembleVotingThreshold:   getEnvAsFloat("ENSEMBLE_VOTING_THRESHOLD", 0.5),
		},

		StrategyMode: StrategyMode(getEnv("STRATEGY_MODE", string(StrategyStandard))),
		AssetClass:   AssetClass(getEnv("ASSET_CLASS", string(AssetStock))),
		NonPDTMode:   getEnvAsBool("NON_PDT_MODE", true),

		OrderCooldownSeconds:     getEnvAsInt64("ORDER_COOLDOWN_SECONDS", 30),
		MinHoldTimeMinutes:       getEnvAsInt64("MIN_HOLD_TIME_MINUTES", 1),
		PendingOrderTTLMs:        getEnvAsInt64("PENDING_ORDER_TTL_MS", 5000),
		ValuationIntervalSeconds: getEnvAsInt64("VALUATION_INTERVAL_SECONDS", 5),
		MaxOrdersPerMinute:       getEnvAsInt("MAX_ORDERS_PER_MINUTE", 30),

		RiskAppetiteScore: getEnvAsInt("RISK_APPETITE_SCORE", 5),

		Symbols:      getEnvAsSlice("SYMBOLS", []string{"AAPL", "MSFT", "GOOGL"}),
		StartingCash: getEnv("STARTING_CASH", "100000"),
		QuoteFeedURL: getEnv("QUOTE_FEED_URL", ""),
		MLModelPath:  getEnv("ML_MODEL_PATH", ""),
		SectorsCSV:   getEnv("SYMBOL_SECTORS", "AAPL:Technology,MSFT:Technology,GOOGL:Technology"),

		FeeRate:            getEnvAsFloat("FEE_RATE", 0.001),
		ModeledSpreadCents:  getEnvAsFloat("MODELED_SPREAD_CENTS", 1.0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces spec §6: "All percentage fields are validated into
// [0,1]; invalid configuration is a startup error."
func (c *Config) Validate() error {
	pct := map[string]float64{
		"RISK_PER_TRADE_PERCENT":    c.Risk.RiskPerTradePercent,
		"MAX_POSITION_SIZE_PCT":     c.Risk.MaxPositionSizePct,
		"MAX_SECTOR_EXPOSURE_PCT":   c.Risk.MaxSectorExposurePct,
		"MAX_DAILY_LOSS_PCT":        c.Risk.MaxDailyLossPct,
		"MAX_DRAWDOWN_PCT":          c.Risk.MaxDrawdownPct,
		"SLIPPAGE_TOLERANCE":        c.Risk.SlippageTolerance,
		"CORRELATION_THRESHOLD":     c.Risk.CorrelationThreshold,
		"TAKE_PROFIT_PCT":           c.Risk.TakeProfitPct,
	}
	for name, v := range pct {
		if v < 0 || v > 1 {
			return fmt.Errorf("config: %s must be in [0,1], got %v", name, v)
		}
	}
	if c.Risk.ConsecutiveLossLimit <= 0 {
		return fmt.Errorf("config: CONSECUTIVE_LOSS_LIMIT must be positive")
	}
	if c.Risk.MaxPositions <= 0 {
		return fmt.Errorf("config: MAX_POSITIONS must be positive")
	}
	if c.RiskAppetiteScore < 1 || c.RiskAppetiteScore > 9 {
		return fmt.Errorf("config: RISK_APPETITE_SCORE must be in [1,9], got %d", c.RiskAppetiteScore)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("config: DATABASE_PATH is required")
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("config: SYMBOLS must list at least one symbol")
	}
	switch c.AssetClass {
	case AssetStock, AssetCrypto:
	default:
		return fmt.Errorf("config: ASSET_CLASS must be stock or crypto, got %q", c.AssetClass)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed := utils.ParseCSV(value); parsed != nil {
		return parsed
	}
	return defaultValue
}

// ParseSectors turns a "SYMBOL:Sector,SYMBOL:Sector" string (as stored
// in SectorsCSV) into a lookup map for sectors.NewStaticProvider.
func ParseSectors(csv string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(csv, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		out[parts[0]] = parts[1]
	}
	return out
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
