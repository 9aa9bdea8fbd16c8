package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		prev, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, prev)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, "MAX_DAILY_LOSS_PCT", "ASSET_CLASS", "RISK_APPETITE_SCORE")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.03, cfg.Risk.MaxDailyLossPct)
	assert.Equal(t, AssetStock, cfg.AssetClass)
	assert.Equal(t, 5, cfg.RiskAppetiteScore)
}

func TestValidateRejectsOutOfRangePercent(t *testing.T) {
	cfg := &Config{
		DatabasePath:      "./x.db",
		AssetClass:        AssetStock,
		RiskAppetiteScore: 5,
		Risk: RiskConfig{
			MaxDailyLossPct:      1.5, // invalid
			ConsecutiveLossLimit: 3,
			MaxPositions:         5,
		},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_DAILY_LOSS_PCT")
}

func TestValidateRejectsBadRiskAppetite(t *testing.T) {
	cfg := &Config{
		DatabasePath:      "./x.db",
		AssetClass:        AssetStock,
		RiskAppetiteScore: 10,
		Risk: RiskConfig{
			ConsecutiveLossLimit: 3,
			MaxPositions:         5,
		},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RISK_APPETITE_SCORE")
}

func TestValidateRejectsUnknownAssetClass(t *testing.T) {
	cfg := &Config{
		DatabasePath:      "./x.db",
		Symbols:           []string{"AAPL"},
		AssetClass:        "futures",
		RiskAppetiteScore: 5,
		Risk: RiskConfig{
			ConsecutiveLossLimit: 3,
			MaxPositions:         5,
		},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ASSET_CLASS")
}
