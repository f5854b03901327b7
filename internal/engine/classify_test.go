package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketHeat/internal/domain/models"
)

func TestClassifySignalThreshold(t *testing.T) {
	cfg := DefaultConfig() // threshold 75

	signals, _ := classify(cfg, col(76, 74.99, 75))
	require.NotNil(t, signals[0])
	assert.True(t, *signals[0])
	require.NotNil(t, signals[1])
	assert.False(t, *signals[1])
	require.NotNil(t, signals[2])
	assert.True(t, *signals[2], "threshold is inclusive")
}

func TestClassifyTiers(t *testing.T) {
	cfg := DefaultConfig() // breakpoints 40/60/75/85

	_, tiers := classify(cfg, col(39, 40, 59.99, 60, 74, 83, 85, 99))
	assert.Equal(t, models.TierSafe, tiers[0])
	assert.Equal(t, models.TierModerate, tiers[1])
	assert.Equal(t, models.TierModerate, tiers[2])
	assert.Equal(t, models.TierCaution, tiers[3])
	assert.Equal(t, models.TierCaution, tiers[4])
	assert.Equal(t, models.TierStrongWarning, tiers[5])
	assert.Equal(t, models.TierExtreme, tiers[6])
	assert.Equal(t, models.TierExtreme, tiers[7])
}

func TestClassifyMissingIndex(t *testing.T) {
	cfg := DefaultConfig()
	signals, tiers := classify(cfg, col(nan))
	assert.Nil(t, signals[0])
	assert.Equal(t, models.TierUnknown, tiers[0])
}

func TestClassifyCustomThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SignalThreshold = 50
	cfg.Breakpoints = []float64{50}
	cfg.Tiers = []models.RiskTier{models.TierSafe, models.TierExtreme}

	signals, tiers := classify(cfg, col(49, 51))
	assert.False(t, *signals[0])
	assert.True(t, *signals[1])
	assert.Equal(t, models.TierSafe, tiers[0])
	assert.Equal(t, models.TierExtreme, tiers[1])
}
