package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arlock/arlock/internal/capability"
)

func TestStateActive(t *testing.T) {
	assert.False(t, StateIdle.Active())
	assert.False(t, StateRequesting.Active())
	assert.True(t, StateNativeAR.Active())
	assert.True(t, StateInlineDegraded.Active())
	assert.True(t, StateSensorFallback.Active())
	assert.False(t, StateEnded.Active())
}

func TestStateTier(t *testing.T) {
	tier, ok := StateNativeAR.Tier()
	assert.True(t, ok)
	assert.Equal(t, capability.TierNativeAR, tier)

	_, ok = StateIdle.Tier()
	assert.False(t, ok)
	_, ok = StateEnded.Tier()
	assert.False(t, ok)
}

func TestStateTierRoundTrip(t *testing.T) {
	for _, tier := range []capability.Tier{
		capability.TierNativeAR,
		capability.TierInlineDegraded,
		capability.TierSensorFallback,
	} {
		got, ok := stateForTier(tier).Tier()
		assert.True(t, ok)
		assert.Equal(t, tier, got)
	}
}
