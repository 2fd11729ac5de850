package session

import "github.com/arlock/arlock/internal/capability"

// State is the lifecycle state of the session state machine:
//
//	Idle → Requesting → NativeAR | InlineDegraded | SensorFallback → Ended → Idle
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateNativeAR
	StateInlineDegraded
	StateSensorFallback
	StateEnded
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateNativeAR:
		return "native-ar"
	case StateInlineDegraded:
		return "inline-degraded"
	case StateSensorFallback:
		return "sensor-fallback"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Active reports whether the state is one of the three running tiers.
func (s State) Active() bool {
	switch s {
	case StateNativeAR, StateInlineDegraded, StateSensorFallback:
		return true
	default:
		return false
	}
}

// Tier maps an active state to its capability tier.
func (s State) Tier() (capability.Tier, bool) {
	switch s {
	case StateNativeAR:
		return capability.TierNativeAR, true
	case StateInlineDegraded:
		return capability.TierInlineDegraded, true
	case StateSensorFallback:
		return capability.TierSensorFallback, true
	default:
		return 0, false
	}
}

// stateForTier maps a capability tier to its active state.
func stateForTier(t capability.Tier) State {
	switch t {
	case capability.TierNativeAR:
		return StateNativeAR
	case capability.TierInlineDegraded:
		return StateInlineDegraded
	default:
		return StateSensorFallback
	}
}
