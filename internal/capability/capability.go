// Package capability defines the AR capability tiers a session can run
// in and the one-directional downgrade chain between them.
package capability

// Tier is the level of AR support actually available this session.
type Tier int

const (
	// TierNativeAR is a full immersive session with native pose tracking
	// and, when the host supports it, native spatial anchors.
	TierNativeAR Tier = iota
	// TierInlineDegraded is a native session running in a non-immersive
	// mode; pose tracking works but anchor creation is assumed
	// unavailable.
	TierInlineDegraded
	// TierSensorFallback approximates world-locking from orientation
	// sensors and a raw camera feed.
	TierSensorFallback
)

// String returns the string representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierNativeAR:
		return "native-ar"
	case TierInlineDegraded:
		return "inline-degraded"
	case TierSensorFallback:
		return "sensor-fallback"
	default:
		return "unknown"
	}
}

// Next returns the next tier in the downgrade chain. ok is false when
// the tier has no further fallback.
func (t Tier) Next() (next Tier, ok bool) {
	switch t {
	case TierNativeAR:
		return TierInlineDegraded, true
	case TierInlineDegraded:
		return TierSensorFallback, true
	default:
		return t, false
	}
}

// SupportsNativeTracking reports whether the tier has host pose
// tracking, as opposed to sensor approximation.
func (t Tier) SupportsNativeTracking() bool {
	return t == TierNativeAR || t == TierInlineDegraded
}
