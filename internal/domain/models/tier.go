package models

// RiskTier is an ordered overheat classification derived from index breakpoints.
type RiskTier string

const (
	TierSafe          RiskTier = "safe"
	TierModerate      RiskTier = "moderate"
	TierCaution       RiskTier = "caution"
	TierStrongWarning RiskTier = "strong-warning"
	TierExtreme       RiskTier = "extreme"
	// TierUnknown marks dates where the index itself could not be computed.
	TierUnknown RiskTier = "na"
)

// DefaultTiers lists the tiers from lowest to highest; len(DefaultTiers) must be
// one more than the number of configured breakpoints.
var DefaultTiers = []RiskTier{TierSafe, TierModerate, TierCaution, TierStrongWarning, TierExtreme}
