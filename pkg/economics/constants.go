package economics

// Defaults applied when a project file leaves the economics block empty.
const (
	DefaultDiscountRate  = 0.05 // per year
	DefaultLifetimeYears = 20   // years of service over which capital is amortised

	DefaultSensitivitySteps = 11 // price points in a sensitivity sweep
)
