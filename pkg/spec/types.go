package spec

// Project is the top-level record of a project file: the fuels, the
// candidate configurations, the operating profiles and the economic
// assumptions they are compared under.
type Project struct {
	SpecVersion    string             `yaml:"spec_version" json:"spec_version"`
	Project        ProjectDef         `yaml:"project" json:"project"`
	Fuels          map[string]FuelDef `yaml:"fuels,omitempty" json:"fuels,omitempty"`
	Configurations []ConfigurationDef `yaml:"configurations" json:"configurations"`
	Profiles       []ProfileDef       `yaml:"profiles" json:"profiles"`
	Economics      EconomicsDef       `yaml:"economics" json:"economics"`
}

type ProjectDef struct {
	Name        string `yaml:"name" json:"name"`
	Vessel      string `yaml:"vessel" json:"vessel"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// FuelDef overrides entries of the default fuel table. Unset fields keep
// the default. Prices of combustible fuels are quoted per tonne, shore
// electricity per kWh.
type FuelDef struct {
	CO2Factor        *float64 `yaml:"co2_factor,omitempty" json:"co2_factor,omitempty"`
	PriceUSDPerTonne *float64 `yaml:"price_usd_per_tonne,omitempty" json:"price_usd_per_tonne,omitempty"`
	PriceUSDPerKWh   *float64 `yaml:"price_usd_per_kwh,omitempty" json:"price_usd_per_kwh,omitempty"`
	SOxFactor        *float64 `yaml:"sox_factor,omitempty" json:"sox_factor,omitempty"`
	MethaneSlip      *float64 `yaml:"methane_slip_co2e,omitempty" json:"methane_slip_co2e,omitempty"`
}

type ConfigurationDef struct {
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	CapitalCost float64     `yaml:"capital_cost_usd" json:"capital_cost_usd"`
	DesignSpeed float64     `yaml:"design_speed_knots,omitempty" json:"design_speed_knots,omitempty"`
	DesignPower float64     `yaml:"design_power_kw,omitempty" json:"design_power_kw,omitempty"`
	Sources     []SourceDef `yaml:"sources" json:"sources"`
}

// SourceDef describes one power source. Count > 1 declares identical units
// named <name>1, <name>2, ...
type SourceDef struct {
	Name              string  `yaml:"name" json:"name"`
	Role              string  `yaml:"role" json:"role"`
	Count             int     `yaml:"count,omitempty" json:"count,omitempty"`
	RatedPower        float64 `yaml:"rated_power_kw" json:"rated_power_kw"`
	Fuel              string  `yaml:"fuel,omitempty" json:"fuel,omitempty"`
	SFOC              float64 `yaml:"sfoc_g_per_kwh,omitempty" json:"sfoc_g_per_kwh,omitempty"`
	Efficiency        float64 `yaml:"efficiency,omitempty" json:"efficiency,omitempty"`
	SecondaryFuel     string  `yaml:"secondary_fuel,omitempty" json:"secondary_fuel,omitempty"`
	SecondaryFraction float64 `yaml:"secondary_fraction,omitempty" json:"secondary_fraction,omitempty"`
	PilotFuel         string  `yaml:"pilot_fuel,omitempty" json:"pilot_fuel,omitempty"`
	PilotSFOC         float64 `yaml:"pilot_sfoc_g_per_kwh,omitempty" json:"pilot_sfoc_g_per_kwh,omitempty"`
	CapacityKWh       float64 `yaml:"capacity_kwh,omitempty" json:"capacity_kwh,omitempty"`
}

// Units returns how many identical units the definition declares.
func (s SourceDef) Units() int {
	if s.Count < 1 {
		return 1
	}
	return s.Count
}

type ProfileDef struct {
	Name         string    `yaml:"name" json:"name"`
	HoursPerYear float64   `yaml:"hours_per_year,omitempty" json:"hours_per_year,omitempty"`
	Modes        []ModeDef `yaml:"modes" json:"modes"`
}

type ModeDef struct {
	Name            string  `yaml:"name" json:"name"`
	Hours           float64 `yaml:"hours_per_year" json:"hours_per_year"`
	PropulsionPower float64 `yaml:"propulsion_power_kw,omitempty" json:"propulsion_power_kw,omitempty"`
	Speed           float64 `yaml:"sailing_speed_knots,omitempty" json:"sailing_speed_knots,omitempty"`
	ElectricalLoad  float64 `yaml:"electrical_load_kw" json:"electrical_load_kw"`
	BatteryCycles   float64 `yaml:"battery_cycles,omitempty" json:"battery_cycles,omitempty"`
}

type EconomicsDef struct {
	DiscountRate  float64 `yaml:"discount_rate" json:"discount_rate"`
	LifetimeYears int     `yaml:"lifetime_years" json:"lifetime_years"`
	// Baseline names the configuration others are measured against.
	Baseline string `yaml:"baseline,omitempty" json:"baseline,omitempty"`
}
