// Package physics implements the combustion, emissions and scoring model
// of the furnace simulation. Every function is pure: noise enters as an
// explicit argument and all constants live in a Tuning.
package physics

// Tuning holds the full constant set for one variant of the model. The
// manual game and the prediction demo ship with separately tuned CO and
// cost constants; both share the same heat-balance core.
type Tuning struct {
	ID   string
	Name string

	// Combustion / heat balance
	StoichAFR     float64 // optimal air/fuel ratio
	Sigma         float64 // width of the efficiency curve
	FuelEnergy    float64 // kJ per Nm³
	FurnaceMass   float64 // kg
	SpecificHeat  float64 // kJ/(kg·°C)
	HeatLossCoeff float64 // kJ/(°C·s)
	InletCoeff    float64 // kJ/(unit·°C·s)
	AmbientTemp   float64 // °C
	FlameTemp     float64 // °C
	TransferCoeff float64 // kJ/(s·m²·°C)
	TransferArea  float64 // m²
	TimeStep      float64 // s
	AtmosphericO2 float64 // % ceiling for excess O₂

	// Emissions / cost
	OptimalO2Min      float64 // % lower bound of the clean band
	OptimalO2Max      float64 // % upper bound of the clean band
	BaselineCostRate  float64 // $/s at the reference fuel flow
	CostMultiplier    float64 // in-band fraction of baseline actually spent
	BelowBandSlope    float64 // cost penalty per % below the band
	AboveBandSlope    float64 // cost penalty per % above the band
	ReferenceFuelFlow float64 // units/hour
	COCoeffK1         float64 // kg/s at the lower band edge
	COCoeffK2         float64 // exponential growth per % below the band
	COCap             float64 // kg/s ceiling
	COLinearSlope     float64 // kg/s per % above the band
	CO2PerFuel        float64 // kg per Nm³ burned at full efficiency

	// Noise magnitudes for live play; deterministic paths pass 0.
	TempNoise float64 // ±°C
	O2Noise   float64 // ±%
}

// Registry holds all available tunings.
var Registry = make(map[string]*Tuning)

// Register adds a tuning to the registry.
func Register(tn *Tuning) {
	Registry[tn.ID] = tn
}

// Get retrieves a tuning by id.
func Get(id string) (*Tuning, bool) {
	tn, ok := Registry[id]
	return tn, ok
}

// List returns all registered tuning ids.
func List() []string {
	ids := make([]string, 0, len(Registry))
	for id := range Registry {
		ids = append(ids, id)
	}
	return ids
}

func baseTuning() Tuning {
	return Tuning{
		StoichAFR:     14.7,
		Sigma:         2.0,
		FuelEnergy:    39000.0,
		FurnaceMass:   5000.0,
		SpecificHeat:  0.5,
		HeatLossCoeff: 0.0005,
		InletCoeff:    0.0002,
		AmbientTemp:   25.0,
		FlameTemp:     1800.0,
		TransferCoeff: 0.0005,
		TransferArea:  10.0,
		TimeStep:      1.0,
		AtmosphericO2: 21.0,

		OptimalO2Min:      1.5,
		OptimalO2Max:      2.5,
		BaselineCostRate:  5.0,
		BelowBandSlope:    0.25,
		AboveBandSlope:    0.10,
		ReferenceFuelFlow: 10.0,
		COLinearSlope:     0.005,
		CO2PerFuel:        2.0,

		TempNoise: 1.0,
		O2Noise:   0.2,
	}
}

// GameTuning returns the constants used by the manual game screen.
func GameTuning() *Tuning {
	tn := baseTuning()
	tn.ID = "game"
	tn.Name = "Manual Game"
	tn.CostMultiplier = 0.8
	tn.COCoeffK1 = 0.05
	tn.COCoeffK2 = 2.0
	tn.COCap = 1.0
	return &tn
}

// DemoTuning returns the constants used by the prediction demo. The CO and
// cost constants intentionally differ from the game tuning; the two screens
// were tuned separately and the divergence is kept as configuration.
func DemoTuning() *Tuning {
	tn := baseTuning()
	tn.ID = "demo"
	tn.Name = "Prediction Demo"
	tn.CostMultiplier = 0.76
	tn.COCoeffK1 = 0.06
	tn.COCoeffK2 = 1.8
	tn.COCap = 1.2
	return &tn
}

func init() {
	Register(GameTuning())
	Register(DemoTuning())
}
