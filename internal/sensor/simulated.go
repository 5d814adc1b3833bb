package sensor

import (
	"math/rand/v2"
	"sync"

	"github.com/nerrad567/weather-node/internal/infrastructure/config"
	"github.com/nerrad567/weather-node/internal/telemetry"
)

// pressureStepScale widens the pressure walk relative to temperature.
const pressureStepScale = 4

// Simulated is a bounded random walk around configured base values.
// Used on development machines without sensor hardware.
type Simulated struct {
	mu          sync.Mutex
	cfg         config.SimulatedSensorConfig
	clock       Clock
	rng         *rand.Rand
	temperature float64
	pressure    float64
}

// NewSimulated returns a simulated sensor. A zero seed still gives a
// deterministic sequence.
func NewSimulated(cfg config.SimulatedSensorConfig, clock Clock) *Simulated {
	seed := uint64(cfg.Seed) //nolint:gosec // seed only, sign is irrelevant
	return &Simulated{
		cfg:         cfg,
		clock:       clock,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		temperature: cfg.BaseTemperature,
		pressure:    cfg.BasePressure,
	}
}

// Read advances the walk one step. It never fails.
func (s *Simulated) Read() (telemetry.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.temperature = walk(s.rng, s.temperature, s.cfg.BaseTemperature, s.cfg.MaxStep)
	s.pressure = walk(s.rng, s.pressure, s.cfg.BasePressure, s.cfg.MaxStep*pressureStepScale)

	return telemetry.NewReading(s.clock(), s.temperature, s.pressure), nil
}

// walk moves v by at most step, reverting toward base once it has drifted
// more than 100 steps away.
func walk(rng *rand.Rand, v, base, step float64) float64 {
	const maxDriftSteps = 100

	delta := (rng.Float64()*2 - 1) * step
	next := v + delta
	if limit := step * maxDriftSteps; next > base+limit || next < base-limit {
		next = v - delta
	}
	return next
}
