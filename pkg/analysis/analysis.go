package analysis

import (
	"github.com/edp1096/toy-spice-parser/pkg/circuit"
)

type Analysis interface {
	Setup(ckt *circuit.Circuit) error
	Execute() error
	GetResults() map[string][]float64
}

type BaseAnalysis struct {
	Circuit *circuit.Circuit
	results map[string][]float64 // key: variable name, value: one entry per run
	gmin    float64
}

func NewBaseAnalysis() *BaseAnalysis {
	return &BaseAnalysis{results: make(map[string][]float64), gmin: 1e-12}
}

// StoreResult appends one solution to the result series.
func (a *BaseAnalysis) StoreResult(solution map[string]float64) {
	for name, value := range solution {
		a.results[name] = append(a.results[name], value)
	}
}

func (a *BaseAnalysis) GetResults() map[string][]float64 {
	return a.results
}
