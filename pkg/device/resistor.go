package device

import (
	"fmt"

	"github.com/edp1096/toy-spice-parser/pkg/matrix"
)

type Resistor struct {
	BaseDevice
}

func NewResistor(name string, nodeNames []string, value float64) *Resistor {
	return &Resistor{BaseDevice: newBase(name, nodeNames, value)}
}

func (r *Resistor) Type() string { return "R" }

func (r *Resistor) Stamp(m matrix.DeviceMatrix) error {
	if len(r.nodes) != 2 {
		return fmt.Errorf("resistor %s: requires exactly 2 nodes", r.name)
	}
	if r.value == 0 {
		return fmt.Errorf("resistor %s: zero resistance", r.name)
	}

	n1, n2 := r.nodes[0], r.nodes[1]
	g := 1.0 / r.value // G = 1/R

	if n1 != 0 {
		m.AddElement(n1, n1, g)
		if n2 != 0 {
			m.AddElement(n1, n2, -g)
		}
	}
	if n2 != 0 {
		if n1 != 0 {
			m.AddElement(n2, n1, -g)
		}
		m.AddElement(n2, n2, g)
	}
	return nil
}

// Current is the current from the first node to the second for the given
// node voltages.
func (r *Resistor) Current(solution []float64) float64 {
	return (voltage(solution, r.nodes[0]) - voltage(solution, r.nodes[1])) / r.value
}

func voltage(solution []float64, node int) float64 {
	if node <= 0 || node >= len(solution) {
		return 0
	}
	return solution[node]
}
