package analysis

import (
	"fmt"

	"github.com/edp1096/toy-spice-parser/pkg/circuit"
)

// OperatingPoint solves the DC equations of a linear circuit. Executing it
// again after device values changed appends another result, so a
// parameter sweep collects one entry per point.
type OperatingPoint struct{ BaseAnalysis }

func NewOP() *OperatingPoint {
	return &OperatingPoint{BaseAnalysis: *NewBaseAnalysis()}
}

func (op *OperatingPoint) Setup(ckt *circuit.Circuit) error {
	if ckt.Matrix() == nil {
		return fmt.Errorf("circuit %s is not set up", ckt.Name())
	}
	op.Circuit = ckt
	return nil
}

func (op *OperatingPoint) solve(gmin float64) error {
	mat := op.Circuit.Matrix()
	mat.Clear()
	if err := op.Circuit.Stamp(); err != nil {
		return fmt.Errorf("stamping error: %w", err)
	}
	mat.LoadGmin(gmin)
	return mat.Solve()
}

// Execute solves without gmin first and retries with it when the matrix
// is singular, as happens with floating nodes.
func (op *OperatingPoint) Execute() error {
	if err := op.solve(0); err != nil {
		if err := op.solve(op.gmin); err != nil {
			return fmt.Errorf("operating point: %w", err)
		}
	}
	op.StoreResult(op.Circuit.Solution())
	return nil
}
