package device

import (
	"fmt"

	"github.com/edp1096/toy-spice-parser/pkg/matrix"
)

type VoltageSource struct {
	BaseDevice
	branchIdx int
}

func NewDCVoltageSource(name string, nodeNames []string, value float64) *VoltageSource {
	return &VoltageSource{BaseDevice: newBase(name, nodeNames, value)}
}

func (v *VoltageSource) Type() string { return "V" }

func (v *VoltageSource) Stamp(m matrix.DeviceMatrix) error {
	if len(v.nodes) != 2 {
		return fmt.Errorf("voltage source %s: requires exactly 2 nodes", v.name)
	}
	n1, n2 := v.nodes[0], v.nodes[1]
	b := v.branchIdx

	// v1 - v2 = V
	if n1 != 0 {
		m.AddElement(b, n1, 1)
		m.AddElement(n1, b, 1)
	}
	if n2 != 0 {
		m.AddElement(b, n2, -1)
		m.AddElement(n2, b, -1)
	}
	m.AddRHS(b, v.value)
	return nil
}

func (v *VoltageSource) BranchIndex() int { return v.branchIdx }

func (v *VoltageSource) SetBranchIndex(idx int) { v.branchIdx = idx }
