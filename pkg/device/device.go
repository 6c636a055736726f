package device

import (
	"github.com/edp1096/toy-spice-parser/pkg/matrix"
)

// Device is a linear element that stamps its DC equations into an MNA
// matrix. Node index 0 is ground.
type Device interface {
	Name() string
	Type() string
	NodeNames() []string
	Nodes() []int
	SetNodes(nodes []int)
	Value() float64
	SetValue(v float64)
	Stamp(m matrix.DeviceMatrix) error
}

// BranchDevice needs an extra unknown for its branch current.
type BranchDevice interface {
	Device
	SetBranchIndex(idx int)
	BranchIndex() int
}

type BaseDevice struct {
	name      string
	nodes     []int
	value     float64
	nodeNames []string
}

func newBase(name string, nodeNames []string, value float64) BaseDevice {
	return BaseDevice{
		name:      name,
		nodes:     make([]int, len(nodeNames)),
		value:     value,
		nodeNames: nodeNames,
	}
}

func (d *BaseDevice) Name() string { return d.name }
func (d *BaseDevice) Nodes() []int { return d.nodes }
func (d *BaseDevice) NodeNames() []string { return d.nodeNames }
func (d *BaseDevice) Value() float64 { return d.value }
func (d *BaseDevice) SetValue(v float64) { d.value = v }
func (d *BaseDevice) SetNodes(nodes []int) { d.nodes = nodes }
