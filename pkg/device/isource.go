package device

import (
	"fmt"

	"github.com/edp1096/toy-spice-parser/pkg/matrix"
)

// CurrentSource drives its value from the first node through the source
// to the second.
type CurrentSource struct {
	BaseDevice
}

func NewDCCurrentSource(name string, nodeNames []string, value float64) *CurrentSource {
	return &CurrentSource{BaseDevice: newBase(name, nodeNames, value)}
}

func (i *CurrentSource) Type() string { return "I" }

func (i *CurrentSource) Stamp(m matrix.DeviceMatrix) error {
	if len(i.nodes) != 2 {
		return fmt.Errorf("current source %s: requires exactly 2 nodes", i.name)
	}
	n1, n2 := i.nodes[0], i.nodes[1]
	if n1 != 0 {
		m.AddRHS(n1, -i.value)
	}
	if n2 != 0 {
		m.AddRHS(n2, i.value)
	}
	return nil
}
