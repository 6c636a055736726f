package circuit

import (
	"fmt"
	"sort"

	"github.com/edp1096/toy-spice-parser/pkg/device"
	"github.com/edp1096/toy-spice-parser/pkg/matrix"
	"github.com/edp1096/toy-spice-parser/pkg/netlist"
	"github.com/edp1096/toy-spice-parser/pkg/reader"
)

type Circuit struct {
	name          string
	caseSensitive bool
	nodeMap       map[string]int
	nodeNames     map[int]string
	branchMap     map[string]int
	devices       []device.Device
	matrix        *matrix.CircuitMatrix
}

func New(name string, caseSensitive bool) *Circuit {
	return &Circuit{
		name:          name,
		caseSensitive: caseSensitive,
		nodeMap:       make(map[string]int),
		nodeNames:     make(map[int]string),
		branchMap:     make(map[string]int),
	}
}

// Build collects the devices the reader generated and sets up the matrix.
func Build(name string, res *reader.Result, caseSensitive bool) (*Circuit, error) {
	c := New(name, caseSensitive)
	for _, e := range res.Entities {
		dev, ok := e.Object.(device.Device)
		if !ok {
			return nil, fmt.Errorf("entity %s (%s) is not a device", e.Name, e.Type)
		}
		c.Add(dev)
	}
	if err := c.Setup(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Circuit) Add(dev device.Device) {
	c.devices = append(c.devices, dev)
}

func (c *Circuit) nodeIndex(name string) int {
	if reader.IsGround(name) {
		return 0
	}
	k := netlist.Key(name, c.caseSensitive)
	if idx, ok := c.nodeMap[k]; ok {
		return idx
	}
	idx := len(c.nodeMap) + 1
	c.nodeMap[k] = idx
	c.nodeNames[idx] = name
	return idx
}

// Setup numbers nodes in order of first appearance, then branch currents,
// and creates the matrix.
func (c *Circuit) Setup() error {
	for _, dev := range c.devices {
		nodes := make([]int, len(dev.NodeNames()))
		for i, name := range dev.NodeNames() {
			nodes[i] = c.nodeIndex(name)
		}
		dev.SetNodes(nodes)
	}

	next := len(c.nodeMap) + 1
	for _, dev := range c.devices {
		if b, ok := dev.(device.BranchDevice); ok {
			if _, dup := c.branchMap[dev.Name()]; dup {
				return fmt.Errorf("duplicate source %s", dev.Name())
			}
			b.SetBranchIndex(next)
			c.branchMap[dev.Name()] = next
			next++
		}
	}

	size := next - 1
	if size == 0 {
		return fmt.Errorf("circuit %s has no nodes", c.name)
	}
	mat, err := matrix.NewMatrix(size)
	if err != nil {
		return err
	}
	c.matrix = mat
	c.matrix.SetupElements()
	return nil
}

func (c *Circuit) Stamp() error {
	for _, dev := range c.devices {
		if err := dev.Stamp(c.matrix); err != nil {
			return fmt.Errorf("stamping device %s: %w", dev.Name(), err)
		}
	}
	return nil
}

func (c *Circuit) Name() string { return c.name }

func (c *Circuit) Matrix() *matrix.CircuitMatrix { return c.matrix }

func (c *Circuit) Devices() []device.Device { return c.devices }

func (c *Circuit) NumNodes() int { return len(c.nodeMap) }

// NodeNames returns the node names in index order.
func (c *Circuit) NodeNames() []string {
	idx := make([]int, 0, len(c.nodeNames))
	for i := range c.nodeNames {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	names := make([]string, len(idx))
	for i, n := range idx {
		names[i] = c.nodeNames[n]
	}
	return names
}

func (c *Circuit) BranchMap() map[string]int { return c.branchMap }

// Voltage returns the solved voltage of a node, 0 for ground or an
// unknown name.
func (c *Circuit) Voltage(node string) float64 {
	if reader.IsGround(node) || c.matrix == nil {
		return 0
	}
	idx, ok := c.nodeMap[netlist.Key(node, c.caseSensitive)]
	if !ok {
		return 0
	}
	sol := c.matrix.Solution()
	if idx >= len(sol) {
		return 0
	}
	return sol[idx]
}

// Solution returns V(node) for every node, I(source) for every voltage
// source and I(resistor) for every resistor.
func (c *Circuit) Solution() map[string]float64 {
	out := make(map[string]float64)
	sol := c.matrix.Solution()

	for idx, name := range c.nodeNames {
		out[fmt.Sprintf("V(%s)", name)] = sol[idx]
	}
	for name, idx := range c.branchMap {
		out[fmt.Sprintf("I(%s)", name)] = sol[idx]
	}
	for _, dev := range c.devices {
		if r, ok := dev.(*device.Resistor); ok {
			out[fmt.Sprintf("I(%s)", r.Name())] = r.Current(sol)
		}
	}
	return out
}

func (c *Circuit) Destroy() {
	if c.matrix != nil {
		c.matrix.Destroy()
	}
}
