package reader

import (
	"fmt"
	"strings"

	"github.com/edp1096/toy-spice-parser/pkg/netlist"
)

// Ground is the canonical name of the reference node.
const Ground = "0"

// IsGround reports whether name denotes the reference node.
func IsGround(name string) bool {
	return name == Ground || strings.EqualFold(name, "gnd")
}

// NodeNames resolves node names written inside one subcircuit instance to
// circuit-wide names. The zero value is not usable; start from TopNodes.
type NodeNames struct {
	prefix        string
	pins          map[string]string
	caseSensitive bool
}

// TopNodes returns the resolver of the top level, which only normalizes
// ground.
func TopNodes(caseSensitive bool) *NodeNames {
	return &NodeNames{pins: map[string]string{}, caseSensitive: caseSensitive}
}

// Instance returns the resolver inside instance, whose formal pins are
// connected to nets. nets must already be resolved by n.
func (n *NodeNames) Instance(instance string, pins, nets []string) (*NodeNames, error) {
	if len(pins) != len(nets) {
		return nil, fmt.Errorf("instance %s: %d nets for %d pins", instance, len(nets), len(pins))
	}
	prefix := instance
	if n.prefix != "" {
		prefix = n.prefix + "." + instance
	}
	child := &NodeNames{prefix: prefix, pins: make(map[string]string, len(pins)), caseSensitive: n.caseSensitive}
	for i, p := range pins {
		child.pins[netlist.Key(p, n.caseSensitive)] = nets[i]
	}
	return child, nil
}

// Generate returns the circuit-wide name of node.
func (n *NodeNames) Generate(node string) string {
	if IsGround(node) {
		return Ground
	}
	if net, ok := n.pins[netlist.Key(node, n.caseSensitive)]; ok {
		return net
	}
	if n.prefix == "" {
		return node
	}
	return n.prefix + "." + node
}

// Prefix is the dotted instance path, empty at the top level.
func (n *NodeNames) Prefix() string { return n.prefix }

// ObjectNamer builds the name of an entity declared inside the instance
// path. The path is empty at the top level.
type ObjectNamer func(path []string, name string) string

// DottedNames joins the instance path and the name with dots.
func DottedNames(path []string, name string) string {
	if len(path) == 0 {
		return name
	}
	return strings.Join(path, ".") + "." + name
}
