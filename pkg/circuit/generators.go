package circuit

import (
	"fmt"
	"strings"

	"github.com/edp1096/toy-spice-parser/pkg/device"
	"github.com/edp1096/toy-spice-parser/pkg/netlist"
	"github.com/edp1096/toy-spice-parser/pkg/reader"
)

// Generators returns the component generators for the elements this
// package can simulate, keyed by type letter.
func Generators() map[string]reader.ComponentGenerator {
	return map[string]reader.ComponentGenerator{
		"R": {Pins: 2, Generate: resistor},
		"V": {Pins: 2, Generate: voltageSource},
		"I": {Pins: 2, Generate: currentSource},
	}
}

// Register adds Generators to r.
func Register(r *reader.Reader) {
	for letter, g := range Generators() {
		r.RegisterComponent(letter, g)
	}
}

// bind evaluates the value parameter and keeps the device value in step
// with the parameters it reads.
func bind(req *reader.Request, dev device.Device, p netlist.Parameter) error {
	v, err := req.Bind(p, dev.SetValue)
	if err != nil {
		return err
	}
	dev.SetValue(v)
	return nil
}

// resistor handles "R1 a b 10k" and "R1 a b r={x}".
func resistor(req *reader.Request) (any, error) {
	p, err := valueParameter(req.Parameters, "r", "resistance")
	if err != nil {
		return nil, fmt.Errorf("resistor %s: %w", req.Name, err)
	}
	dev := device.NewResistor(req.Name, req.Nodes, 0)
	if err := bind(req, dev, p); err != nil {
		return nil, err
	}
	return dev, nil
}

func voltageSource(req *reader.Request) (any, error) {
	p, err := sourceValue(req.Parameters)
	if err != nil {
		return nil, fmt.Errorf("voltage source %s: %w", req.Name, err)
	}
	dev := device.NewDCVoltageSource(req.Name, req.Nodes, 0)
	if err := bind(req, dev, p); err != nil {
		return nil, err
	}
	return dev, nil
}

func currentSource(req *reader.Request) (any, error) {
	p, err := sourceValue(req.Parameters)
	if err != nil {
		return nil, fmt.Errorf("current source %s: %w", req.Name, err)
	}
	dev := device.NewDCCurrentSource(req.Name, req.Nodes, 0)
	if err := bind(req, dev, p); err != nil {
		return nil, err
	}
	return dev, nil
}

// valueParameter finds the first single value, or an assignment to one of
// names.
func valueParameter(params netlist.ParameterCollection, names ...string) (netlist.Parameter, error) {
	for _, p := range params.All() {
		switch p := p.(type) {
		case *netlist.SingleParameter:
			return p, nil
		case *netlist.AssignmentParameter:
			for _, n := range names {
				if strings.EqualFold(p.Name, n) {
					return p, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("missing value")
}

// sourceValue accepts "5", "DC 5" and "dc={x}". Time-varying and AC
// specifications are rejected.
func sourceValue(params netlist.ParameterCollection) (netlist.Parameter, error) {
	for i := 0; i < params.Len(); i++ {
		switch p := params.At(i).(type) {
		case *netlist.SingleParameter:
			if p.Kind == netlist.WordKind {
				if strings.EqualFold(p.Value, "dc") {
					continue
				}
				return nil, fmt.Errorf("%s sources are not supported", strings.ToUpper(p.Value))
			}
			return p, nil
		case *netlist.AssignmentParameter:
			if strings.EqualFold(p.Name, "dc") {
				return p, nil
			}
		case *netlist.BracketParameter:
			return nil, fmt.Errorf("%s sources are not supported", strings.ToUpper(p.Name))
		}
	}
	return nil, fmt.Errorf("missing value")
}
