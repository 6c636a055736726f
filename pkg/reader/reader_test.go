package reader

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/edp1096/toy-spice-parser/pkg/netlist"
	"github.com/edp1096/toy-spice-parser/pkg/parser"
)

func lines(ls ...string) string { return strings.Join(ls, "\n") }

func TestNodeNamesTopLevel(t *testing.T) {
	top := TopNodes(false)
	tests := map[string]string{
		"0":   "0",
		"gnd": "0",
		"Gnd": "0",
		"GND": "0",
		"a":   "a",
		"Ab":  "Ab",
	}
	for in, want := range tests {
		if got := top.Generate(in); got != want {
			t.Errorf("Generate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNodeNamesInstance(t *testing.T) {
	x1, err := TopNodes(false).Instance("x1", []string{"IN", "OUT"}, []string{"net2", "net3"})
	if err != nil {
		t.Fatal(err)
	}
	tests := map[string]string{
		"0":   "0",
		"gnd": "0",
		"GND": "0",
		"a":   "x1.a",
		"Ab":  "x1.Ab",
		"IN":  "net2",
		"in":  "net2",
		"OUT": "net3",
	}
	for in, want := range tests {
		if got := x1.Generate(in); got != want {
			t.Errorf("Generate(%q) = %q, want %q", in, got, want)
		}
	}

	x2, err := x1.Instance("x2", []string{"p"}, []string{x1.Generate("a")})
	if err != nil {
		t.Fatal(err)
	}
	if got := x2.Generate("b"); got != "x1.x2.b" {
		t.Errorf("nested Generate(b) = %q", got)
	}
	if got := x2.Generate("p"); got != "x1.a" {
		t.Errorf("nested Generate(p) = %q", got)
	}
	if got := x2.Generate("Gnd"); got != Ground {
		t.Errorf("nested Generate(Gnd) = %q", got)
	}

	cs, _ := TopNodes(true).Instance("x1", []string{"IN"}, []string{"net2"})
	if got := cs.Generate("in"); got != "x1.in" {
		t.Errorf("case-sensitive Generate(in) = %q", got)
	}

	if _, err := x1.Instance("x3", []string{"a", "b"}, []string{"n1"}); err == nil {
		t.Error("pin count mismatch accepted")
	}
}

// valueReader registers generators that record each request and evaluate
// the first parameter after the nodes.
type valueReader struct {
	*Reader
	values map[string]*float64
	reqs   []*Request
}

func newValueReader(settings Settings) *valueReader {
	vr := &valueReader{Reader: New(settings), values: map[string]*float64{}}
	gen := ComponentGenerator{Pins: 2, Generate: func(req *Request) (any, error) {
		vr.reqs = append(vr.reqs, req)
		v := new(float64)
		x, err := req.Bind(req.Parameters.At(0), func(nv float64) { *v = nv })
		if err != nil {
			return nil, err
		}
		*v = x
		vr.values[req.Name] = v
		return v, nil
	}}
	vr.RegisterComponent("R", gen)
	vr.RegisterComponent("v", gen)
	return vr
}

func (vr *valueReader) read(t *testing.T, src string) *Result {
	t.Helper()
	res, err := vr.ReadString(src, parser.DefaultOptions())
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	return res
}

type entityWant struct {
	name  string
	nodes string
	value float64
}

func checkEntities(t *testing.T, res *Result, want []entityWant) {
	t.Helper()
	if len(res.Entities) != len(want) {
		var names []string
		for _, e := range res.Entities {
			names = append(names, e.Name)
		}
		t.Fatalf("entities %v, want %d", names, len(want))
	}
	for i, w := range want {
		e := res.Entities[i]
		if e.Name != w.name {
			t.Errorf("entity %d = %s, want %s", i, e.Name, w.name)
		}
		if got := strings.Join(e.Nodes, " "); got != w.nodes {
			t.Errorf("%s nodes = %q, want %q", e.Name, got, w.nodes)
		}
		if got := *e.Object.(*float64); got != w.value {
			t.Errorf("%s value = %g, want %g", e.Name, got, w.value)
		}
	}
}

func TestSubcircuitParameters(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []entityWant
	}{
		{"call_site_values", lines(
			"Subcircuit - SingleSubcircuitWithParams",
			"V1 IN 0 4.0",
			"X1 IN OUT twoResistorsInSeries R1=1 R2=2",
			"RX OUT 0 1",
			".SUBCKT twoResistorsInSeries input output params: R1=10 R2=100",
			"R1 input 1 {R1}",
			"R2 1 output {R2}",
			".ENDS twoResistorsInSeries",
			".OP",
			".END",
		), []entityWant{
			{"V1", "IN 0", 4},
			{"X1.R1", "IN X1.1", 1},
			{"X1.R2", "X1.1 OUT", 2},
			{"RX", "OUT 0", 1},
		}},
		{"defaults", lines(
			"Subcircuit - SingleSubcircuitWithDefaultParams",
			"V1 IN 0 4.0",
			"X1 IN OUT twoResistorsInSeries",
			"RX OUT 0 1",
			".SUBCKT twoResistorsInSeries input output params: R1=10 R2=20",
			"R1 input 1 {R1}",
			"R2 1 output {R2}",
			".ENDS twoResistorsInSeries",
		), []entityWant{
			{"V1", "IN 0", 4},
			{"X1.R1", "IN X1.1", 10},
			{"X1.R2", "X1.1 OUT", 20},
			{"RX", "OUT 0", 1},
		}},
		{"nested_definition_and_param", lines(
			"Subcircuit - ComplexContainedSubcircuitWithParamsAndParamControl",
			"V1 IN 0 4.0",
			"X1 IN OUT twoResistorsInSeries",
			"RX OUT 0 1",
			".SUBCKT twoResistorsInSeries input output params: R1=10 R2=20",
			".SUBCKT resistor input output params: R=1",
			"R1 input output {R}",
			".ENDS resistor",
			"X1 input 1 resistor R=R1",
			"X2 1 output resistor R=R3",
			".param R3={R2*1}",
			".ENDS twoResistorsInSeries",
		), []entityWant{
			{"V1", "IN 0", 4},
			{"X1.X1.R1", "IN X1.1", 10},
			{"X1.X2.R1", "X1.1 OUT", 20},
			{"RX", "OUT 0", 1},
		}},
		{"ground_inside_instance", lines(
			"ground",
			"X1 a wrap",
			".SUBCKT wrap p",
			"R1 p gnd 5",
			"R2 p GND 6",
			".ENDS",
		), []entityWant{
			{"X1.R1", "a 0", 5},
			{"X1.R2", "a 0", 6},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newValueReader(DefaultSettings()).read(t, tt.src)
			checkEntities(t, res, tt.want)
		})
	}
}

func TestSubcircuitParametersStayLocal(t *testing.T) {
	res := newValueReader(DefaultSettings()).read(t, lines(
		"local",
		".param top=1",
		"X1 a 0 wrap",
		".SUBCKT wrap p q",
		".param inner={top+1}",
		"R1 p q {inner}",
		".ENDS",
	))
	if _, ok := res.Context.Parameter("inner"); ok {
		t.Error("subcircuit parameter visible at the top level")
	}
	checkEntities(t, res, []entityWant{{"X1.R1", "a 0", 2}})
}

func TestSweepReachesInstances(t *testing.T) {
	vr := newValueReader(DefaultSettings())
	res := vr.read(t, lines(
		"sweep",
		".param rv=5 g=2",
		"X1 a 0 wrap r={rv*2}",
		"X2 b 0 wrap2",
		".SUBCKT wrap p q params: r=1",
		"R1 p q {r}",
		".ENDS",
		".SUBCKT wrap2 p q params: r={g*3}",
		"R1 p q {r}",
		".ENDS",
	))
	if *vr.values["X1.R1"] != 10 || *vr.values["X2.R1"] != 6 {
		t.Fatalf("initial values %g %g", *vr.values["X1.R1"], *vr.values["X2.R1"])
	}
	if err := res.Context.SetParameter("rv", 7); err != nil {
		t.Fatal(err)
	}
	if err := res.Context.SetParameter("g", 4); err != nil {
		t.Fatal(err)
	}
	if got := *vr.values["X1.R1"]; got != 14 {
		t.Errorf("X1.R1 = %g after rv=7, want 14", got)
	}
	if got := *vr.values["X2.R1"]; got != 12 {
		t.Errorf("X2.R1 = %g after g=4, want 12", got)
	}
}

func TestFunctionsAndControls(t *testing.T) {
	vr := newValueReader(DefaultSettings())
	res := vr.read(t, lines(
		"controls",
		".print dc v(1)",
		".param a={twice(3)}",
		".func twice(x) {2*x}",
		".func add(x,y)={x+y}",
		".param sq(x)={x*x}",
		"R1 1 0 {add(a, sq(2))}",
		".options reltol=1e-3 noecho",
		".op",
		".temp 50",
	))
	checkEntities(t, res, []entityWant{{"R1", "1 0", 10}})

	var names []string
	for _, c := range res.Controls {
		names = append(names, c.Name)
	}
	if got := strings.Join(names, " "); got != "temp op print" {
		t.Errorf("controls %q, want %q", got, "temp op print")
	}
	if res.Options["reltol"] != "1e-3" {
		t.Errorf("reltol = %q", res.Options["reltol"])
	}
	if _, ok := res.Options["noecho"]; !ok {
		t.Error("flag option missing")
	}
	if v, _ := res.Context.Parameter("temp"); v != 50 {
		t.Errorf("TEMP = %g, want 50", v)
	}
	if res.Title != "controls" {
		t.Errorf("Title = %q", res.Title)
	}
}

func TestModels(t *testing.T) {
	var buf bytes.Buffer
	r := New(DefaultSettings())
	r.Logger = log.New(&buf, "", 0)
	r.RegisterModel("D", func(req *Request) (any, error) {
		params := map[string]float64{}
		for _, p := range req.Parameters.All() {
			v, err := req.Value(p)
			if err != nil {
				return nil, err
			}
			params[strings.ToLower(p.(*netlist.AssignmentParameter).Name)] = v
		}
		return params, nil
	})
	var found map[string]float64
	r.RegisterComponent("D", ComponentGenerator{Pins: 2, Generate: func(req *Request) (any, error) {
		m, ok := req.Model(req.Parameters.Value(0))
		if !ok {
			return nil, errors.New("model not found")
		}
		found = m.Object.(map[string]float64)
		return m, nil
	}})

	res, err := r.ReadString(lines(
		"models",
		".param scale=2",
		"D1 a 0 dmod",
		"X1 b wrap",
		".model dmod D(IS={1e-14*scale} N=1.5)",
		".model qmod NPN BF=100",
		".SUBCKT wrap p",
		"D1 p 0 dmod",
		".ENDS",
	), parser.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Models) != 2 || len(res.Entities) != 2 {
		t.Fatalf("%d models, %d entities", len(res.Models), len(res.Entities))
	}
	if found["is"] != 2e-14 || found["n"] != 1.5 {
		t.Errorf("model parameters %v", found)
	}
	if !strings.Contains(buf.String(), "model type npn has no generator") {
		t.Errorf("log = %q", buf.String())
	}
}

func TestObjectNamer(t *testing.T) {
	settings := DefaultSettings()
	settings.ObjectNamer = func(path []string, name string) string {
		return strings.Join(append(append([]string{}, path...), name), "/")
	}
	res := newValueReader(settings).read(t, lines(
		"namer",
		"X1 a 0 wrap",
		".SUBCKT wrap p q",
		"X2 p q inner",
		".ENDS",
		".SUBCKT inner p q",
		"R1 p q 1",
		".ENDS",
	))
	checkEntities(t, res, []entityWant{{"X1/X2/R1", "a 0", 1}})
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{"no_generator", lines("t", "R1 a 0 1", "C1 a 0 1u"), 3, "no generator"},
		{"unknown_subckt", lines("t", "X1 a b nosuch"), 2, "unknown subcircuit"},
		{"definition_out_of_scope", lines(
			"t",
			"X1 a b outer",
			"X2 a b inner",
			".SUBCKT outer p q",
			".SUBCKT inner p q",
			"R1 p q 1",
			".ENDS",
			".ENDS",
		), 3, "unknown subcircuit inner"},
		{"pin_mismatch", lines("t", "X1 a wrap", ".SUBCKT wrap p q", "R1 p q 1", ".ENDS"), 2, "1 nets for 2 pins"},
		{"recursion", lines("t", "X1 a loop", ".SUBCKT loop p", "X1 p loop", ".ENDS"), 4, "nesting deeper"},
		{"undefined_param", lines("t", "R1 a 0 {nothing}"), 2, "undefined parameter"},
		{"bad_param", lines("t", ".param 5"), 2, "expected name=value"},
		{"error_inside_instance", lines("t", "X1 a wrap", ".SUBCKT wrap p", "R1 p 0 {1/0}", ".ENDS"), 4, "division by zero"},
		{"expression_node", lines("t", "R1 {a} 0 1"), 2, "must be a name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newValueReader(DefaultSettings()).ReadString(tt.src, parser.DefaultOptions())
			var rerr *ReadError
			if !errors.As(err, &rerr) {
				t.Fatalf("got %v, want *ReadError", err)
			}
			if rerr.Line != tt.line {
				t.Errorf("line %d, want %d (%v)", rerr.Line, tt.line, err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not mention %q", err, tt.msg)
			}
		})
	}
}

func TestParseErrorsPassThrough(t *testing.T) {
	_, err := New(DefaultSettings()).ReadString(lines("t", ".SUBCKT open a"), parser.DefaultOptions())
	var perr *parser.ParseError
	if !errors.As(err, &perr) {
		t.Errorf("got %v, want *parser.ParseError", err)
	}
}
