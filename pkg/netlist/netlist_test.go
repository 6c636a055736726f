package netlist

import (
	"testing"
)

func word(s string) *SingleParameter  { return &SingleParameter{Kind: WordKind, Value: s} }
func value(s string) *SingleParameter { return &SingleParameter{Kind: ValueKind, Value: s} }

func assign(name, v string) *AssignmentParameter {
	return &AssignmentParameter{Name: name, Values: []SingleParameter{{Kind: ValueKind, Value: v}}}
}

func TestOrder(t *testing.T) {
	comp := &Component{Name: "R1"}
	model := &Model{Name: "D1"}
	sub := &SubCircuit{Name: "amp"}
	param := &Control{Name: "param"}
	plot := &Control{Name: "plot"}

	permutations := [][]Statement{
		{comp, model, sub, param, plot},
		{plot, comp, param, model, sub},
		{sub, plot, model, comp, param},
	}
	want := []Statement{param, sub, model, comp, plot}

	for _, in := range permutations {
		got := Order(in)
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Order(%v)[%d] = %v, want %v", in, i, got[i], want[i])
			}
		}
	}
}

func TestOrderControls(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"top_by_index", []string{"options", "func", "param", "step_r", "st_r"}, []string{"st_r", "step_r", "param", "func", "options"}},
		{"analysis", []string{"nodeset", "tran", "op", "temp"}, []string{"temp", "op", "tran", "nodeset"}},
		{"unknown_after_known", []string{"xyz", "dc"}, []string{"dc", "xyz"}},
		{"post_stable", []string{"save", "plot", "print"}, []string{"save", "plot", "print"}},
		{"upper_case", []string{"PRINT", "PARAM"}, []string{"PARAM", "PRINT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in []Statement
			for _, n := range tt.in {
				in = append(in, &Control{Name: n})
			}
			got := Order(in)
			for i, n := range tt.want {
				if got[i].(*Control).Name != n {
					t.Errorf("position %d: got %s, want %s", i, got[i].(*Control).Name, n)
				}
			}
		})
	}
}

func TestOrderStable(t *testing.T) {
	a := &Component{Name: "R1"}
	b := &Component{Name: "R2"}
	c := &CommentLine{Text: "x"}
	d := &Component{Name: "R3"}
	got := Order([]Statement{c, a, b, d})
	want := []Statement{a, b, d, c}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestOrderLeavesInput(t *testing.T) {
	in := []Statement{&Component{Name: "R1"}, &Control{Name: "param"}}
	Order(in)
	if _, ok := in[0].(*Component); !ok {
		t.Error("Order modified its input")
	}
}

func TestCollectionSkipTake(t *testing.T) {
	c := NewParameterCollection(word("a"), word("b"), value("1"), assign("w", "2"))

	skip := c.Skip(2)
	if skip.Len() != 2 || skip.Value(0) != "1" || skip.Value(1) != "w=2" {
		t.Errorf("Skip(2) = %q", skip.String())
	}
	take := c.Take(2)
	if take.String() != "a b" {
		t.Errorf("Take(2) = %q", take.String())
	}
	if got := c.Skip(10); got.Len() != 0 {
		t.Errorf("Skip(10) has %d items", got.Len())
	}
	if got := c.Take(-1); got.Len() != 0 {
		t.Errorf("Take(-1) has %d items", got.Len())
	}

	// A fresh collection must not write through to the source.
	take.Add(word("z"))
	if c.Value(2) != "1" {
		t.Errorf("Take aliases the source: %q", c.String())
	}
}

func TestCollectionInsertRemove(t *testing.T) {
	c := NewParameterCollection(word("a"), word("c"))
	c.Insert(1, word("b"))
	c.Insert(3, word("d"))
	c.Insert(0, word("_"))
	if c.String() != "_ a b c d" {
		t.Fatalf("after Insert: %q", c.String())
	}
	c.Remove(0)
	c.Remove(3)
	if c.String() != "a b c" {
		t.Fatalf("after Remove: %q", c.String())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Clear left %d items", c.Len())
	}
}

func TestCollectionMerge(t *testing.T) {
	a := NewParameterCollection(word("a"))
	b := NewParameterCollection(word("b"), word("b"))
	m := a.Merge(b)
	if m.String() != "a b b" {
		t.Errorf("Merge = %q", m.String())
	}
	m.Add(word("c"))
	if a.Len() != 1 || b.Len() != 2 {
		t.Error("Merge modified its operands")
	}
}

func TestCollectionCloneIsDeep(t *testing.T) {
	inner := NewParameterCollection(assign("is", "1e-14"))
	c := NewParameterCollection(&BracketParameter{Name: "D", Parameters: inner}, word("x"))

	clone := c.Clone()
	clone.At(1).(*SingleParameter).Value = "y"
	clone.At(0).(*BracketParameter).Parameters.At(0).(*AssignmentParameter).Values[0].Value = "2"

	if c.String() != "D(is=1e-14) x" {
		t.Errorf("source changed through clone: %q", c.String())
	}
	if clone.String() != "D(is=2) y" {
		t.Errorf("clone = %q", clone.String())
	}
}

func TestCollectionIndexOf(t *testing.T) {
	c := NewParameterCollection(word("a"), word("PARAMS:"), assign("x", "1"))
	if i := c.IndexOf("params:"); i != 1 {
		t.Errorf("IndexOf = %d, want 1", i)
	}
	if i := c.IndexOf("nope"); i != -1 {
		t.Errorf("IndexOf = %d, want -1", i)
	}
}

func TestParameterString(t *testing.T) {
	tests := []struct {
		p    Parameter
		want string
	}{
		{word("out"), "out"},
		{&SingleParameter{Kind: ExpressionKind, Value: "a+1"}, "{a+1}"},
		{&SingleParameter{Kind: QuotedExpressionKind, Value: "a+1"}, "'a+1'"},
		{&StringParameter{Value: "lib.cir"}, `"lib.cir"`},
		{&AssignmentParameter{Name: "f", Arguments: []string{"a", "b"}, Values: []SingleParameter{{Kind: ExpressionKind, Value: "a*b"}}}, "f(a,b)={a*b}"},
		{&VectorParameter{Elements: []SingleParameter{{Kind: ValueKind, Value: "0"}, {Kind: ValueKind, Value: "1"}}}, "0,1"},
		{&BracketParameter{Name: "v", Parameters: NewParameterCollection(word("out"))}, "v(out)"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestModelAccessors(t *testing.T) {
	bracket := &Model{Name: "D1", Parameters: NewParameterCollection(
		&BracketParameter{Name: "D", Parameters: NewParameterCollection(assign("IS", "1e-14"), assign("N", "1.5"))},
	)}
	flat := &Model{Name: "Q1", Parameters: NewParameterCollection(word("NPN"), assign("BF", "100"))}

	if bracket.ModelType() != "D" || len(bracket.ModelParameters()) != 2 {
		t.Errorf("bracket model: type %q, %d params", bracket.ModelType(), len(bracket.ModelParameters()))
	}
	if flat.ModelType() != "NPN" || len(flat.ModelParameters()) != 1 {
		t.Errorf("flat model: type %q, %d params", flat.ModelType(), len(flat.ModelParameters()))
	}
}

func TestSubCircuitCloneIsDeep(t *testing.T) {
	s := &SubCircuit{
		Name:       "amp",
		Pins:       []string{"in", "out"},
		Statements: []Statement{&Component{Name: "R1", PinsAndParameters: NewParameterCollection(word("in"), word("out"), value("1k"))}},
	}
	c := s.Clone().(*SubCircuit)
	c.Pins[0] = "x"
	c.Statements[0].(*Component).Name = "R9"
	if s.Pins[0] != "in" || s.Statements[0].(*Component).Name != "R1" {
		t.Error("SubCircuit.Clone shares state with its source")
	}
}

func TestComponentType(t *testing.T) {
	if got := (&Component{Name: "xamp"}).Type(); got != "X" {
		t.Errorf("Type() = %q, want X", got)
	}
}
