package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/edp1096/toy-spice-parser/pkg/lexer"
	"github.com/edp1096/toy-spice-parser/pkg/netlist"
)

func lines(ls ...string) string { return strings.Join(ls, "\n") }

func mustParse(t *testing.T, src string) *netlist.Netlist {
	t.Helper()
	nl, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return nl
}

func TestComments(t *testing.T) {
	nl := mustParse(t, lines(
		"Comment test circuit",
		"* test1",
		"R1 OUT 0 10 ; test2",
		"V1 OUT 0 0 $  test3 ; test4 $ test5",
		".END",
	))

	if nl.Title != "Comment test circuit" {
		t.Errorf("Title = %q", nl.Title)
	}
	if len(nl.Statements) != 3 {
		t.Fatalf("got %d statements, want 3", len(nl.Statements))
	}
	if _, ok := nl.Statements[0].(*netlist.CommentLine); !ok {
		t.Errorf("statement 0 is %T", nl.Statements[0])
	}
	for i := 1; i < 3; i++ {
		c, ok := nl.Statements[i].(*netlist.Component)
		if !ok {
			t.Fatalf("statement %d is %T", i, nl.Statements[i])
		}
		if c.PinsAndParameters.Len() != 3 {
			t.Errorf("%s has %d parameters, want 3", c.Name, c.PinsAndParameters.Len())
		}
	}

	nl = mustParse(t, lines(
		"t",
		"; pspice note",
		"$ hspice note",
		"R1 a b 1 ; trailing",
		".SUBCKT s p",
		"; inside",
		".ENDS",
		".end",
	))
	if len(nl.Statements) != 4 {
		t.Fatalf("got %d statements, want 4", len(nl.Statements))
	}
	for i, want := range []string{"pspice note", "hspice note"} {
		c, ok := nl.Statements[i].(*netlist.CommentLine)
		if !ok {
			t.Fatalf("statement %d is %T", i, nl.Statements[i])
		}
		if c.Text != want {
			t.Errorf("comment %d = %q, want %q", i, c.Text, want)
		}
		if c.Line != i+2 {
			t.Errorf("comment %d on line %d, want %d", i, c.Line, i+2)
		}
	}
	if r, ok := nl.Statements[2].(*netlist.Component); !ok || r.PinsAndParameters.Len() != 3 {
		t.Errorf("statement 2 = %v", nl.Statements[2])
	}
	sub, ok := nl.Statements[3].(*netlist.SubCircuit)
	if !ok || len(sub.Statements) != 1 {
		t.Fatalf("statement 3 = %v", nl.Statements[3])
	}
	if _, ok := sub.Statements[0].(*netlist.CommentLine); !ok {
		t.Errorf("subcircuit statement is %T", sub.Statements[0])
	}
}

func TestStrangeComments(t *testing.T) {
	nl := mustParse(t, lines(
		"*",
		"*$",
		".subckt tddsdsd202 inp inn out vcc vee",
		"*;",
		".MODEL D_b D",
		"+ RS = 1.0000E-1 ; comment2",
		"+ CJO = 1.0000E-13 $ comment1",
		"+ IS = 100e-15",
		".ends",
		".end",
	))

	if len(nl.Statements) != 2 {
		t.Fatalf("got %d statements, want 2", len(nl.Statements))
	}
	sub, ok := nl.Statements[1].(*netlist.SubCircuit)
	if !ok {
		t.Fatalf("statement 1 is %T", nl.Statements[1])
	}
	if len(sub.Pins) != 5 {
		t.Errorf("pins = %v", sub.Pins)
	}
	model, ok := sub.Statements[1].(*netlist.Model)
	if !ok {
		t.Fatalf("subckt statement 1 is %T", sub.Statements[1])
	}
	if model.Name != "D_b" || model.ModelType() != "D" {
		t.Errorf("model %s type %s", model.Name, model.ModelType())
	}
	ps := model.ModelParameters()
	if len(ps) != 3 || ps[1].Name != "CJO" || ps[1].Value() != "1.0000E-13" {
		t.Errorf("model parameters = %v", ps)
	}
}

func TestOnlyComments(t *testing.T) {
	opts := DefaultOptions()
	opts.Lexer.HasTitle = false
	nl, err := ParseNetlist(lines("**", "**", ".end"), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(nl.Statements) != 2 || nl.Title != "" {
		t.Errorf("title %q, %d statements", nl.Title, len(nl.Statements))
	}
}

func TestStatementKinds(t *testing.T) {
	nl := mustParse(t, lines(
		"kinds",
		".param a=1 b={a*2}",
		".MODEL D1 D(IS=1e-14 N=1.5)",
		"V1 in 0 PWL(0,0 1m,5)",
		".func f(x,y)={x*y}",
		".print tran v(out) i(V1)",
		`.include "models.lib"`,
	))

	if len(nl.Statements) != 6 {
		t.Fatalf("got %d statements", len(nl.Statements))
	}

	param := nl.Statements[0].(*netlist.Control)
	if param.Name != "param" {
		t.Errorf("control name = %q", param.Name)
	}
	as := param.Assignments()
	if len(as) != 2 || as[1].Name != "b" || as[1].Value() != "a*2" || as[1].Values[0].Kind != netlist.ExpressionKind {
		t.Errorf("assignments = %v", as)
	}

	model := nl.Statements[1].(*netlist.Model)
	if model.ModelType() != "D" || len(model.ModelParameters()) != 2 {
		t.Errorf("model = %s", model)
	}

	v1 := nl.Statements[2].(*netlist.Component)
	pwl, ok := v1.PinsAndParameters.At(2).(*netlist.BracketParameter)
	if !ok || pwl.Name != "PWL" {
		t.Fatalf("V1 parameter 2 = %v", v1.PinsAndParameters.At(2))
	}
	if pwl.Parameters.Len() != 2 {
		t.Fatalf("PWL has %d parameters", pwl.Parameters.Len())
	}
	if vec, ok := pwl.Parameters.At(1).(*netlist.VectorParameter); !ok || len(vec.Elements) != 2 || vec.Elements[0].Value != "1m" {
		t.Errorf("PWL second point = %v", pwl.Parameters.At(1))
	}

	fn := nl.Statements[3].(*netlist.Control).Assignments()
	if len(fn) != 1 || fn[0].Name != "f" || strings.Join(fn[0].Arguments, ",") != "x,y" {
		t.Errorf("func = %v", fn)
	}

	pr := nl.Statements[4].(*netlist.Control)
	if pr.Parameters.String() != "tran v(out) i(V1)" {
		t.Errorf("print parameters = %q", pr.Parameters.String())
	}

	inc := nl.Statements[5].(*netlist.Control)
	if s, ok := inc.Parameters.At(0).(*netlist.StringParameter); !ok || s.Value != "models.lib" {
		t.Errorf("include parameter = %v", inc.Parameters.At(0))
	}
}

func TestSubcircuitNesting(t *testing.T) {
	nl := mustParse(t, lines(
		"nested",
		".SUBCKT outer a b params: r=1k",
		".SUBCKT inner x y",
		"R1 x y {r}",
		".ENDS inner",
		"X1 a b inner",
		".param k=2",
		".ENDS outer",
		"X9 1 0 outer r=5",
		".END",
		"this line is never read {",
	))

	if len(nl.Statements) != 2 {
		t.Fatalf("got %d statements", len(nl.Statements))
	}
	outer := nl.Statements[0].(*netlist.SubCircuit)
	if outer.Name != "outer" || strings.Join(outer.Pins, " ") != "a b" {
		t.Errorf("outer = %s %v", outer.Name, outer.Pins)
	}
	if outer.DefaultParameters.Len() != 1 || outer.DefaultParameters.Value(0) != "r=1k" {
		t.Errorf("defaults = %q", outer.DefaultParameters.String())
	}
	if len(outer.Statements) != 3 {
		t.Fatalf("outer body has %d statements", len(outer.Statements))
	}
	inner := outer.Statements[0].(*netlist.SubCircuit)
	if inner.Name != "inner" || len(inner.Statements) != 1 || inner.DefaultParameters.Len() != 0 {
		t.Errorf("inner = %s", inner)
	}
	if got := outer.Statements[0].LineNumber(); got != 3 {
		t.Errorf("inner starts on line %d, want 3", got)
	}
}

func TestSubcircuitDefaultsWithoutKeyword(t *testing.T) {
	nl := mustParse(t, lines("t", ".subckt amp in out gain=2 offset={1/2}", ".ends"))
	sub := nl.Statements[0].(*netlist.SubCircuit)
	if len(sub.Pins) != 2 || sub.DefaultParameters.Len() != 2 {
		t.Errorf("pins %v defaults %q", sub.Pins, sub.DefaultParameters.String())
	}
}

func TestGluedParamsKeyword(t *testing.T) {
	nl := mustParse(t, lines("t", ".subckt amp in out params:gain=2", ".ends"))
	sub := nl.Statements[0].(*netlist.SubCircuit)
	as := sub.DefaultParameters.Assignments()
	if len(as) != 1 || as[0].Name != "gain" {
		t.Errorf("defaults = %v", as)
	}
}

func TestContinuationJoinsStatement(t *testing.T) {
	nl := mustParse(t, lines(
		"t",
		"R1 a",
		"* interrupting comment",
		"+ b",
		"+ 10k",
	))
	if len(nl.Statements) != 2 {
		t.Fatalf("got %d statements", len(nl.Statements))
	}
	r1 := nl.Statements[0].(*netlist.Component)
	if r1.PinsAndParameters.String() != "a b 10k" {
		t.Errorf("R1 parameters = %q", r1.PinsAndParameters.String())
	}
	if _, ok := nl.Statements[1].(*netlist.CommentLine); !ok {
		t.Errorf("statement 1 is %T", nl.Statements[1])
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"unmatched_ends", lines("t", "R1 a b 1", ".ENDS"), 3},
		{"unclosed_subckt", lines("t", "R1 a b 1", ".SUBCKT amp a b", "R2 a b 1"), 3},
		{"end_inside_subckt", lines("t", ".SUBCKT amp a b", ".END"), 2},
		{"assignment_no_value", lines("t", ".param a="), 2},
		{"assignment_no_value_mid", lines("t", ".param a= b=1"), 2},
		{"assignment_no_name", lines("t", ".param =1"), 2},
		{"unclosed_paren", lines("t", ".model D1 D(IS=1"), 2},
		{"unmatched_paren", lines("t", "R1 a b 1)"), 2},
		{"value_first", lines("t", "10 a b"), 2},
		{"dangling_comma", lines("t", "V1 a 0 PWL(0,)"), 2},
		{"model_without_type", lines("t", ".model D1"), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("got %v, want *ParseError", err)
			}
			if perr.Pos.Line != tt.line {
				t.Errorf("error at line %d, want %d (%v)", perr.Pos.Line, tt.line, err)
			}
		})
	}
}

func TestLexErrorsPassThrough(t *testing.T) {
	_, err := Parse(lines("t", "R1 a b {x"))
	var lerr *lexer.LexError
	if !errors.As(err, &lerr) {
		t.Fatalf("got %v, want *lexer.LexError", err)
	}
}

func TestRoundTrip(t *testing.T) {
	src := lines(
		"round trip",
		"* a comment",
		".param a=1 b={a*2} c='a+b'",
		".func f(x)={x*2}",
		".MODEL D1 D(IS=1e-14 N=1.5)",
		".SUBCKT amp in out params: gain=2",
		"R1 in out {gain*1k}",
		".ENDS amp",
		"X1 1 2 amp gain=3",
		"V1 1 0 PWL(0,0 1m,5)",
		".print v(2)",
		".END",
	)
	first := mustParse(t, src)
	second := mustParse(t, first.String())

	if first.Title != second.Title {
		t.Errorf("title %q vs %q", first.Title, second.Title)
	}
	if len(first.Statements) != len(second.Statements) {
		t.Fatalf("%d vs %d statements", len(first.Statements), len(second.Statements))
	}
	for i := range first.Statements {
		if a, b := first.Statements[i].String(), second.Statements[i].String(); a != b {
			t.Errorf("statement %d: %q vs %q", i, a, b)
		}
	}
}

func TestParseTreeWalk(t *testing.T) {
	tree, err := ParseTree(lines("t", "R1 a b 1", ".MODEL D1 D(IS=1)"), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	counts := map[string]int{}
	var terminals int
	Walk(tree, func(n Node) bool {
		switch n := n.(type) {
		case *NonTerminal:
			counts[n.Name]++
		case *Terminal:
			terminals++
		}
		return true
	})
	if counts[RuleComponent] != 1 || counts[RuleModel] != 1 || counts[RuleAssignment] != 1 || counts[RuleBracket] != 1 {
		t.Errorf("rule counts = %v", counts)
	}
	// title, R1 a b 1, .MODEL D1 D ( IS = 1 )
	if terminals != 13 {
		t.Errorf("got %d terminals, want 13\n%s", terminals, Dump(tree))
	}
}
