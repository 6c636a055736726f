// Package eval evaluates compiled expressions against parameter scopes and
// tracks which expressions depend on which parameters.
//
// An Evaluator holds no per-evaluation state and never mutates the trees
// it is given. A Context ties an evaluator to a scope, a dependency
// registry and a cache of compiled expressions for one netlist session; it
// is not safe for concurrent use.
package eval

import (
	"math"
	"strconv"
	"strings"

	"github.com/edp1096/toy-spice-parser/internal/consts"
	"github.com/edp1096/toy-spice-parser/pkg/expr"
	"github.com/edp1096/toy-spice-parser/pkg/netlist"
)

// DefaultMaxDepth bounds nested user function calls.
const DefaultMaxDepth = 1000

var constants = map[string]float64{
	"pi":      math.Pi,
	"e":       math.E,
	"boltz":   consts.Boltzmann,
	"echarge": consts.Charge,
	"kelvin":  consts.Kelvin,
}

// Function is a user-defined function. Exactly one of Body and Native is
// set.
type Function struct {
	Name   string
	Params []string
	Body   expr.Node
	Native func(args []float64) (float64, error)
}

// Functions is a table of user functions keyed by name.
type Functions struct {
	defs          map[string]*Function
	caseSensitive bool
}

func NewFunctions(caseSensitive bool) *Functions {
	return &Functions{defs: map[string]*Function{}, caseSensitive: caseSensitive}
}

func (fs *Functions) Add(f *Function) {
	fs.defs[netlist.Key(f.Name, fs.caseSensitive)] = f
}

func (fs *Functions) Get(name string) (*Function, bool) {
	if fs == nil {
		return nil, false
	}
	f, ok := fs.defs[netlist.Key(name, fs.caseSensitive)]
	return f, ok
}

func (fs *Functions) Len() int { return len(fs.defs) }

type Evaluator struct {
	Dialect   Dialect
	Rand      *RandomSource
	Functions *Functions
	MaxDepth  int
}

func NewEvaluator(d Dialect, seed uint64, functions *Functions) *Evaluator {
	if functions == nil {
		functions = NewFunctions(false)
	}
	return &Evaluator{Dialect: d, Rand: NewRandomSource(seed), Functions: functions, MaxDepth: DefaultMaxDepth}
}

// run is the state of one Evaluate call.
type run struct {
	ev    *Evaluator
	base  *Scope
	depth int
	reads []string
	seen  map[string]bool
}

// Evaluate computes n in scope and returns the value with the distinct
// scope parameters it read, in first-read order. Names bound as user
// function arguments and the predefined constants are not reported.
// Errors are *EvaluationError carrying the formatted expression.
func (ev *Evaluator) Evaluate(n expr.Node, scope *Scope) (float64, []string, error) {
	if !ev.Dialect.valid() {
		err := &UnsupportedDialectOperationError{Dialect: ev.Dialect.String(), Op: "evaluation"}
		return 0, nil, &EvaluationError{Expr: expr.Format(n), Err: err}
	}
	r := &run{ev: ev, base: scope, seen: map[string]bool{}}
	v, err := r.eval(n, nil)
	if err != nil {
		return 0, nil, &EvaluationError{Expr: expr.Format(n), Err: err}
	}
	return v, r.reads, nil
}

// lookup resolves name first in the argument frame of the user function
// being evaluated, then in the base scope, then among the constants.
func (r *run) lookup(name string, frame *Scope) (float64, bool) {
	if frame != nil && frame.HasLocal(name) {
		return frame.Lookup(name)
	}
	if r.base != nil {
		if v, ok := r.base.Lookup(name); ok {
			k := r.base.key(name)
			if !r.seen[k] {
				r.seen[k] = true
				r.reads = append(r.reads, name)
			}
			return v, true
		}
	}
	v, ok := constants[strings.ToLower(name)]
	return v, ok
}

func (r *run) eval(n expr.Node, frame *Scope) (float64, error) {
	switch n := n.(type) {
	case *expr.Literal:
		return n.Value, nil

	case *expr.Variable:
		v, ok := r.lookup(n.Name, frame)
		if !ok {
			return 0, &UndefinedParameterError{Name: n.Name}
		}
		return v, nil

	case *expr.Unary:
		x, err := r.eval(n.X, frame)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case "-":
			return -x, nil
		case "!":
			return boolValue(!truthy(x)), nil
		}
		return x, nil

	case *expr.Binary:
		return r.binary(n, frame)

	case *expr.Conditional:
		c, err := r.eval(n.Cond, frame)
		if err != nil {
			return 0, err
		}
		if truthy(c) {
			return r.eval(n.Then, frame)
		}
		return r.eval(n.Else, frame)

	case *expr.Lazy:
		inner, err := n.Compiled()
		if err != nil {
			return 0, err
		}
		return r.eval(inner, frame)

	case *expr.Call:
		return r.call(n, frame)
	}
	return 0, &expr.SyntaxError{Msg: "unknown expression node"}
}

func (r *run) binary(n *expr.Binary, frame *Scope) (float64, error) {
	x, err := r.eval(n.X, frame)
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case "&&":
		if !truthy(x) {
			return 0, nil
		}
		y, err := r.eval(n.Y, frame)
		return boolValue(truthy(y)), err
	case "||":
		if truthy(x) {
			return 1, nil
		}
		y, err := r.eval(n.Y, frame)
		return boolValue(truthy(y)), err
	}

	y, err := r.eval(n.Y, frame)
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		if y == 0 {
			return 0, &DivisionByZeroError{Op: "/"}
		}
		return x / y, nil
	case "%":
		if y == 0 {
			return 0, &DivisionByZeroError{Op: "%"}
		}
		return math.Mod(x, y), nil
	case "**":
		return pow(r.ev.Dialect, x, y), nil
	case "==":
		return boolValue(x == y), nil
	case "!=":
		return boolValue(x != y), nil
	case "<":
		return boolValue(x < y), nil
	case "<=":
		return boolValue(x <= y), nil
	case ">":
		return boolValue(x > y), nil
	case ">=":
		return boolValue(x >= y), nil
	}
	return 0, &expr.SyntaxError{Offset: n.At, Msg: "unknown operator " + n.Op}
}

func (r *run) call(n *expr.Call, frame *Scope) (float64, error) {
	name := strings.ToLower(n.Name)

	switch name {
	case "def":
		if len(n.Args) != 1 {
			return 0, &ArityError{Name: n.Name, Got: len(n.Args), Want: "1"}
		}
		variable, ok := n.Args[0].(*expr.Variable)
		if !ok {
			return 0, &ArityError{Name: n.Name, Got: 1, Want: "a parameter name"}
		}
		_, defined := r.lookup(variable.Name, frame)
		return boolValue(defined), nil

	case "if":
		if len(n.Args) != 3 {
			return 0, &ArityError{Name: n.Name, Got: len(n.Args), Want: "3"}
		}
		c, err := r.eval(n.Args[0], frame)
		if err != nil {
			return 0, err
		}
		if truthy(c) {
			return r.eval(n.Args[1], frame)
		}
		return r.eval(n.Args[2], frame)
	}

	if f, ok := r.ev.Functions.Get(n.Name); ok {
		return r.user(f, n, frame)
	}

	b, ok := builtins[name]
	if !ok {
		return 0, &UndefinedFunctionError{Name: n.Name}
	}
	if len(n.Args) < b.min || b.max >= 0 && len(n.Args) > b.max {
		return 0, &ArityError{Name: n.Name, Got: len(n.Args), Want: b.arity()}
	}
	args, err := r.args(n.Args, frame)
	if err != nil {
		return 0, err
	}
	return b.fn(r.ev, args)
}

func (r *run) args(nodes []expr.Node, frame *Scope) ([]float64, error) {
	args := make([]float64, len(nodes))
	for i, a := range nodes {
		v, err := r.eval(a, frame)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (r *run) user(f *Function, n *expr.Call, frame *Scope) (float64, error) {
	if (f.Native == nil || f.Params != nil) && len(n.Args) != len(f.Params) {
		return 0, &ArityError{Name: n.Name, Got: len(n.Args), Want: strconv.Itoa(len(f.Params))}
	}
	args, err := r.args(n.Args, frame)
	if err != nil {
		return 0, err
	}
	if f.Native != nil {
		return f.Native(args)
	}

	max := r.ev.MaxDepth
	if max <= 0 {
		max = DefaultMaxDepth
	}
	if r.depth >= max {
		return 0, &StackOverflowError{Function: f.Name, Depth: r.depth}
	}
	r.depth++
	defer func() { r.depth-- }()

	caseSensitive := r.ev.Functions.caseSensitive
	if r.base != nil {
		caseSensitive = r.base.caseSensitive
	}
	local := NewScope(caseSensitive)
	for i, p := range f.Params {
		local.Set(p, args[i])
	}
	return r.eval(f.Body, local)
}
