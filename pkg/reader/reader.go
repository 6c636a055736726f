// Package reader turns a parsed netlist into simulator entities.
//
// Statements are visited in dependency order: parameters and functions
// first, then subcircuit definitions and models, then components. Subcircuit
// instances are expanded in place, each with its own evaluation context and
// node scope. What a component or model becomes is decided by the
// generators registered on the Reader; this package only resolves names and
// values for them.
package reader

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/edp1096/toy-spice-parser/pkg/eval"
	"github.com/edp1096/toy-spice-parser/pkg/netlist"
	"github.com/edp1096/toy-spice-parser/pkg/parser"
)

type Settings struct {
	Case        netlist.CaseSensitivity
	Dialect     eval.Dialect
	Seed        uint64
	ObjectNamer ObjectNamer
	// MaxInstanceDepth bounds subcircuit nesting so a self-instantiating
	// subcircuit fails instead of recursing forever.
	MaxInstanceDepth int
}

func DefaultSettings() Settings {
	return Settings{
		Dialect:          eval.Standard,
		ObjectNamer:      DottedNames,
		MaxInstanceDepth: 64,
	}
}

// ReadError locates a failure at the statement that caused it.
type ReadError struct {
	Line      int
	Statement string
	Err       error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Statement, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Result is what a Read produced.
type Result struct {
	Title    string
	Context  *eval.Context
	Entities []*Entity
	Models   []*Entity
	// Controls are the top-level dot commands left for the caller, in
	// execution order.
	Controls []*netlist.Control
	Options  map[string]string
}

type Reader struct {
	Settings Settings
	// Logger receives warnings. nil discards them.
	Logger *log.Logger

	components map[string]ComponentGenerator
	models     map[string]ModelGenerator
}

func New(settings Settings) *Reader {
	if settings.ObjectNamer == nil {
		settings.ObjectNamer = DottedNames
	}
	if settings.MaxInstanceDepth <= 0 {
		settings.MaxInstanceDepth = DefaultSettings().MaxInstanceDepth
	}
	return &Reader{
		Settings:   settings,
		components: map[string]ComponentGenerator{},
		models:     map[string]ModelGenerator{},
	}
}

// RegisterComponent sets the generator for components whose name starts
// with letter.
func (r *Reader) RegisterComponent(letter string, g ComponentGenerator) {
	r.components[strings.ToUpper(letter)] = g
}

// RegisterModel sets the generator for .MODEL statements of type typ.
func (r *Reader) RegisterModel(typ string, g ModelGenerator) {
	r.models[strings.ToLower(typ)] = g
}

func (r *Reader) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}

// ReadString parses src and reads it.
func (r *Reader) ReadString(src string, opts parser.Options) (*Result, error) {
	nl, err := parser.ParseNetlist(src, opts)
	if err != nil {
		return nil, err
	}
	return r.Read(nl)
}

func (r *Reader) Read(nl *netlist.Netlist) (*Result, error) {
	ctx := eval.NewContext("", eval.Options{
		Dialect: r.Settings.Dialect,
		Seed:    r.Settings.Seed,
		Case:    r.Settings.Case,
	})
	res := &Result{Title: nl.Title, Context: ctx, Options: map[string]string{}}
	top := &scope{
		r:       r,
		ctx:     ctx,
		nodes:   TopNodes(r.Settings.Case.Nodes),
		subckts: map[string]*netlist.SubCircuit{},
		models:  map[string]*Entity{},
	}
	if err := top.read(nl.Statements, res); err != nil {
		return nil, err
	}
	return res, nil
}

// scope is one level of subcircuit expansion.
type scope struct {
	r       *Reader
	parent  *scope
	ctx     *eval.Context
	nodes   *NodeNames
	path    []string
	subckts map[string]*netlist.SubCircuit
	models  map[string]*Entity
	depth   int
}

func (sc *scope) key(name string) string {
	return netlist.Key(name, sc.r.Settings.Case.Entities)
}

func (sc *scope) name(local string) string {
	return sc.r.Settings.ObjectNamer(sc.path, local)
}

// read handles the statements of one scope. Functions are defined before
// anything else because parameters may call functions declared after them
// and function bodies are resolved only when evaluated.
func (sc *scope) read(stmts []netlist.Statement, res *Result) error {
	ordered := netlist.Order(stmts)
	for _, st := range ordered {
		if c, ok := st.(*netlist.Control); ok && c.Name == "func" {
			if err := sc.functions(c); err != nil {
				return &ReadError{Line: c.Line, Statement: describe(c), Err: err}
			}
		}
	}
	for _, st := range ordered {
		var err error
		switch st := st.(type) {
		case *netlist.CommentLine:
		case *netlist.Control:
			if st.Name == "func" {
				continue
			}
			err = sc.control(st, res)
		case *netlist.SubCircuit:
			sc.subckts[sc.key(st.Name)] = st
		case *netlist.Model:
			err = sc.model(st, res)
		case *netlist.Component:
			err = sc.component(st, res)
		}
		if err != nil {
			var rerr *ReadError
			if errors.As(err, &rerr) {
				return err
			}
			return &ReadError{Line: st.LineNumber(), Statement: describe(st), Err: err}
		}
	}
	return nil
}

func describe(st netlist.Statement) string {
	switch st := st.(type) {
	case *netlist.Component:
		return st.Name
	case *netlist.Model:
		return ".MODEL " + st.Name
	case *netlist.Control:
		return "." + strings.ToUpper(st.Name)
	case *netlist.SubCircuit:
		return ".SUBCKT " + st.Name
	}
	return "comment"
}

func (sc *scope) control(st *netlist.Control, res *Result) error {
	switch st.Name {
	case "param":
		return sc.params(st)
	case "options":
		if sc.parent != nil {
			sc.r.logf("line %d: .OPTIONS inside %s ignored", st.Line, sc.nodes.Prefix())
			return nil
		}
		for _, p := range st.Parameters.All() {
			switch p := p.(type) {
			case *netlist.AssignmentParameter:
				res.Options[strings.ToLower(p.Name)] = p.Value()
			case *netlist.SingleParameter:
				res.Options[strings.ToLower(p.Value)] = ""
			}
		}
		return nil
	case "temp":
		if sc.parent != nil {
			break
		}
		if st.Parameters.Len() == 0 {
			return fmt.Errorf("missing temperature")
		}
		v, err := sc.valueOf(st.Parameters.At(0))
		if err != nil {
			return err
		}
		if err := sc.ctx.SetParameter(eval.TempParam, v); err != nil {
			return err
		}
	}
	if sc.parent != nil {
		sc.r.logf("line %d: control .%s inside %s ignored", st.Line, st.Name, sc.nodes.Prefix())
		return nil
	}
	res.Controls = append(res.Controls, st)
	return nil
}

func (sc *scope) valueOf(p netlist.Parameter) (float64, error) {
	text, err := valueText(p)
	if err != nil {
		return 0, err
	}
	return sc.ctx.EvaluateDouble(text)
}

// params handles .PARAM a=1 b={a*2} f(x)={x+a}.
func (sc *scope) params(st *netlist.Control) error {
	for _, p := range st.Parameters.All() {
		a, ok := p.(*netlist.AssignmentParameter)
		if !ok {
			return fmt.Errorf("expected name=value, got %s", p)
		}
		if a.Arguments != nil {
			if err := sc.ctx.DefineFunction(a.Name, a.Arguments, a.Value()); err != nil {
				return err
			}
			continue
		}
		if err := sc.ctx.SetParameterExpression(a.Name, a.Value()); err != nil {
			return err
		}
	}
	return nil
}

// functions handles both .FUNC f(a,b) {a+b} and .FUNC f(a,b)={a+b}.
func (sc *scope) functions(st *netlist.Control) error {
	params := st.Parameters
	for i := 0; i < params.Len(); i++ {
		switch p := params.At(i).(type) {
		case *netlist.AssignmentParameter:
			if err := sc.ctx.DefineFunction(p.Name, p.Arguments, p.Value()); err != nil {
				return err
			}
		case *netlist.BracketParameter:
			if i+1 >= params.Len() {
				return fmt.Errorf("function %s has no body", p.Name)
			}
			body, ok := params.At(i + 1).(*netlist.SingleParameter)
			if !ok {
				return fmt.Errorf("function %s: body must be an expression, got %s", p.Name, params.At(i+1))
			}
			args, err := argumentNames(p.Parameters)
			if err != nil {
				return fmt.Errorf("function %s: %w", p.Name, err)
			}
			if err := sc.ctx.DefineFunction(p.Name, args, body.Expression()); err != nil {
				return err
			}
			i++
		default:
			return fmt.Errorf("expected a function definition, got %s", p)
		}
	}
	return nil
}

func argumentNames(params netlist.ParameterCollection) ([]string, error) {
	var names []string
	for _, p := range params.All() {
		switch p := p.(type) {
		case *netlist.SingleParameter:
			names = append(names, p.Value)
		case *netlist.VectorParameter:
			for _, e := range p.Elements {
				names = append(names, e.Value)
			}
		default:
			return nil, fmt.Errorf("bad argument %s", p)
		}
	}
	return names, nil
}

func (sc *scope) model(st *netlist.Model, res *Result) error {
	typ := strings.ToLower(st.ModelType())
	if typ == "" {
		return fmt.Errorf("model %s has no type", st.Name)
	}
	e := &Entity{Name: sc.name(st.Name), Type: typ, Line: st.Line}
	if gen, ok := sc.r.models[typ]; ok {
		var params netlist.ParameterCollection
		for _, a := range st.ModelParameters() {
			params.Add(a)
		}
		obj, err := gen(&Request{
			Name:       e.Name,
			Type:       typ,
			Statement:  st,
			Parameters: params,
			Context:    sc.ctx,
			sc:         sc,
		})
		if err != nil {
			return err
		}
		e.Object = obj
	} else {
		sc.r.logf("line %d: model type %s has no generator", st.Line, typ)
	}
	sc.models[sc.key(st.Name)] = e
	res.Models = append(res.Models, e)
	return nil
}

func (sc *scope) component(st *netlist.Component, res *Result) error {
	typ := st.Type()
	if typ == "X" {
		return sc.instance(st, res)
	}
	gen, ok := sc.r.components[typ]
	if !ok {
		return fmt.Errorf("no generator for component type %s", typ)
	}

	params := st.PinsAndParameters
	if params.Len() < gen.Pins {
		return fmt.Errorf("want %d nodes, got %d parameters", gen.Pins, params.Len())
	}
	nodes := make([]string, gen.Pins)
	for i := range nodes {
		s, ok := params.At(i).(*netlist.SingleParameter)
		if !ok || s.IsExpression() {
			return fmt.Errorf("node %d must be a name, got %s", i+1, params.At(i))
		}
		nodes[i] = sc.nodes.Generate(s.Value)
	}

	req := &Request{
		Name:       sc.name(st.Name),
		Type:       typ,
		Statement:  st,
		Nodes:      nodes,
		Parameters: params.Skip(gen.Pins),
		Context:    sc.ctx,
		sc:         sc,
	}
	obj, err := gen.Generate(req)
	if err != nil {
		return err
	}
	res.Entities = append(res.Entities, &Entity{Name: req.Name, Type: typ, Nodes: nodes, Line: st.Line, Object: obj})
	return nil
}

func (sc *scope) subckt(name string) (*netlist.SubCircuit, bool) {
	for s := sc; s != nil; s = s.parent {
		if def, ok := s.subckts[s.key(name)]; ok {
			return def, true
		}
	}
	return nil, false
}

// instance expands X<name> nets... subckt [params:] p=v ...
func (sc *scope) instance(st *netlist.Component, res *Result) error {
	var words []string
	var assigns []*netlist.AssignmentParameter
	for _, p := range st.PinsAndParameters.All() {
		switch p := p.(type) {
		case *netlist.SingleParameter:
			if strings.EqualFold(p.Value, "params:") {
				continue
			}
			if len(assigns) > 0 || p.IsExpression() {
				return fmt.Errorf("unexpected %s", p)
			}
			words = append(words, p.Value)
		case *netlist.AssignmentParameter:
			assigns = append(assigns, p)
		default:
			return fmt.Errorf("unexpected %s", p)
		}
	}
	if len(words) == 0 {
		return fmt.Errorf("missing subcircuit name")
	}
	defName := words[len(words)-1]
	def, ok := sc.subckt(defName)
	if !ok {
		return fmt.Errorf("unknown subcircuit %s", defName)
	}
	if sc.depth >= sc.r.Settings.MaxInstanceDepth {
		return fmt.Errorf("subcircuit nesting deeper than %d", sc.r.Settings.MaxInstanceDepth)
	}

	nets := words[:len(words)-1]
	resolved := make([]string, len(nets))
	for i, n := range nets {
		resolved[i] = sc.nodes.Generate(n)
	}
	nodes, err := sc.nodes.Instance(st.Name, def.Pins, resolved)
	if err != nil {
		return err
	}

	ctx := sc.ctx.CreateChild(st.Name)
	child := &scope{
		r:       sc.r,
		parent:  sc,
		ctx:     ctx,
		nodes:   nodes,
		path:    append(slices.Clone(sc.path), st.Name),
		subckts: map[string]*netlist.SubCircuit{},
		models:  map[string]*Entity{},
		depth:   sc.depth + 1,
	}

	// Call-site values are evaluated by the caller and follow its
	// parameters when they change.
	caseParams := sc.r.Settings.Case.Parameters
	overridden := map[string]bool{}
	for _, a := range assigns {
		name := a.Name
		e, err := sc.ctx.AddAction(child.name(name), a.Value(), func(v float64) {
			if err := ctx.SetParameter(name, v); err != nil {
				sc.r.logf("%s: updating %s: %v", st.Name, name, err)
			}
		})
		if err != nil {
			return err
		}
		if err := ctx.SetParameter(name, e.Value()); err != nil {
			return err
		}
		overridden[netlist.Key(name, caseParams)] = true
	}
	for _, d := range def.DefaultParameters.Assignments() {
		if overridden[netlist.Key(d.Name, caseParams)] {
			continue
		}
		if err := ctx.SetParameterExpression(d.Name, d.Value()); err != nil {
			return err
		}
	}
	return child.read(def.Statements, res)
}
