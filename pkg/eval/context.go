package eval

import (
	"errors"

	"github.com/edp1096/toy-spice-parser/internal/consts"
	"github.com/edp1096/toy-spice-parser/pkg/expr"
	"github.com/edp1096/toy-spice-parser/pkg/netlist"
)

// TempParam is the circuit temperature parameter every root context
// defines.
const TempParam = "TEMP"

type Options struct {
	Dialect  Dialect
	Seed     uint64
	Case     netlist.CaseSensitivity
	MaxDepth int
}

// Context is the evaluation state of one netlist scope: the top level or
// one subcircuit instance.
type Context struct {
	Name      string
	Scope     *Scope
	Evaluator *Evaluator
	Registry  *Registry

	opts     Options
	parent   *Context
	children []*Context
	params   map[string]*Expression
	cache    map[string]expr.Node
}

func NewContext(name string, opts Options) *Context {
	ev := NewEvaluator(opts.Dialect, opts.Seed, NewFunctions(opts.Case.Functions))
	if opts.MaxDepth > 0 {
		ev.MaxDepth = opts.MaxDepth
	}
	c := &Context{
		Name:      name,
		Scope:     NewScope(opts.Case.Parameters),
		Evaluator: ev,
		Registry:  NewRegistry(opts.Case.Parameters),
		opts:      opts,
		params:    map[string]*Expression{},
		cache:     map[string]expr.Node{},
	}
	c.Scope.Set(TempParam, consts.NominalTemp)
	return c
}

// CreateChild returns a context whose scope falls through to c. The child
// shares the random source, the function table and the compile cache but
// keeps its own registry.
func (c *Context) CreateChild(name string) *Context {
	ev := *c.Evaluator
	child := &Context{
		Name:      name,
		Scope:     c.Scope.Child(),
		Evaluator: &ev,
		Registry:  NewRegistry(c.opts.Case.Parameters),
		opts:      c.opts,
		parent:    c,
		params:    map[string]*Expression{},
		cache:     c.cache,
	}
	c.children = append(c.children, child)
	return child
}

func (c *Context) Parent() *Context { return c.parent }

func (c *Context) Children() []*Context { return c.children }

func (c *Context) Options() Options { return c.opts }

// Compile returns the tree for text, compiling it at most once per session.
func (c *Context) Compile(text string) (expr.Node, error) {
	if n, ok := c.cache[text]; ok {
		return n, nil
	}
	n, err := expr.Compile(text, c.Evaluator.Dialect.Grammar())
	if err != nil {
		return nil, err
	}
	c.cache[text] = n
	return n, nil
}

// Evaluate compiles and evaluates text in c and returns the parameters it
// read.
func (c *Context) Evaluate(text string) (float64, []string, error) {
	n, err := c.Compile(text)
	if err != nil {
		return 0, nil, err
	}
	return c.evaluate(n, text)
}

// evaluate runs n in c and reports errors against the text it was written
// as.
func (c *Context) evaluate(n expr.Node, text string) (float64, []string, error) {
	v, reads, err := c.Evaluator.Evaluate(n, c.Scope)
	var eerr *EvaluationError
	if errors.As(err, &eerr) {
		eerr.Expr = text
	}
	return v, reads, err
}

func (c *Context) EvaluateDouble(text string) (float64, error) {
	v, _, err := c.Evaluate(text)
	return v, err
}

// ParametersOf lists the names text references without evaluating it.
func (c *Context) ParametersOf(text string) ([]string, error) {
	n, err := c.Compile(text)
	if err != nil {
		return nil, err
	}
	return expr.Variables(n), nil
}

func (c *Context) Parameter(name string) (float64, bool) {
	return c.Scope.Lookup(name)
}

// SetParameter binds name to a constant in c and re-evaluates everything
// that read it, here and in child contexts that do not shadow it.
func (c *Context) SetParameter(name string, v float64) error {
	c.dropDefinition(name)
	c.Scope.Set(name, v)
	return c.propagate(name)
}

// SetParameterExpression binds name to the value of text and keeps it up
// to date when the parameters text reads change.
func (c *Context) SetParameterExpression(name, text string) error {
	n, err := c.Compile(text)
	if err != nil {
		return err
	}
	v, reads, err := c.evaluate(n, text)
	if err != nil {
		return err
	}
	c.dropDefinition(name)
	e := &Expression{Name: name, Text: text, Node: n, Param: name, value: v}
	c.Registry.Register(e, reads)
	c.params[c.Scope.key(name)] = e
	c.Scope.Set(name, v)
	return c.propagate(name)
}

func (c *Context) dropDefinition(name string) {
	k := c.Scope.key(name)
	if old, ok := c.params[k]; ok {
		c.Registry.Remove(old)
		delete(c.params, k)
	}
}

// AddAction evaluates text and registers fn to receive its new value each
// time a parameter it reads changes. fn is not called for the initial
// value, which the returned Expression holds.
func (c *Context) AddAction(name, text string, fn func(float64)) (*Expression, error) {
	n, err := c.Compile(text)
	if err != nil {
		return nil, err
	}
	v, reads, err := c.evaluate(n, text)
	if err != nil {
		return nil, err
	}
	e := &Expression{Name: name, Text: text, Node: n, Action: fn, value: v}
	c.Registry.Register(e, reads)
	return e, nil
}

// DefineFunction adds a user function. The body is compiled now, but the
// functions it calls are resolved when it is evaluated.
func (c *Context) DefineFunction(name string, params []string, body string) error {
	n, err := c.Compile(body)
	if err != nil {
		return err
	}
	c.Evaluator.Functions.Add(&Function{Name: name, Params: params, Body: n})
	return nil
}

// update is one expression to re-evaluate after a change, with the
// updates that read its result.
type update struct {
	ctx    *Context
	e      *Expression
	next   []*update
	inputs int
}

// propagate re-evaluates everything that depends on name, in c and in the
// children that do not shadow it. The affected expressions are collected
// first and then evaluated in dependency order, so each one runs once and
// only after all of its changed inputs. Expressions caught in a cycle run
// once each, in the order they were found.
func (c *Context) propagate(name string) error {
	type change struct {
		ctx  *Context
		name string
		from *update
	}
	var (
		order []*update
		nodes = map[*Expression]*update{}
		seen  = map[change]bool{}
		edges = map[[2]*update]bool{}
		queue = []change{{ctx: c, name: name}}
	)
	for len(queue) > 0 {
		ch := queue[0]
		queue = queue[1:]
		key := change{ctx: ch.ctx, name: ch.ctx.Scope.key(ch.name), from: ch.from}
		if seen[key] {
			continue
		}
		seen[key] = true

		for _, e := range ch.ctx.Registry.DependentsOf(ch.name) {
			u, ok := nodes[e]
			if !ok {
				u = &update{ctx: ch.ctx, e: e}
				nodes[e] = u
				order = append(order, u)
				if e.Param != "" {
					queue = append(queue, change{ctx: ch.ctx, name: e.Param, from: u})
				}
			}
			if ch.from != nil && !edges[[2]*update{ch.from, u}] {
				edges[[2]*update{ch.from, u}] = true
				ch.from.next = append(ch.from.next, u)
				u.inputs++
			}
		}
		for _, child := range ch.ctx.children {
			if !child.Scope.HasLocal(ch.name) {
				queue = append(queue, change{ctx: child, name: ch.name, from: ch.from})
			}
		}
	}

	done := map[*update]bool{}
	var ready []*update
	for _, u := range order {
		if u.inputs == 0 {
			ready = append(ready, u)
		}
	}
	for len(done) < len(order) {
		if len(ready) == 0 {
			for _, u := range order {
				if !done[u] {
					ready = append(ready, u)
					break
				}
			}
		}
		u := ready[0]
		ready = ready[1:]
		if done[u] {
			continue
		}
		done[u] = true
		if err := u.ctx.refresh(u.e); err != nil {
			return err
		}
		for _, n := range u.next {
			n.inputs--
			if n.inputs == 0 && !done[n] {
				ready = append(ready, n)
			}
		}
	}
	return nil
}

// refresh re-evaluates e, stores its value and fires its action.
func (c *Context) refresh(e *Expression) error {
	v, reads, err := c.evaluate(e.Node, e.Text)
	if err != nil {
		return err
	}
	e.value = v
	c.Registry.Register(e, reads)
	if e.Param != "" {
		c.Scope.Set(e.Param, v)
	}
	if e.Action != nil {
		e.Action(v)
	}
	return nil
}
