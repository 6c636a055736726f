package main // import "spice"

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/edp1096/toy-spice-parser/pkg/analysis"
	"github.com/edp1096/toy-spice-parser/pkg/circuit"
	"github.com/edp1096/toy-spice-parser/pkg/eval"
	"github.com/edp1096/toy-spice-parser/pkg/netlist"
	"github.com/edp1096/toy-spice-parser/pkg/parser"
	"github.com/edp1096/toy-spice-parser/pkg/reader"
	"github.com/edp1096/toy-spice-parser/pkg/util"
)

var (
	dialect    = flag.String("dialect", "standard", "expression dialect: standard, ltspice, hspice or smartspice")
	seed       = flag.Uint64("seed", 0, "seed for random functions")
	caseNodes  = flag.Bool("case-nodes", false, "node names are case sensitive")
	caseParams = flag.Bool("case-params", false, "parameter and function names are case sensitive")
	runOP      = flag.Bool("op", false, "solve the operating point even without .OP")
	verbose    = flag.Bool("v", false, "print entities, warnings and circuit equations")
)

// sweep is a .STEP PARAM name start stop incr or .STEP PARAM name LIST v...
type sweep struct {
	name   string
	values []float64
}

func sortedKeys(m map[string][]float64, prefix string) []string {
	var keys []string
	for k := range m {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func printResults(results map[string][]float64, st *sweep) {
	fmt.Println("\nAnalysis Results:")
	fmt.Println("================")

	voltages := sortedKeys(results, "V(")
	currents := sortedKeys(results, "I(")
	if st == nil {
		fmt.Println("\nNode Voltages:")
		for _, name := range voltages {
			fmt.Printf("%s = %s\n", name, util.FormatValueFactor(results[name][0], "V"))
		}
		fmt.Println("\nBranch Currents:")
		for _, name := range currents {
			fmt.Printf("%s = %s\n", name, util.FormatValueFactor(results[name][0], "A"))
		}
		return
	}

	fmt.Printf("\nParameter Sweep Results (%d points):\n", len(st.values))
	fmt.Println("------------------------------------------------")
	for i, v := range st.values {
		fmt.Printf("%s=%-11s  ", st.name, util.FormatValueFactor(v, ""))
		for _, name := range voltages {
			fmt.Printf("%s=%s  ", name, util.FormatValueFactor(results[name][i], "V"))
		}
		for _, name := range currents {
			fmt.Printf("%s=%s  ", name, util.FormatValueFactor(results[name][i], "A"))
		}
		fmt.Println()
	}
}

func paramValue(ctx *eval.Context, p netlist.Parameter) (float64, error) {
	s, ok := p.(*netlist.SingleParameter)
	if !ok {
		return 0, fmt.Errorf("expected a value, got %s", p)
	}
	return ctx.EvaluateDouble(s.Expression())
}

func parseStep(ctx *eval.Context, c *netlist.Control) (*sweep, error) {
	params := c.Parameters
	if params.Len() < 3 || !strings.EqualFold(params.Value(0), "param") {
		return nil, fmt.Errorf(".STEP: only PARAM sweeps are supported")
	}
	st := &sweep{name: params.Value(1)}
	if strings.EqualFold(params.Value(2), "list") {
		list := params.Skip(3)
		for _, p := range list.All() {
			v, err := paramValue(ctx, p)
			if err != nil {
				return nil, fmt.Errorf(".STEP: %w", err)
			}
			st.values = append(st.values, v)
		}
		return st, nil
	}

	if params.Len() != 5 {
		return nil, fmt.Errorf(".STEP PARAM %s: want start, stop and increment", st.name)
	}
	var lim [3]float64
	for i := range lim {
		v, err := paramValue(ctx, params.At(i+2))
		if err != nil {
			return nil, fmt.Errorf(".STEP: %w", err)
		}
		lim[i] = v
	}
	start, stop, incr := lim[0], lim[1], lim[2]
	if incr == 0 || (stop-start)/incr < 0 {
		return nil, fmt.Errorf(".STEP PARAM %s: increment %g does not reach %g", st.name, incr, stop)
	}
	n := int((stop-start)/incr + 1e-9)
	for i := 0; i <= n; i++ {
		st.values = append(st.values, start+float64(i)*incr)
	}
	return st, nil
}

func run(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading netlist file: %w", err)
	}

	d, err := eval.ParseDialect(*dialect)
	if err != nil {
		return err
	}
	settings := reader.DefaultSettings()
	settings.Dialect = d
	settings.Seed = *seed
	settings.Case.Nodes = *caseNodes
	settings.Case.Parameters = *caseParams
	settings.Case.Functions = *caseParams

	r := reader.New(settings)
	if *verbose {
		r.Logger = log.New(os.Stderr, "warning: ", 0)
	}
	circuit.Register(r)

	res, err := r.ReadString(string(content), parser.DefaultOptions())
	if err != nil {
		return err
	}

	fmt.Printf("Title: %s\n", res.Title)
	fmt.Printf("Circuit elements: %d\n", len(res.Entities))
	if *verbose {
		for i, e := range res.Entities {
			fmt.Printf("Element %d: %s (type: %s, nodes: %v, line %d)\n", i, e.Name, e.Type, e.Nodes, e.Line)
		}
	}
	if names := res.Context.Scope.Names(); len(names) > 0 {
		fmt.Println("\nParameters:")
		for _, name := range names {
			v, _ := res.Context.Parameter(name)
			fmt.Printf("%s = %s\n", name, util.FormatValueFactor(v, ""))
		}
	}

	var st *sweep
	op := *runOP
	for _, c := range res.Controls {
		switch c.Name {
		case "op":
			op = true
		case "step":
			if st, err = parseStep(res.Context, c); err != nil {
				return fmt.Errorf("line %d: %w", c.Line, err)
			}
		default:
			if *verbose {
				r.Logger.Printf("line %d: .%s not run", c.Line, strings.ToUpper(c.Name))
			}
		}
	}
	if !op {
		return nil
	}

	ckt, err := circuit.Build(res.Title, res, settings.Case.Nodes)
	if err != nil {
		return err
	}
	defer ckt.Destroy()

	if *verbose {
		if err := ckt.Stamp(); err != nil {
			return err
		}
		fmt.Printf("\n%s", ckt.Matrix())
	}

	analyzer := analysis.NewOP()
	if err := analyzer.Setup(ckt); err != nil {
		return fmt.Errorf("analysis setup failed: %w", err)
	}
	if st == nil {
		if err := analyzer.Execute(); err != nil {
			return fmt.Errorf("analysis execution failed: %w", err)
		}
	} else {
		for _, v := range st.values {
			if err := res.Context.SetParameter(st.name, v); err != nil {
				return err
			}
			if err := analyzer.Execute(); err != nil {
				return fmt.Errorf("analysis execution failed at %s=%g: %w", st.name, v, err)
			}
		}
	}

	printResults(analyzer.GetResults(), st)
	return nil
}

func main() {
	log.SetFlags(0)
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("Usage: spice [flags] <netlist_file>")
	}

	if err := run(flag.Arg(0)); err != nil {
		log.Fatal(err)
	}
}
