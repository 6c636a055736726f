package eval

import (
	"fmt"
	"math"
	"sort"
)

// builtin is a function of already evaluated arguments. max < 0 means any
// number of arguments from min up.
type builtin struct {
	min, max int
	fn       func(ev *Evaluator, args []float64) (float64, error)
}

func (b *builtin) arity() string {
	switch {
	case b.max < 0:
		return fmt.Sprintf("at least %d", b.min)
	case b.min == b.max:
		return fmt.Sprint(b.min)
	}
	return fmt.Sprintf("%d to %d", b.min, b.max)
}

func unary(f func(float64) float64) *builtin {
	return &builtin{min: 1, max: 1, fn: func(_ *Evaluator, a []float64) (float64, error) {
		return f(a[0]), nil
	}}
}

func binaryFn(f func(x, y float64) float64) *builtin {
	return &builtin{min: 2, max: 2, fn: func(_ *Evaluator, a []float64) (float64, error) {
		return f(a[0], a[1]), nil
	}}
}

func dialectFn(n int, f func(d Dialect, a []float64) float64) *builtin {
	return &builtin{min: n, max: n, fn: func(ev *Evaluator, a []float64) (float64, error) {
		return f(ev.Dialect, a), nil
	}}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// truthy is the boolean coercion used by if, the conditional operator and
// the logical operators.
func truthy(v float64) bool { return v > 0.5 }

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// builtins holds every predefined function except the special forms def,
// if and lazy(#...#), which the evaluator handles before evaluating
// arguments.
var builtins = map[string]*builtin{
	"abs":   unary(math.Abs),
	"fabs":  unary(math.Abs),
	"sgn":   unary(sign),
	"cbrt":  unary(math.Cbrt),
	"exp":   unary(math.Exp),
	"ln":    unary(math.Log),
	"log":   unary(math.Log),
	"log10": unary(math.Log10),
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  unary(math.Asin),
	"acos":  unary(math.Acos),
	"atan":  unary(math.Atan),
	"sinh":  unary(math.Sinh),
	"cosh":  unary(math.Cosh),
	"tanh":  unary(math.Tanh),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"round": unary(math.Round),
	"nint":  unary(math.Round),
	"int":   unary(math.Trunc),
	"u":     unary(func(x float64) float64 { return boolValue(x > 0) }),
	"uramp": unary(func(x float64) float64 { return math.Max(x, 0) }),
	"buf":   unary(func(x float64) float64 { return boolValue(truthy(x)) }),
	"inv":   unary(func(x float64) float64 { return boolValue(!truthy(x)) }),
	"lazy":  unary(func(x float64) float64 { return x }),
	"atan2": binaryFn(math.Atan2),
	"hypot": binaryFn(math.Hypot),
	"pwrs":  binaryFn(func(x, y float64) float64 { return sign(x) * math.Pow(math.Abs(x), y) }),

	"pow":  dialectFn(2, func(d Dialect, a []float64) float64 { return pow(d, a[0], a[1]) }),
	"pwr":  dialectFn(2, func(d Dialect, a []float64) float64 { return pwr(d, a[0], a[1]) }),
	"sqrt": dialectFn(1, func(d Dialect, a []float64) float64 { return sqrt(d, a[0]) }),
	"db":   dialectFn(1, func(d Dialect, a []float64) float64 { return db(d, a[0]) }),

	"min": {min: 1, max: -1, fn: func(_ *Evaluator, a []float64) (float64, error) {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Min(m, v)
		}
		return m, nil
	}},
	"max": {min: 1, max: -1, fn: func(_ *Evaluator, a []float64) (float64, error) {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Max(m, v)
		}
		return m, nil
	}},
	"limit": {min: 3, max: 3, fn: func(_ *Evaluator, a []float64) (float64, error) {
		lo, hi := math.Min(a[1], a[2]), math.Max(a[1], a[2])
		return math.Min(math.Max(a[0], lo), hi), nil
	}},
	"table": {min: 3, max: -1, fn: table},
	"poly":  {min: 2, max: -1, fn: poly},

	"random": {min: 0, max: 0, fn: func(ev *Evaluator, _ []float64) (float64, error) {
		return uniform(ev)
	}},
	"flat": {min: 1, max: 1, fn: func(ev *Evaluator, a []float64) (float64, error) {
		u, err := uniform(ev)
		return a[0] * (2*u - 1), err
	}},
	"unif": {min: 2, max: 2, fn: func(ev *Evaluator, a []float64) (float64, error) {
		u, err := uniform(ev)
		return a[0] + a[0]*a[1]*(2*u-1), err
	}},
	"aunif": {min: 2, max: 2, fn: func(ev *Evaluator, a []float64) (float64, error) {
		u, err := uniform(ev)
		return a[0] + a[1]*(2*u-1), err
	}},
	"gauss": {min: 2, max: 3, fn: func(ev *Evaluator, a []float64) (float64, error) {
		n, err := normal(ev)
		return a[0] + a[0]*a[1]/sigma(a)*n, err
	}},
	"agauss": {min: 2, max: 3, fn: func(ev *Evaluator, a []float64) (float64, error) {
		n, err := normal(ev)
		return a[0] + a[1]/sigma(a)*n, err
	}},
}

func uniform(ev *Evaluator) (float64, error) {
	if ev.Rand == nil {
		return 0, ErrNoRandomSource
	}
	return ev.Rand.Float64(), nil
}

func normal(ev *Evaluator) (float64, error) {
	if ev.Rand == nil {
		return 0, ErrNoRandomSource
	}
	return ev.Rand.Norm(), nil
}

func sigma(a []float64) float64 {
	if len(a) < 3 || a[2] == 0 {
		return 1
	}
	return a[2]
}

// pow is x**y. For a negative base: Standard returns the platform result
// (NaN for a fractional exponent), LtSpice 0 for a fractional exponent,
// HSpice truncates the exponent and SmartSpice also drops the sign.
func pow(d Dialect, x, y float64) float64 {
	if x >= 0 {
		return math.Pow(x, y)
	}
	switch d {
	case LtSpice:
		if y != math.Trunc(y) {
			return 0
		}
		return math.Pow(x, y)
	case HSpice:
		return math.Pow(x, math.Trunc(y))
	case SmartSpice:
		return math.Pow(-x, math.Trunc(y))
	}
	return math.Pow(x, y)
}

// pwr is sign(x)*|x|**y, except in LtSpice where the sign is dropped.
func pwr(d Dialect, x, y float64) float64 {
	if d == LtSpice {
		return math.Pow(math.Abs(x), y)
	}
	return sign(x) * math.Pow(math.Abs(x), y)
}

func sqrt(d Dialect, x float64) float64 {
	if x >= 0 {
		return math.Sqrt(x)
	}
	switch d {
	case LtSpice:
		return 0
	case HSpice:
		return -math.Sqrt(-x)
	case SmartSpice:
		return math.Sqrt(-x)
	}
	return math.Sqrt(x)
}

func db(d Dialect, x float64) float64 {
	if d == SmartSpice {
		return 20 * math.Log10(math.Abs(x))
	}
	return sign(x) * 20 * math.Log10(math.Abs(x))
}

// table(x, x1,y1, x2,y2, ...) interpolates linearly between the points
// sorted by x and clamps outside them.
func table(_ *Evaluator, a []float64) (float64, error) {
	if len(a)%2 != 1 {
		return 0, &ArityError{Name: "table", Got: len(a), Want: "x followed by x,y pairs"}
	}
	x := a[0]
	type point struct{ x, y float64 }
	pts := make([]point, 0, len(a)/2)
	for i := 1; i < len(a); i += 2 {
		pts = append(pts, point{a[i], a[i+1]})
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].x < pts[j].x })

	if x <= pts[0].x {
		return pts[0].y, nil
	}
	last := pts[len(pts)-1]
	if x >= last.x {
		return last.y, nil
	}
	for i := 1; i < len(pts); i++ {
		if x <= pts[i].x {
			p0, p1 := pts[i-1], pts[i]
			return p0.y + (p1.y-p0.y)*(x-p0.x)/(p1.x-p0.x), nil
		}
	}
	return last.y, nil
}

// poly(n, x1..xn, c0, c1, ...) sums c_k times the k-th product term.
// Terms are ordered by total degree, and within a degree by non-decreasing
// variable index tuples: 1, x1..xn, x1x1, x1x2, ..., x1xn, x2x2, ...
func poly(_ *Evaluator, a []float64) (float64, error) {
	n := int(a[0])
	if n < 1 || float64(n) != a[0] || len(a) < 1+n+1 {
		return 0, &ArityError{Name: "poly", Got: len(a), Want: "poly(n, x1..xn, c0, ...) with n >= 1"}
	}
	vars := a[1 : 1+n]
	coeffs := a[1+n:]

	sum := coeffs[0]
	k := 1
	for degree := 1; k < len(coeffs); degree++ {
		idx := make([]int, degree)
		for k < len(coeffs) {
			term := 1.0
			for _, i := range idx {
				term *= vars[i]
			}
			sum += coeffs[k] * term
			k++
			if !nextCombination(idx, n) {
				break
			}
		}
	}
	return sum, nil
}

// nextCombination advances idx to the next non-decreasing tuple over
// [0, n). It reports false after the last one.
func nextCombination(idx []int, n int) bool {
	i := len(idx) - 1
	for i >= 0 && idx[i] == n-1 {
		i--
	}
	if i < 0 {
		return false
	}
	idx[i]++
	for j := i + 1; j < len(idx); j++ {
		idx[j] = idx[i]
	}
	return true
}
