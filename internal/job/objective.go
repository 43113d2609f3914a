package job

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/Knetic/govaluate"

	"github.com/copyleftdev/gridopt/internal/optimization"
)

var constants = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"phi": math.Phi,
}

var functions = map[string]govaluate.ExpressionFunction{
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"atan":  unary(math.Atan),
	"sqrt":  unary(math.Sqrt),
	"abs":   unary(math.Abs),
	"exp":   unary(math.Exp),
	"log":   unary(math.Log),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"pow":   binary(math.Pow),
	"min":   binary(math.Min),
	"max":   binary(math.Max),
	"atan2": binary(math.Atan2),
}

func unary(fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		x, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		return fn(x), nil
	}
}

func binary(fn func(float64, float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("expected 2 arguments, got %d", len(args))
		}
		x, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		y, err := toFloat(args[1])
		if err != nil {
			return nil, err
		}
		return fn(x, y), nil
	}
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

// Objective is an arithmetic expression over the variables x0..x{N-1}
// compiled into an objective function.
type Objective struct {
	expr  *govaluate.EvaluableExpression
	vars  map[string]int
	dims  int
	errMu sync.Mutex
	err   error
}

// CompileObjective parses expression for a problem with dims variables.
// Unknown identifiers are rejected at compile time.
func CompileObjective(expression string, dims int) (*Objective, error) {
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(expression, functions)
	if err != nil {
		return nil, fmt.Errorf("parse objective: %w", err)
	}

	vars := make(map[string]int)
	for _, name := range expr.Vars() {
		if _, ok := constants[name]; ok {
			continue
		}
		i, ok := variableIndex(name)
		if !ok || i >= dims {
			return nil, fmt.Errorf("objective references unknown variable %q (have x0..x%d)", name, dims-1)
		}
		vars[name] = i
	}

	return &Objective{expr: expr, vars: vars, dims: dims}, nil
}

func variableIndex(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "x")
	if !ok || rest == "" {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// Eval evaluates the expression at x. Evaluation errors yield NaN, which no
// optimizer accepts as an improvement; the first one is kept for Err.
func (o *Objective) Eval(x optimization.Input) float64 {
	v, err := o.expr.Eval(point{obj: o, x: x})
	if err == nil {
		var f float64
		if f, err = toFloat(v); err == nil {
			return f
		}
	}
	o.errMu.Lock()
	if o.err == nil {
		o.err = err
	}
	o.errMu.Unlock()
	return math.NaN()
}

// Err returns the first evaluation error, if any.
func (o *Objective) Err() error {
	o.errMu.Lock()
	defer o.errMu.Unlock()
	return o.err
}

// point exposes a candidate as govaluate parameters without building a map
// per evaluation.
type point struct {
	obj *Objective
	x   optimization.Input
}

func (p point) Get(name string) (interface{}, error) {
	if i, ok := p.obj.vars[name]; ok {
		return p.x[i], nil
	}
	if c, ok := constants[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("no parameter %q", name)
}
