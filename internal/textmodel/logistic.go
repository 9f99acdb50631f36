package textmodel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// gradientTolerance stops L-BFGS once the infinity norm of the gradient
// drops below it.
const gradientTolerance = 1e-6

// LogisticOptions configures L2-regularized binary logistic regression.
type LogisticOptions struct {
	C             float64 `json:"c"`
	Iterations    int     `json:"iterations"`
	BalanceLabels bool    `json:"balance_labels"`
}

// Logistic is a binary logistic-regression classifier; Weights index the
// vectorizer vocabulary and class 1 is the positive class.
type Logistic struct {
	Options LogisticOptions `json:"options"`
	Weights []float64       `json:"weights"`
	Bias    float64         `json:"bias"`
}

// NewLogistic returns an unfitted classifier with defaults applied.
func NewLogistic(opts LogisticOptions) *Logistic {
	if opts.C <= 0 {
		opts.C = 1
	}
	if opts.Iterations <= 0 {
		opts.Iterations = 500
	}
	return &Logistic{Options: opts}
}

// objective is the mean weighted log-loss plus ||w||^2/(2Cn). The last
// coordinate of a parameter vector is the unregularized bias.
type objective struct {
	x      []Vector
	y      []float64
	weight []float64
	reg    float64
	dim    int
}

func newObjective(x []Vector, y []int, weight []float64, c float64, dim int) *objective {
	obj := &objective{
		x:      x,
		y:      make([]float64, len(y)),
		weight: weight,
		reg:    1 / (c * float64(len(x))),
		dim:    dim,
	}
	for i, label := range y {
		obj.y[i] = float64(label)
	}
	return obj
}

func (o *objective) margin(params []float64, row Vector) float64 {
	z := params[o.dim]
	for _, f := range row {
		z += params[f.Index] * f.Value
	}
	return z
}

func (o *objective) loss(params []float64) float64 {
	n := float64(len(o.x))
	var total float64
	for i, row := range o.x {
		z := o.margin(params, row)
		total += o.weight[i] * (softplus(z) - o.y[i]*z)
	}
	var norm float64
	for _, w := range params[:o.dim] {
		norm += w * w
	}
	return total/n + o.reg*norm/2
}

func (o *objective) gradient(grad, params []float64) {
	n := float64(len(o.x))
	for j := 0; j < o.dim; j++ {
		grad[j] = o.reg * params[j]
	}
	grad[o.dim] = 0
	for i, row := range o.x {
		diff := o.weight[i] * (sigmoid(o.margin(params, row)) - o.y[i]) / n
		for _, f := range row {
			grad[f.Index] += diff * f.Value
		}
		grad[o.dim] += diff
	}
}

// Fit minimises the regularized log-loss with L-BFGS, capped at
// Options.Iterations major iterations.
func (l *Logistic) Fit(x []Vector, y []int, dim int) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("fit logistic: %d samples, %d labels", len(x), len(y))
	}

	obj := newObjective(x, y, l.sampleWeights(y), l.Options.C, dim)
	problem := optimize.Problem{Func: obj.loss, Grad: obj.gradient}
	settings := &optimize.Settings{
		GradientThreshold: gradientTolerance,
		MajorIterations:   l.Options.Iterations,
	}

	result, err := optimize.Minimize(problem, make([]float64, dim+1), settings, &optimize.LBFGS{})
	if result == nil || len(result.X) != dim+1 {
		return fmt.Errorf("fit logistic: %w", errors.Join(errors.New("no solution"), err))
	}
	// the loss is strongly convex, so a line search that stalls near the
	// optimum still leaves a usable point
	if err != nil && math.IsNaN(result.F) {
		return fmt.Errorf("fit logistic: %w", err)
	}

	l.Weights = append([]float64(nil), result.X[:dim]...)
	l.Bias = result.X[dim]
	return nil
}

// Probability returns P(class 1 | row).
func (l *Logistic) Probability(row Vector) float64 {
	return sigmoid(l.margin(row))
}

func (l *Logistic) margin(row Vector) float64 {
	z := l.Bias
	for _, f := range row {
		if f.Index < len(l.Weights) {
			z += l.Weights[f.Index] * f.Value
		}
	}
	return z
}

func (l *Logistic) sampleWeights(y []int) []float64 {
	weights := make([]float64, len(y))
	for i := range weights {
		weights[i] = 1
	}
	if !l.Options.BalanceLabels {
		return weights
	}

	var counts [2]float64
	for _, label := range y {
		counts[label]++
	}
	n := float64(len(y))
	for i, label := range y {
		weights[i] = n / (2 * counts[label])
	}
	return weights
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus is log(1+e^z) without overflow.
func softplus(z float64) float64 {
	return math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z)))
}
