package robust

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/ezoic/oddvibe/pkg/errors"
)

// Default cutoffs, each giving 95% efficiency under Gaussian noise.
const (
	CauchyCutoff = 2.3849
	WelschCutoff = 2.9846
	TukeyCutoff  = 4.685
	HuberCutoff  = 1.345
)

// Policy maps standardized residuals to row weights.
//
// The weight function b(u) satisfies b(0) = 1, is non-increasing in |u| and
// tends to 0 as |u| grows, so a row's weight never rises as its residual
// moves further from the center.
type Policy struct {
	Name   string
	Cutoff float64
	fn     func(u, c float64) float64
}

// Cauchy returns the default policy, b(u) = 1 / (1 + (u/c)²). Its weights
// are never exactly zero.
func Cauchy() Policy {
	return Policy{Name: "cauchy", Cutoff: CauchyCutoff, fn: cauchy}
}

// Welsch returns the Gaussian-kernel policy, b(u) = exp(-(u/c)²/2).
func Welsch() Policy {
	return Policy{Name: "welsch", Cutoff: WelschCutoff, fn: welsch}
}

// Tukey returns the biweight policy, b(u) = (1 - (u/c)²)² inside the cutoff
// and 0 outside.
func Tukey() Policy {
	return Policy{Name: "tukey", Cutoff: TukeyCutoff, fn: tukey}
}

// Huber returns the Huber policy, b(u) = min(1, c/|u|).
func Huber() Policy {
	return Policy{Name: "huber", Cutoff: HuberCutoff, fn: huber}
}

// PolicyNames lists the names accepted by NewPolicy.
func PolicyNames() []string {
	return []string{"cauchy", "welsch", "tukey", "huber"}
}

// NewPolicy returns the named policy. A cutoff of zero keeps the policy's
// default.
func NewPolicy(name string, cutoff float64) (Policy, error) {
	var p Policy
	switch strings.ToLower(name) {
	case "", "cauchy":
		p = Cauchy()
	case "welsch":
		p = Welsch()
	case "tukey":
		p = Tukey()
	case "huber":
		p = Huber()
	default:
		return Policy{}, errors.NewValueError("robust.NewPolicy",
			fmt.Sprintf("unknown policy %q, want one of %s", name, strings.Join(PolicyNames(), ", ")))
	}
	if cutoff != 0 {
		p.Cutoff = cutoff
	}
	return p, p.Validate()
}

// Validate checks that the policy is usable.
func (p Policy) Validate() error {
	if p.fn == nil {
		return errors.NewValueError("Policy.Validate", "policy has no weight function")
	}
	if !(p.Cutoff > 0) || math.IsInf(p.Cutoff, 0) {
		return errors.NewValueError("Policy.Validate",
			fmt.Sprintf("cutoff must be positive and finite, got %v", p.Cutoff))
	}
	return nil
}

// Weight returns b(u).
func (p Policy) Weight(u float64) float64 {
	return p.fn(u, p.Cutoff)
}

// Reweight sets weights[i] proportional to b((residual[i]-center)/scale),
// normalized to sum to 1. It reports whether weights were written.
//
// A zero or non-finite scale means every row is maximally inlying, so the
// weights become uniform. If the raw weights do not sum to a positive finite
// value the previous weights are kept.
func (p Policy) Reweight(residual []float64, center, scale float64, weights []float64) bool {
	n := len(weights)
	if !(scale > 0) || math.IsInf(scale, 0) {
		u := 1.0 / float64(n)
		for i := range weights {
			weights[i] = u
		}
		return true
	}

	sum := 0.0
	for _, r := range residual {
		sum += p.fn((r-center)/scale, p.Cutoff)
	}
	if !(sum > 0) || math.IsInf(sum, 0) {
		return false
	}

	for i, r := range residual {
		weights[i] = p.fn((r-center)/scale, p.Cutoff) / sum
	}
	// One correction pass keeps the sum at 1 within rounding.
	if total := floats.SumCompensated(weights); total > 0 {
		floats.Scale(1/total, weights)
	}
	return true
}

func (p Policy) String() string {
	return fmt.Sprintf("%s(c=%g)", p.Name, p.Cutoff)
}

func cauchy(u, c float64) float64 {
	v := u / c
	return 1 / (1 + v*v)
}

func welsch(u, c float64) float64 {
	v := u / c
	return math.Exp(-v * v / 2)
}

func tukey(u, c float64) float64 {
	if math.Abs(u) >= c {
		return 0
	}
	v := u / c
	w := 1 - v*v
	return w * w
}

func huber(u, c float64) float64 {
	a := math.Abs(u)
	if a <= c {
		return 1
	}
	return c / a
}
