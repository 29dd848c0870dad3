package astro

import (
	"errors"
	"math"
)

var (
	// ErrNoBracket means the scan found no sign change: a valid outcome
	// for conditions that are nowhere satisfied.
	ErrNoBracket = errors.New("astro: no bracket found")

	// ErrMaxIterations means refinement ran out of budget before reaching
	// the precision target.
	ErrMaxIterations = errors.New("astro: iteration budget exhausted")
)

// DefaultMaxIterations bounds a single bisection refinement. Bisection
// halves the interval each step, so 60 iterations resolve any bracket on
// Earth coordinates far below any useful precision target.
const DefaultMaxIterations = 60

// Bracket is an interval with a sign change of the scanned residual.
type Bracket struct {
	Lo, Hi   float64
	FLo, FHi float64
}

// ScanBrackets samples f over [lo, hi] at the given step and collects
// every interval whose endpoints have opposite signs. Samples where f
// returns NaN (condition undefined, e.g. circumpolar latitude) are
// skipped and break bracket continuity. Residuals that wrap around a
// discontinuity (|f(a)-f(b)| >= wrapJump) are rejected: a sign change
// across a wrap is not a root.
func ScanBrackets(f func(float64) float64, lo, hi, step, wrapJump float64) []Bracket {
	var brackets []Bracket

	prevX := math.NaN()
	prevF := math.NaN()
	for x := lo; x <= hi+1e-9; x += step {
		fx := f(x)
		if math.IsNaN(fx) {
			prevX, prevF = math.NaN(), math.NaN()
			continue
		}
		if !math.IsNaN(prevF) {
			if prevF == 0 {
				brackets = append(brackets, Bracket{Lo: prevX, Hi: prevX, FLo: 0, FHi: 0})
			} else if prevF*fx < 0 && math.Abs(fx-prevF) < wrapJump {
				brackets = append(brackets, Bracket{Lo: prevX, Hi: x, FLo: prevF, FHi: fx})
			}
		}
		prevX, prevF = x, fx
	}
	return brackets
}

// Bisect refines a bracket until the interval width is below tolX or the
// iteration budget runs out. Returns the root estimate, the iteration
// count, and ErrMaxIterations when the budget was exhausted before
// reaching tolX. Deterministic: same inputs yield the same root.
func Bisect(f func(float64) float64, b Bracket, tolX float64, maxIter int) (float64, int, error) {
	if b.Lo == b.Hi {
		return b.Lo, 0, nil
	}
	lo, hi := b.Lo, b.Hi
	flo := b.FLo

	for i := 1; i <= maxIter; i++ {
		mid := (lo + hi) / 2
		fmid := f(mid)
		if math.IsNaN(fmid) {
			// Condition became undefined inside the bracket; shrink
			// toward the defined endpoint.
			hi = mid
			if hi-lo < tolX {
				return (lo + hi) / 2, i, nil
			}
			continue
		}
		if fmid == 0 {
			return mid, i, nil
		}
		if flo*fmid < 0 {
			hi = mid
		} else {
			lo = mid
			flo = fmid
		}
		if hi-lo < tolX {
			return (lo + hi) / 2, i, nil
		}
	}
	return (lo + hi) / 2, maxIter, ErrMaxIterations
}

// SolveAll scans for brackets and refines each one. Both phases share a
// single convergence policy so the aspect and paran calculators behave
// identically. Returned roots are ordered by position.
func SolveAll(f func(float64) float64, lo, hi, step, wrapJump, tolX float64, maxIter int) (roots []float64, iters int, err error) {
	brackets := ScanBrackets(f, lo, hi, step, wrapJump)
	if len(brackets) == 0 {
		return nil, 0, ErrNoBracket
	}
	for _, b := range brackets {
		root, n, berr := Bisect(f, b, tolX, maxIter)
		iters += n
		if berr != nil {
			return roots, iters, berr
		}
		roots = append(roots, root)
	}
	return roots, iters, nil
}
