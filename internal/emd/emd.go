// Package emd computes the exact earth-mover's distance between two discrete
// probability distributions under a pairwise ground-cost matrix.
//
// The distance is the optimum of the transportation linear program: minimize
// sum(cost[i][j] * flow[i][j]) subject to flow row sums matching the first
// distribution, column sums matching the second, and nonnegative flow. The LP
// is restricted to the support of each distribution and solved with gonum's
// simplex method.
package emd

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

var (
	// ErrEmptySupport is returned when a distribution has no positive mass.
	ErrEmptySupport = errors.New("distribution has empty support")
	// ErrMassMismatch is returned when the two distributions do not carry
	// equal total mass.
	ErrMassMismatch = errors.New("distributions have unequal total mass")
	// ErrDimensionMismatch is returned when the cost matrix does not match
	// the distribution lengths.
	ErrDimensionMismatch = errors.New("cost matrix does not match distributions")
)

const massTol = 1e-9

// Distance returns the minimum-cost transport between distributions p and q
// under cost, where cost.At(i, j) is the price of moving one unit of mass
// from p's bin i to q's bin j.
func Distance(p, q []float64, cost *mat.Dense) (float64, error) {
	r, c := cost.Dims()
	if r != len(p) || c != len(q) {
		return 0, fmt.Errorf("%w: cost is %dx%d, distributions are %d and %d",
			ErrDimensionMismatch, r, c, len(p), len(q))
	}

	supP := support(p)
	supQ := support(q)
	if len(supP) == 0 || len(supQ) == 0 {
		return 0, ErrEmptySupport
	}
	if math.Abs(sum(p)-sum(q)) > massTol {
		return 0, fmt.Errorf("%w: %g vs %g", ErrMassMismatch, sum(p), sum(q))
	}

	n1, n2 := len(supP), len(supQ)

	// One variable per (supply, demand) pair.
	obj := make([]float64, n1*n2)
	for i, pi := range supP {
		for j, qj := range supQ {
			obj[i*n2+j] = cost.At(pi, qj)
		}
	}

	// Equality constraints: each supply bin ships exactly its mass, each
	// demand bin receives exactly its mass. The final demand constraint is
	// implied by the others (total mass is equal) and dropping it keeps the
	// constraint matrix full rank for the simplex solver.
	rows := n1 + n2 - 1
	a := mat.NewDense(rows, n1*n2, nil)
	b := make([]float64, rows)
	for i, pi := range supP {
		for j := 0; j < n2; j++ {
			a.Set(i, i*n2+j, 1)
		}
		b[i] = p[pi]
	}
	for j := 0; j < n2-1; j++ {
		for i := 0; i < n1; i++ {
			a.Set(n1+j, i*n2+j, 1)
		}
		b[n1+j] = q[supQ[j]]
	}

	opt, _, err := lp.Simplex(obj, a, b, 1e-10, nil)
	if err != nil {
		return 0, fmt.Errorf("solving transport program: %w", err)
	}
	return opt, nil
}

func support(d []float64) []int {
	var idx []int
	for i, v := range d {
		if v > 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

func sum(d []float64) float64 {
	var s float64
	for _, v := range d {
		s += v
	}
	return s
}
