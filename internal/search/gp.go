package search

import (
	"fmt"
	"math"

	"github.com/searchlab/querytuner/pkg/utils"
)

// gaussianProcess is a Gaussian-process regression surrogate over encoded
// candidate vectors, with an RBF kernel and a fixed noise term. It is
// refit from scratch after every new observation; with the observation
// counts involved here (tens to low hundreds) that is cheap.
type gaussianProcess struct {
	x           [][]float64
	yMean       float64
	alpha       []float64
	chol        [][]float64 // lower-triangular Cholesky factor of K + noise*I
	lengthScale float64
	signalVar   float64
	noise       float64
}

// fitGP fits the surrogate to the observed (vector, score) pairs.
// Requires at least two observations.
func fitGP(x [][]float64, y []float64) (*gaussianProcess, error) {
	n := len(x)
	if n < 2 {
		return nil, fmt.Errorf("gaussian process needs at least 2 observations, have %d", n)
	}
	if len(y) != n {
		return nil, fmt.Errorf("observation mismatch: %d vectors, %d scores", n, len(y))
	}

	g := &gaussianProcess{
		x:           x,
		yMean:       utils.Mean(y),
		lengthScale: 0.5 * math.Sqrt(float64(len(x[0]))),
		signalVar:   math.Max(utils.Variance(y), 1e-6),
	}

	centered := make([]float64, n)
	for i, v := range y {
		centered[i] = v - g.yMean
	}

	// Cholesky with escalating jitter: scores from a noisy evaluator can
	// contain near-duplicate rows that make K singular.
	noise := 1e-6 * g.signalVar
	for attempt := 0; attempt < 5; attempt++ {
		k := g.kernelMatrix(noise)
		chol, ok := cholesky(k)
		if ok {
			g.noise = noise
			g.chol = chol
			g.alpha = cholSolve(chol, centered)
			return g, nil
		}
		noise *= 10
	}
	return nil, fmt.Errorf("kernel matrix is not positive definite after jitter escalation")
}

// Predict returns the posterior mean and standard deviation at x
func (g *gaussianProcess) Predict(x []float64) (mu, sigma float64) {
	n := len(g.x)
	k := make([]float64, n)
	for i := range g.x {
		k[i] = g.kernel(x, g.x[i])
	}

	mu = g.yMean
	for i := range k {
		mu += k[i] * g.alpha[i]
	}

	// sigma^2 = k(x,x) - k^T (K + noise I)^-1 k, via v = L^-1 k
	v := forwardSolve(g.chol, k)
	variance := g.signalVar + g.noise
	for i := range v {
		variance -= v[i] * v[i]
	}
	return mu, math.Sqrt(math.Max(variance, 1e-12))
}

func (g *gaussianProcess) kernel(a, b []float64) float64 {
	dist := 0.0
	for i := range a {
		d := a[i] - b[i]
		dist += d * d
	}
	return g.signalVar * math.Exp(-dist/(2*g.lengthScale*g.lengthScale))
}

func (g *gaussianProcess) kernelMatrix(noise float64) [][]float64 {
	n := len(g.x)
	k := make([][]float64, n)
	for i := range k {
		k[i] = make([]float64, n)
		for j := 0; j <= i; j++ {
			v := g.kernel(g.x[i], g.x[j])
			k[i][j] = v
			k[j][i] = v
		}
		k[i][i] += noise
	}
	return k
}

// cholesky computes the lower-triangular factor L with A = L L^T.
// Returns false when A is not positive definite.
func cholesky(a [][]float64) ([][]float64, bool) {
	n := len(a)
	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := a[i][j]
			for k := 0; k < j; k++ {
				sum -= l[i][k] * l[j][k]
			}
			if i == j {
				if sum <= 0 {
					return nil, false
				}
				l[i][i] = math.Sqrt(sum)
			} else {
				l[i][j] = sum / l[j][j]
			}
		}
	}
	return l, true
}

// forwardSolve solves L v = b for lower-triangular L
func forwardSolve(l [][]float64, b []float64) []float64 {
	n := len(b)
	v := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for k := 0; k < i; k++ {
			sum -= l[i][k] * v[k]
		}
		v[i] = sum / l[i][i]
	}
	return v
}

// cholSolve solves (L L^T) x = b
func cholSolve(l [][]float64, b []float64) []float64 {
	n := len(b)
	v := forwardSolve(l, b)
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := v[i]
		for k := i + 1; k < n; k++ {
			sum -= l[k][i] * x[k]
		}
		x[i] = sum / l[i][i]
	}
	return x
}

// expectedImprovement scores a candidate prediction against the best
// observed value, with xi trading exploration against exploitation.
// Scores are maximized.
func expectedImprovement(mu, sigma, best, xi float64) float64 {
	improvement := mu - best - xi
	if sigma < 1e-12 {
		return math.Max(improvement, 0)
	}
	z := improvement / sigma
	return improvement*utils.NormCDF(z) + sigma*utils.NormPDF(z)
}
