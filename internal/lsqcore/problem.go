/*------------------------------------------------------------------------------
* problem.go : least-squares problem container
*
*          ported from lsq_input_t / lsq.c (original_source/src/math/lsq),
*          row layout changed from C's row-major "design_matrix[row*nu]"
*          flat malloc buffer to a Go slice with the same addressing.
 */
package lsqcore

import "math/rand"

// defaultRand backs every Problem that was never given its own generator.
// It is shared, mutable, process-wide state (spec §5/§9): callers that run
// solvers concurrently on independent problems must either serialize calls
// that touch it (via Trim) or give each Problem its own generator with
// WithRand.
var defaultRand = rand.New(rand.NewSource(1))

// SeedDefault reseeds the package-wide default random stream used by Trim
// when a Problem has no generator of its own. Exists so tests (and callers
// that want reproducible RANSAC runs) can pin the sampling distribution.
func SeedDefault(seed int64) {
	defaultRand = rand.New(rand.NewSource(seed))
}

// Problem is the immutable-from-the-outside input to the solver: a design
// matrix A (row-major, nm x nu within a capacity x nu backing array) and a
// measurement vector b, per spec.md §3.
type Problem struct {
	NUnknowns     int
	NMeasurements int
	Capacity      int
	A             []float64 // len == Capacity*NUnknowns, row r at A[r*NUnknowns:(r+1)*NUnknowns]
	B             []float64 // len == Capacity

	rng *rand.Rand
}

// NewProblem allocates a problem for nu unknowns with room for cap rows.
func NewProblem(nu, cap int) *Problem {
	if nu < 1 || cap < nu {
		panic("lsqcore: invalid problem shape")
	}
	return &Problem{
		NUnknowns: nu,
		Capacity:  cap,
		A:         make([]float64, cap*nu),
		B:         make([]float64, cap),
	}
}

// WithRand installs a per-instance random generator, overriding the shared
// default used by Trim. Returns p for chaining.
func (p *Problem) WithRand(r *rand.Rand) *Problem {
	p.rng = r
	return p
}

func (p *Problem) rand() *rand.Rand {
	if p.rng != nil {
		return p.rng
	}
	return defaultRand
}

// IsValid mirrors lsq_input_is_valid: structural sanity only, never business
// logic. Precondition violations are the caller's bug, per spec §7, so every
// other method panics rather than returning false when this would fail.
func (p *Problem) IsValid() bool {
	if p == nil {
		return false
	}
	if p.NUnknowns < 1 || p.NUnknowns > p.Capacity {
		return false
	}
	if p.NMeasurements < 0 || p.NMeasurements > p.Capacity {
		return false
	}
	if p.Capacity > 0 && (p.A == nil || p.B == nil) {
		return false
	}
	return true
}

// IsReadyForProcessing additionally requires nm >= nu (lsq_input_is_ready_for_processing).
func (p *Problem) IsReadyForProcessing() bool {
	return p.IsValid() && p.NMeasurements >= p.NUnknowns
}

func (p *Problem) assertValid() {
	if !p.IsValid() {
		panic("lsqcore: invalid problem")
	}
}

// Row returns the nu design-matrix entries for measurement i.
func (p *Problem) Row(i int) []float64 {
	p.assertValid()
	if i < 0 || i >= p.NMeasurements {
		panic("lsqcore: row index out of range")
	}
	return p.A[i*p.NUnknowns : (i+1)*p.NUnknowns]
}

// Append adds one measurement row, growing NMeasurements by one.
func (p *Problem) Append(row []float64, value float64) {
	p.assertValid()
	if len(row) != p.NUnknowns {
		panic("lsqcore: row length mismatch")
	}
	if p.NMeasurements >= p.Capacity {
		panic("lsqcore: problem at capacity")
	}
	copy(p.A[p.NMeasurements*p.NUnknowns:], row)
	p.B[p.NMeasurements] = value
	p.NMeasurements++
}

// Swap permutes rows i and j; a no-op when i == j.
func (p *Problem) Swap(i, j int) {
	p.assertValid()
	if i < 0 || i >= p.NMeasurements || j < 0 || j >= p.NMeasurements {
		panic("lsqcore: swap index out of range")
	}
	if i == j {
		return
	}
	nu := p.NUnknowns
	rowI := p.A[i*nu : (i+1)*nu]
	rowJ := p.A[j*nu : (j+1)*nu]
	for k := 0; k < nu; k++ {
		rowI[k], rowJ[k] = rowJ[k], rowI[k]
	}
	p.B[i], p.B[j] = p.B[j], p.B[i]
}

// CopyInto copies src's live rows into dst. dst must share src's unknown
// count and have enough capacity for src's current measurements.
func CopyInto(src, dst *Problem) {
	src.assertValid()
	if dst == nil {
		panic("lsqcore: nil destination problem")
	}
	if dst.NUnknowns != src.NUnknowns {
		panic("lsqcore: unknown-count mismatch on copy")
	}
	if src.NMeasurements > dst.Capacity {
		panic("lsqcore: destination capacity too small")
	}

	nu := src.NUnknowns
	nm := src.NMeasurements
	dst.NMeasurements = nm
	copy(dst.A, src.A[:nm*nu])
	copy(dst.B, src.B[:nm])
}

// Trim fills dst with a uniform random sample of k rows from src, without
// replacement, via Fisher-Yates partial shuffle (spec.md §4.B). The order
// of the remaining nm-k rows after the shuffle is unspecified; only the
// first k rows are guaranteed uniform. Rows are drawn with dst's generator
// if it has one, else with src's (or the shared default).
func Trim(src, dst *Problem, k int) {
	src.assertValid()
	if k < src.NUnknowns || k > src.NMeasurements {
		panic("lsqcore: trim size out of bounds")
	}

	CopyInto(src, dst)
	nm := dst.NMeasurements
	r := dst.rng
	if r == nil {
		r = src.rand()
	}
	for i := 0; i < k; i++ {
		j := i + r.Intn(nm-i)
		dst.Swap(i, j)
	}
	dst.NMeasurements = k
}

// FindResiduals writes residuals[i] = b[i] - A[i]*x for every live row.
func FindResiduals(p *Problem, x, residuals []float64) {
	p.assertValid()
	if len(x) != p.NUnknowns {
		panic("lsqcore: solution length mismatch")
	}
	if len(residuals) < p.NMeasurements {
		panic("lsqcore: residuals buffer too small")
	}
	nu := p.NUnknowns
	for i := 0; i < p.NMeasurements; i++ {
		row := p.A[i*nu : (i+1)*nu]
		sum := 0.0
		for k := 0; k < nu; k++ {
			sum += row[k] * x[k]
		}
		residuals[i] = p.B[i] - sum
	}
}
