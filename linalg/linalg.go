package linalg

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Errors returned by Solver implementations.
var (
	ErrSingular      = errors.New("linalg: singular or rank-deficient system")
	ErrNoConvergence = errors.New("linalg: decomposition did not converge")
	ErrShape         = errors.New("linalg: shape mismatch")
	ErrEmpty         = errors.New("linalg: empty matrix")
)

// SVD holds a thin singular value decomposition A = U * diag(S) * Vᵀ with
// k = min(rows, cols) components, singular values in descending order.
type SVD struct {
	U *mat.Dense // rows x k
	S []float64  // k
	V *mat.Dense // cols x k
}

// Solver is the linear-algebra capability used by the fit and PCA engines.
type Solver interface {
	// SolveLeastSquares returns X minimizing ||A*X - B|| column by column.
	SolveLeastSquares(a, b mat.Matrix) (*mat.Dense, error)
	// SVD returns the thin decomposition of a.
	SVD(a mat.Matrix) (*SVD, error)
	Transpose(a mat.Matrix) *mat.Dense
	Mul(a, b mat.Matrix) *mat.Dense
}

// Dense implements Solver with gonum's QR and SVD routines.
type Dense struct{}

// NewDense returns the gonum-backed solver.
func NewDense() *Dense {
	return &Dense{}
}

// SolveLeastSquares solves A*X = B in the least-squares sense using a QR
// factorization of A. A must have at least as many rows as columns and
// full column rank; otherwise ErrSingular is returned.
func (Dense) SolveLeastSquares(a, b mat.Matrix) (*mat.Dense, error) {
	ar, ac := a.Dims()
	br, _ := b.Dims()
	if ar == 0 || ac == 0 {
		return nil, ErrEmpty
	}
	if ar != br {
		return nil, fmt.Errorf("%w: A has %d rows, B has %d", ErrShape, ar, br)
	}
	if ar < ac {
		return nil, fmt.Errorf("%w: %d equations for %d unknowns", ErrSingular, ar, ac)
	}
	if !finite(a) {
		return nil, fmt.Errorf("%w: non-finite design matrix", ErrSingular)
	}

	var qr mat.QR
	qr.Factorize(a)
	if rankDeficient(&qr, ar, ac) {
		return nil, ErrSingular
	}
	var x mat.Dense
	if err := qr.SolveTo(&x, false, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return &x, nil
}

// SVD computes the thin singular value decomposition of a.
func (Dense) SVD(a mat.Matrix) (*SVD, error) {
	r, c := a.Dims()
	if r == 0 || c == 0 {
		return nil, ErrEmpty
	}
	if !finite(a) {
		return nil, fmt.Errorf("%w: non-finite input", ErrNoConvergence)
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, ErrNoConvergence
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	return &SVD{U: &u, S: svd.Values(nil), V: &v}, nil
}

// Transpose returns a dense copy of aᵀ.
func (Dense) Transpose(a mat.Matrix) *mat.Dense {
	return mat.DenseCopyOf(a.T())
}

// Mul returns a*b.
func (Dense) Mul(a, b mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Mul(a, b)
	return &out
}

// rankDeficient reports whether the diagonal of R has an entry that is
// negligible relative to the largest one.
func rankDeficient(qr *mat.QR, rows, cols int) bool {
	var r mat.Dense
	qr.RTo(&r)
	var largest float64
	for i := 0; i < cols; i++ {
		largest = math.Max(largest, math.Abs(r.At(i, i)))
	}
	if largest == 0 {
		return true
	}
	tol := float64(max(rows, cols)) * largest * 0x1p-52
	for i := 0; i < cols; i++ {
		if math.Abs(r.At(i, i)) <= tol {
			return true
		}
	}
	return false
}

func finite(a mat.Matrix) bool {
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := a.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
