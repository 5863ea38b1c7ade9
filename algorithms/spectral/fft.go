package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/RyanBlaney/sonido-tuner/algorithms/common"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct {
	// No state needed for now
}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the Fast Fourier Transform of a real signal using mjibson/go-dsp
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// mjibson/go-dsp handles all sizes, including non-power-of-2
	return fft.FFTReal(x)
}

// ComputeInverse computes inverse FFT
func (f *FFT) ComputeInverse(x []complex128) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	return fft.IFFT(x)
}

// ComputeInverseReal computes inverse FFT and returns real part only
func (f *FFT) ComputeInverseReal(x []complex128) []float64 {
	result := f.ComputeInverse(x)
	realResult := make([]float64, len(result))

	for i, val := range result {
		realResult[i] = real(val)
	}

	return realResult
}

// CrossCorrelate returns c[lag] = sum_j a[j]*b[j+lag] for lag in [0, maxLag).
// Both inputs are zero padded to a power of two long enough that the circular
// correlation does not wrap.
func (f *FFT) CrossCorrelate(a, b []float64, maxLag int) []float64 {
	if len(a) == 0 || len(b) == 0 || maxLag <= 0 {
		return []float64{}
	}

	size := common.NextPowerOfTwo(len(a) + len(b))
	padA := make([]float64, size)
	padB := make([]float64, size)
	copy(padA, a)
	copy(padB, b)

	specA := f.Compute(padA)
	specB := f.Compute(padB)

	product := make([]complex128, size)
	for i := range product {
		product[i] = cmplx.Conj(specA[i]) * specB[i]
	}

	corr := f.ComputeInverseReal(product)
	if maxLag > len(corr) {
		maxLag = len(corr)
	}
	return corr[:maxLag]
}
