package tonal

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-tuner/algorithms/common"
	"github.com/RyanBlaney/sonido-tuner/algorithms/spectral"
)

// PitchDetectionMethod selects how the YIN difference function is computed
type PitchDetectionMethod int

const (
	// AutocorrelationYin computes the difference function directly, O(n^2)
	AutocorrelationYin PitchDetectionMethod = iota
	// HybridYinFFT computes the difference function through an FFT cross-correlation
	HybridYinFFT
)

// PitchDetectionResult contains the outcome of analyzing one frame
type PitchDetectionResult struct {
	Pitch      float64 `json:"pitch"`      // Best pitch estimate (Hz), 0 when unvoiced
	Confidence float64 `json:"confidence"` // 1 - cmndf at the chosen lag
	Period     float64 `json:"period"`     // Interpolated period in samples
	Voiced     bool    `json:"voiced"`
	LevelDB    float64 `json:"level_db"` // Frame RMS level in dBFS

	Method     PitchDetectionMethod `json:"method"`
	SampleRate int                  `json:"sample_rate"`
	WindowSize int                  `json:"window_size"`
}

// PitchDetectionParams contains parameters for pitch detection
type PitchDetectionParams struct {
	Method     PitchDetectionMethod `json:"method"`
	SampleRate int                  `json:"sample_rate"`

	// Frequency range constraints
	MinFreq float64 `json:"min_freq"` // Minimum frequency (Hz)
	MaxFreq float64 `json:"max_freq"` // Maximum frequency (Hz)

	YinThreshold float64 `json:"yin_threshold"` // YIN threshold (0.1-0.5)

	// Frames quieter than this are reported as unvoiced without analysis
	SilenceThresholdDB float64 `json:"silence_threshold_db"`
}

// PitchDetector estimates the fundamental frequency of monophonic audio frames.
//
// References:
// - de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental frequency estimator for speech and music"
// - Brossier, P. (2006). "Automatic annotation of musical audio for interactive applications" (yinfft)
//
// The detector keeps no state between frames, so one instance may be shared by
// successive buffers of a stream but not by concurrent callers.
type PitchDetector struct {
	params PitchDetectionParams
	fft    *spectral.FFT
}

// DefaultPitchDetectionParams returns parameters suited to guitar and voice
func DefaultPitchDetectionParams(sampleRate int) PitchDetectionParams {
	return PitchDetectionParams{
		Method:             HybridYinFFT,
		SampleRate:         sampleRate,
		MinFreq:            30.0,
		MaxFreq:            1500.0,
		YinThreshold:       0.15,
		SilenceThresholdDB: -60.0,
	}
}

// NewPitchDetectorWithParams creates a pitch detector with custom parameters
func NewPitchDetectorWithParams(params PitchDetectionParams) *PitchDetector {
	return &PitchDetector{
		params: params,
		fft:    spectral.NewFFT(),
	}
}

// Params returns the detector parameters
func (pd *PitchDetector) Params() PitchDetectionParams {
	return pd.params
}

// Estimate returns the detected frequency in Hz, or 0 when the frame is
// silent, unvoiced or too short to analyze.
func (pd *PitchDetector) Estimate(frame []float64) float64 {
	result, err := pd.DetectPitch(frame)
	if err != nil || !result.Voiced {
		return 0
	}
	return result.Pitch
}

// DetectPitch detects pitch in a single audio frame
func (pd *PitchDetector) DetectPitch(audioFrame []float64) (*PitchDetectionResult, error) {
	if pd.params.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", pd.params.SampleRate)
	}

	n := len(audioFrame)
	result := &PitchDetectionResult{
		Method:     pd.params.Method,
		SampleRate: pd.params.SampleRate,
		WindowSize: n,
		LevelDB:    common.AmplitudeToDB(common.RMS(audioFrame)),
	}

	if result.LevelDB < pd.params.SilenceThresholdDB {
		return result, nil
	}

	tauMin, tauMax := pd.lagRange(n)
	if tauMin >= tauMax {
		return nil, fmt.Errorf("audio frame of %d samples is too short for %.1f Hz", n, pd.params.MinFreq)
	}

	var diff []float64
	switch pd.params.Method {
	case AutocorrelationYin:
		diff = pd.differenceDirect(audioFrame, tauMax+1)
	case HybridYinFFT:
		diff = pd.differenceFFT(audioFrame, tauMax+1)
	default:
		return nil, fmt.Errorf("unsupported pitch detection method: %d", pd.params.Method)
	}

	cmndf := cumulativeMeanNormalized(diff)

	tau := pd.absoluteThreshold(cmndf, tauMin, tauMax)
	if tau < 0 {
		return result, nil
	}

	period := parabolicInterpolation(cmndf, tau)
	frequency := float64(pd.params.SampleRate) / period
	if frequency < pd.params.MinFreq || frequency > pd.params.MaxFreq {
		return result, nil
	}

	result.Pitch = frequency
	result.Period = period
	result.Confidence = common.Clamp(1.0-cmndf[tau], 0, 1)
	result.Voiced = true
	return result, nil
}

// lagRange converts the frequency limits to a lag interval within the
// first half of the frame.
func (pd *PitchDetector) lagRange(n int) (int, int) {
	sr := float64(pd.params.SampleRate)
	halfN := n / 2

	tauMin := 2
	if pd.params.MaxFreq > 0 {
		tauMin = max(tauMin, int(math.Floor(sr/pd.params.MaxFreq)))
	}

	tauMax := halfN - 2
	if pd.params.MinFreq > 0 {
		tauMax = min(tauMax, int(math.Ceil(sr/pd.params.MinFreq))+1)
	}
	return tauMin, tauMax
}

// differenceDirect computes d(tau) = sum_{j<W} (x[j] - x[j+tau])^2 with W = n/2
func (pd *PitchDetector) differenceDirect(x []float64, lags int) []float64 {
	w := len(x) / 2
	diff := make([]float64, lags)
	for tau := range lags {
		sum := 0.0
		for j := range w {
			delta := x[j] - x[j+tau]
			sum += delta * delta
		}
		diff[tau] = sum
	}
	return diff
}

// differenceFFT computes the same function as differenceDirect by expanding
// the square into two energy terms and a cross-correlation.
func (pd *PitchDetector) differenceFFT(x []float64, lags int) []float64 {
	w := len(x) / 2
	corr := pd.fft.CrossCorrelate(x[:w], x, lags)

	// energy of the sliding window x[tau : tau+W]
	energy := 0.0
	for j := range w {
		energy += x[j] * x[j]
	}
	m0 := energy

	diff := make([]float64, lags)
	for tau := range lags {
		if tau > 0 {
			energy += x[tau+w-1]*x[tau+w-1] - x[tau-1]*x[tau-1]
		}
		d := m0 + energy - 2*corr[tau]
		if d < 0 {
			d = 0
		}
		diff[tau] = d
	}
	return diff
}

func cumulativeMeanNormalized(diff []float64) []float64 {
	cmndf := make([]float64, len(diff))
	if len(diff) == 0 {
		return cmndf
	}
	cmndf[0] = 1.0

	runningSum := 0.0
	for tau := 1; tau < len(diff); tau++ {
		runningSum += diff[tau]
		if runningSum == 0 {
			cmndf[tau] = 1.0
			continue
		}
		cmndf[tau] = diff[tau] * float64(tau) / runningSum
	}
	return cmndf
}

// absoluteThreshold returns the first lag whose cmndf dips below the threshold,
// followed down to the bottom of that dip. Returns -1 when there is none.
func (pd *PitchDetector) absoluteThreshold(cmndf []float64, tauMin, tauMax int) int {
	for tau := tauMin; tau < tauMax; tau++ {
		if cmndf[tau] >= pd.params.YinThreshold {
			continue
		}
		for tau+1 < tauMax && cmndf[tau+1] < cmndf[tau] {
			tau++
		}
		return tau
	}
	return -1
}

// parabolicInterpolation refines a minimum location to sub-sample accuracy
func parabolicInterpolation(data []float64, idx int) float64 {
	if idx <= 0 || idx >= len(data)-1 {
		return float64(idx)
	}

	y1 := data[idx-1]
	y2 := data[idx]
	y3 := data[idx+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2

	if a == 0 {
		return float64(idx)
	}

	return float64(idx) - b/(2*a)
}

// GetPitchDetectionMethodName returns the name of the detection method
func GetPitchDetectionMethodName(method PitchDetectionMethod) string {
	switch method {
	case AutocorrelationYin:
		return "YIN (Autocorrelation)"
	case HybridYinFFT:
		return "YIN-FFT Hybrid"
	default:
		return "Unknown"
	}
}
