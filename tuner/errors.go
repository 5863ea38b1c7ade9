package tuner

import "errors"

// Sentinel errors
var (
	ErrEstimatorUnavailable = errors.New("pitch estimator unavailable")
	ErrSourceUnavailable    = errors.New("audio source unavailable")
	ErrSessionRunning       = errors.New("session already running")
)
