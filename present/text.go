package present

import (
	"github.com/RyanBlaney/sonido-tuner/algorithms/temporal"
	"github.com/RyanBlaney/sonido-tuner/logging"
	"github.com/RyanBlaney/sonido-tuner/tuner"
)

// LogPresenter reports tuning events as structured log lines. Target
// changes, locks and condition changes are logged at info level; every
// other tick at debug.
type LogPresenter struct {
	logger logging.Logger

	lastTarget string
	lastCond   temporal.Condition
	seen       bool
}

// NewLogPresenter logs through logger, or the global logger when nil
func NewLogPresenter(logger logging.Logger) *LogPresenter {
	if logger == nil {
		logger = logging.WithFields(logging.Fields{"component": "tuner"})
	}
	return &LogPresenter{logger: logger}
}

// Present logs out
func (p *LogPresenter) Present(out tuner.Output) {
	fields := logging.Fields{
		"tick":      out.Tick,
		"frequency": out.Frequency,
		"phase":     out.Phase.String(),
	}

	target := ""
	if out.HasNote {
		target = out.Target.String()
		fields["target"] = target
		fields["cents"] = out.DisplayCents
		fields["closeness"] = out.Closeness
	}

	switch {
	case out.JustLocked:
		p.logger.Info("In tune", fields)
	case !p.seen || out.Condition != p.lastCond:
		fields["condition"] = out.Condition.String()
		p.logger.Info("Signal changed", fields)
	case target != p.lastTarget && target != "":
		p.logger.Info("Tracking target", fields)
	case out.NoTarget:
		p.logger.Debug("No target for stable note", fields)
	default:
		p.logger.Debug("Tick", fields)
	}

	if !out.Skipped {
		p.lastTarget = target
		p.lastCond = out.Condition
		p.seen = true
	}
}
