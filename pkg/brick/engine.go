// Brick layers transformation engine.
//
// The engine sits on the command path between the stream source and the
// motion executor. For each line it either passes the raw text through
// byte-for-byte (the dominant path) or substitutes a corrected motion
// command with an offset Z and scaled extrusion. Classification state is
// stream-order dependent, so a single goroutine must drive Intercept; the
// control surface may be called concurrently from any goroutine.

package brick

import (
	"io"
	"sync"
	"sync/atomic"

	"bricklayers/pkg/gcode"
	"bricklayers/pkg/log"
	"bricklayers/pkg/metrics"
)

// StageName is the engine's name in the host transform chain.
const StageName = "brick_layers"

// StreamSource gives the engine read access to the full command stream of
// the active job, for pre-scanning.
type StreamSource interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// Engine is the move interceptor plus its control surface.
type Engine struct {
	log *log.Logger

	// cfg is the configuration snapshot read by the real-time path. The
	// control surface replaces the whole pointer; Intercept loads it once
	// per command, so a disable is observed before the next command.
	cfg atomic.Pointer[Config]

	// mu guards the per-job state below. The real-time path holds it for
	// the duration of one Intercept call.
	mu         sync.Mutex
	classifier *Classifier
	planner    *Planner
	table      *PreScanTable
	lastPos    StreamPosition
	latched    bool
	layer      int
	jobID      uint64
	jobActive  bool
	jobName    string
	source     StreamSource

	movesTotal       atomic.Int64
	movesTransformed atomic.Int64

	m *engineMetrics
}

type engineMetrics struct {
	movesTotal       *metrics.Counter
	movesTransformed *metrics.Counter
	currentLayer     *metrics.Gauge
	enabled          *metrics.Gauge
}

// NewEngine creates an engine with the given configuration. logger and reg
// may be nil.
func NewEngine(cfg *Config, logger *log.Logger, reg *metrics.Registry) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = log.GetLogger(StageName)
	}
	e := &Engine{
		log:        logger,
		classifier: NewClassifier(cfg.Markers),
		planner:    NewPlanner(),
		lastPos:    -1,
	}
	e.cfg.Store(cfg)
	if reg != nil {
		e.m = &engineMetrics{
			movesTotal: reg.Counter("bricklayers_moves_total",
				"Motion commands seen by the interceptor"),
			movesTransformed: reg.Counter("bricklayers_moves_transformed_total",
				"Motion commands rewritten with a brick offset"),
			currentLayer: reg.Gauge("bricklayers_current_layer",
				"Layer index at the intercept position"),
			enabled: reg.Gauge("bricklayers_enabled",
				"Whether transformation is enabled (1) or not (0)"),
		}
		if cfg.Enabled {
			e.m.enabled.Set(1)
		}
	}
	e.log.Info("engine initialized: z_offset=%s multiplier=%s start_layer=%d",
		gcode.FormatFloat(cfg.ZOffset), gcode.FormatFloat(cfg.ExtrusionMultiplier), cfg.StartLayer)
	return e
}

// Name returns the engine's transform stage name.
func (e *Engine) Name() string { return StageName }

// Transform is the transform-chain contract: one line in, one line out.
func (e *Engine) Transform(line string, pos StreamPosition) string {
	return e.Intercept(line, pos)
}

// Intercept consumes one line at the given stream position and returns the
// line to emit downstream. Ineligible lines are returned unchanged, same
// backing bytes. Never performs I/O.
func (e *Engine) Intercept(line string, pos StreamPosition) string {
	cfg := e.cfg.Load()
	motion := isMotionLine(line)
	if motion {
		e.movesTotal.Add(1)
		if e.m != nil {
			e.m.movesTotal.Inc()
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if pos <= e.lastPos {
		if !e.latched {
			e.latched = true
			e.log.WithFields(log.Fields{"pos": pos, "last": e.lastPos}).
				Error("stream position regressed; transformation disabled for this job")
		}
		return line
	}
	e.lastPos = pos

	// The classifier advances in both modes so layer, Z and height stay
	// current for status reporting.
	state, isMove := e.classifier.Advance(line)
	e.layer = state.LayerIndex

	var decision TransformDecision
	if e.table != nil {
		// Table-driven playback: decisions come verbatim from the pre-scan.
		if d, ok := e.table.Lookup(pos); ok {
			decision = d
		}
	} else if isMove {
		decision = e.planner.Plan(state, cfg)
	}
	if e.m != nil {
		e.m.currentLayer.Set(float64(e.layer))
	}

	if e.latched || !cfg.Enabled || !decision.Eligible || !motion {
		return line
	}

	out, changed := applyDecision(line, decision)
	if changed {
		e.movesTransformed.Add(1)
		if e.m != nil {
			e.m.movesTransformed.Inc()
		}
		e.log.WithFields(log.Fields{"pos": pos, "layer": decision.Layer}).
			Debug("transformed move")
	}
	return out
}

// applyDecision rewrites one motion command per the decision. Words other
// than Z and E pass through verbatim, in their original order. Returns the
// raw line unchanged when there is nothing to transform.
func applyDecision(line string, d TransformDecision) (string, bool) {
	cmd, err := gcode.ParseLine(line)
	if err != nil || cmd == nil || !cmd.IsMotion() {
		return line, false
	}
	changed := false
	if z, ok, zerr := cmd.Float('Z'); ok {
		if zerr != nil {
			return line, false
		}
		cmd.SetFloat('Z', z+d.ZDelta)
		changed = true
	} else if d.ZTarget != nil && cmd.Has('E') {
		cmd.AppendFloat('Z', *d.ZTarget)
		changed = true
	}
	if ev, ok, eerr := cmd.Float('E'); ok {
		if eerr != nil {
			return line, false
		}
		cmd.SetFloat('E', ev*d.EMultiplier)
		changed = true
	}
	if !changed {
		return line, false
	}
	return cmd.Format(), true
}

// isMotionLine is a cheap check for a G0/G1 line, avoiding a full parse on
// the pass-through path.
func isMotionLine(s string) bool {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	if i >= len(s) || (s[i] != 'G' && s[i] != 'g') {
		return false
	}
	i++
	if i >= len(s) || (s[i] != '0' && s[i] != '1') {
		return false
	}
	i++
	return i >= len(s) || s[i] == ' ' || s[i] == '\t' || s[i] == ';' || s[i] == '\r'
}
