package brick

// Planner decides, per motion command, whether a transform applies and with
// what Z delta and extrusion factor. Its only internal state is the brick
// phase bit and the bookkeeping needed to flip it once per eligible layer.
type Planner struct {
	// phase selects the Z offset sign: true is +, false is -. Starts
	// positive; flips on the first eligible command of a new layer so
	// consecutive eligible layers interlock. Layers with no eligible moves
	// do not desynchronize the alternation.
	phase bool

	// lastEligibleLayer is the layer index of the most recent eligible
	// decision, -1 before any.
	lastEligibleLayer int
}

// NewPlanner returns a planner in the start-of-job state.
func NewPlanner() *Planner {
	return &Planner{phase: true, lastEligibleLayer: -1}
}

// Reset returns the planner to the start-of-job state.
func (p *Planner) Reset() {
	p.phase = true
	p.lastEligibleLayer = -1
}

// Phase returns the current brick phase bit.
func (p *Planner) Phase() bool { return p.phase }

// Plan computes the decision for the next motion command given the current
// classification state. Pure except for the phase bit.
func (p *Planner) Plan(state LayerState, cfg *Config) TransformDecision {
	if cfg.RequireFeatureMarkers && !state.SawFeatureMarker {
		// No feature markers observed yet: fail closed rather than guess.
		return PassThrough
	}

	eligible := cfg.Enabled &&
		state.LayerIndex >= cfg.StartLayer &&
		state.PerimeterDepth > 0 &&
		(!cfg.RequireFeatureMarkers || cfg.EligibleTags[state.FeatureTag])
	if !eligible {
		return PassThrough
	}

	if p.lastEligibleLayer >= 0 && state.LayerIndex > p.lastEligibleLayer {
		p.phase = !p.phase
	}
	p.lastEligibleLayer = state.LayerIndex

	delta := cfg.ZOffset
	if !p.phase {
		delta = -delta
	}
	d := TransformDecision{
		Eligible:    true,
		ZDelta:      delta,
		EMultiplier: cfg.ExtrusionMultiplier,
		Layer:       state.LayerIndex,
	}
	if cfg.InjectMissingZ {
		zt := state.CurrentZ + delta
		d.ZTarget = &zt
	}
	return d
}
