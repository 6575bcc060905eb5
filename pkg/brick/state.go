package brick

import "bricklayers/pkg/gcode"

// StreamPosition identifies a command's place in the total ordering of the
// instruction stream. Strictly increasing within one job; never reused.
type StreamPosition int64

// LayerState is the classification state carried across the command stream.
// Mutated only by the Classifier, strictly forward within a job.
type LayerState struct {
	// LayerIndex counts layer boundary markers seen so far.
	LayerIndex int

	// FeatureTag is the canonical tag of the most recent feature marker,
	// or empty before any marker has been seen.
	FeatureTag gcode.FeatureTag

	// PerimeterDepth counts nested inner-wall loops, outside in. Reset on
	// layer boundaries and external-wall markers.
	PerimeterDepth int

	// CurrentZ is the nominal layer Z, tracked from Z hint markers and from
	// Z words on motion commands.
	CurrentZ float64

	// LayerHeight is the slicer-reported layer height, when available.
	LayerHeight float64

	// SawFeatureMarker reports whether any feature-type marker has been
	// observed in this job. Eligibility fails closed without one when
	// markers are required.
	SawFeatureMarker bool
}

// TransformDecision is the planner's verdict for one motion command. The
// zero value is the pass-through decision.
type TransformDecision struct {
	Eligible bool

	// ZDelta is added to a Z word present on the command. Sign follows the
	// brick phase.
	ZDelta float64

	// EMultiplier scales an E word present on the command.
	EMultiplier float64

	// ZTarget, when set, is the absolute Z injected into eligible extrusion
	// moves that carry no Z word (inject_missing_z).
	ZTarget *float64

	// Layer is the layer index the decision was produced at. Informational;
	// reported in scan output and transform logs.
	Layer int
}

// PassThrough is the decision that leaves a command untouched.
var PassThrough = TransformDecision{}
