package brick

import "bricklayers/pkg/gcode"

// Classifier consumes the command stream one line at a time and maintains
// layer index, feature tag, and perimeter depth. Classification depends only
// on the ordered sequence of lines seen, so pre-scan and real-time playback
// of the same stream produce identical states.
//
// Marker handling:
//   - layer boundary: layer index increments, perimeter depth resets,
//     feature tag is left alone
//   - feature type: tag updates; an inner-wall tag seen after the current
//     loop closed increments the depth; an external-wall tag resets it
//   - malformed markers are no-ops, never fatal
//
// A travel move (motion without extrusion) closes the current loop, so the
// next inner-wall marker counts as one loop deeper.
type Classifier struct {
	markers  gcode.MarkerSet
	state    LayerState
	loopOpen bool
}

// NewClassifier returns a classifier for the given marker conventions.
func NewClassifier(markers gcode.MarkerSet) *Classifier {
	return &Classifier{markers: markers}
}

// Reset clears all classification state for a new job.
func (c *Classifier) Reset() {
	c.state = LayerState{}
	c.loopOpen = false
}

// State returns the current classification state.
func (c *Classifier) State() LayerState { return c.state }

// Advance consumes one raw line and returns the updated state. motion
// reports whether the line was a motion command, i.e. whether the caller
// should ask the planner for a decision.
func (c *Classifier) Advance(line string) (state LayerState, motion bool) {
	if marker, err := c.markers.ParseMarker(line); err != nil {
		// Malformed marker: ignore.
		return c.state, false
	} else if marker != nil {
		c.advanceMarker(marker)
		return c.state, false
	}

	cmd, err := gcode.ParseLine(line)
	if err != nil || cmd == nil || !cmd.IsMotion() {
		return c.state, false
	}
	if z, ok, zerr := cmd.Float('Z'); ok && zerr == nil {
		c.state.CurrentZ = z
	}
	if !cmd.Has('E') {
		c.loopOpen = false
	}
	return c.state, true
}

func (c *Classifier) advanceMarker(m *gcode.Marker) {
	switch m.Kind {
	case gcode.MarkerLayerChange:
		c.state.LayerIndex++
		c.state.PerimeterDepth = 0
		c.loopOpen = false
	case gcode.MarkerFeatureType:
		c.state.SawFeatureMarker = true
		c.state.FeatureTag = m.Tag
		if m.Tag == gcode.TagInnerWall {
			if !c.loopOpen {
				c.state.PerimeterDepth++
			}
			c.loopOpen = true
		} else {
			c.loopOpen = false
			if m.Tag == gcode.TagExternalWall {
				c.state.PerimeterDepth = 0
			}
		}
	case gcode.MarkerZHint:
		c.state.CurrentZ = m.Value
	case gcode.MarkerHeightHint:
		c.state.LayerHeight = m.Value
	}
}
