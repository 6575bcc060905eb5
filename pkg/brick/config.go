package brick

import (
	"strconv"
	"strings"

	"bricklayers/pkg/config"
	"bricklayers/pkg/errors"
	"bricklayers/pkg/gcode"
)

// SectionName is the config file section consumed by the engine.
const SectionName = "brick_layers"

// Recommended tuning ranges. Values outside these are accepted but logged.
const (
	RecommendedZOffsetMin    = 0.05
	RecommendedZOffsetMax    = 0.2
	RecommendedMultiplierMin = 1.0
	RecommendedMultiplierMax = 1.1
)

// Config holds the engine configuration. Instances are immutable once
// published: the control surface mutates a clone and swaps it in atomically,
// so the real-time path never observes a torn update.
type Config struct {
	Enabled bool

	// ZOffset is the Z offset magnitude in mm; the brick phase picks the sign.
	ZOffset float64

	// ExtrusionMultiplier scales E words on transformed moves. Flat factor;
	// it does not model path-length change induced by the Z offset.
	ExtrusionMultiplier float64

	// StartLayer is the first layer index eligible for transformation.
	StartLayer int

	// RequireFeatureMarkers makes eligibility fail closed when the stream
	// carries no feature-type markers.
	RequireFeatureMarkers bool

	// EligibleTags is the set of canonical feature tags that may be offset.
	EligibleTags map[gcode.FeatureTag]bool

	// InjectMissingZ enables the legacy behavior of writing an absolute
	// brick Z into eligible extrusion moves that carry no Z word.
	InjectMissingZ bool

	// Markers holds the slicer marker conventions for this stream.
	Markers gcode.MarkerSet
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:               false,
		ZOffset:               0.1,
		ExtrusionMultiplier:   1.05,
		StartLayer:            3,
		RequireFeatureMarkers: true,
		EligibleTags:          map[gcode.FeatureTag]bool{gcode.TagInnerWall: true},
		InjectMissingZ:        false,
		Markers:               gcode.DefaultMarkerSet(),
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.EligibleTags = make(map[gcode.FeatureTag]bool, len(c.EligibleTags))
	for k, v := range c.EligibleTags {
		out.EligibleTags[k] = v
	}
	return &out
}

// Validate checks the configuration invariants.
func (c *Config) Validate() error {
	if c.ZOffset <= 0 {
		return errors.ConfigValueError(SectionName, "z_offset",
			"value "+gcode.FormatFloat(c.ZOffset)+" must be above 0")
	}
	if c.ExtrusionMultiplier <= 0 {
		return errors.ConfigValueError(SectionName, "extrusion_multiplier",
			"value "+gcode.FormatFloat(c.ExtrusionMultiplier)+" must be above 0")
	}
	if c.StartLayer < 0 {
		return errors.ConfigValueError(SectionName, "start_layer",
			"value "+strconv.Itoa(c.StartLayer)+" must have minimum of 0")
	}
	if len(c.EligibleTags) == 0 {
		return errors.ConfigValueError(SectionName, "eligible_feature_tags",
			"at least one feature tag required")
	}
	if c.Markers.LayerChange == "" || c.Markers.FeatureType == "" {
		return errors.ConfigValueError(SectionName, "markers",
			"layer change and feature type markers must be set")
	}
	return nil
}

// LoadConfig builds a Config from a [brick_layers] section.
func LoadConfig(sec *config.Section) (*Config, error) {
	c := DefaultConfig()
	var err error
	if c.Enabled, err = sec.GetBoolean("enabled", c.Enabled); err != nil {
		return nil, err
	}
	if c.ZOffset, err = sec.GetFloatAbove("z_offset", 0, c.ZOffset); err != nil {
		return nil, err
	}
	if sec.HasOption("z_offset_magnitude") {
		if c.ZOffset, err = sec.GetFloatAbove("z_offset_magnitude", 0); err != nil {
			return nil, err
		}
	}
	if c.ExtrusionMultiplier, err = sec.GetFloatAbove("extrusion_multiplier", 0, c.ExtrusionMultiplier); err != nil {
		return nil, err
	}
	if c.StartLayer, err = sec.GetIntMin("start_layer", 0, c.StartLayer); err != nil {
		return nil, err
	}
	if c.RequireFeatureMarkers, err = sec.GetBoolean("require_feature_markers", c.RequireFeatureMarkers); err != nil {
		return nil, err
	}
	if c.InjectMissingZ, err = sec.GetBoolean("inject_missing_z", c.InjectMissingZ); err != nil {
		return nil, err
	}
	tags, err := sec.GetList("eligible_feature_tags", []string{string(gcode.TagInnerWall)})
	if err != nil {
		return nil, err
	}
	c.EligibleTags = make(map[gcode.FeatureTag]bool, len(tags))
	for _, t := range tags {
		c.EligibleTags[gcode.FeatureTag(strings.ToLower(t))] = true
	}
	if c.Markers.LayerChange, err = sec.Get("layer_change_marker", c.Markers.LayerChange); err != nil {
		return nil, err
	}
	if c.Markers.FeatureType, err = sec.Get("feature_type_marker", c.Markers.FeatureType); err != nil {
		return nil, err
	}
	if c.Markers.ZHint, err = sec.Get("z_marker", c.Markers.ZHint); err != nil {
		return nil, err
	}
	if c.Markers.HeightHint, err = sec.Get("height_marker", c.Markers.HeightHint); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
