package gcode

import (
	"strconv"
	"strings"

	"bricklayers/pkg/errors"
)

// FeatureTag is the canonical vocabulary for slicer feature-type markers.
type FeatureTag string

const (
	TagInnerWall    FeatureTag = "inner-wall"
	TagExternalWall FeatureTag = "external-wall"
	TagInfill       FeatureTag = "infill"
	TagSkirt        FeatureTag = "skirt"
	TagUnknown      FeatureTag = "unknown"
)

// MarkerKind classifies a recognized comment marker.
type MarkerKind int

const (
	MarkerLayerChange MarkerKind = iota
	MarkerFeatureType
	MarkerZHint
	MarkerHeightHint
)

// Marker is one recognized slicer comment.
type Marker struct {
	Kind MarkerKind

	// Tag and RawTag are set for feature-type markers; RawTag keeps the
	// slicer's original spelling.
	Tag    FeatureTag
	RawTag string

	// Value is set for Z and height hint markers.
	Value float64
}

// MarkerSet holds the lexical marker conventions of one upstream slicer.
// Different slicers emit different marker syntax, so none of this is
// hardcoded in the classifier.
type MarkerSet struct {
	LayerChange string // substring marking a layer boundary
	FeatureType string // prefix introducing a feature-type tag
	ZHint       string // prefix carrying the nominal layer Z
	HeightHint  string // prefix carrying the layer height
}

// DefaultMarkerSet returns the PrusaSlicer/OrcaSlicer conventions.
func DefaultMarkerSet() MarkerSet {
	return MarkerSet{
		LayerChange: ";LAYER_CHANGE",
		FeatureType: ";TYPE:",
		ZHint:       ";Z:",
		HeightHint:  ";HEIGHT:",
	}
}

// ParseMarker classifies a comment line against the marker set. Returns
// (nil, nil) for non-comment lines and unrecognized comments. A recognized
// marker with a malformed payload yields a MARKER_PARSE error; callers
// treat those as no-ops.
func (m MarkerSet) ParseMarker(line string) (*Marker, error) {
	ln := strings.TrimSpace(line)
	if !strings.HasPrefix(ln, ";") {
		return nil, nil
	}
	if m.LayerChange != "" && strings.Contains(ln, m.LayerChange) {
		return &Marker{Kind: MarkerLayerChange}, nil
	}
	if m.FeatureType != "" {
		if idx := strings.Index(ln, m.FeatureType); idx >= 0 {
			raw := strings.TrimSpace(ln[idx+len(m.FeatureType):])
			if raw == "" {
				return nil, errors.MarkerParseError(line, "empty feature tag")
			}
			return &Marker{Kind: MarkerFeatureType, Tag: CanonicalTag(raw), RawTag: raw}, nil
		}
	}
	if m.ZHint != "" && strings.HasPrefix(ln, m.ZHint) {
		v, err := strconv.ParseFloat(strings.TrimSpace(ln[len(m.ZHint):]), 64)
		if err != nil {
			return nil, errors.MarkerParseError(line, "bad Z value")
		}
		return &Marker{Kind: MarkerZHint, Value: v}, nil
	}
	if m.HeightHint != "" && strings.HasPrefix(ln, m.HeightHint) {
		v, err := strconv.ParseFloat(strings.TrimSpace(ln[len(m.HeightHint):]), 64)
		if err != nil {
			return nil, errors.MarkerParseError(line, "bad height value")
		}
		return &Marker{Kind: MarkerHeightHint, Value: v}, nil
	}
	return nil, nil
}

// CanonicalTag maps a slicer's free-text feature tag onto the controlled
// vocabulary. Matching is substring-based because slicers vary the spelling
// ("Inner wall", "Inner wall 2", "WALL-INNER", "Perimeter", ...).
func CanonicalTag(raw string) FeatureTag {
	t := strings.ToLower(raw)
	switch {
	case strings.Contains(t, "external") || strings.Contains(t, "outer"):
		return TagExternalWall
	case strings.Contains(t, "inner"):
		return TagInnerWall
	// PrusaSlicer's bare "Perimeter" is an inner loop; external loops are
	// tagged "External perimeter" and matched above.
	case t == "perimeter":
		return TagInnerWall
	case strings.Contains(t, "infill") || strings.Contains(t, "fill"):
		return TagInfill
	case strings.Contains(t, "skirt") || strings.Contains(t, "brim"):
		return TagSkirt
	}
	return TagUnknown
}
