package gcode

import (
	"bufio"
	"io"
	"sort"
)

// ValidationReport summarizes whether a stream carries the markers the
// engine needs for comment-driven perimeter detection.
type ValidationReport struct {
	LayerChanges int
	FeatureTags  map[string]int // slicer spelling -> occurrences
}

// HasLayerChanges reports whether any layer boundary marker was seen.
func (r *ValidationReport) HasLayerChanges() bool { return r.LayerChanges > 0 }

// HasFeatureTags reports whether any feature-type marker was seen.
func (r *ValidationReport) HasFeatureTags() bool { return len(r.FeatureTags) > 0 }

// HasInnerWalls reports whether any tag canonicalizes to inner-wall.
func (r *ValidationReport) HasInnerWalls() bool {
	for raw := range r.FeatureTags {
		if CanonicalTag(raw) == TagInnerWall {
			return true
		}
	}
	return false
}

// Compatible reports whether the stream can drive the transformation.
func (r *ValidationReport) Compatible() bool {
	return r.HasLayerChanges() && r.HasFeatureTags()
}

// TagNames returns the observed tag spellings, sorted.
func (r *ValidationReport) TagNames() []string {
	names := make([]string, 0, len(r.FeatureTags))
	for n := range r.FeatureTags {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ValidateStream scans a G-code stream and reports marker coverage.
func ValidateStream(r io.Reader, markers MarkerSet) (*ValidationReport, error) {
	report := &ValidationReport{FeatureTags: make(map[string]int)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)
	for scanner.Scan() {
		m, err := markers.ParseMarker(scanner.Text())
		if err != nil || m == nil {
			continue
		}
		switch m.Kind {
		case MarkerLayerChange:
			report.LayerChanges++
		case MarkerFeatureType:
			report.FeatureTags[m.RawTag]++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return report, nil
}
