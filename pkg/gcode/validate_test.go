package gcode

import (
	"strings"
	"testing"
)

func TestValidateStream(t *testing.T) {
	stream := strings.Join([]string{
		"M104 S210",
		";LAYER_CHANGE",
		";TYPE:External perimeter",
		"G1 X10 E0.1",
		";TYPE:Perimeter",
		"G1 X12 E0.1",
		";LAYER_CHANGE",
		";TYPE:Perimeter",
		"G1 X14 E0.1",
	}, "\n")

	report, err := ValidateStream(strings.NewReader(stream), DefaultMarkerSet())
	if err != nil {
		t.Fatalf("ValidateStream: %v", err)
	}
	if report.LayerChanges != 2 {
		t.Errorf("LayerChanges = %d, want 2", report.LayerChanges)
	}
	if report.FeatureTags["Perimeter"] != 2 {
		t.Errorf("FeatureTags[Perimeter] = %d, want 2", report.FeatureTags["Perimeter"])
	}
	if !report.HasInnerWalls() {
		t.Error("HasInnerWalls() = false, want true")
	}
	if !report.Compatible() {
		t.Error("Compatible() = false, want true")
	}
	names := report.TagNames()
	if len(names) != 2 || names[0] != "External perimeter" || names[1] != "Perimeter" {
		t.Errorf("TagNames() = %v", names)
	}
}

func TestValidateStreamNoMarkers(t *testing.T) {
	stream := "G28\nG1 X10 Y10 E0.5\nG1 X20 Y20 E0.5\n"
	report, err := ValidateStream(strings.NewReader(stream), DefaultMarkerSet())
	if err != nil {
		t.Fatalf("ValidateStream: %v", err)
	}
	if report.Compatible() {
		t.Error("Compatible() = true for markerless stream")
	}
	if report.HasLayerChanges() || report.HasFeatureTags() {
		t.Errorf("unexpected markers found: %+v", report)
	}
}
