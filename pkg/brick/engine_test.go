package brick

import (
	"context"
	"testing"
)

// printJob is a four layer stream with one inner wall loop per layer.
// Layers 3 and 4 are the first eligible ones under the default start layer.
var printJob = []string{
	"M104 S210",
	"G28",
	";LAYER_CHANGE",
	";Z:0.2",
	";TYPE:Perimeter",
	"G1 X10 Y10 Z0.2 E0.45",
	";LAYER_CHANGE",
	";Z:0.4",
	";TYPE:Perimeter",
	"G1 X10 Y10 Z0.4 E0.45",
	";LAYER_CHANGE",
	";Z:1.3",
	";TYPE:External perimeter",
	"G1 X5 Y5 Z1.3 E0.2",
	";TYPE:Perimeter",
	"G1 X101.327 Y98.1 Z1.3 E0.45",
	";LAYER_CHANGE",
	";Z:1.3",
	";TYPE:Perimeter",
	"G1 X101.327 Y98.1 Z1.3 E0.45",
}

func runEngine(e *Engine, lines []string) []string {
	out := make([]string, len(lines))
	for i, ln := range lines {
		out[i] = e.Intercept(ln, StreamPosition(i+1))
	}
	return out
}

func TestInterceptTransformsEligibleMoves(t *testing.T) {
	e := NewEngine(enabledConfig(), nil, nil)
	out := runEngine(e, printJob)

	// Layer 3, positive phase: Z 1.3 -> 1.4, E 0.45 -> 0.4725.
	if got, want := out[15], "G1 X101.327 Y98.1 Z1.4 E0.4725"; got != want {
		t.Errorf("layer 3 move = %q, want %q", got, want)
	}
	// Layer 4, negative phase: Z 1.3 -> 1.2.
	if got, want := out[19], "G1 X101.327 Y98.1 Z1.2 E0.4725"; got != want {
		t.Errorf("layer 4 move = %q, want %q", got, want)
	}
	// Everything else passes through unchanged.
	for i, ln := range printJob {
		if i == 15 || i == 19 {
			continue
		}
		if out[i] != ln {
			t.Errorf("line %d changed: %q -> %q", i+1, ln, out[i])
		}
	}

	status := e.Status()
	if status["moves_total"].(int64) != 5 {
		t.Errorf("moves_total = %v, want 5", status["moves_total"])
	}
	if status["moves_transformed"].(int64) != 2 {
		t.Errorf("moves_transformed = %v, want 2", status["moves_transformed"])
	}
	if status["current_layer"].(int) != 4 {
		t.Errorf("current_layer = %v, want 4", status["current_layer"])
	}
}

func TestInterceptPassThroughIsVerbatim(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil, nil)
	lines := []string{
		"G1  X10   Y20\tZ0.3 E0.45",
		"g1 x1 e0.1 ; trailing comment",
		"  M117 Hello  ",
		"G1 Zbroken E0.45",
	}
	for i, ln := range lines {
		if out := e.Intercept(ln, StreamPosition(i+1)); out != ln {
			t.Errorf("disabled engine rewrote %q -> %q", ln, out)
		}
	}
}

func TestInterceptDisableTakesEffect(t *testing.T) {
	e := NewEngine(enabledConfig(), nil, nil)
	pre := []string{
		";LAYER_CHANGE", ";LAYER_CHANGE", ";LAYER_CHANGE",
		";TYPE:Perimeter",
	}
	pos := StreamPosition(0)
	for _, ln := range pre {
		pos++
		e.Intercept(ln, pos)
	}

	pos++
	if out := e.Intercept("G1 X1 Y1 Z1.3 E0.45", pos); out == "G1 X1 Y1 Z1.3 E0.45" {
		t.Fatal("eligible move not transformed while enabled")
	}

	e.Disable()
	pos++
	line := "G1 X2 Y2 Z1.3 E0.45"
	if out := e.Intercept(line, pos); out != line {
		t.Errorf("move transformed after Disable: %q", out)
	}
}

func TestInterceptPositionRegressionLatches(t *testing.T) {
	e := NewEngine(enabledConfig(), nil, nil)
	pre := []string{
		";LAYER_CHANGE", ";LAYER_CHANGE", ";LAYER_CHANGE",
		";TYPE:Perimeter",
	}
	for i, ln := range pre {
		e.Intercept(ln, StreamPosition(i+1))
	}

	// Replay position 4: the job latches into pass-through.
	line := "G1 X1 Y1 Z1.3 E0.45"
	if out := e.Intercept(line, 4); out != line {
		t.Errorf("latched engine rewrote %q -> %q", line, out)
	}
	// Later positions stay pass-through for the rest of the job.
	if out := e.Intercept(line, 10); out != line {
		t.Errorf("post-latch move transformed: %q", out)
	}
	if _, ok := e.Status()["warning"]; !ok {
		t.Error("no warning in status after invariant violation")
	}

	// A new job clears the latch.
	e.StartJob("next", nil)
	for i, ln := range pre {
		e.Intercept(ln, StreamPosition(i+1))
	}
	if out := e.Intercept(line, 5); out == line {
		t.Error("eligible move not transformed after new job")
	}
}

func TestInterceptInjectMissingZ(t *testing.T) {
	cfg := enabledConfig()
	cfg.InjectMissingZ = true
	e := NewEngine(cfg, nil, nil)
	pre := []string{
		";LAYER_CHANGE", ";LAYER_CHANGE", ";LAYER_CHANGE",
		";Z:1.3",
		";TYPE:Perimeter",
	}
	for i, ln := range pre {
		e.Intercept(ln, StreamPosition(i+1))
	}

	out := e.Intercept("G1 X50 Y50 E0.45", 6)
	if want := "G1 X50 Y50 E0.4725 Z1.4"; out != want {
		t.Errorf("Intercept = %q, want %q", out, want)
	}

	// Travel moves carry no E word and are never given a Z.
	travel := "G1 X60 Y60"
	if out := e.Intercept(travel, 7); out != travel {
		t.Errorf("travel move rewritten: %q", out)
	}
}

func TestStatusWarningClearsOnceMarkersArrive(t *testing.T) {
	e := NewEngine(enabledConfig(), nil, nil)

	// Start G-code moves before any marker: homing and a prime line.
	for i, ln := range []string{"G28", "G1 Z5 F9000", "G1 X60 Y2 E9 F1000"} {
		e.Intercept(ln, StreamPosition(i+1))
	}
	if _, ok := e.Status()["warning"]; !ok {
		t.Error("no warning while moves run without any marker")
	}

	rest := []string{
		";LAYER_CHANGE", ";LAYER_CHANGE", ";LAYER_CHANGE",
		";TYPE:Perimeter",
		"G1 X10 Y10 Z1.3 E0.45",
	}
	var out string
	for i, ln := range rest {
		out = e.Intercept(ln, StreamPosition(i+4))
	}
	if out != "G1 X10 Y10 Z1.4 E0.4725" {
		t.Errorf("eligible move = %q, want transformed", out)
	}
	if w, ok := e.Status()["warning"]; ok {
		t.Errorf("warning %q still reported after feature markers arrived", w)
	}
}

func TestTablePlaybackTracksStatus(t *testing.T) {
	cfg := enabledConfig()
	table, err := NewScanner(cfg, nil).Scan(context.Background(), jobReader(), "job.gcode")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	e := NewEngine(cfg, nil, nil)
	e.SetTable(table)
	runEngine(e, printJob)

	status := e.Status()
	if status["current_layer"].(int) != 4 {
		t.Errorf("current_layer = %v, want 4", status["current_layer"])
	}
	if status["current_z"].(float64) != 1.3 {
		t.Errorf("current_z = %v, want 1.3", status["current_z"])
	}
	if _, ok := status["warning"]; ok {
		t.Errorf("unexpected warning: %v", status["warning"])
	}
}

func TestInterceptMarkerlessStreamPassesThrough(t *testing.T) {
	e := NewEngine(enabledConfig(), nil, nil)
	lines := []string{
		"G28",
		"G1 Z1.3 F9000",
		"G1 X10 Y10 E0.45",
		"G1 X20 Y20 E0.45",
	}
	for i, ln := range lines {
		if out := e.Intercept(ln, StreamPosition(i+1)); out != ln {
			t.Errorf("markerless stream rewritten: %q -> %q", ln, out)
		}
	}
	if _, ok := e.Status()["warning"]; !ok {
		t.Error("no missing-marker warning in status")
	}
}

func TestIsMotionLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"G1 X1", true},
		{"G0 Z0.3", true},
		{"  g1 x1", true},
		{"G1", true},
		{"G1;c", true},
		{"G10", false},
		{"G28", false},
		{"M104 S210", false},
		{";TYPE:Perimeter", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := isMotionLine(tc.line); got != tc.want {
			t.Errorf("isMotionLine(%q) = %v, want %v", tc.line, got, tc.want)
		}
	}
}

func TestApplyDecisionLeavesNonMotionAlone(t *testing.T) {
	d := TransformDecision{Eligible: true, ZDelta: 0.1, EMultiplier: 1.05, Layer: 3}
	for _, ln := range []string{"M104 S210", ";comment", "", "G1 Zbad E0.45"} {
		out, changed := applyDecision(ln, d)
		if changed || out != ln {
			t.Errorf("applyDecision(%q) = %q changed=%v", ln, out, changed)
		}
	}
}

func TestStatusFields(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil, nil)
	status := e.Status()
	for _, key := range []string{
		"enabled", "current_layer", "current_phase", "z_offset",
		"extrusion_multiplier", "start_layer", "moves_total",
		"moves_transformed", "current_z", "layer_height",
		"job_active", "job", "prescan",
	} {
		if _, ok := status[key]; !ok {
			t.Errorf("status missing %q", key)
		}
	}
	if status["enabled"].(bool) {
		t.Error("enabled = true on default config")
	}
	if status["current_phase"].(string) != "+" {
		t.Errorf("current_phase = %v, want +", status["current_phase"])
	}
	if _, ok := status["warning"]; ok {
		t.Error("unexpected warning on fresh engine")
	}
}
