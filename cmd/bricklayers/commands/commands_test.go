package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleJob = strings.Join([]string{
	"G28",
	";LAYER_CHANGE",
	";TYPE:Perimeter",
	"G1 X10 Y10 Z0.2 E0.45",
	";LAYER_CHANGE",
	";TYPE:Perimeter",
	"G1 X10 Y10 Z0.4 E0.45",
	";LAYER_CHANGE",
	";TYPE:Perimeter",
	"G1 X10 Y10 Z1.3 E0.45",
	";LAYER_CHANGE",
	";TYPE:Perimeter",
	"G1 X10 Y10 Z1.3 E0.45",
}, "\n")

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

// resetFlags restores every flag to its default so runs do not leak state
// into each other.
func resetFlags() {
	reset := func(fs *pflag.FlagSet) {
		fs.Visit(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	reset(rootCmd.PersistentFlags())
	for _, c := range rootCmd.Commands() {
		reset(c.Flags())
	}
}

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Cleanup(resetFlags)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestTransformCommand(t *testing.T) {
	in := writeFile(t, "part.gcode", sampleJob)
	outPath := filepath.Join(t.TempDir(), "out.gcode")

	_, _, err := runCommand(t, "transform", in, "-o", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 13)
	assert.Equal(t, "G1 X10 Y10 Z0.2 E0.45", lines[3])
	assert.Equal(t, "G1 X10 Y10 Z1.4 E0.4725", lines[9])
	assert.Equal(t, "G1 X10 Y10 Z1.2 E0.4725", lines[12])
}

func TestTransformCommandOverrides(t *testing.T) {
	in := writeFile(t, "part.gcode", sampleJob)
	outPath := filepath.Join(t.TempDir(), "out.gcode")

	_, _, err := runCommand(t, "transform", in, "-o", outPath,
		"--z-offset", "0.05", "--start-layer", "4")
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	// Layer 3 now below the start layer; layer 4 gets the first (positive) phase.
	assert.Equal(t, "G1 X10 Y10 Z1.3 E0.45", lines[9])
	assert.Equal(t, "G1 X10 Y10 Z1.35 E0.4725", lines[12])
}

func TestTransformCommandRejectsBadOverride(t *testing.T) {
	in := writeFile(t, "part.gcode", sampleJob)
	_, _, err := runCommand(t, "transform", in, "--z-offset", "-1")
	require.Error(t, err)
}

func TestScanCommand(t *testing.T) {
	in := writeFile(t, "part.gcode", sampleJob)
	out, _, err := runCommand(t, "scan", in)
	require.NoError(t, err)
	assert.Contains(t, out, "13 lines")
	assert.Contains(t, out, "2 transform points")
}

func TestScanCommandJSON(t *testing.T) {
	in := writeFile(t, "part.gcode", sampleJob)
	out, _, err := runCommand(t, "scan", in, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"position": 10`)
	assert.Contains(t, out, `"z_delta": 0.1`)
	assert.Contains(t, out, `"z_delta": -0.1`)
}

func TestValidateCommand(t *testing.T) {
	in := writeFile(t, "part.gcode", sampleJob)
	out, _, err := runCommand(t, "validate", in)
	require.NoError(t, err)
	assert.Contains(t, out, "layer change markers")
	assert.Contains(t, out, "compatible")
}

func TestValidateCommandIncompatible(t *testing.T) {
	in := writeFile(t, "plain.gcode", "G28\nG1 X10 E0.5\n")
	_, _, err := runCommand(t, "validate", in)
	require.Error(t, err)
}

func TestValidateCommandWithProfile(t *testing.T) {
	cura := strings.Join([]string{
		";LAYER:0",
		";TYPE:WALL-INNER",
		"G1 X10 Y10 E0.45",
	}, "\n")
	in := writeFile(t, "cura.gcode", cura)

	// Default markers miss the Cura layer convention.
	_, _, err := runCommand(t, "validate", in)
	require.Error(t, err)

	_, _, err = runCommand(t, "validate", in, "--profile", "cura")
	require.NoError(t, err)
}

func TestUnknownProfile(t *testing.T) {
	in := writeFile(t, "part.gcode", sampleJob)
	_, _, err := runCommand(t, "validate", in, "--profile", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown slicer profile")
}

func TestConfigFileDrivesTransform(t *testing.T) {
	cfg := writeFile(t, "printer.cfg", `[brick_layers]
z_offset: 0.2
start_layer: 3
`)
	in := writeFile(t, "part.gcode", sampleJob)
	outPath := filepath.Join(t.TempDir(), "out.gcode")

	_, _, err := runCommand(t, "transform", in, "-o", outPath, "--config", cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Equal(t, "G1 X10 Y10 Z1.5 E0.4725", lines[9])
}
