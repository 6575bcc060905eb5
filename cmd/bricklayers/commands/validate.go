package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bricklayers/pkg/gcode"
)

var validateCmd = &cobra.Command{
	Use:   "validate <gcode-file>",
	Short: "Check a G-code file for the markers the engine needs",
	Long: `validate scans a file for layer-change and feature-type comment
markers and reports whether the stream can drive perimeter detection.
Exits non-zero when the file is incompatible.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := gcode.ValidateStream(f, cfg.Markers)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	good := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()

	if report.HasLayerChanges() {
		fmt.Fprintf(out, "%s %d layer change markers\n", good("✓"), report.LayerChanges)
	} else {
		fmt.Fprintf(out, "%s no layer change markers (%q)\n", bad("✗"), cfg.Markers.LayerChange)
	}

	if report.HasFeatureTags() {
		fmt.Fprintf(out, "%s feature markers:", good("✓"))
		for _, name := range report.TagNames() {
			fmt.Fprintf(out, " %s(%d)", name, report.FeatureTags[name])
		}
		fmt.Fprintln(out)
		if !report.HasInnerWalls() {
			fmt.Fprintf(out, "%s no inner wall features; nothing would be transformed\n", warn("!"))
		}
	} else {
		fmt.Fprintf(out, "%s no feature type markers (%q)\n", bad("✗"), cfg.Markers.FeatureType)
	}

	if !report.Compatible() {
		return fmt.Errorf("%s is not compatible with marker-driven transformation", args[0])
	}
	fmt.Fprintf(out, "%s %s is compatible\n", good("✓"), args[0])
	return nil
}
