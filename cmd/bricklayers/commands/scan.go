package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"bricklayers/pkg/brick"
)

var scanJSON bool

var scanCmd = &cobra.Command{
	Use:   "scan <gcode-file>",
	Short: "Pre-scan a G-code file and report the transform plan",
	Long: `scan builds the pre-scan table for a file without emitting any
G-code: every stream position that would be transformed, with its layer
and offsets. Useful for checking what a transform run will touch.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "dump every transform point as JSON")
	rootCmd.AddCommand(scanCmd)
}

type scanPoint struct {
	Position int64    `json:"position"`
	Layer    int      `json:"layer"`
	ZDelta   float64  `json:"z_delta"`
	EMult    float64  `json:"extrusion_multiplier"`
	ZTarget  *float64 `json:"z_target,omitempty"`
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}
	cfg.Enabled = true
	if err := cfg.Validate(); err != nil {
		return err
	}

	table, err := brick.NewScanner(cfg, nil).ScanFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if scanJSON {
		points := make([]scanPoint, 0, table.Len())
		for _, pos := range table.Positions() {
			d, _ := table.Lookup(pos)
			points = append(points, scanPoint{
				Position: int64(pos),
				Layer:    d.Layer,
				ZDelta:   d.ZDelta,
				EMult:    d.EMultiplier,
				ZTarget:  d.ZTarget,
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(points)
	}

	layers := make(map[int]int)
	for _, pos := range table.Positions() {
		d, _ := table.Lookup(pos)
		layers[d.Layer]++
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d lines, %d transform points across %d layers\n",
		table.Source, table.Lines, table.Len(), len(layers))
	return nil
}
