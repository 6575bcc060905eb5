package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"bricklayers/pkg/brick"
	"bricklayers/pkg/config"
	"bricklayers/pkg/gcode"
)

var (
	cfgPath      string
	profileName  string
	profilesPath string
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "bricklayers",
	Short: "Brick layers G-code transformation engine",
	Long: `bricklayers applies interlocking layer transformations to 3D printer
G-code: inner wall perimeters are offset in Z with alternating sign and
extrusion-compensated, creating a brick-like bond between layers without
touching visible outer surfaces.

Classification is driven by slicer comment markers (layer changes and
feature types); marker conventions are selectable per slicer profile.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "printer config file with a [brick_layers] section")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "slicer marker profile (prusaslicer, orcaslicer, cura, ...)")
	rootCmd.PersistentFlags().StringVar(&profilesPath, "profiles", "", "YAML file with additional slicer marker profiles")
}

// loadEngineConfig builds the engine configuration from the config file,
// the selected slicer profile, and defaults, in that precedence order.
func loadEngineConfig() (*brick.Config, error) {
	c := brick.DefaultConfig()

	if cfgPath != "" {
		file, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		if sec := file.GetSectionOptional(brick.SectionName); sec != nil {
			if c, err = brick.LoadConfig(sec); err != nil {
				return nil, err
			}
		}
	}

	if profileName != "" {
		profiles := gcode.BuiltinProfiles()
		if profilesPath != "" {
			var err error
			if profiles, err = gcode.LoadProfiles(profilesPath); err != nil {
				return nil, err
			}
		}
		p, ok := profiles[strings.ToLower(profileName)]
		if !ok {
			return nil, &unknownProfileError{name: profileName, known: gcode.ProfileNames(profiles)}
		}
		c.Markers = p.MarkerSet()
	}
	return c, nil
}

type unknownProfileError struct {
	name  string
	known []string
}

func (e *unknownProfileError) Error() string {
	return "unknown slicer profile '" + e.name + "' (known: " + strings.Join(e.known, ", ") + ")"
}
