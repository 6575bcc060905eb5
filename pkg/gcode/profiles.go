package gcode

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile names a slicer's marker conventions.
type Profile struct {
	Name        string `yaml:"name"`
	LayerChange string `yaml:"layer_change"`
	FeatureType string `yaml:"feature_type"`
	ZHint       string `yaml:"z_hint,omitempty"`
	HeightHint  string `yaml:"height_hint,omitempty"`
}

// MarkerSet converts the profile into a MarkerSet.
func (p Profile) MarkerSet() MarkerSet {
	return MarkerSet{
		LayerChange: p.LayerChange,
		FeatureType: p.FeatureType,
		ZHint:       p.ZHint,
		HeightHint:  p.HeightHint,
	}
}

// BuiltinProfiles returns the bundled slicer profiles.
func BuiltinProfiles() map[string]Profile {
	return map[string]Profile{
		"prusaslicer": {
			Name:        "prusaslicer",
			LayerChange: ";LAYER_CHANGE",
			FeatureType: ";TYPE:",
			ZHint:       ";Z:",
			HeightHint:  ";HEIGHT:",
		},
		"orcaslicer": {
			Name:        "orcaslicer",
			LayerChange: ";LAYER_CHANGE",
			FeatureType: ";TYPE:",
			ZHint:       ";Z:",
			HeightHint:  ";HEIGHT:",
		},
		"cura": {
			Name:        "cura",
			LayerChange: ";LAYER:",
			FeatureType: ";TYPE:",
		},
	}
}

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadProfiles reads additional slicer profiles from a YAML file. Loaded
// profiles override builtins with the same name.
func LoadProfiles(path string) (map[string]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profiles: %w", err)
	}
	var pf profileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("profiles: parse %s: %w", path, err)
	}
	out := BuiltinProfiles()
	for _, p := range pf.Profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("profiles: profile without name in %s", path)
		}
		if p.LayerChange == "" || p.FeatureType == "" {
			return nil, fmt.Errorf("profiles: profile %q must set layer_change and feature_type", p.Name)
		}
		out[strings.ToLower(p.Name)] = p
	}
	return out, nil
}

// ProfileNames returns sorted profile names for help output.
func ProfileNames(profiles map[string]Profile) []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
