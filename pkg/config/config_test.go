package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
# printer configuration
[brick_layers]
enabled: true
z_offset: 0.1
extrusion_multiplier = 1.05  # either separator works
eligible_feature_tags: inner-wall, infill

[other_section]
value: 42
`

func TestLoadString(t *testing.T) {
	c, err := LoadString(sampleConfig)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if !c.HasSection("brick_layers") || !c.HasSection("other_section") {
		t.Fatalf("sections = %v", c.SectionNames())
	}

	sec, err := c.GetSection("brick_layers")
	if err != nil {
		t.Fatalf("GetSection: %v", err)
	}
	v, err := sec.Get("z_offset")
	if err != nil || v != "0.1" {
		t.Errorf("z_offset = %q, %v", v, err)
	}
	v, err = sec.Get("extrusion_multiplier")
	if err != nil || v != "1.05" {
		t.Errorf("extrusion_multiplier = %q, %v", v, err)
	}

	if c.GetSectionOptional("missing") != nil {
		t.Error("GetSectionOptional returned a section for a missing name")
	}
	if _, err := c.GetSection("missing"); err == nil {
		t.Error("GetSection succeeded for a missing name")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printer.cfg")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	names := c.SectionNames()
	if len(names) != 2 || names[0] != "brick_layers" {
		t.Errorf("SectionNames = %v", names)
	}
}

func TestLoadStringEdgeCases(t *testing.T) {
	// Options before any section header are ignored.
	c, err := LoadString("stray: 1\n[sec]\nkey: v\n")
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	sec, _ := c.GetSection("sec")
	if sec.HasOption("stray") {
		t.Error("headerless option kept")
	}

	// Empty headers are rejected.
	if _, err := LoadString("[]\n"); err == nil {
		t.Error("empty section header accepted")
	}

	// Repeated sections merge.
	c, err = LoadString("[sec]\na: 1\n[sec]\nb: 2\n")
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	sec, _ = c.GetSection("sec")
	if !sec.HasOption("a") || !sec.HasOption("b") {
		t.Error("repeated sections not merged")
	}
}
