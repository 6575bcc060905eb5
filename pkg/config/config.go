// Package config parses INI-style configuration files in the Klipper
// printer.cfg dialect: [section] headers, "key: value" or "key = value"
// options, and '#' comments.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Config provides access to parsed configuration sections.
type Config struct {
	mu       sync.RWMutex
	sections map[string]*Section
	order    []string
}

// New creates an empty Config.
func New() *Config {
	return &Config{sections: make(map[string]*Section)}
}

// Load reads a configuration file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: unable to open %s: %w", path, err)
	}
	defer f.Close()

	c := New()
	scanner := bufio.NewScanner(f)
	lineNum := 0
	var section string
	var options map[string]string
	for scanner.Scan() {
		lineNum++
		var err error
		section, options, err = c.parseLine(scanner.Text(), lineNum, section, options)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: error reading %s: %w", path, err)
	}
	if section != "" {
		c.addSection(section, options)
	}
	return c, nil
}

// LoadString parses configuration from a string.
func LoadString(data string) (*Config, error) {
	c := New()
	var section string
	var options map[string]string
	for i, raw := range strings.Split(data, "\n") {
		var err error
		section, options, err = c.parseLine(raw, i+1, section, options)
		if err != nil {
			return nil, err
		}
	}
	if section != "" {
		c.addSection(section, options)
	}
	return c, nil
}

// parseLine consumes one config line, returning the updated current section
// state. Completed sections are committed as new headers appear.
func (c *Config) parseLine(raw string, lineNum int, section string, options map[string]string) (string, map[string]string, error) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return section, options, nil
	}
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
		if line == "" {
			return section, options, nil
		}
	}

	if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
		if section != "" {
			c.addSection(section, options)
		}
		header := strings.TrimSpace(line[1 : len(line)-1])
		if header == "" {
			return "", nil, fmt.Errorf("empty section header at line %d", lineNum)
		}
		return header, make(map[string]string), nil
	}

	// Options before the first section header are ignored.
	if section == "" {
		return section, options, nil
	}

	kv := strings.SplitN(line, ":", 2)
	if len(kv) != 2 {
		kv = strings.SplitN(line, "=", 2)
	}
	if len(kv) != 2 {
		return section, options, nil
	}
	key := strings.TrimSpace(kv[0])
	if key != "" {
		options[key] = strings.TrimSpace(kv[1])
	}
	return section, options, nil
}

func (c *Config) addSection(name string, options map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.sections[name]; ok {
		for k, v := range options {
			existing.options[strings.ToLower(k)] = v
		}
		return
	}
	c.sections[name] = newSection(name, options)
	c.order = append(c.order, name)
}

// GetSection returns a section by name, or an error if absent.
func (c *Config) GetSection(name string) (*Section, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sec, ok := c.sections[name]
	if !ok {
		return nil, fmt.Errorf("config: section '%s' not found", name)
	}
	return sec, nil
}

// GetSectionOptional returns a section if present, else nil.
func (c *Config) GetSectionOptional(name string) *Section {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sections[name]
}

// HasSection reports whether a section exists.
func (c *Config) HasSection(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.sections[name]
	return ok
}

// SectionNames returns all section names in file order.
func (c *Config) SectionNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
