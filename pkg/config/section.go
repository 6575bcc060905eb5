package config

import (
	"strconv"
	"strings"

	"bricklayers/pkg/errors"
)

// Section provides typed access to the options of one config section.
// Getters return a typed EngineError on malformed or out-of-range values so
// the caller can reject the configuration without partial application.
type Section struct {
	name    string
	options map[string]string
}

func newSection(name string, options map[string]string) *Section {
	opts := make(map[string]string, len(options))
	for k, v := range options {
		opts[strings.ToLower(k)] = v
	}
	return &Section{name: name, options: opts}
}

// Name returns the section name.
func (s *Section) Name() string { return s.name }

// HasOption reports whether the option is present.
func (s *Section) HasOption(option string) bool {
	_, ok := s.options[strings.ToLower(option)]
	return ok
}

// Get returns a string option, or the fallback if absent.
func (s *Section) Get(option string, fallback ...string) (string, error) {
	if v, ok := s.options[strings.ToLower(option)]; ok {
		return v, nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return "", errors.ConfigOptionError(s.name, option)
}

// GetInt returns an integer option.
func (s *Section) GetInt(option string, fallback ...int) (int, error) {
	v, ok := s.options[strings.ToLower(option)]
	if !ok {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return 0, errors.ConfigOptionError(s.name, option)
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, errors.ConfigValueError(s.name, option, "invalid value '"+v+"', expected integer")
	}
	return i, nil
}

// GetIntMin returns an integer option rejecting values below minVal.
func (s *Section) GetIntMin(option string, minVal int, fallback ...int) (int, error) {
	v, err := s.GetInt(option, fallback...)
	if err != nil {
		return 0, err
	}
	if v < minVal {
		return 0, errors.ConfigValueError(s.name, option,
			"value "+strconv.Itoa(v)+" must have minimum of "+strconv.Itoa(minVal))
	}
	return v, nil
}

// GetFloat returns a float option.
func (s *Section) GetFloat(option string, fallback ...float64) (float64, error) {
	v, ok := s.options[strings.ToLower(option)]
	if !ok {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return 0, errors.ConfigOptionError(s.name, option)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, errors.ConfigValueError(s.name, option, "invalid value '"+v+"', expected float")
	}
	return f, nil
}

// GetFloatAbove returns a float option rejecting values at or below the bound.
func (s *Section) GetFloatAbove(option string, above float64, fallback ...float64) (float64, error) {
	v, err := s.GetFloat(option, fallback...)
	if err != nil {
		return 0, err
	}
	if v <= above {
		return 0, errors.ConfigValueError(s.name, option,
			"value "+strconv.FormatFloat(v, 'g', -1, 64)+" must be above "+
				strconv.FormatFloat(above, 'g', -1, 64))
	}
	return v, nil
}

// GetBoolean returns a boolean option. Accepts true/false, yes/no, on/off, 1/0.
func (s *Section) GetBoolean(option string, fallback ...bool) (bool, error) {
	v, ok := s.options[strings.ToLower(option)]
	if !ok {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return false, errors.ConfigOptionError(s.name, option)
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, errors.ConfigValueError(s.name, option, "invalid value '"+v+"', expected boolean")
}

// GetList returns a comma-separated list option with whitespace trimmed.
func (s *Section) GetList(option string, fallback ...[]string) ([]string, error) {
	v, ok := s.options[strings.ToLower(option)]
	if !ok {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return nil, errors.ConfigOptionError(s.name, option)
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
