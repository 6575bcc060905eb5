// Unified error handling for the brick layers engine.
//
// Every failure in this subsystem falls back to pass-through; no error here
// may abort motion execution. The codes below mirror that taxonomy: config
// rejection, ignorable marker noise, pre-scan I/O fallback, missing-marker
// fail-closed, and per-job invariant latching.

package errors

import (
	"errors"
	"fmt"
)

// Code is the category of an engine error.
type Code string

const (
	// Configuration errors: rejected at assignment, prior config stays live.
	ErrConfigOption     Code = "CONFIG_OPTION"
	ErrConfigValidation Code = "CONFIG_VALIDATION"

	// Malformed marker line. Classification treats these as no-ops.
	ErrMarkerParse Code = "MARKER_PARSE"

	// Stream unreadable or truncated during pre-scan. The table is discarded
	// and the job runs on live classification.
	ErrPreScanIO Code = "PRESCAN_IO"

	// require_feature_markers is set but the stream carries none.
	ErrMissingMarkers Code = "MISSING_MARKERS"

	// Stream-order invariant broken (e.g. position regression). Fatal for
	// the job only: transformation latches off, commands pass through.
	ErrInvariant Code = "INVARIANT"
)

// EngineError is the unified error type for the engine.
type EngineError struct {
	Code    Code
	Message string
	Section string
	Option  string
	Err     error
	Context map[string]any
}

func (e *EngineError) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("[%s] option '%s': %s", e.Code, e.Option, e.Message)
	}
	if e.Section != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Section, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *EngineError) Unwrap() error { return e.Err }

// New creates an EngineError with the given code.
func New(code Code, message string) *EngineError {
	return &EngineError{Code: code, Message: message}
}

// Newf creates an EngineError with a formatted message.
func Newf(code Code, format string, args ...any) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an underlying error under the given code.
func Wrap(err error, code Code, message string) *EngineError {
	return &EngineError{Code: code, Message: message, Err: err}
}

// SetSection attaches a config section or context name.
func (e *EngineError) SetSection(section string) *EngineError {
	e.Section = section
	return e
}

// SetOption attaches a config option name.
func (e *EngineError) SetOption(option string) *EngineError {
	e.Option = option
	return e
}

// SetContext attaches an extra context value.
func (e *EngineError) SetContext(key string, value any) *EngineError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// HasCode reports whether err is (or wraps) an EngineError with the code.
func HasCode(err error, code Code) bool {
	var ee *EngineError
	for errors.As(err, &ee) {
		if ee.Code == code {
			return true
		}
		if ee.Err == nil {
			return false
		}
		err = ee.Err
	}
	return false
}

// ConfigOptionError reports a missing or unknown config option.
func ConfigOptionError(section, option string) *EngineError {
	return Newf(ErrConfigOption, "option '%s' not found in section '%s'", option, section).
		SetSection(section).SetOption(option)
}

// ConfigValueError reports an out-of-range or malformed option value.
func ConfigValueError(section, option, reason string) *EngineError {
	return New(ErrConfigValidation, reason).SetSection(section).SetOption(option)
}

// MarkerParseError reports a malformed marker line.
func MarkerParseError(line string, reason string) *EngineError {
	return Newf(ErrMarkerParse, "malformed marker %q: %s", line, reason)
}

// PreScanError wraps an I/O failure during pre-scan.
func PreScanError(err error, source string) *EngineError {
	return Wrap(err, ErrPreScanIO, "pre-scan aborted, falling back to live classification").
		SetContext("source", source)
}

// MissingMarkersError reports that no feature markers were observed.
func MissingMarkersError() *EngineError {
	return New(ErrMissingMarkers,
		"feature markers required but none observed; transformation disabled")
}

// InvariantError reports a broken stream-order invariant.
func InvariantError(reason string) *EngineError {
	return New(ErrInvariant, reason)
}
