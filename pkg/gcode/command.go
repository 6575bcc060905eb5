// Package gcode parses and re-emits G-code motion commands and slicer
// comment markers. Parsing is deliberately narrow: the engine classifies and
// rewrites well-formed lines, it does not repair malformed input.
package gcode

import (
	"fmt"
	"strconv"
	"strings"
)

// Word is a single letter-keyed argument of a motion command, e.g. "X12.5".
// The raw text is preserved so untouched words round-trip verbatim.
type Word struct {
	Letter byte
	raw    string
}

// Value returns the word's value text (everything after the letter).
func (w Word) Value() string { return w.raw[1:] }

// Command is one parsed G-code command line.
type Command struct {
	Name  string
	Words []Word
	Raw   string
}

// ParseLine parses one G-code line. Returns nil for blank lines and lines
// that are comment-only; an error for lines that have a command word but
// cannot be parsed.
func ParseLine(line string) (*Command, error) {
	ln := strings.TrimSpace(line)
	if ln == "" {
		return nil, nil
	}
	if idx := strings.IndexByte(ln, ';'); idx >= 0 {
		ln = strings.TrimSpace(ln[:idx])
	}
	if ln == "" {
		return nil, nil
	}

	fields := strings.Fields(ln)
	name := strings.ToUpper(fields[0])
	cmd := &Command{Name: name, Raw: line}
	for _, f := range fields[1:] {
		if len(f) < 2 {
			return nil, fmt.Errorf("gcode: bare word %q in %q", f, line)
		}
		letter := upperByte(f[0])
		if letter < 'A' || letter > 'Z' {
			return nil, fmt.Errorf("gcode: bad word %q in %q", f, line)
		}
		cmd.Words = append(cmd.Words, Word{Letter: letter, raw: string(letter) + f[1:]})
	}
	return cmd, nil
}

func upperByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// IsMotion reports whether the command is a linear move (G0/G1).
func (c *Command) IsMotion() bool {
	return c.Name == "G0" || c.Name == "G1"
}

// Has reports whether the command carries a word with the given letter.
func (c *Command) Has(letter byte) bool {
	for _, w := range c.Words {
		if w.Letter == letter {
			return true
		}
	}
	return false
}

// Float returns the numeric value of a word. ok is false if the word is
// absent; err is set if present but not a number.
func (c *Command) Float(letter byte) (v float64, ok bool, err error) {
	for _, w := range c.Words {
		if w.Letter != letter {
			continue
		}
		f, perr := strconv.ParseFloat(w.Value(), 64)
		if perr != nil {
			return 0, true, fmt.Errorf("gcode: bad %c=%q", letter, w.Value())
		}
		return f, true, nil
	}
	return 0, false, nil
}

// SetFloat rewrites the value of an existing word. Words not rewritten keep
// their original text.
func (c *Command) SetFloat(letter byte, v float64) bool {
	for i, w := range c.Words {
		if w.Letter == letter {
			c.Words[i].raw = string(letter) + FormatFloat(v)
			return true
		}
	}
	return false
}

// AppendFloat adds a new word at the end of the command.
func (c *Command) AppendFloat(letter byte, v float64) {
	c.Words = append(c.Words, Word{Letter: letter, raw: string(letter) + FormatFloat(v)})
}

// Format emits the command with its words in original order. Untouched words
// are emitted verbatim.
func (c *Command) Format() string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	for _, w := range c.Words {
		sb.WriteByte(' ')
		sb.WriteString(w.raw)
	}
	return sb.String()
}

// FormatFloat renders a coordinate value with micrometer precision and no
// trailing zeros.
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
