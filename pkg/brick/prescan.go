package brick

import (
	"bufio"
	"context"
	"io"
	"os"
	"sort"
	"time"

	"bricklayers/pkg/errors"
	"bricklayers/pkg/log"
)

// PreScanTable maps stream positions to transform decisions, built once per
// job before real-time playback. Ineligible positions are omitted: absence
// means pass-through. Read-only after Scan returns; replaced whole, never
// patched.
type PreScanTable struct {
	Source    string
	Lines     int
	decisions map[StreamPosition]TransformDecision
}

// Lookup returns the decision recorded for a position, if any.
func (t *PreScanTable) Lookup(pos StreamPosition) (TransformDecision, bool) {
	d, ok := t.decisions[pos]
	return d, ok
}

// Len returns the number of recorded transform points.
func (t *PreScanTable) Len() int { return len(t.decisions) }

// Positions returns the recorded stream positions in ascending order.
func (t *PreScanTable) Positions() []StreamPosition {
	out := make([]StreamPosition, 0, len(t.decisions))
	for pos := range t.decisions {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Scanner builds pre-scan tables by replaying the stream through the same
// classifier and planner the real-time path would use.
type Scanner struct {
	cfg *Config
	log *log.Logger
}

// NewScanner returns a scanner for the given configuration snapshot.
func NewScanner(cfg *Config, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.GetLogger("prescan")
	}
	return &Scanner{cfg: cfg, log: logger}
}

// ScanFile scans a G-code file.
func (s *Scanner) ScanFile(ctx context.Context, path string) (*PreScanTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.PreScanError(err, path)
	}
	defer f.Close()
	return s.Scan(ctx, f, path)
}

// Scan replays the full stream and records every eligible decision keyed by
// stream position. Positions are 1-based line numbers, matching the numbers
// the player assigns during playback. Any read failure discards the whole
// scan: a partially correct table is worse than none.
func (s *Scanner) Scan(ctx context.Context, r io.Reader, source string) (*PreScanTable, error) {
	start := time.Now()
	cl := NewClassifier(s.cfg.Markers)
	pl := NewPlanner()
	table := &PreScanTable{
		Source:    source,
		decisions: make(map[StreamPosition]TransformDecision),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)
	var pos StreamPosition
	for scanner.Scan() {
		pos++
		if pos%4096 == 0 && ctx.Err() != nil {
			return nil, errors.PreScanError(ctx.Err(), source)
		}
		state, motion := cl.Advance(scanner.Text())
		if !motion {
			continue
		}
		if d := pl.Plan(state, s.cfg); d.Eligible {
			table.decisions[pos] = d
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.PreScanError(err, source)
	}
	table.Lines = int(pos)

	s.log.WithFields(log.Fields{
		"source":  source,
		"lines":   table.Lines,
		"points":  table.Len(),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("pre-scan complete")
	return table, nil
}
