package host

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"bricklayers/pkg/brick"
	"bricklayers/pkg/errors"
	"bricklayers/pkg/log"
)

// Sink receives the transformed command stream, one line at a time.
type Sink interface {
	Emit(line string) error
}

// WriterSink writes emitted lines to an io.Writer with trailing newlines.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink wraps a writer as a Sink.
func NewWriterSink(w io.Writer) *WriterSink { return &WriterSink{w: w} }

// Emit writes one line.
func (s *WriterSink) Emit(line string) error {
	_, err := io.WriteString(s.w, line+"\n")
	return err
}

// FileSource exposes a G-code file as a pre-scannable job stream.
type FileSource struct {
	Path string
}

// Name returns the base filename.
func (f *FileSource) Name() string { return filepath.Base(f.Path) }

// Open opens the stream for reading from the start.
func (f *FileSource) Open() (io.ReadCloser, error) { return os.Open(f.Path) }

// Player drives one print job: it signals the job lifecycle to the engine,
// optionally blocks on a pre-scan of the whole stream, then feeds every
// line through the transform chain to the sink with strictly increasing
// stream positions.
type Player struct {
	engine  *brick.Engine
	chain   *Chain
	sink    Sink
	log     *log.Logger
	preScan bool
}

// NewPlayer creates a player. The engine must already be registered on the
// chain by the caller; the player only drives lifecycle and line flow.
func NewPlayer(engine *brick.Engine, chain *Chain, sink Sink, logger *log.Logger) *Player {
	if logger == nil {
		logger = log.GetLogger("player")
	}
	return &Player{engine: engine, chain: chain, sink: sink, log: logger}
}

// SetPreScan selects whether Play runs a pre-scan before playback.
func (p *Player) SetPreScan(on bool) { p.preScan = on }

// Play runs one job from a G-code file. Playback does not start until the
// pre-scan (when requested) has completed or failed over to live
// classification. Cancelling ctx abandons the job.
func (p *Player) Play(ctx context.Context, path string) error {
	src := &FileSource{Path: path}
	p.engine.StartJob(src.Name(), src)
	defer p.engine.EndJob()

	if p.preScan {
		if err := p.engine.PreScan(ctx); err != nil {
			if !errors.HasCode(err, errors.ErrPreScanIO) {
				return err
			}
			p.log.WithError(err).Warn("degraded mode: live classification for this job")
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("host: open job stream: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)
	var pos brick.StreamPosition
	for scanner.Scan() {
		pos++
		if pos%4096 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		out := p.chain.Transform(scanner.Text(), pos)
		if err := p.sink.Emit(out); err != nil {
			return fmt.Errorf("host: emit line %d: %w", pos, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("host: read job stream: %w", err)
	}
	return nil
}
