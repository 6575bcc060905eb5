package host

import (
	"strconv"
	"testing"

	"bricklayers/pkg/brick"
)

type suffixStage struct {
	name   string
	suffix string
}

func (s *suffixStage) Name() string { return s.name }
func (s *suffixStage) Transform(line string, pos brick.StreamPosition) string {
	return line + s.suffix
}

func TestChainOrdering(t *testing.T) {
	c := NewChain()
	if err := c.Register(&suffixStage{name: "a", suffix: "-a"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Register(&suffixStage{name: "b", suffix: "-b"}); err != nil {
		t.Fatal(err)
	}

	if got := c.Transform("x", 1); got != "x-a-b" {
		t.Errorf("Transform = %q, want x-a-b", got)
	}
	names := c.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names = %v", names)
	}
}

func TestChainRejectsDuplicateNames(t *testing.T) {
	c := NewChain()
	if err := c.Register(&suffixStage{name: "dup"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Register(&suffixStage{name: "dup"}); err == nil {
		t.Error("duplicate stage name accepted")
	}
}

type positionRecorder struct {
	positions []brick.StreamPosition
}

func (r *positionRecorder) Name() string { return "recorder" }
func (r *positionRecorder) Transform(line string, pos brick.StreamPosition) string {
	r.positions = append(r.positions, pos)
	return line
}

func TestChainPassesPositions(t *testing.T) {
	c := NewChain()
	rec := &positionRecorder{}
	if err := c.Register(rec); err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 3; i++ {
		c.Transform("G1 X"+strconv.Itoa(i), brick.StreamPosition(i))
	}
	if len(rec.positions) != 3 || rec.positions[2] != 3 {
		t.Errorf("positions = %v", rec.positions)
	}
}

func TestEmptyChainIsIdentity(t *testing.T) {
	c := NewChain()
	if got := c.Transform("G1 X1", 1); got != "G1 X1" {
		t.Errorf("Transform = %q", got)
	}
}
