// Package host provides the narrow host-runtime collaborators the brick
// layers engine needs: an explicit, ordered transform chain on the command
// path and a job player that feeds a G-code stream through it.
package host

import (
	"fmt"
	"sync"

	"bricklayers/pkg/brick"
)

// Stage is one named transform on the command path. Each stage receives the
// line emitted by the previous stage together with its stream position and
// returns the line to hand on.
type Stage interface {
	Name() string
	Transform(line string, pos brick.StreamPosition) string
}

// Chain is an ordered list of transform stages. Registration order is
// execution order, which makes ordering relative to other stages (bed
// leveling compensation, exclusion, ...) explicit and testable.
type Chain struct {
	mu     sync.RWMutex
	stages []Stage
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// Register appends a stage. Stage names must be unique.
func (c *Chain) Register(s Stage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.stages {
		if existing.Name() == s.Name() {
			return fmt.Errorf("host: transform stage %q already registered", s.Name())
		}
	}
	c.stages = append(c.stages, s)
	return nil
}

// Names returns the stage names in execution order.
func (c *Chain) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name()
	}
	return names
}

// Transform runs the line through every stage in order.
func (c *Chain) Transform(line string, pos brick.StreamPosition) string {
	c.mu.RLock()
	stages := c.stages
	c.mu.RUnlock()
	for _, s := range stages {
		line = s.Transform(line, pos)
	}
	return line
}
