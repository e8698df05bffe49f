/*
# Module: sequence/sequencer.go
Timed "tree planted" completion sequence played after a successful donation.

## Linked Modules
(None - purely time driven)

## Tags
animation, timers, state-machine

## Exports
Stage, Schedule, DefaultSchedule, Sequencer, New

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "sequence/sequencer.go" ;
    code:description "Timed tree planted completion sequence played after a successful donation" ;
    code:exports :Stage, :Schedule, :DefaultSchedule, :Sequencer, :New ;
    code:tags "animation", "timers", "state-machine" .
<!-- End LinkedDoc RDF -->
*/
package sequence

import (
	"fmt"
	"sync"
	"time"

	"gopkg.in/tomb.v2"
)

// Stage is a step of the completion sequence
type Stage int

const (
	Idle Stage = iota
	Seed
	Growing
	Complete
)

// Label returns the caption shown for the stage
func (s Stage) Label() string {
	switch s {
	case Seed:
		return "Seed planted"
	case Growing:
		return "Growing…"
	case Complete:
		return "Tree planted"
	default:
		return ""
	}
}

// Emoji returns the glyph shown for the stage
func (s Stage) Emoji() string {
	switch s {
	case Growing:
		return "🌿"
	case Complete:
		return "🌳"
	default:
		return "🌱"
	}
}

// Schedule holds the offsets, from the start of a run, at which each later stage begins
type Schedule struct {
	Growing  time.Duration
	Complete time.Duration
	Settle   time.Duration
}

// DefaultSchedule matches the card's CSS animation timings
var DefaultSchedule = Schedule{
	Growing:  380 * time.Millisecond,
	Complete: 820 * time.Millisecond,
	Settle:   1600 * time.Millisecond,
}

// Validate checks that the offsets are positive and strictly increasing
func (s Schedule) Validate() error {
	if s.Growing <= 0 || s.Complete <= s.Growing || s.Settle <= s.Complete {
		return fmt.Errorf("schedule offsets must increase: growing=%s complete=%s settle=%s", s.Growing, s.Complete, s.Settle)
	}
	return nil
}

// Sequencer plays the completion sequence. Each run owns a tomb that acts as its
// cancellation token; only the current run may publish stages.
type Sequencer struct {
	schedule Schedule
	observer func(Stage)

	mu    sync.Mutex
	stage Stage
	run   *tomb.Tomb
}

// New creates a sequencer. observer, if non-nil, is called for every stage change
// while the sequencer lock is held and must not call back into the sequencer.
func New(schedule Schedule, observer func(Stage)) *Sequencer {
	return &Sequencer{
		schedule: schedule,
		observer: observer,
	}
}

// Start begins a new run at Seed, cancelling any run in progress first
func (s *Sequencer) Start() {
	s.mu.Lock()
	prev := s.run
	if prev != nil {
		prev.Kill(nil)
	}

	run := &tomb.Tomb{}
	s.run = run
	s.setStage(Seed)
	run.Go(func() error {
		return s.play(run)
	})
	s.mu.Unlock()

	if prev != nil {
		prev.Wait()
	}
}

// Stop cancels the current run and resets to Idle without notifying the observer.
// Used on teardown.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	run := s.run
	s.run = nil
	s.stage = Idle
	if run != nil {
		run.Kill(nil)
	}
	s.mu.Unlock()

	if run != nil {
		run.Wait()
	}
}

// Wait blocks until the current run, if any, has settled or been cancelled
func (s *Sequencer) Wait() {
	s.mu.Lock()
	run := s.run
	s.mu.Unlock()

	if run != nil {
		run.Wait()
	}
}

// Stage returns the current stage
func (s *Sequencer) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Running reports whether a run is in progress
func (s *Sequencer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run != nil
}

func (s *Sequencer) play(run *tomb.Tomb) error {
	steps := []struct {
		at    time.Duration
		stage Stage
	}{
		{s.schedule.Growing, Growing},
		{s.schedule.Complete, Complete},
		{s.schedule.Settle, Idle},
	}

	started := time.Now()
	for _, step := range steps {
		timer := time.NewTimer(step.at - time.Since(started))
		select {
		case <-run.Dying():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if !s.advance(run, step.stage) {
			return nil
		}
	}
	return nil
}

// advance publishes stage if run is still the current run
func (s *Sequencer) advance(run *tomb.Tomb, stage Stage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != run {
		return false
	}
	s.setStage(stage)
	if stage == Idle {
		s.run = nil
	}
	return true
}

func (s *Sequencer) setStage(stage Stage) {
	s.stage = stage
	if s.observer != nil {
		s.observer(stage)
	}
}
