package sequence

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	stages []Stage
}

func (r *recorder) observe(s Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, s)
}

func (r *recorder) seen() []Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Stage, len(r.stages))
	copy(out, r.stages)
	return out
}

var testSchedule = Schedule{
	Growing:  50 * time.Millisecond,
	Complete: 150 * time.Millisecond,
	Settle:   300 * time.Millisecond,
}

func TestSequencerPlaysAllStages(t *testing.T) {
	rec := &recorder{}
	s := New(testSchedule, rec.observe)

	s.Start()
	assert.Equal(t, Seed, s.Stage())
	assert.True(t, s.Running())

	s.Wait()
	assert.Equal(t, []Stage{Seed, Growing, Complete, Idle}, rec.seen())
	assert.Equal(t, Idle, s.Stage())
	assert.False(t, s.Running())
}

func TestSequencerRestartSettlesOnce(t *testing.T) {
	rec := &recorder{}
	s := New(testSchedule, rec.observe)

	s.Start()
	s.Start()
	s.Wait()

	// Give any stale timer from the first run a chance to fire.
	time.Sleep(testSchedule.Settle)

	assert.Equal(t, []Stage{Seed, Seed, Growing, Complete, Idle}, rec.seen())
	assert.Equal(t, Idle, s.Stage())
}

func TestSequencerRestartMidRunDropsStaleStages(t *testing.T) {
	rec := &recorder{}
	s := New(testSchedule, rec.observe)

	s.Start()
	time.Sleep(90 * time.Millisecond)
	require.Equal(t, Growing, s.Stage())

	s.Start()
	s.Wait()
	time.Sleep(testSchedule.Settle)

	assert.Equal(t, []Stage{Seed, Growing, Seed, Growing, Complete, Idle}, rec.seen())
}

func TestSequencerStop(t *testing.T) {
	rec := &recorder{}
	s := New(testSchedule, rec.observe)

	s.Start()
	s.Stop()
	assert.Equal(t, Idle, s.Stage())
	assert.False(t, s.Running())

	time.Sleep(testSchedule.Settle + 50*time.Millisecond)
	assert.Equal(t, []Stage{Seed}, rec.seen())
}

func TestSequencerStopWithoutRun(t *testing.T) {
	s := New(testSchedule, nil)
	s.Stop()
	s.Wait()
	assert.Equal(t, Idle, s.Stage())
}

func TestScheduleValidate(t *testing.T) {
	assert.NoError(t, DefaultSchedule.Validate())
	assert.Error(t, Schedule{Growing: 10, Complete: 5, Settle: 20}.Validate())
	assert.Error(t, Schedule{}.Validate())
}

func TestStageCopy(t *testing.T) {
	assert.Equal(t, "Seed planted", Seed.Label())
	assert.Equal(t, "Tree planted", Complete.Label())
	assert.Equal(t, "", Idle.Label())
	assert.Equal(t, "🌳", Complete.Emoji())
}
