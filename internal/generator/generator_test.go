package generator

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/scan_producer/internal/params"
	"github.com/relabs-tech/scan_producer/internal/scan"
	"github.com/relabs-tech/scan_producer/internal/tf"
)

type fakePublisher struct {
	mu     sync.Mutex
	scans  []*scan.Scan
	tfs    []tf.Stamped
	err    error
	ticked chan struct{}
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{ticked: make(chan struct{}, 100)}
}

func (f *fakePublisher) PublishScan(s *scan.Scan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans = append(f.scans, s)
	return f.err
}

func (f *fakePublisher) PublishTransform(t tf.Stamped) error {
	f.mu.Lock()
	f.tfs = append(f.tfs, t)
	err := f.err
	f.mu.Unlock()
	f.ticked <- struct{}{}
	return err
}

func (f *fakePublisher) snapshot() ([]*scan.Scan, []tf.Stamped) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*scan.Scan(nil), f.scans...), append([]tf.Stamped(nil), f.tfs...)
}

func waitTick(t *testing.T, f *fakePublisher) {
	t.Helper()
	select {
	case <-f.ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a publish")
	}
}

func TestTick_ScanAndTransformShareStamp(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 500))
	g := New(params.Static(params.Defaults()), newFakePublisher(), Options{Clock: mock})

	s, st := g.Tick()
	assert.Equal(t, s.Header.Stamp, st.Header.Stamp)
	assert.Equal(t, scan.Stamp{Secs: 1700000000, Nsecs: 500}, s.Header.Stamp)
	assert.Equal(t, scan.FrameID, s.Header.FrameID)
	assert.Equal(t, tf.BaseFrame, st.Header.FrameID)
	assert.Equal(t, tf.LaserFrame, st.ChildFrameID)
	assert.InDelta(t, -ZStep, st.Transform.Translation.Z, 1e-12)
	assert.Equal(t, tf.Identity, st.Transform.Rotation)
}

func TestTick_RadiusModeScalesWithHeight(t *testing.T) {
	p := params.Defaults()
	p.Radius = 4
	g := New(params.Static(p), newFakePublisher(), Options{Clock: clock.NewMock()})
	g.Oscillator().Z = -1 + ZStep

	s, st := g.Tick()
	assert.InDelta(t, -1.0, st.Transform.Translation.Z, 1e-12)
	require.Len(t, s.Ranges, scan.NumRanges)
	for i, r := range s.Ranges {
		assert.InDelta(t, 2.0, r, 1e-9, "sample %d", i)
	}
}

func TestTick_ReadsParamsEveryTick(t *testing.T) {
	store := params.NewStore()
	store.Set(params.NameRadius, 2.0)
	g := New(store, newFakePublisher(), Options{Clock: clock.NewMock()})
	g.Oscillator().Z = ZMin + ZStep/2
	g.Oscillator().Direction = 1

	s, _ := g.Tick()
	assert.InDelta(t, 2.0*(-ZMin+ZStep/2)/2, s.Ranges[0], 1e-9)

	store.Set(params.NameRadius, "3")
	s, _ = g.Tick()
	// z went below ZMin on the previous tick and now heads back up.
	assert.InDelta(t, 3.0*(-ZMin-ZStep/2)/2, s.Ranges[0], 1e-9)
}

func TestTick_NonFiniteRadiusStillEncodes(t *testing.T) {
	store := params.NewStore()
	store.Set(params.NameRadius, "inf")
	g := New(store, newFakePublisher(), Options{Clock: clock.NewMock()})

	s, _ := g.Tick()
	for i, r := range s.Ranges {
		assert.False(t, math.IsInf(r, 0) || math.IsNaN(r), "sample %d = %v", i, r)
	}
	_, err := json.Marshal(s)
	require.NoError(t, err)
}

func TestTick_RangesAlwaysValid(t *testing.T) {
	for _, p := range []params.Params{
		params.Defaults(),
		{Mode: params.ModeLine, Slope: 1, Intercept: 1},
		{Mode: params.ModeLine, Slope: 0, Intercept: 1},
	} {
		g := New(params.Static(p), newFakePublisher(), Options{Clock: clock.NewMock()})
		for i := 0; i < 200; i++ {
			s, st := g.Tick()
			z := st.Transform.Translation.Z
			require.Len(t, s.Ranges, scan.NumRanges)
			assert.GreaterOrEqual(t, z, ZMin-ZStep-1e-9)
			assert.LessOrEqual(t, z, ZMax+ZStep+1e-9)
			for _, r := range s.Ranges {
				assert.GreaterOrEqual(t, r, 0.0)
			}
		}
	}
}

func TestRun_PacedByClock(t *testing.T) {
	mock := clock.NewMock()
	pub := newFakePublisher()
	g := New(params.Static(params.Defaults()), pub, Options{Clock: mock, Interval: 100 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	// First tick goes out immediately.
	waitTick(t, pub)
	for i := 0; i < 10; i++ {
		mock.Add(100 * time.Millisecond)
		waitTick(t, pub)
	}

	cancel()
	require.NoError(t, <-done)

	scans, tfs := pub.snapshot()
	require.Len(t, scans, 11)
	require.Len(t, tfs, 11)
	assert.Equal(t, uint64(11), g.Ticks())

	for i := range scans {
		assert.Equal(t, scans[i].Header.Stamp, tfs[i].Header.Stamp)
		want := time.Unix(0, 0).Add(time.Duration(i) * 100 * time.Millisecond)
		assert.True(t, scans[i].Header.Stamp.Time().Equal(want), "tick %d stamp %v", i, scans[i].Header.Stamp.Time())
		assert.InDelta(t, -float64(i+1)*ZStep, tfs[i].Transform.Translation.Z, 1e-9)
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	pub := newFakePublisher()
	g := New(params.Static(params.Defaults()), pub, Options{Clock: clock.NewMock()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, g.Run(ctx))

	scans, tfs := pub.snapshot()
	assert.Empty(t, scans)
	assert.Empty(t, tfs)
	assert.Zero(t, g.Ticks())
}

func TestRun_PublishErrorsDoNotStopLoop(t *testing.T) {
	mock := clock.NewMock()
	pub := newFakePublisher()
	pub.err = errors.New("broker gone")
	g := New(params.Static(params.Defaults()), pub, Options{Clock: mock})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	waitTick(t, pub)
	for i := 0; i < 3; i++ {
		mock.Add(DefaultInterval)
		waitTick(t, pub)
	}
	cancel()
	require.NoError(t, <-done)

	scans, _ := pub.snapshot()
	assert.Len(t, scans, 4)
}

func TestNew_Defaults(t *testing.T) {
	g := New(params.Static(params.Defaults()), newFakePublisher(), Options{})
	assert.Equal(t, DefaultInterval, g.interval)
	assert.NotNil(t, g.clock)
	assert.Equal(t, &Oscillator{Z: 0, Direction: 1}, g.Oscillator())
}
