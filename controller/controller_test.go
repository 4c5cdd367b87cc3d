package controller

import (
	"math/rand/v2"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-gol-engine/model"
	"github.com/sheikhrachel/go-gol-engine/utils"
)

// fakeClock fires callbacks synchronously from Advance
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward by d, firing due timers in order
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	for {
		var due []*fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && t.at <= target {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			break
		}
		sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
		next := due[0]
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

// Pending returns the number of armed timers
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func testConfig() utils.Config {
	c := utils.DefaultConfig()
	c.Rows, c.Cols = 6, 6
	c.InitialIntervalMillis = 100
	return c
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *fakeClock) {
	t.Helper()
	clock := &fakeClock{}
	opts = append([]Option{WithClock(clock), WithRand(rand.New(rand.NewPCG(3, 4)))}, opts...)
	c, err := New(testConfig(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	return c, clock
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Cols = 0
	if _, err := New(cfg); !errors.Is(err, model.ErrInvalidDimensions) {
		t.Fatalf("New err = %v, want ErrInvalidDimensions", err)
	}
}

func TestNewInitialState(t *testing.T) {
	cfg := testConfig()
	cfg.InitialGeneration = 7
	cfg.InitialIntervalMillis = 5
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	snap := c.Snapshot()
	if snap.Generation != 7 || snap.Playing || snap.IntervalMillis != 10 {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}
	if snap.Grid.Rows() != 6 || snap.Grid.Cols() != 6 || snap.Grid.CountLivingCells() != 0 {
		t.Fatal("initial grid is not an empty 6x6 grid")
	}
}

func TestStepCountsGenerations(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.Toggle(2, 1); err != nil {
		t.Fatal(err)
	}
	_ = c.Toggle(2, 2)
	_ = c.Toggle(2, 3)
	blinker := c.Grid()

	before := c.Generation()
	for range 5 {
		c.Step()
	}
	if got := c.Generation(); got != before+5 {
		t.Fatalf("generation = %d, want %d", got, before+5)
	}
	if !c.Grid().NextGeneration().Equal(blinker) {
		t.Fatal("blinker phase wrong after odd number of steps")
	}
}

func TestResetAndRandomize(t *testing.T) {
	c, clock := newTestController(t)
	c.Randomize()
	if c.Generation() != 0 || c.IsPlaying() {
		t.Fatal("randomize did not zero generation or stop play")
	}
	if c.Grid().CountLivingCells() == 0 {
		t.Fatal("randomize produced an empty 6x6 grid at p=0.3 with a fixed seed")
	}

	c.Play()
	clock.Advance(250 * time.Millisecond)
	if c.Generation() != 2 {
		t.Fatalf("generation = %d, want 2", c.Generation())
	}

	c.Reset()
	if c.Generation() != 0 || c.IsPlaying() || c.Grid().CountLivingCells() != 0 {
		t.Fatal("reset did not clear state")
	}
	if clock.Pending() != 0 {
		t.Fatalf("%d timers left armed after reset", clock.Pending())
	}
	clock.Advance(time.Second)
	if c.Generation() != 0 {
		t.Fatal("ticks fired after reset")
	}

	c.Play()
	c.Randomize()
	if c.IsPlaying() || clock.Pending() != 0 {
		t.Fatal("randomize left autoplay running")
	}
}

func TestToggleOutOfBounds(t *testing.T) {
	c, _ := newTestController(t)
	_ = c.Toggle(0, 0)
	before := c.Snapshot()

	err := c.Toggle(6, 0)
	if !errors.Is(err, model.ErrInvalidCoordinate) {
		t.Fatalf("Toggle err = %v, want ErrInvalidCoordinate", err)
	}
	after := c.Snapshot()
	if !after.Grid.Equal(before.Grid) || after.Generation != before.Generation {
		t.Fatal("failed toggle changed state")
	}
}

func TestGridAccessorIsACopy(t *testing.T) {
	c, _ := newTestController(t)
	g := c.Grid()
	g.Set(1, 1, true)
	if c.Grid().Get(1, 1) {
		t.Fatal("mutating the returned grid changed controller state")
	}
}

func TestAutoplayFiresOncePerInterval(t *testing.T) {
	c, clock := newTestController(t)
	c.Play()
	if !c.IsPlaying() {
		t.Fatal("not playing after Play")
	}

	clock.Advance(99 * time.Millisecond)
	if c.Generation() != 0 {
		t.Fatal("tick fired early")
	}
	clock.Advance(251 * time.Millisecond)
	if got := c.Generation(); got != 3 {
		t.Fatalf("after 350ms at 100ms interval generation = %d, want 3", got)
	}

	c.Pause()
	if clock.Pending() != 0 {
		t.Fatalf("%d timers left armed after pause", clock.Pending())
	}
	clock.Advance(time.Second)
	if c.Generation() != 3 {
		t.Fatal("ticks fired while paused")
	}
}

func TestPlayTwiceSingleLoop(t *testing.T) {
	c, clock := newTestController(t)
	for range 3 {
		c.Play()
	}
	if clock.Pending() != 1 {
		t.Fatalf("%d timers armed, want 1", clock.Pending())
	}
	clock.Advance(100 * time.Millisecond)
	if c.Generation() != 1 {
		t.Fatalf("generation = %d, want 1", c.Generation())
	}
}

func TestPlayPauseCyclesDoNotAccumulate(t *testing.T) {
	c, clock := newTestController(t)
	for range 10 {
		c.Play()
		clock.Advance(50 * time.Millisecond)
		c.Pause()
	}
	if clock.Pending() != 0 {
		t.Fatalf("%d orphaned timers", clock.Pending())
	}
	if c.Generation() != 0 {
		t.Fatalf("generation = %d, want 0", c.Generation())
	}
}

func TestSetSpeedReschedules(t *testing.T) {
	c, clock := newTestController(t)
	c.Play()
	clock.Advance(50 * time.Millisecond)

	if got := c.SetSpeed(300); got != 300 {
		t.Fatalf("SetSpeed returned %d", got)
	}
	if clock.Pending() != 1 {
		t.Fatalf("%d timers armed after SetSpeed, want 1", clock.Pending())
	}
	clock.Advance(299 * time.Millisecond)
	if c.Generation() != 0 {
		t.Fatal("tick fired before the new interval elapsed")
	}
	clock.Advance(time.Millisecond)
	if c.Generation() != 1 {
		t.Fatalf("generation = %d, want 1", c.Generation())
	}
	clock.Advance(600 * time.Millisecond)
	if c.Generation() != 3 {
		t.Fatalf("generation = %d, want 3", c.Generation())
	}
}

func TestSetSpeedClampsAndWhilePaused(t *testing.T) {
	c, clock := newTestController(t)
	if got := c.SetSpeed(1); got != 10 {
		t.Fatalf("SetSpeed(1) = %d, want 10", got)
	}
	if got := c.SetSpeed(5000); got != 2000 || c.IntervalMillis() != 2000 {
		t.Fatalf("SetSpeed(5000) = %d, want 2000", got)
	}
	if clock.Pending() != 0 {
		t.Fatal("SetSpeed armed a timer while paused")
	}

	c.SetSpeed(40)
	c.Play()
	clock.Advance(120 * time.Millisecond)
	if c.Generation() != 3 {
		t.Fatalf("generation = %d, want 3", c.Generation())
	}
}

func TestStaleTickIgnored(t *testing.T) {
	c, clock := newTestController(t)
	c.Play()

	clock.mu.Lock()
	stale := clock.timers[0].f
	clock.mu.Unlock()

	// the callback already started before Pause took effect
	c.Pause()
	stale()
	if c.Generation() != 0 {
		t.Fatal("stale tick stepped the grid after pause")
	}

	c.Play()
	stale()
	if c.Generation() != 0 {
		t.Fatal("stale tick stepped the grid after replay")
	}
	if clock.Pending() != 1 {
		t.Fatalf("%d timers armed, want 1", clock.Pending())
	}
}

func TestListenerNotified(t *testing.T) {
	var (
		mu    sync.Mutex
		snaps []Snapshot
	)
	c, clock := newTestController(t, WithListener(func(s Snapshot) {
		mu.Lock()
		snaps = append(snaps, s)
		mu.Unlock()
	}))

	c.Play()
	clock.Advance(200 * time.Millisecond)
	c.Pause()

	mu.Lock()
	defer mu.Unlock()
	if len(snaps) != 4 {
		t.Fatalf("got %d notifications, want 4", len(snaps))
	}
	if !snaps[0].Playing || snaps[2].Generation != 2 || snaps[3].Playing {
		t.Fatalf("unexpected notifications: %+v", snaps)
	}
	for i := 1; i < len(snaps); i++ {
		if snaps[i].Seq <= snaps[i-1].Seq {
			t.Fatalf("Seq not increasing: %d then %d", snaps[i-1].Seq, snaps[i].Seq)
		}
	}
	if got := c.Snapshot().Seq; got != snaps[3].Seq {
		t.Fatalf("Snapshot().Seq = %d, want %d", got, snaps[3].Seq)
	}
}

func TestSlowListenerKeepsStateOrder(t *testing.T) {
	var (
		mu      sync.Mutex
		last    Snapshot
		once    sync.Once
		entered = make(chan struct{})
	)
	c, clock := newTestController(t, WithListener(func(s Snapshot) {
		if s.Generation == 1 && s.Playing {
			once.Do(func() { close(entered) })
			time.Sleep(50 * time.Millisecond)
		}
		mu.Lock()
		last = s
		mu.Unlock()
	}))

	c.Play()
	done := make(chan struct{})
	go func() {
		defer close(done)
		clock.Advance(100 * time.Millisecond)
	}()

	<-entered
	c.Pause()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if c.IsPlaying() || last.Playing {
		t.Fatalf("controller playing=%v, last notified playing=%v gen=%d",
			c.IsPlaying(), last.Playing, last.Generation)
	}
	if last.Seq != c.Snapshot().Seq {
		t.Fatalf("last notified Seq = %d, controller Seq = %d", last.Seq, c.Snapshot().Seq)
	}
}

func TestStepWithoutListenerReusesBuffers(t *testing.T) {
	cfg := testConfig()
	c, err := New(cfg, WithClock(&fakeClock{}))
	if err != nil {
		t.Fatal(err)
	}
	c.Randomize()
	c.Step()

	// cloning a grid costs one allocation per row plus the row index
	allocs := testing.AllocsPerRun(100, c.Step)
	if allocs >= float64(cfg.Rows) {
		t.Fatalf("Step allocated %.0f times per call without a listener", allocs)
	}
}

func TestRealClockAutoplay(t *testing.T) {
	cfg := testConfig()
	cfg.InitialIntervalMillis = 20
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	c.Play()
	time.Sleep(110 * time.Millisecond)
	c.Pause()
	got := c.Generation()
	if got < 2 || got > 6 {
		t.Fatalf("generation = %d after ~110ms at 20ms interval", got)
	}
	time.Sleep(60 * time.Millisecond)
	if c.Generation() != got {
		t.Fatal("ticks fired after pause")
	}
}

func TestConcurrentCommands(t *testing.T) {
	cfg := testConfig()
	cfg.InitialIntervalMillis = 10
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	c.Randomize()
	c.Play()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				switch (i + j) % 4 {
				case 0:
					c.Step()
				case 1:
					_ = c.Toggle(j%6, i%6)
				case 2:
					c.SetSpeed(10 + j)
				case 3:
					_ = c.Snapshot()
				}
			}
		}()
	}
	wg.Wait()
	c.Pause()

	g := c.Grid()
	if g.Rows() != 6 || g.Cols() != 6 {
		t.Fatal("grid dimensions changed under concurrent commands")
	}
}
