package controller

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-gol-engine/model"
	"github.com/sheikhrachel/go-gol-engine/utils"
)

// Snapshot is a point-in-time copy of the simulation state
type Snapshot struct {
	// Seq increases with every state change, so consumers can discard stale snapshots
	Seq            uint64
	Grid           *model.Grid
	Generation     int
	Playing        bool
	IntervalMillis int
}

// Listener is notified after every state change, outside the state lock.
// Calls are serialized and arrive in Seq order. A listener must not call
// back into the Controller.
type Listener func(Snapshot)

// Option configures a Controller
type Option func(*Controller)

// WithClock replaces the wall clock used for autoplay
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithRand sets the random source used by Randomize
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) { c.rng = rng }
}

// WithListener registers a state change listener
func WithListener(l Listener) Option {
	return func(c *Controller) { c.listener = l }
}

// Controller owns the simulation state and drives autoplay.
// All commands are safe for concurrent use.
type Controller struct {
	config   utils.Config
	clock    Clock
	rng      *rand.Rand
	pool     *model.GridPool
	listener Listener

	mu         sync.Mutex
	grid       *model.Grid
	generation int
	playing    bool
	interval   int
	seq        uint64

	timer Timer
	// epoch identifies the armed tick; callbacks from older epochs are ignored
	epoch uint64

	// notifyMu is taken before mu is released so deliveries keep state order
	notifyMu sync.Mutex
}

// New builds a controller with an empty grid from the configuration
func New(config utils.Config, opts ...Option) (*Controller, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "[New] invalid configuration")
	}

	grid, err := model.NewGrid(config.Rows, config.Cols)
	if err != nil {
		return nil, errors.Wrap(err, "[New] failed to create grid")
	}

	c := &Controller{
		config:     config,
		clock:      realClock{},
		grid:       grid,
		generation: config.InitialGeneration,
		interval:   config.ClampInterval(config.InitialIntervalMillis),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		seed := uint64(config.Seed)
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		c.rng = rand.New(rand.NewPCG(seed, 0))
	}
	if config.UseMemoryPool {
		c.pool = model.NewGridPool()
	}
	return c, nil
}

// Step advances the grid by one generation
func (c *Controller) Step() {
	c.mu.Lock()
	c.step()
	c.unlockAndNotify()
}

// Play starts autoplay. Calling it while already playing does nothing.
func (c *Controller) Play() {
	c.mu.Lock()
	if c.playing {
		c.mu.Unlock()
		return
	}
	c.playing = true
	c.arm()
	c.unlockAndNotify()
}

// Pause stops autoplay and cancels the pending tick
func (c *Controller) Pause() {
	c.mu.Lock()
	c.playing = false
	c.disarm()
	c.unlockAndNotify()
}

// Reset clears the grid, zeroes the generation and stops autoplay
func (c *Controller) Reset() {
	c.replace(model.Empty)
}

// Randomize refills the grid randomly, zeroes the generation and stops autoplay
func (c *Controller) Randomize() {
	c.replace(model.Random)
}

// Toggle inverts one cell. Out of bounds coordinates return
// model.ErrInvalidCoordinate and leave the state unchanged.
func (c *Controller) Toggle(row, col int) error {
	c.mu.Lock()
	next, err := c.grid.Toggle(row, col)
	if err != nil {
		c.mu.Unlock()
		return errors.Wrap(err, "[Toggle] failed to toggle cell")
	}
	model.GridToPool(c.grid, c.pool)
	c.grid = next
	c.unlockAndNotify()
	return nil
}

// SetSpeed sets the autoplay interval, clamped to the configured range, and
// returns the value applied. While playing the pending tick is replaced by one
// a full new interval from now.
func (c *Controller) SetSpeed(ms int) int {
	c.mu.Lock()
	c.interval = c.config.ClampInterval(ms)
	if c.playing {
		c.disarm()
		c.arm()
	}
	applied := c.interval
	c.unlockAndNotify()
	return applied
}

// Grid returns a copy of the current grid
func (c *Controller) Grid() *model.Grid {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.grid.Clone()
}

// Generation returns the number of steps applied since the last reset
func (c *Controller) Generation() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// IsPlaying reports whether autoplay is active
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// IntervalMillis returns the current autoplay interval
func (c *Controller) IntervalMillis() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// Snapshot returns a consistent copy of the whole state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) replace(mode model.FillMode) {
	c.mu.Lock()
	// config was validated in New, so this cannot fail
	grid, err := model.CreateGrid(c.config.Rows, c.config.Cols, mode, c.config.RandomFillProbability, c.rng)
	if err != nil {
		c.mu.Unlock()
		panic(errors.Wrap(err, "[replace] failed to create grid"))
	}
	c.playing = false
	c.disarm()
	model.GridToPool(c.grid, c.pool)
	c.grid = grid
	c.generation = 0
	c.unlockAndNotify()
}

// step must be called with mu held
func (c *Controller) step() {
	next := c.pool.NextGeneration(c.grid)
	model.GridToPool(c.grid, c.pool)
	c.grid = next
	c.generation++
}

// arm schedules the next tick; mu must be held
func (c *Controller) arm() {
	c.epoch++
	epoch := c.epoch
	c.timer = c.clock.AfterFunc(time.Duration(c.interval)*time.Millisecond, func() {
		c.tick(epoch)
	})
}

// disarm cancels the pending tick; mu must be held
func (c *Controller) disarm() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	// a callback that already started waits on mu and then sees a stale epoch
	c.epoch++
}

func (c *Controller) tick(epoch uint64) {
	c.mu.Lock()
	if !c.playing || epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	c.step()
	c.arm()
	c.unlockAndNotify()
}

func (c *Controller) snapshot() Snapshot {
	return Snapshot{
		Seq:            c.seq,
		Grid:           c.grid.Clone(),
		Generation:     c.generation,
		Playing:        c.playing,
		IntervalMillis: c.interval,
	}
}

// unlockAndNotify records a state change, releases mu and delivers the
// new snapshot. mu must be held.
func (c *Controller) unlockAndNotify() {
	c.seq++
	if c.listener == nil {
		c.mu.Unlock()
		return
	}
	snap := c.snapshot()
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()
	c.listener(snap)
}
