package clock

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"quicktimer/internal/core/model"
)

// ErrIdleUnsupported indicates idle detection is not available on this system.
var ErrIdleUnsupported = errors.New("idle detection unsupported")

// IdleChecker reports the duration of user inactivity.
type IdleChecker interface {
	IdleDuration() (time.Duration, error)
}

// Target is the event collection the driver feeds elapsed time into.
type Target interface {
	Active() (model.Event, bool)
	Accrue(id int, delta time.Duration) error
	Stop()
}

// Config contains runtime options for the Driver.
type Config struct {
	// IdleStopAfter stops the active event once the user has been idle this
	// long. Zero disables idle detection.
	IdleStopAfter     time.Duration
	IdleCheckInterval time.Duration
}

// Driver turns frame callbacks into accrual on the active event.
type Driver struct {
	mu            sync.Mutex
	target        Target
	source        FrameSource
	options       Config
	logger        zerolog.Logger
	idleChecker   IdleChecker
	idleDisabled  bool
	lastIdleCheck time.Time
	previous      time.Time
	hasPrevious   bool
	running       bool
}

// New creates a Driver. It does nothing until Start is called.
func New(target Target, source FrameSource, logger zerolog.Logger, options Config) *Driver {
	if options.IdleCheckInterval <= 0 {
		options.IdleCheckInterval = 5 * time.Second
	}
	return &Driver{
		target:  target,
		source:  source,
		options: options,
		logger:  logger,
	}
}

// SetIdleChecker injects an idle checker.
func (driver *Driver) SetIdleChecker(checker IdleChecker) {
	driver.mu.Lock()
	defer driver.mu.Unlock()
	driver.idleChecker = checker
	driver.idleDisabled = false
	driver.lastIdleCheck = time.Time{}
}

// UpdateConfig replaces the idle options of a running or stopped driver.
func (driver *Driver) UpdateConfig(options Config) {
	driver.mu.Lock()
	defer driver.mu.Unlock()
	if options.IdleCheckInterval <= 0 {
		options.IdleCheckInterval = 5 * time.Second
	}
	driver.options = options
	driver.lastIdleCheck = time.Time{}
}

// Start begins receiving frames. The first frame after Start only records
// the baseline timestamp.
func (driver *Driver) Start() {
	driver.mu.Lock()
	if driver.running {
		driver.mu.Unlock()
		return
	}
	driver.running = true
	driver.hasPrevious = false
	driver.lastIdleCheck = time.Time{}
	driver.mu.Unlock()

	driver.logger.Debug().Msg("frame driver started")
	driver.source.Start(driver.Tick)
}

// Stop cancels the frame subscription. No accrual happens after Stop returns.
func (driver *Driver) Stop() {
	driver.mu.Lock()
	if !driver.running {
		driver.mu.Unlock()
		return
	}
	driver.running = false
	driver.mu.Unlock()

	// The source may be waiting for an in-flight Tick, so the lock must not
	// be held here.
	driver.source.Stop()
	driver.logger.Debug().Msg("frame driver stopped")
}

// Running reports whether the driver is subscribed to frames.
func (driver *Driver) Running() bool {
	driver.mu.Lock()
	defer driver.mu.Unlock()
	return driver.running
}

// Tick handles one frame. It is exported so display loops that are not a
// FrameSource can drive it directly.
func (driver *Driver) Tick(now time.Time) {
	driver.mu.Lock()
	defer driver.mu.Unlock()
	if !driver.running {
		return
	}

	if !driver.hasPrevious {
		driver.previous = now
		driver.hasPrevious = true
		return
	}

	delta := now.Sub(driver.previous)
	if delta < 0 {
		delta = 0
	}
	driver.previous = now

	active, ok := driver.target.Active()
	if !ok {
		return
	}

	// Accrue re-validates the id, so a stale snapshot only costs a no-op.
	if err := driver.target.Accrue(active.ID, delta); err != nil {
		driver.logger.Debug().Err(err).Int("event_id", active.ID).Msg("accrual skipped")
		return
	}

	driver.handleIdleCheckLocked(now, active)
}

func (driver *Driver) handleIdleCheckLocked(now time.Time, active model.Event) {
	if driver.options.IdleStopAfter <= 0 || driver.idleChecker == nil || driver.idleDisabled {
		return
	}
	if !driver.lastIdleCheck.IsZero() && now.Sub(driver.lastIdleCheck) < driver.options.IdleCheckInterval {
		return
	}
	driver.lastIdleCheck = now

	idle, err := driver.idleChecker.IdleDuration()
	if err != nil {
		if errors.Is(err, ErrIdleUnsupported) {
			driver.idleDisabled = true
			driver.logger.Warn().Err(err).Msg("idle auto-stop disabled")
			return
		}
		driver.logger.Warn().Err(err).Msg("idle check failed")
		return
	}
	if idle >= driver.options.IdleStopAfter {
		driver.logger.Info().
			Int("event_id", active.ID).
			Dur("idle", idle).
			Msg("stopping timer after idle period")
		driver.target.Stop()
	}
}
