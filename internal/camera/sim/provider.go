// Package sim is a simulated camera. It stands in for a platform camera stack
// on desktops: devices open and close on timers, frames are synthetic, pictures
// are JPEG files and recordings are encoded by an ffmpeg child process.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/phinze/inviscam/internal/camera"
	"github.com/phinze/inviscam/internal/loop"
	"github.com/phinze/inviscam/internal/zoom"
)

// ErrAlreadyBound is returned by Bind while another device is still bound.
var ErrAlreadyBound = errors.New("camera already bound")

// Config tunes the simulated camera.
type Config struct {
	Width  int
	Height int
	FPS    int

	MinZoom float64
	MaxZoom float64

	// OpenDelay is the time from Bind to OPEN.
	OpenDelay time.Duration

	// FFmpeg is the ffmpeg binary used for recordings.
	FFmpeg string

	// Lenses are the cameras present. Binding any other lens fails.
	Lenses []camera.LensFacing
}

// DefaultConfig returns a 720p, 15 fps camera with a 0.5x-8x zoom range.
func DefaultConfig() Config {
	return Config{
		Width:     1280,
		Height:    720,
		FPS:       15,
		MinZoom:   0.5,
		MaxZoom:   8,
		OpenDelay: 300 * time.Millisecond,
		FFmpeg:    "ffmpeg",
		Lenses:    []camera.LensFacing{camera.LensFront, camera.LensBack},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Width <= 0 || c.Height <= 0 {
		c.Width, c.Height = d.Width, d.Height
	}
	if c.FPS <= 0 {
		c.FPS = d.FPS
	}
	if c.MinZoom <= 0 || c.MaxZoom < c.MinZoom {
		c.MinZoom, c.MaxZoom = d.MinZoom, d.MaxZoom
	}
	if c.OpenDelay < 0 {
		c.OpenDelay = 0
	}
	if c.FFmpeg == "" {
		c.FFmpeg = d.FFmpeg
	}
	if len(c.Lenses) == 0 {
		c.Lenses = d.Lenses
	}
	return c
}

// Provider binds simulated devices. It must be used from the session loop.
type Provider struct {
	sched  loop.Scheduler
	cfg    Config
	logger *slog.Logger

	bound *Device
}

// NewProvider creates a Provider.
func NewProvider(sched loop.Scheduler, cfg Config, logger *slog.Logger) *Provider {
	return &Provider{
		sched:  sched,
		cfg:    cfg.withDefaults(),
		logger: logger.With("component", "sim-camera"),
	}
}

// Bind implements camera.Provider. A device with no use-cases never opens.
func (p *Provider) Bind(lens camera.LensFacing, uc camera.UseCases) (camera.Device, error) {
	if !slices.Contains(p.cfg.Lenses, lens) {
		return nil, fmt.Errorf("%w %s", camera.ErrNoCamera, lens)
	}
	if p.bound != nil {
		return nil, ErrAlreadyBound
	}
	d := newDevice(p, lens, uc)
	p.bound = d
	p.logger.Debug("bind", "lens", lens.String(), "use_cases", uc)
	if !uc.Empty() {
		d.scheduleOpen()
	}
	return d, nil
}

// UnbindAll implements camera.Provider.
func (p *Provider) UnbindAll() {
	d := p.bound
	if d == nil {
		return
	}
	p.bound = nil
	d.close()
}

// Bound returns the bound device, nil when none.
func (p *Provider) Bound() *Device {
	return p.bound
}

// InjectError pushes an error state onto the bound device. A critical error
// also closes it. It reports whether a device was bound.
func (p *Provider) InjectError(code int, critical bool) bool {
	d := p.bound
	if d == nil {
		return false
	}
	d.fail(&camera.StateError{Code: code, Critical: critical, Cause: errors.New("injected failure")})
	return true
}

func (p *Provider) zoomRange() zoom.Range {
	return zoom.Range{Min: p.cfg.MinZoom, Max: p.cfg.MaxZoom}
}
