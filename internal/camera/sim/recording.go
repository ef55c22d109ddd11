package sim

import (
	"image"
	"time"

	"github.com/phinze/inviscam/internal/camera"
	"github.com/phinze/inviscam/internal/loop"
)

// recording feeds pump frames to an encoder. Start, Stop and every event
// happen on the session loop.
type recording struct {
	d       *Device
	path    string
	onEvent func(camera.RecordEvent)

	frames  chan image.Image
	dropped int // guarded by d.mu

	started time.Time
	status  loop.Timer
	stopped bool
}

func (r *recording) start(enc *encoder) {
	d := r.d
	r.started = d.sched.Now()
	r.frames = make(chan image.Image, d.cfg.FPS)

	d.mu.Lock()
	d.recs[r] = struct{}{}
	d.mu.Unlock()

	go func() {
		var werr error
		for img := range r.frames {
			if werr != nil {
				continue
			}
			if werr = enc.WriteFrame(img); werr != nil {
				d.sched.Post(r.Stop)
			}
		}
		err := enc.Close()
		if werr != nil {
			err = werr
		}
		d.sched.Post(func() { r.finish(err) })
	}()

	d.logger.Info("recording", "path", r.path)
	d.sched.Post(func() {
		r.onEvent(camera.RecordEvent{Type: camera.RecordStart})
		r.tick()
	})
}

func (r *recording) tick() {
	if r.stopped {
		return
	}
	r.status = r.d.sched.AfterFunc(time.Second, func() {
		r.onEvent(camera.RecordEvent{Type: camera.RecordStatus, Duration: r.elapsed()})
		r.tick()
	})
}

func (r *recording) elapsed() time.Duration {
	if r.started.IsZero() {
		return 0
	}
	return r.d.sched.Now().Sub(r.started)
}

// Stop implements camera.Recording. The Finalize event follows once the
// encoder has flushed.
func (r *recording) Stop() {
	if r.stopped {
		return
	}
	r.stopped = true
	if r.status != nil {
		r.status.Stop()
	}
	d := r.d
	d.mu.Lock()
	if _, ok := d.recs[r]; ok {
		delete(d.recs, r)
		close(r.frames)
		if r.dropped > 0 {
			d.logger.Warn("recording dropped frames", "count", r.dropped)
		}
	}
	d.mu.Unlock()
}

func (r *recording) finish(err error) {
	r.stopped = true
	d := r.d
	dur := r.elapsed()
	d.sched.Post(func() {
		r.onEvent(camera.RecordEvent{Type: camera.RecordFinalize, Duration: dur, Err: err})
	})
}
