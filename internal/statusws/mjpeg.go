package statusws

import (
	"bytes"
	"image"
	"image/jpeg"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/phinze/inviscam/internal/camera"
)

const boundary = "frame"

// Stream broadcasts JPEG preview frames to HTTP clients. It is a
// camera.PreviewSink.
type Stream struct {
	mu          sync.RWMutex
	subs        map[chan []byte]struct{}
	last        []byte
	minInterval time.Duration
	lastPush    time.Time
	quality     int
	now         func() time.Time
}

var _ camera.PreviewSink = (*Stream)(nil)

// NewStream creates a stream publishing at most one frame per minInterval.
func NewStream(minInterval time.Duration, quality int) *Stream {
	if quality <= 0 || quality > 100 {
		quality = 70
	}
	return &Stream{
		subs:        make(map[chan []byte]struct{}),
		minInterval: minInterval,
		quality:     quality,
		now:         time.Now,
	}
}

// Subscribers returns the number of connected clients.
func (s *Stream) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// PublishFrame encodes img and publishes it. Frames arriving faster than the
// minimum interval, or while nobody watches, are skipped before encoding.
func (s *Stream) PublishFrame(img image.Image) {
	s.mu.RLock()
	skip := len(s.subs) == 0 || (s.minInterval > 0 && s.now().Sub(s.lastPush) < s.minInterval)
	s.mu.RUnlock()
	if skip {
		return
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.quality}); err != nil {
		return
	}
	s.Publish(buf.Bytes())
}

// Publish sends a JPEG frame to all subscribers.
func (s *Stream) Publish(jpg []byte) {
	frame := append([]byte(nil), jpg...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = frame
	s.lastPush = s.now()
	for ch := range s.subs {
		// Replace any frame the client has not picked up yet.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- frame:
		default:
		}
	}
}

// Handler serves the multipart MJPEG stream.
func (s *Stream) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")

	fl, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case jpg := <-ch:
			if err := writePart(w, jpg); err != nil {
				return
			}
			fl.Flush()
		}
	}
}

func (s *Stream) subscribe() chan []byte {
	ch := make(chan []byte, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	if len(s.last) > 0 {
		ch <- s.last
	}
	s.mu.Unlock()
	return ch
}

func (s *Stream) unsubscribe(ch chan []byte) {
	s.mu.Lock()
	delete(s.subs, ch)
	s.mu.Unlock()
}

func writePart(w http.ResponseWriter, jpg []byte) error {
	header := "\r\n--" + boundary + "\r\n" +
		"Content-Type: image/jpeg\r\n" +
		"Content-Length: " + strconv.Itoa(len(jpg)) + "\r\n\r\n"
	if _, err := w.Write([]byte(header)); err != nil {
		return err
	}
	_, err := w.Write(jpg)
	return err
}
