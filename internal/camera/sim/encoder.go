package sim

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// encoder pipes JPEG frames into an ffmpeg child process writing an mp4.
type encoder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	waitCh chan error
}

// encoderArgs builds the ffmpeg command line for an image2pipe input.
func encoderArgs(fps int, path string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-f", "image2pipe",
		"-framerate", strconv.Itoa(fps),
		"-c:v", "mjpeg",
		"-i", "-",
		"-an",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		path,
	}
}

func startEncoder(ffmpeg, path string, fps int) (*encoder, error) {
	bin, err := exec.LookPath(ffmpeg)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}
	e := &encoder{waitCh: make(chan error, 1)}
	e.cmd = exec.Command(bin, encoderArgs(fps, path)...)
	e.cmd.Stderr = &e.stderr
	e.stdin, err = e.cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := e.cmd.Start(); err != nil {
		return nil, err
	}
	go func() {
		e.waitCh <- e.cmd.Wait()
	}()
	return e, nil
}

// WriteFrame encodes img as one JPEG frame of the stream.
func (e *encoder) WriteFrame(img image.Image) error {
	if err := jpeg.Encode(e.stdin, img, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Close ends the input and waits for ffmpeg to finish the file, killing it
// if it takes too long.
func (e *encoder) Close() error {
	_ = e.stdin.Close()
	exited, err := waitForExit(e.waitCh, 10*time.Second)
	if !exited {
		if kerr := e.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
			return kerr
		}
		<-e.waitCh
		return errors.New("ffmpeg did not exit")
	}
	if err != nil {
		if msg := strings.TrimSpace(e.stderr.String()); msg != "" {
			return fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

// waitForExit waits for a process to exit or times out.
func waitForExit(waitCh <-chan error, timeout time.Duration) (bool, error) {
	select {
	case err := <-waitCh:
		return true, err
	case <-time.After(timeout):
		return false, nil
	}
}
