package frame

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gocv.io/x/gocv"
)

// ErrDeviceClosed is returned once the capture device stops delivering.
var ErrDeviceClosed = errors.New("capture device closed")

// Source delivers RGBA frames. Next blocks until a frame is ready, the
// context ends, or the source is exhausted (io.EOF). Any other error fails
// only that read unless it wraps ErrDeviceClosed. The caller owns each
// returned Mat.
type Source interface {
	Next(ctx context.Context) (gocv.Mat, error)
	Close() error
}

// Camera reads frames from a capture device at a fixed interval.
type Camera struct {
	deviceID int
	webcam   *gocv.VideoCapture
	ticker   *time.Ticker
	first    bool
}

// OpenCamera opens a capture device read every interval.
func OpenCamera(deviceID int, interval time.Duration) (*Camera, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("open camera %d: interval must be positive, got %v", deviceID, interval)
	}
	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", deviceID, err)
	}
	return &Camera{
		deviceID: deviceID,
		webcam:   webcam,
		ticker:   time.NewTicker(interval),
		first:    true,
	}, nil
}

// Next waits for the next tick, then reads and converts one frame. The first
// call reads immediately. Empty reads, common while a webcam warms up, are
// skipped until a later tick delivers a frame.
func (c *Camera) Next(ctx context.Context) (gocv.Mat, error) {
	bgr := gocv.NewMat()
	defer bgr.Close()

	for {
		if c.first {
			c.first = false
		} else {
			select {
			case <-ctx.Done():
				return gocv.NewMat(), ctx.Err()
			case <-c.ticker.C:
			}
		}

		if ok := c.webcam.Read(&bgr); !ok {
			return gocv.NewMat(), fmt.Errorf("camera %d: %w", c.deviceID, ErrDeviceClosed)
		}
		if !bgr.Empty() {
			break
		}
	}

	rgba := gocv.NewMat()
	gocv.CvtColor(bgr, &rgba, gocv.ColorBGRToRGBA)
	return rgba, nil
}

// Close stops the ticker and releases the device.
func (c *Camera) Close() error {
	c.ticker.Stop()
	return c.webcam.Close()
}

// Files replays image files in order, then reports io.EOF.
type Files struct {
	paths []string
	next  int
}

// NewFiles returns a source over paths. A directory expands to the supported
// images it contains, sorted by name.
func NewFiles(paths ...string) (*Files, error) {
	var all []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			all = append(all, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && IsSupportedFormat(e.Name()) {
				found = append(found, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(found)
		all = append(all, found...)
	}
	return &Files{paths: all}, nil
}

// Len returns the number of files in the source.
func (f *Files) Len() int {
	return len(f.paths)
}

// Next loads the next file.
func (f *Files) Next(ctx context.Context) (gocv.Mat, error) {
	if err := ctx.Err(); err != nil {
		return gocv.NewMat(), err
	}
	if f.next >= len(f.paths) {
		return gocv.NewMat(), io.EOF
	}
	path := f.paths[f.next]
	f.next++

	m, err := LoadMat(path)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Close is a no-op.
func (f *Files) Close() error {
	return nil
}
