//go:build linux

package input

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unsafe"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

const (
	procDevices = "/proc/bus/input/devices"
	inputDir    = "/dev/input"

	evKey = 0x01

	// hotplugSettle gives udev time to apply permissions to a new node.
	hotplugSettle = 200 * time.Millisecond
)

// timevalSize is the kernel timeval width; input_event is timeval + type,
// code (u16) and value (s32).
var (
	timevalSize = int(unsafe.Sizeof(unix.Timeval{}))
	eventSize   = timevalSize + 8
)

// DeviceOptions configures the evdev source.
type DeviceOptions struct {
	// Path reads a single device. Empty discovers keyboards and watches for
	// new ones.
	Path   string
	Logger *slog.Logger
}

type evdevSource struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	files   map[string]*os.File
	closed  bool
	watcher *fsnotify.Watcher
}

// errSourceClosed is returned by attach once shutdown has closed the files.
var errSourceClosed = errors.New("input source closed")

// NewDeviceSource returns the platform keyboard source.
func NewDeviceSource(opts DeviceOptions) Source {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &evdevSource{path: opts.Path, logger: logger, files: make(map[string]*os.File)}
}

func (s *evdevSource) Name() string {
	if s.path != "" {
		return "evdev:" + s.path
	}
	return "evdev"
}

func (s *evdevSource) Open() error {
	paths, err := s.candidates()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no keyboard devices found")
	}
	var lastErr error
	for _, path := range paths {
		if _, err := s.attach(path); err != nil {
			lastErr = err
			s.logger.Debug("skipping input device", "path", path, "error", err)
		}
	}
	if s.count() == 0 {
		return fmt.Errorf("no readable keyboard device (join the 'input' group or run as root): %w", lastErr)
	}
	if s.path == "" {
		watcher, err := fsnotify.NewWatcher()
		if err == nil {
			if err := watcher.Add(inputDir); err != nil {
				s.logger.Warn("keyboard hotplug disabled", "error", err)
				if cerr := watcher.Close(); cerr != nil {
					_ = cerr
				}
			} else {
				s.watcher = watcher
			}
		} else {
			s.logger.Warn("keyboard hotplug disabled", "error", err)
		}
	}
	return nil
}

func (s *evdevSource) candidates() ([]string, error) {
	if s.path != "" {
		return []string{s.path}, nil
	}
	f, err := os.Open(procDevices)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", procDevices, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			_ = cerr
		}
	}()
	devices, err := parseDevices(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", procDevices, err)
	}
	paths := make([]string, 0, len(devices))
	for _, d := range devices {
		paths = append(paths, d.Path)
	}
	return paths, nil
}

// attach opens path and tracks it. The returned file is nil when path was
// already attached. After closeFiles it refuses with errSourceClosed, so no
// reader can start on a file that shutdown will never close.
func (s *evdevSource) attach(path string) (*os.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errSourceClosed
	}
	if _, ok := s.files[path]; ok {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	s.files[path] = f
	return f, nil
}

func (s *evdevSource) detach(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.files[path]; ok {
		if cerr := f.Close(); cerr != nil {
			_ = cerr
		}
		delete(s.files, path)
	}
}

func (s *evdevSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

func (s *evdevSource) file(path string) *os.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[path]
}

func (s *evdevSource) Stream(ctx context.Context, emit func(RawKey)) error {
	g, gctx := errgroup.WithContext(ctx)

	s.mu.Lock()
	for path, f := range s.files {
		g.Go(func() error { return s.read(gctx, path, f, emit) })
	}
	s.mu.Unlock()

	if s.watcher != nil {
		g.Go(func() error { return s.watch(gctx, g, emit) })
	}

	// Blocking reads only return once their file is closed.
	g.Go(func() error {
		<-gctx.Done()
		s.closeFiles()
		return nil
	})

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (s *evdevSource) read(ctx context.Context, path string, f *os.File, emit func(RawKey)) error {
	buf := make([]byte, eventSize*64)
	for {
		n, err := io.ReadAtLeast(f, buf, eventSize)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// A device going away is not fatal to the others.
			s.logger.Info("input device detached", "path", path, "error", err)
			s.detach(path)
			return nil
		}
		for off := 0; off+eventSize <= n; off += eventSize {
			if raw, ok := decodeEvent(buf[off : off+eventSize]); ok {
				emit(raw)
			}
		}
	}
}

func (s *evdevSource) watch(ctx context.Context, g *errgroup.Group, emit func(RawKey)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) || !strings.HasPrefix(filepath.Base(ev.Name), "event") {
				continue
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(hotplugSettle):
			}
			paths, err := s.candidates()
			if err != nil {
				s.logger.Warn("failed to rescan input devices", "error", err)
				continue
			}
			for _, path := range paths {
				if s.file(path) != nil {
					continue
				}
				f, err := s.attach(path)
				if errors.Is(err, errSourceClosed) {
					return nil
				}
				if err != nil {
					s.logger.Debug("skipping input device", "path", path, "error", err)
					continue
				}
				if f == nil {
					continue
				}
				s.logger.Info("input device attached", "path", path)
				g.Go(func() error { return s.read(ctx, path, f, emit) })
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("input device watcher error", "error", err)
		}
	}
}

func (s *evdevSource) closeFiles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for path, f := range s.files {
		if cerr := f.Close(); cerr != nil {
			_ = cerr
		}
		delete(s.files, path)
	}
}

func (s *evdevSource) Close() error {
	s.closeFiles()
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			return fmt.Errorf("failed to close device watcher: %w", err)
		}
		s.watcher = nil
	}
	return nil
}

// decodeEvent parses one input_event record, keeping key transitions only.
func decodeEvent(b []byte) (RawKey, bool) {
	typ := binary.NativeEndian.Uint16(b[timevalSize:])
	if typ != evKey {
		return RawKey{}, false
	}
	code := binary.NativeEndian.Uint16(b[timevalSize+2:])
	value := int32(binary.NativeEndian.Uint32(b[timevalSize+4:]))

	var state KeyState
	switch value {
	case 0:
		state = KeyUp
	case 1:
		state = KeyDown
	case 2:
		state = KeyRepeat
	default:
		return RawKey{}, false
	}

	half := timevalSize / 2
	var sec, usec int64
	if half == 8 {
		sec = int64(binary.NativeEndian.Uint64(b[0:]))
		usec = int64(binary.NativeEndian.Uint64(b[8:]))
	} else {
		sec = int64(int32(binary.NativeEndian.Uint32(b[0:])))
		usec = int64(int32(binary.NativeEndian.Uint32(b[4:])))
	}
	return RawKey{Code: code, State: state, At: time.Unix(sec, usec*1000)}, true
}

// ListDevices reports keyboards found in /proc/bus/input/devices and whether
// the current user can read them.
func ListDevices() ([]DeviceInfo, error) {
	f, err := os.Open(procDevices)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", procDevices, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			_ = cerr
		}
	}()
	devices, err := parseDevices(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", procDevices, err)
	}
	for i := range devices {
		devices[i].Readable = unix.Access(devices[i].Path, unix.R_OK) == nil
	}
	return devices, nil
}
