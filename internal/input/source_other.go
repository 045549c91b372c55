//go:build !linux

package input

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
)

// DeviceOptions configures the platform keyboard source.
type DeviceOptions struct {
	Path   string
	Logger *slog.Logger
}

type unsupportedSource struct{}

// NewDeviceSource returns the platform keyboard source. Raw key release
// capture is only implemented for Linux evdev.
func NewDeviceSource(DeviceOptions) Source {
	return unsupportedSource{}
}

func (unsupportedSource) Name() string { return "unsupported" }

func (unsupportedSource) Open() error {
	return fmt.Errorf("raw keyboard capture is not supported on %s; use --demo", runtime.GOOS)
}

func (unsupportedSource) Stream(ctx context.Context, _ func(RawKey)) error {
	<-ctx.Done()
	return ctx.Err()
}

func (unsupportedSource) Close() error { return nil }

// ListDevices is not supported on this platform.
func ListDevices() ([]DeviceInfo, error) {
	return nil, fmt.Errorf("device listing is not supported on %s", runtime.GOOS)
}
