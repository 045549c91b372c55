package input

import (
	"bufio"
	"io"
	"math/bits"
	"strconv"
	"strings"
)

// DeviceInfo describes a candidate keyboard device.
type DeviceInfo struct {
	Path     string
	Name     string
	Readable bool
}

// parseDevices reads the /proc/bus/input/devices format and returns the
// event nodes of devices that report both strafe keys.
func parseDevices(r io.Reader) ([]DeviceInfo, error) {
	var (
		devices []DeviceInfo
		name    string
		handler string
		keys    []uint64
	)
	flush := func() {
		if handler != "" && hasKey(keys, CodeA) && hasKey(keys, CodeD) {
			devices = append(devices, DeviceInfo{Path: "/dev/input/" + handler, Name: name})
		}
		name, handler, keys = "", "", nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "N: Name="):
			name = strings.Trim(strings.TrimPrefix(line, "N: Name="), `"`)
		case strings.HasPrefix(line, "H: Handlers="):
			for _, part := range strings.Fields(strings.TrimPrefix(line, "H: Handlers=")) {
				if strings.HasPrefix(part, "event") {
					handler = part
				}
			}
		case strings.HasPrefix(line, "B: KEY="):
			keys = parseBitmap(strings.TrimPrefix(line, "B: KEY="))
		}
	}
	flush()
	return devices, scanner.Err()
}

// parseBitmap decodes a capability bitmap printed as space separated hex
// words, most significant word first.
func parseBitmap(s string) []uint64 {
	fields := strings.Fields(s)
	words := make([]uint64, 0, len(fields))
	for i := len(fields) - 1; i >= 0; i-- {
		v, err := strconv.ParseUint(fields[i], 16, 64)
		if err != nil {
			return nil
		}
		words = append(words, v)
	}
	return words
}

func hasKey(words []uint64, code uint16) bool {
	idx := int(code) / bits.UintSize
	if idx >= len(words) {
		return false
	}
	return words[idx]&(1<<(uint(code)%bits.UintSize)) != 0
}
