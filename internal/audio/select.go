package audio

import (
	"fmt"
	"strconv"
	"strings"
)

// InputDevices filters devices down to those that can capture.
func InputDevices(devices []DeviceInfo) []DeviceInfo {
	var inputs []DeviceInfo
	for _, d := range devices {
		if d.IsInput() {
			inputs = append(inputs, d)
		}
	}
	return inputs
}

// SelectDevice picks an input device by selector. A numeric selector matches
// the device index, anything else matches the name exactly (case-insensitive)
// and then as a substring. An empty selector picks the first input device.
func SelectDevice(devices []DeviceInfo, selector string) (DeviceInfo, error) {
	inputs := InputDevices(devices)
	if len(inputs) == 0 {
		return DeviceInfo{}, ErrNoAudioDevice
	}

	selector = strings.TrimSpace(selector)
	if selector == "" {
		return inputs[0], nil
	}

	if idx, err := strconv.Atoi(selector); err == nil {
		for _, d := range inputs {
			if d.Index == idx {
				return d, nil
			}
		}
		return DeviceInfo{}, fmt.Errorf("%w: no input device with index %d", ErrDeviceNotFound, idx)
	}

	for _, d := range inputs {
		if strings.EqualFold(d.Name, selector) {
			return d, nil
		}
	}
	needle := strings.ToLower(selector)
	for _, d := range inputs {
		if strings.Contains(strings.ToLower(d.Name), needle) {
			return d, nil
		}
	}

	return DeviceInfo{}, fmt.Errorf("%w: %q", ErrDeviceNotFound, selector)
}

// DescribeDevices formats input devices as "index) name" for logging.
func DescribeDevices(devices []DeviceInfo) string {
	parts := make([]string, 0, len(devices))
	for _, d := range InputDevices(devices) {
		parts = append(parts, fmt.Sprintf("%d) %s", d.Index, d.Name))
	}
	return strings.Join(parts, ", ")
}
