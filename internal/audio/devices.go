package audio

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Device is one capture device reported by the capture tool.
type Device struct {
	ID   string `json:"id"`   // ALSA address, e.g. hw:1,0
	Name string `json:"name"` // human readable card and device name
}

var deviceLine = regexp.MustCompile(`^card (\d+): .*?\[([^\]]+)\], device (\d+): .*?\[([^\]]+)\]`)

// ListDevices asks the capture command for its capture hardware list.
func ListDevices(ctx context.Context, command string) ([]Device, error) {
	if command == "" {
		command = "arecord"
	}
	out, err := exec.CommandContext(ctx, command, "-l").Output()
	if err != nil {
		return nil, fmt.Errorf("audio: listing capture devices: %w", err)
	}
	return parseDeviceList(string(out)), nil
}

func parseDeviceList(out string) []Device {
	var devices []Device
	for _, line := range strings.Split(out, "\n") {
		m := deviceLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		devices = append(devices, Device{
			ID:   fmt.Sprintf("hw:%s,%s", m[1], m[3]),
			Name: fmt.Sprintf("%s - %s", m[2], m[4]),
		})
	}
	return devices
}
