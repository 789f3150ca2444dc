package audio

import (
	"context"
	"io"
	"log"
	"reflect"
	"testing"
)

func TestParseDeviceList(t *testing.T) {
	out := `**** List of CAPTURE Hardware Devices ****
card 0: PCH [HDA Intel PCH], device 0: ALC3202 Analog [ALC3202 Analog]
  Subdevices: 1/1
  Subdevice #0: subdevice #0
card 1: Device [USB Audio Device], device 0: USB Audio [USB Audio]
  Subdevices: 1/1
  Subdevice #0: subdevice #0
`
	want := []Device{
		{ID: "hw:0,0", Name: "HDA Intel PCH - ALC3202 Analog"},
		{ID: "hw:1,0", Name: "USB Audio Device - USB Audio"},
	}
	if got := parseDeviceList(out); !reflect.DeepEqual(got, want) {
		t.Errorf("parseDeviceList() = %v, want %v", got, want)
	}
}

func TestParseDeviceListEmpty(t *testing.T) {
	if got := parseDeviceList("**** List of CAPTURE Hardware Devices ****\n"); got != nil {
		t.Errorf("parseDeviceList(no devices) = %v, want nil", got)
	}
}

func TestOpenMissingCommand(t *testing.T) {
	r := NewRecorder(Config{Command: "definitely-not-a-capture-tool"}, log.New(io.Discard, "", 0))
	if _, err := r.Open(context.Background()); err == nil {
		t.Error("Open() with missing command = nil, want error")
	}
}

func TestListDevicesMissingCommand(t *testing.T) {
	if _, err := ListDevices(context.Background(), "definitely-not-a-capture-tool"); err == nil {
		t.Error("ListDevices() with missing command = nil, want error")
	}
}
