package recognizer

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func TestDeepgramHandleFrame(t *testing.T) {
	tests := []struct {
		name         string
		frame        string
		wantInterims []string
		wantFinals   []string
	}{
		{
			name:         "interim result",
			frame:        `{"type":"Results","channel":{"alternatives":[{"transcript":"hello wor","confidence":0.8}]},"is_final":false}`,
			wantInterims: []string{"hello wor"},
		},
		{
			name:       "final result",
			frame:      `{"type":"Results","channel":{"alternatives":[{"transcript":"hello world","confidence":0.97}]},"is_final":true,"speech_final":true}`,
			wantFinals: []string{"hello world"},
		},
		{
			name:  "empty transcript dropped",
			frame: `{"type":"Results","channel":{"alternatives":[{"transcript":""}]},"is_final":true}`,
		},
		{
			name:  "metadata ignored",
			frame: `{"type":"Metadata"}`,
		},
		{
			name:  "garbage dropped",
			frame: `{not json`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			d := NewDeepgram(DeepgramConfig{APIKey: "test"}, nil, rec.callbacks(), testLogger())

			d.handleFrame([]byte(tt.frame))

			if got := rec.interimTexts(); !reflect.DeepEqual(got, tt.wantInterims) {
				t.Errorf("interims = %v, want %v", got, tt.wantInterims)
			}
			if got := rec.finalTexts(); !reflect.DeepEqual(got, tt.wantFinals) {
				t.Errorf("finals = %v, want %v", got, tt.wantFinals)
			}
		})
	}
}

func TestDeepgramStreamURL(t *testing.T) {
	d := NewDeepgram(DeepgramConfig{
		APIKey:     "test",
		Language:   "en-US",
		SampleRate: 16000,
		Keywords:   []string{"Nazareth", "John Smith"},
	}, nil, Callbacks{}, testLogger())

	got := d.streamURL()
	for _, want := range []string{
		"model=nova-2",
		"language=en-US",
		"encoding=linear16",
		"sample_rate=16000",
		"interim_results=true",
		"keywords=Nazareth",
		"keywords=John+Smith",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("streamURL() = %q, missing %q", got, want)
		}
	}
}

func TestDeepgramStartRequiresAPIKey(t *testing.T) {
	d := NewDeepgram(DeepgramConfig{}, nil, Callbacks{}, testLogger())
	if err := d.Start(context.Background()); err == nil {
		t.Error("Start() without API key = nil, want error")
	}
}
