package mimetypes

import (
	"testing"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		detected string
		expected MIME
		want     bool
	}{
		{"Webm with codec param", "audio/webm; codecs=opus", AudioWebm, true},
		{"Ogg", "audio/ogg", AudioOgg, true},
		{"Wav", "audio/wav", AudioWav, true},
		{"Mismatch", "audio/ogg", AudioWebm, false},
		{"Unknown type", "application/octet-stream", AudioWebm, false},
		{"Invalid MIME", "not a mime", AudioWebm, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Matches(tt.detected, tt.expected)
			if ok != tt.want && got != tt.expected {
				t.Errorf("Matches(%q, %q) = %v; want %v", tt.detected, tt.expected, ok, tt.want)
			}
		})
	}
}

func TestAudioExtension(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		want     string
	}{
		{"Webm", "audio/webm", "webm"},
		{"Webm with codec param", "audio/webm; codecs=opus", "webm"},
		{"Ogg", "audio/ogg", "ogg"},
		{"Wav", "audio/wav", "wav"},
		{"Empty", "", "webm"},
		{"Garbage", "not a mime", "webm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AudioExtension(tt.declared); got != tt.want {
				t.Errorf("AudioExtension(%q) = %q; want %q", tt.declared, got, tt.want)
			}
		})
	}
}

func TestIsAudio(t *testing.T) {
	if !IsAudio("audio/webm; codecs=opus") {
		t.Error("expected audio/webm to be audio")
	}
	if IsAudio("text/plain") {
		t.Error("expected text/plain not to be audio")
	}
}
