package mimetypes

import (
	"mime"
	"strings"
)

type MIME string

const (
	Unknown MIME = "unknown"

	AudioWebm MIME = "audio/webm"
	AudioOgg  MIME = "audio/ogg"
	AudioWav  MIME = "audio/wav"
	AudioMpeg MIME = "audio/mpeg"
)

// DefaultAudio is assumed when a voice note arrives without a declared
// media type; browsers record webm unless told otherwise.
const DefaultAudio = AudioWebm

func Matches(detected string, expected MIME) (MIME, bool) {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown, false
	}
	return expected, mt == string(expected)
}

// IsAudio reports whether the declared media type sits in the audio
// tree, parameters ignored.
func IsAudio(declared string) bool {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "audio/")
}

// AudioExtension derives a blob file extension from the MIME subtype,
// falling back to webm when the type is absent or unparseable.
func AudioExtension(declared string) string {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "webm"
	}
	if _, sub, ok := strings.Cut(mt, "/"); ok && sub != "" {
		return sub
	}
	return "webm"
}
