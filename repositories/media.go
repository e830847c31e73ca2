package repositories

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"chat-hub/domain/mimetypes"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const defaultAudioMime = string(mimetypes.DefaultAudio)

// MediaStore keeps audio blobs under <dataDir>/audio and hands out
// self-contained data URIs so messages never force a second fetch.
type MediaStore struct {
	root string // data dir, also used to resolve legacy file pointers
	dir  string
	log  *slog.Logger
}

func NewMediaStore(dataDir string, log *slog.Logger) (*MediaStore, error) {
	dir := filepath.Join(dataDir, "audio")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}
	return &MediaStore{root: dataDir, dir: dir, log: log}, nil
}

// SaveAudio writes the blob to disk under a generated id and returns a
// data URI embedding the bytes together with the media type it settled
// on, so reference and message field always agree. A blank declared
// type falls back to the sniffed type when the bytes look like audio,
// else to webm; a declared type that disagrees with the sniffed bytes
// is kept, the mismatch is only logged. The blob file extension comes
// from the MIME subtype, defaulting to webm.
func (s *MediaStore) SaveAudio(data []byte, declared string) (string, string, error) {
	detected := mimetype.Detect(data)
	mimeType := strings.TrimSpace(declared)
	if mimeType == "" {
		if mimetypes.IsAudio(detected.String()) {
			mimeType = detected.String()
		} else {
			mimeType = defaultAudioMime
		}
	} else if _, ok := mimetypes.Matches(detected.String(), mimetypes.MIME(mimeType)); !ok {
		s.log.Debug(fmt.Sprintf("Declared media type %s does not match sniffed %s, keeping declared", mimeType, detected.String()))
	}
	name := fmt.Sprintf("audio-%s.%s", uuid.NewString(), mimetypes.AudioExtension(mimeType))
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", "", fmt.Errorf("writing audio blob %s: %w", name, err)
	}
	return DataURI(data, mimeType), mimeType, nil
}

// Resolve materializes a stored media pointer into a data URI. Already
// self-contained references pass through untouched; a pointer that
// cannot be read degrades to being returned unchanged.
func (s *MediaStore) Resolve(ref, mimeType string) string {
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return ref
	}
	candidate := ref
	if _, err := os.Stat(candidate); err != nil {
		trimmed := strings.TrimPrefix(strings.TrimPrefix(ref, "/"), "data/")
		candidate = filepath.Join(s.root, trimmed)
	}
	data, err := os.ReadFile(candidate)
	if err != nil {
		s.log.Debug(fmt.Sprintf("Media pointer %q not resolvable, keeping as is", ref))
		return ref
	}
	if mimeType == "" {
		mimeType = defaultAudioMime
	}
	return DataURI(data, mimeType)
}

// DataURI encodes bytes as a data: reference for the given MIME type.
func DataURI(data []byte, mimeType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURI is the inverse of DataURI. It accepts bare base64 too,
// in which case the returned MIME type is empty.
func DecodeDataURI(ref string) ([]byte, string, error) {
	payload := ref
	mimeType := ""
	if strings.HasPrefix(ref, "data:") {
		meta, rest, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
		if !ok {
			return nil, "", fmt.Errorf("data URI without payload")
		}
		mimeType = strings.TrimSuffix(meta, ";base64")
		payload = rest
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decoding media payload: %w", err)
	}
	return data, mimeType, nil
}
