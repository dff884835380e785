package validation

import (
	"errors"
	"mime/multipart"
	"net/textproto"
	"testing"
)

func header(name, contentType string, size int64) *multipart.FileHeader {
	h := &multipart.FileHeader{Filename: name, Size: size}
	h.Header = textproto.MIMEHeader{}
	if contentType != "" {
		h.Header.Set("Content-Type", contentType)
	}
	return h
}

func TestValidateUpload(t *testing.T) {
	if err := ValidateUpload(header("clip.mp4", "video/mp4", 1024)); err != nil {
		t.Fatalf("valid mp4 rejected: %v", err)
	}

	if err := ValidateUpload(header("clip.mp4", "", 0)); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("want ErrEmptyFile, got %v", err)
	}

	if err := ValidateUpload(header("big.mp4", "video/mp4", MaxFileSize+1)); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("want ErrFileTooLarge, got %v", err)
	}

	if err := ValidateUpload(header("song.mp3", "audio/mpeg", 1024)); !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("audio must be rejected, got %v", err)
	}

	// Missing content type: guessed from the extension.
	if err := ValidateUpload(header("clip.webm", "", 1024)); err != nil {
		t.Fatalf("extension guess failed: %v", err)
	}
}

func TestGuessContentType(t *testing.T) {
	cases := map[string]string{
		"a.mp4":     "video/mp4",
		"b.MOV":     "video/quicktime",
		"c.webm":    "video/webm",
		"d.mkv":     "video/x-matroska",
		"noext":     "application/octet-stream",
		"weird.xyz": "application/octet-stream",
	}
	for name, want := range cases {
		if got := GuessContentType(name); got != want {
			t.Fatalf("%s: want %s, got %s", name, want, got)
		}
	}
}
