package validation

import (
	"errors"
	"mime/multipart"
	"strings"
)

const (
	MaxFileSize = 500 * 1024 * 1024 // 500MB
)

var (
	ErrFileTooLarge    = errors.New("file too large - maximum 500MB allowed")
	ErrInvalidFileType = errors.New("invalid file type - only mp4, mov, webm, mkv allowed")
	ErrFilenameTooLong = errors.New("filename too long - maximum 255 characters")
	ErrEmptyFile       = errors.New("file is empty")
)

var AllowedMimeTypes = map[string]bool{
	"video/mp4":        true,
	"video/quicktime":  true,
	"video/webm":       true,
	"video/x-matroska": true,
}

func ValidateUpload(fileHeader *multipart.FileHeader) error {

	if fileHeader.Size == 0 {
		return ErrEmptyFile
	}

	if fileHeader.Size > MaxFileSize {
		return ErrFileTooLarge
	}

	if len(fileHeader.Filename) > 255 {
		return ErrFilenameTooLong
	}

	contentType := fileHeader.Header.Get("Content-Type")

	if contentType == "" {
		contentType = GuessContentType(fileHeader.Filename)
	}

	if !AllowedMimeTypes[contentType] {
		return ErrInvalidFileType
	}

	return nil
}

// GuessContentType maps a filename extension to a MIME type. Also used by the
// local cache to re-wrap a stored video blob whose MIME metadata went missing.
func GuessContentType(filename string) string {

	idx := strings.LastIndex(filename, ".")
	if idx == -1 {
		return "application/octet-stream"
	}

	ext := strings.ToLower(filename[idx+1:])

	typeMap := map[string]string{
		"mp4":  "video/mp4",
		"mov":  "video/quicktime",
		"webm": "video/webm",
		"mkv":  "video/x-matroska",
	}

	if ct, ok := typeMap[ext]; ok {
		return ct
	}

	return "application/octet-stream"
}

func ValidateProjectTitle(title string) error {

	if len(title) > 255 {
		return errors.New("project title too long - maximum 255 characters")
	}

	return nil
}
