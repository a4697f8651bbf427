package filter

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// MaxUploadBytes caps a single uploaded document at 10 MiB.
const MaxUploadBytes = 10 << 20

// Upload validation errors belong to the validation class: the request is
// rejected before any side effect.
var (
	ErrUploadTooLarge  = fmt.Errorf("upload exceeds %d bytes", MaxUploadBytes)
	ErrUploadExtension = fmt.Errorf("unsupported file extension")
	ErrUploadBinary    = fmt.Errorf("binary content in a text file")
	ErrUploadEmptyName = fmt.Errorf("upload name is empty")
	ErrUploadEmptyBody = fmt.Errorf("upload body is empty")
)

// textExtensions are extensions whose content must be text. Binary
// container formats (.pdf, .docx, .doc) are exempt from the signature
// check since they legitimately start with binary magic.
var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".json": true,
	".html": true,
}

var allowedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".json": true,
	".pdf":  true,
	".docx": true,
	".doc":  true,
	".html": true,
}

// binarySignatures are executable and archive magic bytes that never
// belong at the start of a text document.
var binarySignatures = [][]byte{
	{'M', 'Z'},             // PE executable
	{0x7f, 'E', 'L', 'F'},  // ELF executable
	{'P', 'K', 0x03, 0x04}, // zip archive
}

// ValidateUpload checks an uploaded document's name, size, extension, and
// leading bytes. nil means the upload may be persisted.
func ValidateUpload(name string, data []byte) error {
	if strings.TrimSpace(name) == "" {
		return ErrUploadEmptyName
	}
	if len(data) == 0 {
		return ErrUploadEmptyBody
	}
	if len(data) > MaxUploadBytes {
		return fmt.Errorf("%w: %d bytes", ErrUploadTooLarge, len(data))
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: %q", ErrUploadExtension, ext)
	}

	if textExtensions[ext] {
		for _, sig := range binarySignatures {
			if bytes.HasPrefix(data, sig) {
				return fmt.Errorf("%w: %s", ErrUploadBinary, name)
			}
		}
	}
	return nil
}
