package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/koopa0/parley/internal/log"
	"github.com/koopa0/parley/internal/security"
)

// ToolFileReader is the wire name of the file reader tool.
const ToolFileReader = "file_reader"

// MaxReadFileSize caps file reads at 10 MB to prevent OOM on large files.
const MaxReadFileSize = 10 << 20

// FileReaderInput defines input for the file_reader tool.
type FileReaderInput struct {
	Path string `json:"path" jsonschema_description:"File path relative to the configured root directory"`
}

// NewFileReader creates the file reader tool.
//
// Every path goes through the security.Path validator: traversal segments
// are rejected before resolution and symlinks cannot escape the sandbox
// root. Violations surface as invalid_input so the model can correct the
// path instead of aborting the request.
func NewFileReader(pathVal *security.Path, logger log.Logger) (*ExecutableTool, error) {
	if pathVal == nil {
		return nil, fmt.Errorf("path validator is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	handler := func(_ context.Context, input FileReaderInput) Result {
		logger.Info("file_reader called", "path", input.Path)

		safePath, err := pathVal.Validate(input.Path)
		if err != nil {
			logger.Warn("file_reader path rejected", "path", input.Path, "error", err)
			return Result{
				Status:  StatusError,
				Message: "path validation failed",
				Error: &Error{
					Code:    ErrCodeInvalidInput,
					Message: fmt.Sprintf("path %q is not allowed: %v", input.Path, err),
				},
			}
		}

		f, err := os.Open(safePath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Errorf(ErrCodeExecution, fmt.Sprintf("file not found: %s", input.Path))
			}
			return Errorf(ErrCodeExecution, fmt.Sprintf("opening file: %v", err))
		}
		defer func() { _ = f.Close() }()

		info, err := f.Stat()
		if err != nil {
			return Errorf(ErrCodeExecution, fmt.Sprintf("stat file: %v", err))
		}
		if info.IsDir() {
			return Errorf(ErrCodeInvalidInput, fmt.Sprintf("%s is a directory", input.Path))
		}
		if info.Size() > MaxReadFileSize {
			return Errorf(ErrCodeInvalidInput,
				fmt.Sprintf("file too large: %d bytes (max %d MB)", info.Size(), MaxReadFileSize>>20))
		}

		content, err := io.ReadAll(io.LimitReader(f, MaxReadFileSize))
		if err != nil {
			return Errorf(ErrCodeExecution, fmt.Sprintf("reading file: %v", err))
		}

		return Result{
			Status:  StatusSuccess,
			Message: fmt.Sprintf("read %s (%d bytes)", filepath.Base(safePath), len(content)),
			Data: map[string]any{
				"path":    input.Path,
				"size":    len(content),
				"content": string(content),
			},
		}
	}

	return NewTool(ToolFileReader,
		"Read the content of a text file under the configured root directory. "+
			"Paths are validated; traversal outside the root is rejected.",
		handler)
}
