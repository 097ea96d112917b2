package fileutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rohmanhakim/offcache/pkg/failure"
)

// EnsureDir check if a given directory plus the following path exist, then create one if not
func EnsureDir(dir string, path ...string) failure.ClassifiedError {
	targetPath := []string{dir}
	targetPath = append(targetPath, path...)

	targetDir := filepath.Join(targetPath...)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return &FileError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     ErrCausePathError,
		}
	}
	return nil
}
