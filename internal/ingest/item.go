package ingest

import (
	"fmt"
	"io"
	"os"
)

// PendingItem is one file mid-ingest. It holds the open file handle — the
// locally-held byte stream — for the duration of a batch; the handle is
// released on reset, supersession or completion.
type PendingItem struct {
	Path        string
	Name        string
	ContentType string
	Size        int64
	Date        string // capture date from mtime, "YYYY-MM-DD"
	Width       int    // zero until measured
	Height      int

	file *os.File
}

// Resolution formats the measured dimensions, or "" when measurement failed.
func (it *PendingItem) Resolution() string {
	if it.Width > 0 && it.Height > 0 {
		return fmt.Sprintf("%dx%d", it.Width, it.Height)
	}
	return ""
}

// Stream rewinds the held handle and returns it for reading from the start.
func (it *PendingItem) Stream() (io.Reader, error) {
	if it.file == nil {
		return nil, fmt.Errorf("%s: byte stream already released", it.Name)
	}
	if _, err := it.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind %s: %w", it.Name, err)
	}
	return it.file, nil
}

// Release closes the held byte stream. Safe to call more than once.
func (it *PendingItem) Release() {
	if it.file != nil {
		_ = it.file.Close()
		it.file = nil
	}
}
