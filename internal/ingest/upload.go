package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// PutObject transfers the byte stream to the presigned URL. The credential
// is single-purpose and content-type-pinned, so the PUT must carry exactly
// the declared type. No retry here: an expired or rejected credential is
// surfaced verbatim and the batch halts at this item.
func PutObject(ctx context.Context, client *http.Client, uploadURL, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upload rejected: status %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}
