package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"leanup/internal/ports"
	"leanup/internal/shared"
	"leanup/internal/types"
)

const defaultDownloadTimeout = 10 * time.Minute

// HTTPDownloader streams a URL to a local file, reporting content
// length and received bytes through the observer. The file is written
// to a temporary sibling and renamed into place so an aborted download
// never leaves a partial destination.
type HTTPDownloader struct {
	Client    *http.Client
	UserAgent string
}

func NewHTTPDownloader() HTTPDownloader {
	return HTTPDownloader{
		Client:    &http.Client{Timeout: defaultDownloadTimeout},
		UserAgent: "leanup",
	}
}

func (d HTTPDownloader) Download(ctx context.Context, url string, dest string, observer ports.ObserverPort) error {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to prepare download directory").
			WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", d.UserAgent)
	resp, err := d.Client.Do(req)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg(fmt.Sprintf("failed to download '%s'", url)).
			WithCause(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("download request failed").
			WithCause(shared.HTTPStatusError(resp.StatusCode, url))
	}

	observer.OnEvent(types.Event{Kind: types.EventDownloadBegin, URL: url, Total: resp.ContentLength})

	tmp, err := os.CreateTemp(filepath.Dir(dest), "download-*.tmp")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create download temp file").
			WithCause(err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	writer := &progressWriter{
		dst:      tmp,
		url:      url,
		total:    resp.ContentLength,
		observer: observer,
	}
	if _, err := io.Copy(writer, resp.Body); err != nil {
		tmp.Close()
		return errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg(fmt.Sprintf("failed to download '%s'", url)).
			WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to finalize download").
			WithCause(err)
	}
	observer.OnEvent(types.Event{Kind: types.EventDownloadEnd, URL: url, Total: resp.ContentLength, Received: writer.received})
	return nil
}

// progressWriter forwards writes and emits a progress event per chunk.
type progressWriter struct {
	dst      io.Writer
	url      string
	total    int64
	received int64
	observer ports.ObserverPort
}

func (w *progressWriter) Write(p []byte) (int, error) {
	n, err := w.dst.Write(p)
	if n > 0 {
		w.received += int64(n)
		w.observer.OnEvent(types.Event{
			Kind:     types.EventDownloadProgress,
			URL:      w.url,
			Total:    w.total,
			Received: w.received,
		})
	}
	return n, err
}

var _ ports.DownloadPort = HTTPDownloader{}
