// Package consistency bridges the gap between an upload-done response
// and a subsequent file_info query that might otherwise race the
// server's own indexing. TrackUpload records, for a freshly finished
// upload, how many chunks the server has to finish indexing before a
// file_info lookup is guaranteed to see it; AwaitUpload blocks only for
// whatever window remains given that chunk count. Entries self-evict
// via time.AfterFunc, keeping memory bounded regardless of how many
// uploads go untracked by a caller.
package consistency

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	since  time.Time
	window time.Duration
}

var recentUploads sync.Map

const (
	// baseWindow is the floor consistency delay; every chunk adds
	// perChunkWindow on top of it.
	baseWindow = 250 * time.Millisecond
	// perChunkWindow accounts for the server needing proportionally
	// longer to finish indexing a file with more chunks.
	perChunkWindow = 20 * time.Millisecond
	// maxWindow caps the delay regardless of chunk count, so a
	// pathologically large file never blocks a caller for long.
	maxWindow = 5 * time.Second
)

// windowFor scales the consistency delay with how much indexing work
// the server has left to do: more chunks, more time before a
// file_info lookup is guaranteed to observe the upload.
func windowFor(chunks uint64) time.Duration {
	w := baseWindow + time.Duration(chunks)*perChunkWindow
	if w > maxWindow {
		return maxWindow
	}
	return w
}

// TrackUpload records that an upload of the given chunk count just
// completed. The entry self-deletes once its consistency window
// elapses.
func TrackUpload(uuid string, chunks uint64) {
	w := windowFor(chunks)
	recentUploads.Store(uuid, entry{since: time.Now(), window: w})
	time.AfterFunc(w, func() {
		recentUploads.Delete(uuid)
	})
}

// AwaitUpload blocks until the consistency window has elapsed for a
// recently completed upload. Returns immediately for unknown or
// already consistent uploads, so it is safe to call unconditionally
// before any file_info lookup.
func AwaitUpload(ctx context.Context, uuid string) error {
	v, ok := recentUploads.Load(uuid)
	if !ok {
		return nil
	}
	e := v.(entry)

	remaining := e.window - time.Since(e.since)
	if remaining <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(remaining):
		return nil
	}
}
