// Package stream implements a read-ahead download stream: an ordered
// byte stream from a starting offset through end-of-file that keeps a
// bounded window of chunk fetches in flight ahead of the consumer.
package stream

import (
	"context"
	"time"

	"github.com/cloudvault/filesdk/config"
	"github.com/cloudvault/filesdk/crypto"
	"github.com/cloudvault/filesdk/endpoints"
	sdkerrors "github.com/cloudvault/filesdk/errors"
	"github.com/cloudvault/filesdk/strategy"
	"github.com/sirupsen/logrus"
)

type chunkOutcome struct {
	plain []byte
	err   error
}

type pendingTask struct {
	index uint64
	ch    chan chunkOutcome
}

// Stream pulls plaintext chunks in ascending order, starting partway
// into chunk `start` when startByte does not fall on a chunk boundary.
// It is not restartable: Close cancels every in-flight fetch and a new
// byte range requires a new Stream.
type Stream struct {
	ctx    context.Context
	cancel context.CancelFunc

	strat strategy.LowDisk

	region, bucket, uuid, key string
	startByte                 int64
	start, total, current     uint64
	firstPulled               bool

	queue []pendingTask
}

// New constructs a stream over a file of the given size, beginning at
// startByte, and immediately pre-populates the read-ahead window.
func New(ctx context.Context, strat strategy.LowDisk, size, startByte int64, region, bucket, uuid, key string) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	total := uint64(size/config.ChunkSize) + 1
	start := uint64(startByte / config.ChunkSize)

	s := &Stream{
		ctx: ctx, cancel: cancel, strat: strat,
		region: region, bucket: bucket, uuid: uuid, key: key,
		startByte: startByte, start: start, total: total, current: start,
	}

	end := start + config.ReadAheadWindow
	if end > total {
		end = total
	}
	for i := start; i < end; i++ {
		s.enqueue(i)
	}
	return s
}

func (s *Stream) enqueue(i uint64) {
	ch := make(chan chunkOutcome, 1)
	s.queue = append(s.queue, pendingTask{index: i, ch: ch})

	go func() {
		url := endpoints.EgestURL(s.region, s.bucket, s.uuid, i)
		staged, ok := fetchWithRetries(s.ctx, s.strat, url)
		if !ok {
			ch <- chunkOutcome{err: sdkerrors.ErrStreamEnded}
			return
		}

		raw, err := s.strat.StageForDecrypt(staged)
		if err != nil {
			ch <- chunkOutcome{err: &sdkerrors.CryptoError{Cause: err}}
			return
		}
		if len(raw) < crypto.IVSize+crypto.GCMTagSize {
			ch <- chunkOutcome{err: &sdkerrors.InvalidMetadataError{Reason: "chunk shorter than iv+tag"}}
			return
		}
		iv, ciphertext := raw[:crypto.IVSize], raw[crypto.IVSize:]
		plain, err := crypto.OpenChunk([]byte(s.key), iv, ciphertext)
		if err != nil {
			ch <- chunkOutcome{err: &sdkerrors.CryptoError{Cause: err}}
			return
		}
		ch <- chunkOutcome{plain: plain}
	}()
}

func fetchWithRetries(ctx context.Context, strat strategy.LowDisk, url string) ([]byte, bool) {
	for attempt := 0; attempt <= config.DownloadRetries; attempt++ {
		staged, err := strat.Fetch(ctx, url, 0)
		if err == nil {
			return staged, true
		}
		logrus.WithFields(logrus.Fields{"url": url, "attempt": attempt, "err": err}).Debug("stream chunk fetch failed, retrying")
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(config.RetryDelay):
		}
	}
	return nil, false
}

// Pull returns the next slice of plaintext in stream order, or
// sdkerrors.ErrStreamEnded once every chunk through end-of-file has
// been emitted.
func (s *Stream) Pull() ([]byte, error) {
	if s.current >= s.total || len(s.queue) == 0 {
		return nil, sdkerrors.ErrStreamEnded
	}

	head := s.queue[0]
	s.queue = s.queue[1:]

	select {
	case out := <-head.ch:
		if out.err != nil {
			return nil, out.err
		}
		plain := out.plain
		if !s.firstPulled {
			s.firstPulled = true
			if head.index == s.start {
				offset := s.startByte % config.ChunkSize
				if int64(len(plain)) > offset {
					plain = plain[offset:]
				} else {
					plain = nil
				}
			}
		}

		s.current = head.index + 1
		next := head.index + config.ReadAheadWindow
		if next < s.total {
			s.enqueue(next)
		}
		return plain, nil
	case <-s.ctx.Done():
		return nil, s.ctx.Err()
	}
}

// Close cancels every in-flight fetch owned by the stream.
func (s *Stream) Close() { s.cancel() }
