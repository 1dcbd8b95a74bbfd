// Command rangeserver exposes a single decrypted file over local HTTP
// range requests, translating a byte range straight into a read-ahead
// download stream instead of buffering the file to disk first: a uuid
// query parameter plus an optional Range header drive a stream.New
// call, and the response comes back as a 206 Partial Content with
// Content-Range/Accept-Ranges set accordingly.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cloudvault/filesdk/config"
	"github.com/cloudvault/filesdk/endpoints"
	"github.com/cloudvault/filesdk/fileops"
	"github.com/cloudvault/filesdk/stream"
	"github.com/cloudvault/filesdk/strategy"
	"github.com/sirupsen/logrus"
)

func main() {
	var (
		addr      = flag.String("addr", "127.0.0.1:8181", "address to listen on")
		apiBase   = flag.String("api-base", config.DefaultAPIBaseURL, "API gateway base URL")
		bearer    = flag.String("bearer", "", "bearer token for file_info lookups")
		masterKey = flag.String("master-key", "", "account master key, to decrypt file_info metadata")
		verbose   = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	srv := &rangeServer{
		client:    &http.Client{},
		eps:       endpoints.NewConfig(*apiBase),
		bearer:    *bearer,
		masterKey: *masterKey,
		log:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/download", srv.handleDownload)

	logger.WithField("addr", *addr).Info("rangeserver listening")
	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.WithError(err).Fatal("rangeserver stopped")
	}
}

type rangeServer struct {
	client    *http.Client
	eps       *endpoints.Config
	bearer    string
	masterKey string
	log       *logrus.Logger
}

// handleDownload resolves ?uuid=... via file_info, parses an optional
// Range header, and pipes the requested byte span back through a
// read-ahead stream rather than a single buffered read.
func (s *rangeServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	uuid := r.URL.Query().Get("uuid")
	if uuid == "" {
		http.Error(w, "missing uuid query parameter", http.StatusBadRequest)
		return
	}

	info, err := fileops.GetFileInfo(r.Context(), s.client, s.eps, s.bearer, s.masterKey, uuid)
	if err != nil {
		s.log.WithError(err).WithField("uuid", uuid).Warn("file_info lookup failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	start, end := parseRange(r.Header.Get("Range"), info.Size)

	st := stream.New(r.Context(), strategy.LowDisk{Client: s.client}, info.Size, start, info.Region, info.Bucket, info.UUID, info.ChunkKey)
	defer st.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.FormatInt(end-start, 10))
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end-1, info.Size))
	w.WriteHeader(http.StatusPartialContent)

	remaining := end - start
	for remaining > 0 {
		chunk, err := st.Pull()
		if err != nil {
			if err != context.Canceled {
				s.log.WithError(err).WithField("uuid", uuid).Debug("stream ended")
			}
			return
		}
		if int64(len(chunk)) > remaining {
			chunk = chunk[:remaining]
		}
		n, werr := w.Write(chunk)
		remaining -= int64(n)
		if werr != nil {
			if werr != io.ErrClosedPipe {
				s.log.WithError(werr).Debug("client disconnected mid-stream")
			}
			return
		}
	}
}

// parseRange parses a "bytes=start-end" Range header. An absent header
// or a missing, unparsable or out-of-range start yields the whole file;
// a missing, unparsable or out-of-range end yields start through
// end-of-file.
func parseRange(header string, size int64) (start, end int64) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return 0, size
	}

	spec := strings.TrimPrefix(header, prefix)
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, size
	}

	parsedStart, errStart := strconv.ParseInt(parts[0], 10, 64)
	if errStart != nil || parsedStart < 0 || parsedStart >= size {
		return 0, size
	}

	parsedEnd, errEnd := strconv.ParseInt(parts[1], 10, 64)
	if errEnd != nil || parsedEnd <= parsedStart || parsedEnd > size {
		parsedEnd = size
	}

	return parsedStart, parsedEnd
}
