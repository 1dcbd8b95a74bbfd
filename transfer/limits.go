// Package transfer implements the chunked parallel download and upload
// pipeline: bounded-concurrency fetch/put, retries, ordered reassembly
// or chunk-file output, and byte-range clipping.
package transfer

import (
	"github.com/cloudvault/filesdk/config"
)

// Limits holds the concurrency semaphores shared across every transfer
// run with it: one bounds chunk fetches, the other chunk puts.
type Limits struct {
	downloadSem chan struct{}
	uploadSem   chan struct{}
}

// NewLimits builds the default semaphore pair (50/50, per config).
func NewLimits() *Limits {
	return &Limits{
		downloadSem: make(chan struct{}, config.MaxDownloadConcurrency),
		uploadSem:   make(chan struct{}, config.MaxUploadConcurrency),
	}
}

func (l *Limits) acquireDownload() { l.downloadSem <- struct{}{} }
func (l *Limits) releaseDownload() { <-l.downloadSem }
func (l *Limits) acquireUpload()   { l.uploadSem <- struct{}{} }
func (l *Limits) releaseUpload()   { <-l.uploadSem }
