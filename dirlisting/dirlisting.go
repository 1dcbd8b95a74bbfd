// Package dirlisting implements a streaming JSON array decoder used to
// read the directory-content response ({"uploads": [...], "folders":
// [...]}) without buffering the whole payload, built on
// encoding/json.Decoder's Token/Decode API to mix token-level scanning
// with per-value decoding, one array element at a time.
package dirlisting

import (
	"encoding/json"
	"io"

	sdkerrors "github.com/cloudvault/filesdk/errors"
)

// Entry is one (variant, value) pair yielded by the decoder, in the
// order it appeared on the wire.
type Entry struct {
	Variant string
	Value   any
}

// Factory returns a fresh pointer to decode the next array element
// into, given the top-level key ("uploads", "folders", ...) it came
// from.
type Factory func() any

type scanState int

const (
	seekingKey scanState = iota
	inArray
)

// Decoder scans a JSON object whose top-level values are arrays of
// objects, yielding one decoded value per array element as it is
// reached, in reading order.
type Decoder struct {
	dec        *json.Decoder
	variants   map[string]Factory
	state      scanState
	currentKey string
	opened     bool
}

// NewDecoder builds a Decoder over r. variants maps each top-level key
// this decoder understands to a Factory producing the Go type that key's
// array elements decode into; an array under an unregistered key is a
// malformed-stream error.
func NewDecoder(r io.Reader, variants map[string]Factory) *Decoder {
	return &Decoder{dec: json.NewDecoder(r), variants: variants, state: seekingKey}
}

// NewDecoderFromToken wraps a *json.Decoder whose cursor already sits
// just past the opening '{' of the object to scan — useful when the
// array-bearing object is nested inside an outer envelope the caller
// has already scanned token-by-token with the same Decoder.
func NewDecoderFromToken(dec *json.Decoder, variants map[string]Factory) *Decoder {
	return &Decoder{dec: dec, variants: variants, state: seekingKey, opened: true}
}

// Next returns the next decoded (variant, value) pair, or io.EOF once
// the outer object has been fully consumed.
func (d *Decoder) Next() (*Entry, error) {
	for {
		switch d.state {
		case seekingKey:
			entry, done, err := d.seekKey()
			if err != nil {
				return nil, err
			}
			if done {
				return nil, io.EOF
			}
			if entry {
				d.state = inArray
			}
		case inArray:
			if !d.dec.More() {
				if _, err := d.dec.Token(); err != nil { // consume ']'
					return nil, err
				}
				d.state = seekingKey
				continue
			}
			factory, ok := d.variants[d.currentKey]
			if !ok {
				return nil, &sdkerrors.JSONError{Message: "unknown directory-listing variant: " + d.currentKey}
			}
			value := factory()
			if err := d.dec.Decode(value); err != nil {
				return nil, err
			}
			return &Entry{Variant: d.currentKey, Value: value}, nil
		}
	}
}

// seekKey reads the next key, whose value must open with '[' (any other
// value is an error), and reports entry=true with currentKey set.
// done=true on a clean EOF (the outer '}' was reached).
func (d *Decoder) seekKey() (entry bool, done bool, err error) {
	if !d.opened {
		tok, terr := d.dec.Token()
		if terr == io.EOF {
			return false, true, nil
		}
		if terr != nil {
			return false, false, terr
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '{' {
			return false, false, &sdkerrors.JSONError{Message: "directory-listing response is not a JSON object"}
		}
		d.opened = true
	}

	tok, terr := d.dec.Token()
	if terr == io.EOF {
		return false, true, nil
	}
	if terr != nil {
		return false, false, terr
	}

	switch t := tok.(type) {
	case json.Delim:
		if t == '}' {
			return false, true, nil
		}
		return false, false, &sdkerrors.JSONError{Message: "unexpected delimiter in directory-listing response"}
	case string:
		d.currentKey = t
		valueTok, verr := d.dec.Token()
		if verr != nil {
			return false, false, verr
		}
		delim, ok := valueTok.(json.Delim)
		if !ok || delim != '[' {
			return false, false, &sdkerrors.JSONError{Message: "expected array value for key " + t}
		}
		return true, false, nil
	default:
		return false, false, &sdkerrors.JSONError{Message: "expected a key string in directory-listing response"}
	}
}
