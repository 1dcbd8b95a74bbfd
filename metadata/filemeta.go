package metadata

// FileMetadata is the JSON record encrypted with the file's master key
// (for the "metadata" field) or with the chunk key (for the individual
// name/mime/size fields, each encrypted separately so the server can
// index/sort without decrypting the whole record).
type FileMetadata struct {
	Name         string  `json:"name"`
	Size         *int64  `json:"size,omitempty"`
	MimeType     *string `json:"mime,omitempty"`
	Key          string  `json:"key"`
	LastModified *int64  `json:"lastModified,omitempty"`
	Hash         *string `json:"hash,omitempty"`
}

// KeyBytes returns the file metadata's chunk key as raw bytes, truncated
// or zero-padded to crypto.KeySize as the UTF-8-lossy wire contract
// requires.
func (m FileMetadata) KeyBytes() [32]byte {
	var out [32]byte
	copy(out[:], []byte(m.Key))
	return out
}
