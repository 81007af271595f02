package checksum

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/vvka-141/fsgen/pkg/fsgen"
)

// Calculator computes content digests.
type Calculator interface {
	// CalculateRaw computes a checksum of the raw, unmodified content.
	CalculateRaw(content []byte) string

	// CalculateNormalized computes a checksum that ignores line ending style.
	CalculateNormalized(content []byte) string

	// CalculateFile streams path from fs and returns its raw checksum and size.
	CalculateFile(fs fsgen.FileSystem, path string) (string, int64, error)
}

// SHA256 implements Calculator using SHA-256.
// SHA256 is a zero-size type and is safe for concurrent use by multiple goroutines.
type SHA256 struct{}

// New creates a new SHA-256 based calculator.
func New() SHA256 {
	return SHA256{}
}

// CalculateRaw computes SHA-256 of raw content.
func (c SHA256) CalculateRaw(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// CalculateNormalized computes SHA-256 of content with normalized line endings.
func (c SHA256) CalculateNormalized(content []byte) string {
	return c.CalculateRaw(normalize(content))
}

// CalculateFile computes SHA-256 of the file at path without loading it
// into memory.
func (c SHA256) CalculateFile(fs fsgen.FileSystem, path string) (string, int64, error) {
	r, err := fs.OpenReader(path)
	if err != nil {
		return "", 0, err
	}
	defer r.Close()

	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

func normalize(content []byte) []byte {
	out := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	out = bytes.ReplaceAll(out, []byte("\r"), []byte("\n"))
	return bytes.TrimRight(out, "\n")
}
