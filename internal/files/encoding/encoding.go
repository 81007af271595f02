// Package encoding maps encoding names to text encoders used when
// writing Text content.
package encoding

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/vvka-141/fsgen/pkg/fsgen"
)

// Encoder turns text into the bytes written to disk.
type Encoder interface {
	// Name returns the canonical name the encoder was looked up with.
	Name() string

	// Encode converts text to its on-disk representation.
	Encode(text string) ([]byte, error)
}

// Lookup returns the encoder for name.
// An empty name selects fsgen.DefaultEncoding.
//
// Besides IANA charset names, the Node-style names "utf8", "latin1",
// "binary", "ucs2", "utf16le", "base64" and "hex" are accepted. The last two
// decode the text rather than transcode it.
func Lookup(name string) (Encoder, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = fsgen.DefaultEncoding
	}

	switch key {
	case "utf-8", "utf8":
		return utf8Encoder{}, nil
	case "latin1", "binary", "iso-8859-1":
		return textEncoder{name: key, enc: charmap.ISO8859_1}, nil
	case "ucs2", "ucs-2", "utf16le", "utf-16le":
		return textEncoder{name: key, enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)}, nil
	case "base64":
		return decodingEncoder{name: key, decode: base64.StdEncoding.DecodeString}, nil
	case "hex":
		return decodingEncoder{name: key, decode: hex.DecodeString}, nil
	}

	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", fsgen.ErrUnknownEncoding, name)
	}
	return textEncoder{name: key, enc: enc}, nil
}

// MustLookup is like Lookup but panics on an unknown name.
// Intended for package-level defaults.
func MustLookup(name string) Encoder {
	enc, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return enc
}

type utf8Encoder struct{}

func (utf8Encoder) Name() string { return fsgen.DefaultEncoding }

func (utf8Encoder) Encode(text string) ([]byte, error) {
	return []byte(text), nil
}

type textEncoder struct {
	name string
	enc  encoding.Encoding
}

func (e textEncoder) Name() string { return e.name }

func (e textEncoder) Encode(text string) ([]byte, error) {
	out, err := e.enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to encode text as %s: %w", e.name, err)
	}
	return out, nil
}

type decodingEncoder struct {
	name   string
	decode func(string) ([]byte, error)
}

func (e decodingEncoder) Name() string { return e.name }

func (e decodingEncoder) Encode(text string) ([]byte, error) {
	out, err := e.decode(text)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s text: %w", e.name, err)
	}
	return out, nil
}
