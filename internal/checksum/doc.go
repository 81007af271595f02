// Package checksum computes SHA-256 digests of generated files.
//
// Two digests are available:
//
//   - Raw checksum: hash of the exact bytes on disk
//   - Normalized checksum: hash after converting CRLF and CR line endings to LF
//     and dropping trailing newlines, so a file regenerated on another
//     platform compares equal
//
// # Example Usage
//
//	calculator := checksum.New()
//	raw := calculator.CalculateRaw(data)
//	digest, size, err := calculator.CalculateFile(fs, "/out/README.md")
//
// # Thread Safety
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum
