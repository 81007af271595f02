// Package filesystem provides implementations of the fsgen.FileSystem
// dependency set.
//
// The dependency set is what file writers use to touch the disk: single-shot
// writes, reader and writer streams, recursive directory creation, the
// is-a-directory test and recursive directory copy. Swapping it is how tests
// exercise failure paths without touching the real filesystem.
//
// Implementations:
//   - OSFileSystem: Production implementation backed by afero.OsFs
//   - MemoryFileSystem: In-memory implementation backed by afero.MemMapFs
//   - EmbedFileSystem: Serves reads under a virtual root from an fs.FS, delegates the rest
//   - Override: Replaces individual members of another FileSystem
package filesystem
