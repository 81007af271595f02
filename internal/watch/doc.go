// Package watch reruns a generation whenever its inputs change.
//
// A Watcher observes a set of paths with fsnotify. Files are matched by
// name through their parent directory, so editors that replace a file on
// save are seen. Directories are watched with every subdirectory. Bursts
// of events are coalesced by a debounce timer before the next run.
package watch
