package filesystem

import (
	"github.com/spf13/afero"
)

// OSFileSystem implements fsgen.FileSystem for the OS filesystem
type OSFileSystem struct {
	*AferoFileSystem
}

// NewOSFileSystem creates a new OS filesystem provider
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{AferoFileSystem: NewAferoFileSystem(afero.NewOsFs())}
}
