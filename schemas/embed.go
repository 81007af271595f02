// Package schemas embeds the manifest JSON Schema and registers it with the
// config package on import. CLI entry points import it with a blank
// identifier: import _ "github.com/vvka-141/fsgen/schemas"
package schemas

import (
	"embed"

	"github.com/vvka-141/fsgen/internal/config"
)

//go:embed fsgen-v1.schema.json
var fs embed.FS

// SchemaFile is the name of the embedded manifest schema.
const SchemaFile = "fsgen-v1.schema.json"

func init() {
	data, err := fs.ReadFile(SchemaFile)
	if err != nil {
		panic("schemas: failed to read embedded " + SchemaFile + ": " + err.Error())
	}
	config.SetSchema(data)
}
