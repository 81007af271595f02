// Package config loads fsgen manifests.
//
// A manifest is a YAML file (fsgen.yaml by default) mapping destinations to
// the content that should end up there:
//
//	encoding: utf-8
//	env_files: [.env]
//	files:
//	  README.md: "# ${PROJECT_NAME}"
//	  build: { dir: true }
//	  LICENSE: { copy: templates/LICENSE }
//	  logo.png: { base64: iVBORw0KGgo= }
//	  legacy.txt: { content: "café", encoding: latin1 }
//
// Load validates the raw document against the embedded JSON Schema, decodes
// it, expands ${VAR} placeholders and checks the remaining semantic rules.
package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/fsgen/internal/files/encoding"
	"github.com/vvka-141/fsgen/internal/generate"
	"github.com/vvka-141/fsgen/pkg/fsgen"
)

// ManifestFileName is looked up when Load is given a directory.
const ManifestFileName = fsgen.DefaultManifestName

// Manifest is the decoded form of fsgen.yaml.
type Manifest struct {
	Encoding    string              `yaml:"encoding,omitempty"`
	Cwd         string              `yaml:"cwd,omitempty"`
	Concurrency int                 `yaml:"concurrency,omitempty"`
	Retries     int                 `yaml:"retries,omitempty"`
	Timeout     string              `yaml:"timeout,omitempty"`
	EnvFiles    []string            `yaml:"env_files,omitempty"`
	Files       map[string]FileSpec `yaml:"files"`

	path     string
	extraEnv []string
}

// FileSpec describes one destination. Exactly one of Content, Base64, Copy
// or Dir is set.
type FileSpec struct {
	Content  *string `yaml:"content,omitempty"`
	Base64   *string `yaml:"base64,omitempty"`
	Copy     string  `yaml:"copy,omitempty"`
	Dir      bool    `yaml:"dir,omitempty"`
	Encoding string  `yaml:"encoding,omitempty"`
}

// UnmarshalYAML accepts a plain string as shorthand for {content: ...}.
func (f *FileSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		f.Content = &s
		return nil
	}

	type plain FileSpec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*f = FileSpec(p)
	return nil
}

// Kind names which source the entry uses.
func (f FileSpec) Kind() string {
	switch {
	case f.Content != nil:
		return "content"
	case f.Base64 != nil:
		return "base64"
	case f.Copy != "":
		return "copy"
	case f.Dir:
		return "dir"
	}
	return ""
}

// LoadOption adjusts how Load reads a manifest.
type LoadOption func(*loadConfig)

type loadConfig struct {
	envFiles []string
}

// WithEnvFiles adds dotenv files read after the manifest's own env_files.
// Relative paths resolve against the process working directory.
func WithEnvFiles(files ...string) LoadOption {
	return func(c *loadConfig) {
		for _, f := range files {
			if abs, err := filepath.Abs(f); err == nil {
				f = abs
			}
			c.envFiles = append(c.envFiles, f)
		}
	}
}

// Load reads, validates and expands the manifest at path. path may name the
// manifest file or the directory containing fsgen.yaml.
func Load(path string, opts ...LoadOption) (*Manifest, error) {
	var cfg loadConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	manifestPath, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", fsgen.ErrManifestNotFound, manifestPath)
		}
		return nil, err
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}
	m.path = manifestPath
	m.extraEnv = cfg.envFiles

	env, err := LoadEnvFiles(m.Dir(), m.EnvFilePaths())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}
	if err := m.Expand(env); err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}

	return m, nil
}

// Parse validates data against the schema and decodes it. Placeholders are
// not expanded and semantic rules are not checked.
func Parse(data []byte) (*Manifest, error) {
	result, err := ValidateYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fsgen.ErrInvalidConfig, err)
	}
	if !result.Valid {
		return nil, &SchemaError{Errors: result.Errors}
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", fsgen.ErrInvalidConfig, err)
	}
	return &m, nil
}

func resolvePath(path string) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err == nil && info.IsDir() {
		return filepath.Join(abs, ManifestFileName), nil
	}
	return abs, nil
}

// Path returns the manifest file the manifest was loaded from.
func (m *Manifest) Path() string {
	return m.path
}

// Dir returns the directory containing the manifest, or the process
// working directory for a parsed manifest.
func (m *Manifest) Dir() string {
	if m.path != "" {
		return filepath.Dir(m.path)
	}
	wd, _ := os.Getwd()
	return wd
}

// ResolvedCwd returns the absolute directory destinations resolve against.
func (m *Manifest) ResolvedCwd() string {
	switch {
	case m.Cwd == "":
		return m.Dir()
	case filepath.IsAbs(m.Cwd):
		return filepath.Clean(m.Cwd)
	}
	return filepath.Join(m.Dir(), m.Cwd)
}

// TimeoutDuration parses Timeout. Zero means no timeout.
func (m *Manifest) TimeoutDuration() (time.Duration, error) {
	if m.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(m.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: timeout: %w", fsgen.ErrInvalidConfig, err)
	}
	return d, nil
}

// Destinations returns the file keys in sorted order.
func (m *Manifest) Destinations() []string {
	keys := make([]string, 0, len(m.Files))
	for k := range m.Files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EnvFilePaths returns the absolute paths of the manifest's env files
// followed by those added with WithEnvFiles.
func (m *Manifest) EnvFilePaths() []string {
	out := make([]string, 0, len(m.EnvFiles)+len(m.extraEnv))
	for _, f := range m.EnvFiles {
		if !filepath.IsAbs(f) {
			f = filepath.Join(m.Dir(), f)
		}
		out = append(out, filepath.Clean(f))
	}
	return append(out, m.extraEnv...)
}

// WatchPaths returns every input of the manifest: the manifest file, its
// env files and its copy sources.
func (m *Manifest) WatchPaths() []string {
	paths := []string{m.Path()}
	paths = append(paths, m.EnvFilePaths()...)
	return append(paths, m.CopySources()...)
}

// CopySources returns the absolute paths of every copy source.
func (m *Manifest) CopySources() []string {
	cwd := m.ResolvedCwd()
	var out []string
	for _, dest := range m.Destinations() {
		src := m.Files[dest].Copy
		if src == "" {
			continue
		}
		if !filepath.IsAbs(src) {
			src = filepath.Join(cwd, src)
		}
		out = append(out, filepath.Clean(src))
	}
	return out
}

// Validate checks the rules the schema cannot express.
func (m *Manifest) Validate() error {
	var errs []error

	if m.Encoding != "" {
		if _, err := encoding.Lookup(m.Encoding); err != nil {
			errs = append(errs, fmt.Errorf("encoding: %w", err))
		}
	}
	if m.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency: must be positive, got %d", m.Concurrency))
	}
	if m.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries: must not be negative, got %d", m.Retries))
	}
	if _, err := m.TimeoutDuration(); err != nil {
		errs = append(errs, err)
	}
	if len(m.Files) == 0 {
		errs = append(errs, errors.New("files: at least one destination is required"))
	}

	for _, dest := range m.Destinations() {
		spec := m.Files[dest]
		if err := spec.validate(); err != nil {
			errs = append(errs, fmt.Errorf("files.%s: %w", dest, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", fsgen.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func (f FileSpec) validate() error {
	set := 0
	for _, ok := range []bool{f.Content != nil, f.Base64 != nil, f.Copy != "", f.Dir} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return errors.New("exactly one of content, base64, copy or dir is required")
	}

	if f.Encoding != "" {
		if f.Content == nil {
			return errors.New("encoding only applies to content")
		}
		if _, err := encoding.Lookup(f.Encoding); err != nil {
			return err
		}
	}

	if f.Base64 != nil {
		if _, err := base64.StdEncoding.DecodeString(*f.Base64); err != nil {
			return fmt.Errorf("base64: %w", err)
		}
	}
	return nil
}

// Entries converts the manifest to generator entries.
func (m *Manifest) Entries() (map[string]generate.Entry, error) {
	entries := make(map[string]generate.Entry, len(m.Files))
	for dest, spec := range m.Files {
		switch spec.Kind() {
		case "content":
			var opts []generate.UseOption
			if spec.Encoding != "" {
				opts = append(opts, generate.UseEncoding(spec.Encoding))
			}
			entries[dest] = generate.Use(fsgen.Text(*spec.Content), opts...)
		case "base64":
			data, err := base64.StdEncoding.DecodeString(*spec.Base64)
			if err != nil {
				return nil, fmt.Errorf("%w: files.%s: base64: %w", fsgen.ErrInvalidConfig, dest, err)
			}
			entries[dest] = fsgen.Bytes(data)
		case "copy":
			entries[dest] = fsgen.SourcePath(spec.Copy)
		case "dir":
			entries[dest] = fsgen.Directory{}
		default:
			return nil, fmt.Errorf("%w: files.%s: no source", fsgen.ErrInvalidConfig, dest)
		}
	}
	return entries, nil
}

// SchemaError lists schema violations of a manifest.
type SchemaError struct {
	Errors []ValidationError
}

func (e *SchemaError) Error() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s: %d schema violation(s)", fsgen.ErrInvalidConfig, len(e.Errors))
	for _, v := range e.Errors {
		fmt.Fprintf(&b, "\n  %s: %s", v.Field, v.Description)
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error {
	return fsgen.ErrInvalidConfig
}
