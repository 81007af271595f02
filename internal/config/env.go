package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vvka-141/fsgen/pkg/fsgen"
)

var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadEnvFiles reads dotenv files relative to dir. Later files override
// earlier ones. A missing file is an error.
func LoadEnvFiles(dir string, files []string) (map[string]string, error) {
	if len(files) == 0 {
		return map[string]string{}, nil
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		if !filepath.IsAbs(f) {
			f = filepath.Join(dir, f)
		}
		paths = append(paths, f)
	}

	env := make(map[string]string)
	for _, p := range paths {
		values, err := godotenv.Read(p)
		if err != nil {
			return nil, fmt.Errorf("%w: env file %s: %w", fsgen.ErrInvalidConfig, p, err)
		}
		for k, v := range values {
			env[k] = v
		}
	}
	return env, nil
}

// ExpandString replaces ${VAR} placeholders with values from env, falling
// back to the process environment. It returns the names it could not resolve.
func ExpandString(s string, env map[string]string) (string, []string) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if v, ok := env[name]; ok {
			return v
		}
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		missing = append(missing, name)
		return match
	})
	return out, missing
}

// Expand resolves placeholders in content, copy sources and the cwd.
// Undefined variables are an error.
func (m *Manifest) Expand(env map[string]string) error {
	missing := map[string]bool{}
	expand := func(s string) string {
		out, names := ExpandString(s, env)
		for _, n := range names {
			missing[n] = true
		}
		return out
	}

	m.Cwd = expand(m.Cwd)
	for dest, spec := range m.Files {
		if spec.Content != nil {
			s := expand(*spec.Content)
			spec.Content = &s
		}
		spec.Copy = expand(spec.Copy)
		m.Files[dest] = spec
	}

	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for n := range missing {
			names = append(names, n)
		}
		sort.Strings(names)
		return fmt.Errorf("%w: undefined variable(s): %s", fsgen.ErrInvalidConfig, strings.Join(names, ", "))
	}
	return nil
}
