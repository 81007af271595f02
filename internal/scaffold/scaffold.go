package scaffold

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vvka-141/fsgen/internal/files/filesystem"
	"github.com/vvka-141/fsgen/internal/generate"
	"github.com/vvka-141/fsgen/internal/logging"
	"github.com/vvka-141/fsgen/pkg/fsgen"
)

//go:embed all:templates
var templatesFS embed.FS

// DefaultTemplate is used when init is called without a template name.
const DefaultTemplate = "basic"

// templateSuffix marks files whose content is rendered before writing.
// The suffix is dropped from the destination name.
const templateSuffix = ".tmpl"

// GetTemplatesFS returns the embedded templates filesystem for testing purposes.
func GetTemplatesFS() embed.FS {
	return templatesFS
}

// Scaffolder writes starter projects from the embedded templates.
type Scaffolder struct {
	logger fsgen.Logger
	fs     fsgen.FileSystem
}

// NewScaffolder creates a Scaffolder. A nil logger or filesystem falls back
// to the defaults.
func NewScaffolder(logger fsgen.Logger, fsys fsgen.FileSystem) *Scaffolder {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if fsys == nil {
		fsys = filesystem.Default()
	}
	return &Scaffolder{logger: logger, fs: fsys}
}

// CreateProject writes template templateName into targetPath and returns
// the written paths relative to targetPath, sorted.
//
// Rendered files (*.tmpl) are written as text with {{PROJECT_NAME}}
// replaced. Every other file is copied from the embedded tree.
func (s *Scaffolder) CreateProject(ctx context.Context, projectName, templateName, targetPath string) ([]string, error) {
	templatePath := path.Join("templates", templateName)
	if _, err := templatesFS.ReadDir(templatePath); err != nil {
		return nil, fmt.Errorf("template '%s' not found: %w", templateName, err)
	}

	target, err := filepath.Abs(targetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target directory: %w", err)
	}

	isEmpty, err := isDirectoryEmpty(target)
	if err != nil {
		return nil, fmt.Errorf("failed to check target directory: %w", err)
	}
	if !isEmpty {
		return nil, fmt.Errorf("target directory '%s' is not empty\n\nfsgen init requires an empty directory to avoid overwriting existing files.\n\nOptions:\n• Choose a different location\n• Remove existing files manually\n• Use a new directory name", targetPath)
	}

	root := embedRoot(target)
	mounted, err := filesystem.NewEmbedFileSystem(templatesFS, root, s.fs)
	if err != nil {
		return nil, err
	}

	entries, err := s.entries(templatePath, root, projectName)
	if err != nil {
		return nil, fmt.Errorf("failed to read template '%s': %w", templateName, err)
	}

	gen, err := generate.New(
		generate.WithCwd(target),
		generate.WithFileSystem(mounted),
		generate.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}

	var written []string
	gen.On(generate.EventWrite, func(n generate.Notification) {
		rel, err := filepath.Rel(target, n.Filepath)
		if err != nil {
			rel = n.Filepath
		}
		s.logger.Verbose("Created %s", rel)
		written = append(written, filepath.ToSlash(rel))
	})

	s.logger.Verbose("Creating project '%s' at %s with template '%s'", projectName, target, templateName)
	if err := gen.Generate(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to write template files: %w", err)
	}

	sort.Strings(written)
	return written, nil
}

// entries maps every file of the template to a destination relative to the
// project directory.
func (s *Scaffolder) entries(templatePath, root, projectName string) (map[string]generate.Entry, error) {
	entries := make(map[string]generate.Entry)
	err := fs.WalkDir(templatesFS, templatePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel := strings.TrimPrefix(p, templatePath+"/")
		if strings.HasSuffix(rel, templateSuffix) {
			content, err := templatesFS.ReadFile(p)
			if err != nil {
				return fmt.Errorf("failed to read template file %s: %w", p, err)
			}
			dest := filepath.FromSlash(strings.TrimSuffix(rel, templateSuffix))
			entries[dest] = fsgen.Text(processTemplate(string(content), projectName))
			return nil
		}

		entries[filepath.FromSlash(rel)] = fsgen.SourcePath(filepath.Join(root, filepath.FromSlash(p)))
		return nil
	})
	return entries, err
}

// embedRoot picks a mount point for the embedded tree on the target's volume.
func embedRoot(target string) string {
	return filepath.Join(filepath.VolumeName(target)+string(filepath.Separator), ".fsgen-templates")
}

func processTemplate(content, projectName string) string {
	return strings.ReplaceAll(content, "{{PROJECT_NAME}}", projectName)
}

var templateDescriptions = map[string]string{
	"basic":   "Manifest with .env expansion, copied templates and an empty directory",
	"minimal": "One inline file, nothing else",
}

// DescribeTemplate returns a one-line summary of the named template.
func DescribeTemplate(name string) string {
	return templateDescriptions[name]
}

// ListTemplates returns available template names
func ListTemplates() ([]string, error) {
	entries, err := templatesFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}

	var templates []string
	for _, entry := range entries {
		if entry.IsDir() {
			templates = append(templates, entry.Name())
		}
	}

	return templates, nil
}

// isDirectoryEmpty reports whether path is missing or an empty directory.
func isDirectoryEmpty(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check directory: %w", err)
	}

	if !info.IsDir() {
		return false, fmt.Errorf("path exists but is not a directory")
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return false, fmt.Errorf("failed to read directory: %w", err)
	}

	return len(entries) == 0, nil
}

// BuildFileTree renders the directory structure under rootPath.
func BuildFileTree(rootPath string) (string, error) {
	var sb strings.Builder

	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		absPath = rootPath
	}

	sb.WriteString(absPath + "/\n")

	err = filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == rootPath {
			return nil
		}

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			return err
		}

		depth := strings.Count(relPath, string(os.PathSeparator))
		indent := strings.Repeat("│   ", depth)

		entries, err := os.ReadDir(filepath.Dir(path))
		if err != nil {
			return err
		}
		isLast := len(entries) > 0 && entries[len(entries)-1].Name() == filepath.Base(path)

		branch := "├── "
		if isLast {
			branch = "└── "
			if depth > 0 {
				indent = indent[:len(indent)-len("│   ")] + "    "
			}
		}

		name := info.Name()
		if info.IsDir() {
			name += "/"
		}

		sb.WriteString(indent + branch + name + "\n")
		return nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to build file tree: %w", err)
	}

	return sb.String(), nil
}
