package filesystem

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_WriteFile(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "file.txt")
	fs := NewOSFileSystem()

	if err := fs.WriteFile(filePath, []byte("content")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "content" {
		t.Errorf("content = %q, want %q", string(data), "content")
	}
}

func TestOSFileSystem_WriteFile_MissingParent(t *testing.T) {
	fs := NewOSFileSystem()

	err := fs.WriteFile(filepath.Join(t.TempDir(), "missing", "file.txt"), []byte("x"))
	if err == nil {
		t.Error("WriteFile() into a missing directory should return error")
	}
}

func TestOSFileSystem_CreateWriter_Truncates(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "stream.txt")
	os.WriteFile(filePath, []byte("a much longer previous content"), 0644)

	fs := NewOSFileSystem()
	w, err := fs.CreateWriter(filePath)
	if err != nil {
		t.Fatalf("CreateWriter() error = %v", err)
	}
	io.WriteString(w, "short")
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, _ := os.ReadFile(filePath)
	if string(data) != "short" {
		t.Errorf("content = %q, want %q", string(data), "short")
	}
}

func TestOSFileSystem_OpenReader(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "in.txt")
	os.WriteFile(filePath, []byte("read me"), 0644)

	fs := NewOSFileSystem()
	r, err := fs.OpenReader(filePath)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer r.Close()

	data, _ := io.ReadAll(r)
	if string(data) != "read me" {
		t.Errorf("content = %q, want %q", string(data), "read me")
	}
}

func TestOSFileSystem_OpenReader_Nonexistent(t *testing.T) {
	fs := NewOSFileSystem()

	_, err := fs.OpenReader(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Error("OpenReader(nonexistent) should return error")
	}
}

func TestOSFileSystem_MkdirAll(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")
	fs := NewOSFileSystem()

	if err := fs.MkdirAll(nested); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	// Second call on an existing directory is not an error
	if err := fs.MkdirAll(nested); err != nil {
		t.Fatalf("MkdirAll() on existing directory error = %v", err)
	}

	info, err := os.Stat(nested)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if !info.IsDir() {
		t.Error("MkdirAll() did not create a directory")
	}
}

func TestOSFileSystem_IsDir(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "file.txt")
	os.WriteFile(filePath, []byte("x"), 0644)

	fs := NewOSFileSystem()

	isDir, err := fs.IsDir(dir)
	if err != nil || !isDir {
		t.Errorf("IsDir(dir) = %v, %v; want true, nil", isDir, err)
	}

	isDir, err = fs.IsDir(filePath)
	if err != nil || isDir {
		t.Errorf("IsDir(file) = %v, %v; want false, nil", isDir, err)
	}

	if _, err := fs.IsDir(filepath.Join(dir, "nope")); err == nil {
		t.Error("IsDir(nonexistent) should return error")
	}
}

func TestOSFileSystem_CopyDir(t *testing.T) {
	dir := t.TempDir()

	// Create a tree:
	//   src/
	//     a.txt
	//     sub/
	//       b.txt
	//     empty/
	src := filepath.Join(dir, "src")
	os.MkdirAll(filepath.Join(src, "sub"), 0755)
	os.MkdirAll(filepath.Join(src, "empty"), 0755)
	os.WriteFile(filepath.Join(src, "a.txt"), []byte("A"), 0644)
	os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("B"), 0644)

	dst := filepath.Join(dir, "out", "dst")
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		t.Fatal(err)
	}

	fs := NewOSFileSystem()
	if err := fs.CopyDir(src, dst); err != nil {
		t.Fatalf("CopyDir() error = %v", err)
	}

	for rel, want := range map[string]string{"a.txt": "A", "sub/b.txt": "B"} {
		data, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", rel, err)
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", rel, string(data), want)
		}
	}

	if info, err := os.Stat(filepath.Join(dst, "empty")); err != nil || !info.IsDir() {
		t.Errorf("empty directory was not copied: %v", err)
	}
}
