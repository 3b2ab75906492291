package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"sync"
	"testing"
)

func TestOSFileSystem_RoundTrip(t *testing.T) {
	var osfs OSFileSystem
	path := filepath.Join(t.TempDir(), "recording.asc")

	if osfs.Exists(path) {
		t.Fatal("file should not exist yet")
	}
	if err := osfs.WriteFile(path, []byte("MSG 1 TRIALID 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if !osfs.Exists(path) {
		t.Fatal("expected file to exist")
	}

	rc, err := osfs.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "MSG 1 TRIALID 1\n" {
		t.Errorf("unexpected content %q", data)
	}

	info, err := osfs.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != int64(len(data)) {
		t.Errorf("expected size %d, got %d", len(data), info.Size())
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	in := []byte("hello")
	if err := mfs.WriteFile("/data/a.txt", in, 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	in[0] = 'j'

	data, err := mfs.ReadFile("/data/../data/a.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("stored data must not alias caller buffer, got %q", data)
	}

	info, err := mfs.Stat("/data/a.txt")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Name() != "a.txt" || info.Size() != 5 || info.Mode() != 0o600 || info.IsDir() {
		t.Errorf("unexpected file info %+v", info)
	}
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("out.cbor")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("partial")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if data, _ := mfs.ReadFile("out.cbor"); len(data) != 0 {
		t.Errorf("expected empty file before Close, got %q", data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	data, err := mfs.ReadFile("out.cbor")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "partial" {
		t.Errorf("expected 'partial', got %q", data)
	}

	if _, err := w.Write([]byte("x")); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("expected ErrClosed on write after close, got %v", err)
	}
	if err := w.Close(); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("expected ErrClosed on double close, got %v", err)
	}
}

func TestMemoryFileSystem_Open(t *testing.T) {
	mfs := NewMemoryFileSystem()
	if err := mfs.WriteFile("in.asc", []byte("line1\nline2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rc, err := mfs.Open("in.asc")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "line1\nline2\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestMemoryFileSystem_Missing(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.Open("nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open: expected ErrNotExist, got %v", err)
	}
	if _, err := mfs.ReadFile("nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile: expected ErrNotExist, got %v", err)
	}
	if _, err := mfs.Stat("nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat: expected ErrNotExist, got %v", err)
	}
	if mfs.Exists("nope") {
		t.Error("Exists: expected false for a missing file")
	}

	var pe *fs.PathError
	_, err := mfs.ReadFile("nope")
	if !errors.As(err, &pe) || pe.Op != "read" {
		t.Errorf("expected PathError with op read, got %v", err)
	}
}

func TestMemoryFileSystem_Exists(t *testing.T) {
	mfs := NewMemoryFileSystem()
	if err := mfs.WriteFile("dir/session.asc", nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if !mfs.Exists("dir/./session.asc") {
		t.Error("expected cleaned path to exist")
	}

	w, err := mfs.Create("dir/out.cbor")
	if err != nil {
		t.Fatal(err)
	}
	if !mfs.Exists("dir/out.cbor") {
		t.Error("Create should make the file visible before Close")
	}
	w.Close()
}

func TestMemoryFileSystem_Concurrent(t *testing.T) {
	mfs := NewMemoryFileSystem()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := filepath.Join("dir", string(rune('a'+i)))
			if err := mfs.WriteFile(name, []byte{byte(i)}, 0o644); err != nil {
				t.Error(err)
			}
			if _, err := mfs.ReadFile(name); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()
	for i := 0; i < 16; i++ {
		if name := filepath.Join("dir", string(rune('a'+i))); !mfs.Exists(name) {
			t.Errorf("expected %s to exist", name)
		}
	}
}

var _ FileSystem = OSFileSystem{}
var _ FileSystem = (*MemoryFileSystem)(nil)
