package trajz

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

const ndjson = "{\"timestamp\":0,\"x\":0.1,\"y\":0.2}\n{\"timestamp\":0.033,\"x\":0.11,\"y\":0.21}\n"

func TestCreateOpen(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"rally.ndjson", "rally.ndjson.gz", "nested/rally.json.gz"} {
		t.Run(name, func(t *testing.T) {
			target := filepath.Join(dir, name)
			w, err := Create(target)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := io.WriteString(w, ndjson); err != nil {
				t.Fatal(err)
			}
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}

			raw, err := os.ReadFile(target)
			if err != nil {
				t.Fatal(err)
			}
			if compressed := string(raw) != ndjson; compressed != IsGZ(name) {
				t.Errorf("compressed = %v, want %v", compressed, IsGZ(name))
			}

			r, err := Open(target)
			if err != nil {
				t.Fatal(err)
			}
			defer r.Close()
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != ndjson {
				t.Errorf("read %q", got)
			}
		})
	}
}

func TestGZFileWriter_Truncates(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.json.gz")
	for i := 0; i < 2; i++ {
		w, err := NewGZFileWriter(target, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(ndjson)); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		// Close is idempotent.
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}
	r, err := NewGZFileReader(target)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != ndjson {
		t.Errorf("read %q, want one copy", got)
	}
}

func TestOpen_Missing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.gz")); !os.IsNotExist(err) {
		t.Errorf("err = %v, want not exist", err)
	}
}
