package fxbuf

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestHDRRoundTrip(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "frame.hdr")

	b := NewBufferSize(4, 4)
	b.Fill(mgl32.Vec4{0.5, 2, 10, 1})
	if err := WriteHDR(b, filename); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	if got.Dx() != 4 || got.Dy() != 4 {
		t.Fatalf("loaded %dx%d, want 4x4", got.Dx(), got.Dy())
	}

	// RGBE keeps 8 bits of mantissa
	want := b.Get(2, 2)
	have := got.Get(2, 2)
	for c := 0; c < 3; c++ {
		if d := have[c] - want[c]; d < -0.05*want[c] || d > 0.05*want[c] {
			t.Errorf("channel %d = %v, want %v", c, have[c], want[c])
		}
	}
}

func TestPNGRoundTrip(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "frame.png")

	b := NewBufferSize(3, 3)
	b.Fill(mgl32.Vec4{0.18, 0.5, 1, 1})
	if err := WritePNG(b.ToLDR(), filename); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	if !vecNear(got.Get(1, 1), b.Get(1, 1), 1e-3) {
		t.Errorf("pixel = %v, want %v", got.Get(1, 1), b.Get(1, 1))
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"b.png", "a.hdr", "notes.txt", "sub/c.TIF"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := CollectFiles(dir)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(dir, "a.hdr"),
		filepath.Join(dir, "b.png"),
		filepath.Join(sub, "c.TIF"),
	}
	if len(files) != len(want) {
		t.Fatalf("CollectFiles = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}

	if _, err := CollectFiles(filepath.Join(dir, "missing")); err == nil {
		t.Error("CollectFiles(missing) succeeded, want error")
	}
}

// flakyFile buffers writes and fails on Close, like a file whose final flush
// hits a full disk.
type flakyFile struct {
	bytes.Buffer
	closeErr error
	closed   bool
}

func (f *flakyFile) Close() error {
	f.closed = true
	return f.closeErr
}

func TestEncodeAndClose(t *testing.T) {
	errClose := errors.New("close failed")
	errEncode := errors.New("encode failed")

	tests := []struct {
		name      string
		encodeErr error
		closeErr  error
		want      error
	}{
		{"ok", nil, nil, nil},
		{"close fails", nil, errClose, errClose},
		{"encode fails", errEncode, nil, errEncode},
		{"both fail", errEncode, errClose, errEncode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &flakyFile{closeErr: tt.closeErr}
			err := encodeAndClose(f, func(w io.Writer) error {
				if _, err := w.Write([]byte("data")); err != nil {
					return err
				}
				return tt.encodeErr
			})

			if !errors.Is(err, tt.want) || (tt.want == nil && err != nil) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if !f.closed {
				t.Error("writer was not closed")
			}
			if f.String() != "data" {
				t.Errorf("wrote %q, want %q", f.String(), "data")
			}
		})
	}
}
