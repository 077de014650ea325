// Package overlay hands finished meshes to the model viewer.
package overlay

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"qr-extrude/pkg/colorutil"
)

// Sink receives one serialized OBJ mesh per category per cycle. A later call
// with the same id replaces the earlier overlay.
type Sink interface {
	Overlay(ctx context.Context, id string, obj []byte, color colorutil.RGB) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, id string, obj []byte, color colorutil.RGB) error

// Overlay calls f.
func (f SinkFunc) Overlay(ctx context.Context, id string, obj []byte, color colorutil.RGB) error {
	return f(ctx, id, obj, color)
}

// ID builds the overlay identifier for a category.
func ID(prefix, category string) string {
	return prefix + "-" + category
}

// DirSink writes <id>.obj and a matching <id>.mtl into a directory so any OBJ
// viewer that watches the directory can pick them up.
type DirSink struct {
	Dir string
}

// NewDirSink creates dir if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create overlay dir: %w", err)
	}
	return &DirSink{Dir: dir}, nil
}

// Overlay writes the material first, then the mesh, each replacing any
// previous file of the same name in one rename.
func (s *DirSink) Overlay(ctx context.Context, id string, obj []byte, color colorutil.RGB) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid overlay id %q", id)
	}

	if err := writeAtomic(filepath.Join(s.Dir, id+".mtl"), material(id, color)); err != nil {
		return fmt.Errorf("overlay %s: %w", id, err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "mtllib %s.mtl\nusemtl %s\n", id, id)
	buf.Write(obj)
	if err := writeAtomic(filepath.Join(s.Dir, id+".obj"), buf.Bytes()); err != nil {
		return fmt.Errorf("overlay %s: %w", id, err)
	}
	return nil
}

func material(id string, c colorutil.RGB) []byte {
	return []byte(fmt.Sprintf("# %s\nnewmtl %s\nKd %.4f %.4f %.4f\nd 1\n",
		c.Hex(), id, float64(c.R)/255, float64(c.G)/255, float64(c.B)/255))
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
