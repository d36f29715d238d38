// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/pdf-tools/pkg/types"
)

// tempPattern names in-progress outputs. They live next to the target so
// the final rename stays on one file system.
const tempPattern = ".pdf-tools-*.tmp"

// writeAtomic produces dest through a temporary file in dest's directory.
// write receives the temporary path and must leave a complete document
// there. The temporary file is removed on any failure, so dest is either
// untouched or fully replaced.
func writeAtomic(dest string, write func(tmp string) error) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.NewError(types.KindOutputWriteFailed, dir, "cannot create output directory", err)
	}

	f, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return types.NewError(types.KindOutputWriteFailed, dest, "cannot create temporary file", err)
	}
	tmp := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return types.NewError(types.KindOutputWriteFailed, dest, "cannot close temporary file", err)
	}

	if err := write(tmp); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return types.NewError(types.KindOutputWriteFailed, dest, "cannot move output into place", err)
	}
	return nil
}

// copyFile overwrites dst with the contents of src.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return unreadable(src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return types.NewError(types.KindOutputWriteFailed, dst, "cannot create file", err)
	}
	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr != nil {
		return types.NewError(types.KindOutputWriteFailed, dst, "cannot copy file", copyErr)
	}
	if closeErr != nil {
		return types.NewError(types.KindOutputWriteFailed, dst, "cannot close file", closeErr)
	}
	return nil
}
