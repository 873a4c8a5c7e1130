package bsp

import (
	"context"
	"errors"

	"github.com/fulmenhq/mappack/pkg/tools"
)

// Extractor unpacks a map's embedded archive into a directory.
type Extractor interface {
	Extract(ctx context.Context, bspPath, dir string) (*tools.ExecuteResult, error)
}

// Extract runs the external archiver to unpack the embedded pakfile into dir.
// When the archiver fails the pakfile is read directly; the number of files
// recovered that way is returned together with the archiver error.
func (m *Map) Extract(ctx context.Context, x Extractor, dir string) (int, *tools.ExecuteResult, error) {
	res, err := x.Extract(ctx, m.Path, dir)
	if err == nil {
		return 0, res, nil
	}
	n, nerr := m.ExtractPak(dir)
	if nerr != nil {
		return n, res, errors.Join(err, nerr)
	}
	return n, res, err
}
