// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-tools/pkg/types"
)

// Merge concatenates the pages of all inputs, in selection order, into
// req.Params.Output.
func (e *Engine) Merge(ctx context.Context, req types.Request, progress types.ProgressFunc) (types.Result, error) {
	start := time.Now()
	res := types.Result{RequestID: req.ID, Kind: req.Kind}
	inputs := req.InputPaths()

	for i, path := range inputs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		doc, err := e.openPlain(path)
		if err != nil {
			return res, err
		}
		res.Pages += doc.PageCount
		res.BytesIn += doc.Size
		progress(fmt.Sprintf("reading %s (%d/%d, %s)", filepath.Base(path), i+1, len(inputs), describePages(doc.PageCount)))
	}

	dest := req.Params.Output
	err := writeAtomic(dest, func(tmp string) error {
		if err := api.MergeCreateFile(inputs, tmp, false, e.newConf("")); err != nil {
			return classifyWrite(dest, err)
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	res.Outputs = []string{dest}
	res.BytesOut = fileSize(dest)
	res.Duration = time.Since(start)
	e.logger.Debug("merged documents",
		zap.Int("inputs", len(inputs)),
		zap.Int("pages", res.Pages),
		zap.String("output", dest))
	return res, nil
}

// Split writes one document per page of every input, named
// {name}_Page_{NNN}.pdf in req.Params.Output.
func (e *Engine) Split(ctx context.Context, req types.Request, progress types.ProgressFunc) (types.Result, error) {
	start := time.Now()
	res := types.Result{RequestID: req.ID, Kind: req.Kind}
	dir := req.Params.Output

	for _, path := range req.InputPaths() {
		doc, err := e.openPlain(path)
		if err != nil {
			return res, err
		}
		res.BytesIn += doc.Size
		progress(fmt.Sprintf("splitting %s (%s)", filepath.Base(path), describePages(doc.PageCount)))

		for page := 1; page <= doc.PageCount; page++ {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			dest := types.SplitPagePath(dir, path, page)
			selected := []string{strconv.Itoa(page)}
			err := writeAtomic(dest, func(tmp string) error {
				if err := api.TrimFile(path, tmp, selected, e.newConf("")); err != nil {
					return classifyWrite(dest, err)
				}
				return nil
			})
			if err != nil {
				return res, err
			}
			res.Outputs = append(res.Outputs, dest)
			res.Pages++
			res.BytesOut += fileSize(dest)
			progress(fmt.Sprintf("wrote %s (page %d/%d)", filepath.Base(dest), page, doc.PageCount))
		}
	}

	res.Duration = time.Since(start)
	return res, nil
}
