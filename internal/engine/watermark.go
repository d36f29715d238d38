// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pdiddy/pdf-tools/pkg/types"
)

// watermarkDescription renders the pdfcpu description string for the
// configured stamp appearance. The stamp is centred on every page.
func (e *Engine) watermarkDescription() string {
	w := e.cfg.Watermark
	return fmt.Sprintf("fontname:%s, points:%d, rotation:%g, opacity:%g, fillcolor:%s, scalefactor:1 abs, position:c",
		w.Font, w.Points, w.Rotation, w.Opacity, w.Color)
}

func (e *Engine) watermarkText(text string) string {
	text = strings.TrimSpace(text)
	if e.cfg.Watermark.Uppercase {
		text = strings.ToUpper(text)
	}
	return text
}

// Watermark stamps req.Params.Watermark across every page of every input,
// writing watermarked_{name}.pdf. Page count is unchanged.
func (e *Engine) Watermark(ctx context.Context, req types.Request, progress types.ProgressFunc) (types.Result, error) {
	start := time.Now()
	res := types.Result{RequestID: req.ID, Kind: req.Kind}

	text := e.watermarkText(req.Params.Watermark)
	if text == "" {
		return res, types.NewError(types.KindSelection, "", "watermark text is empty", nil)
	}

	for i, path := range req.InputPaths() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		doc, err := e.openPlain(path)
		if err != nil {
			return res, err
		}
		progress(fmt.Sprintf("watermarking %s (%d/%d, %s)", filepath.Base(path), i+1, len(req.Inputs), describePages(doc.PageCount)))

		// onTop stamps over the page content rather than beneath it.
		wm, err := api.TextWatermark(text, e.watermarkDescription(), true, false, pdftypes.POINTS)
		if err != nil {
			return res, types.NewError(types.KindInternal, "", "invalid watermark settings", err)
		}

		dest := types.OutputPath(types.OpWatermark, req.Params.Output, path)
		err = writeAtomic(dest, func(tmp string) error {
			if err := api.AddWatermarksFile(path, tmp, nil, wm, e.newConf("")); err != nil {
				return classifyWrite(dest, err)
			}
			return nil
		})
		if err != nil {
			return res, err
		}

		res.Outputs = append(res.Outputs, dest)
		res.Pages += doc.PageCount
		res.BytesIn += doc.Size
		res.BytesOut += fileSize(dest)
	}

	res.Duration = time.Since(start)
	return res, nil
}
