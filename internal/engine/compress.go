// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-tools/internal/container"
	"github.com/pdiddy/pdf-tools/pkg/types"
)

// Compressor rewrites the PDF at in into out.
type Compressor interface {
	// Name identifies the backend in progress messages.
	Name() string
	Compress(ctx context.Context, in, out string) error
}

// PdfcpuCompressor optimises in-process: it recompresses streams and drops
// duplicate fonts, images and unused objects. Raster data is not resampled.
type PdfcpuCompressor struct {
	conf func() *model.Configuration
}

// NewPdfcpuCompressor creates a compressor using conf for each run.
func NewPdfcpuCompressor(conf func() *model.Configuration) *PdfcpuCompressor {
	return &PdfcpuCompressor{conf: conf}
}

func (c *PdfcpuCompressor) Name() string { return string(types.CompressPdfcpu) }

func (c *PdfcpuCompressor) Compress(_ context.Context, in, out string) error {
	return api.OptimizeFile(in, out, c.conf())
}

// ghostscriptQualities lists the accepted PDFSETTINGS presets.
var ghostscriptQualities = map[string]bool{
	"screen":   true,
	"ebook":    true,
	"printer":  true,
	"prepress": true,
}

// GhostscriptCompressor pipes the document through gs in a container,
// downsampling raster images to the resolution of the quality preset.
type GhostscriptCompressor struct {
	runtime container.Runtime
	image   string
	quality string
}

// NewGhostscriptCompressor verifies that image is available in rt and
// returns a compressor using the given quality preset.
func NewGhostscriptCompressor(rt container.Runtime, image, quality string) (*GhostscriptCompressor, error) {
	if !ghostscriptQualities[quality] {
		return nil, fmt.Errorf("unknown ghostscript quality %q: use screen, ebook, printer or prepress", quality)
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("ghostscript image not available in %s: %w", rt.Name(), err)
	}
	return &GhostscriptCompressor{runtime: rt, image: image, quality: quality}, nil
}

func (g *GhostscriptCompressor) Name() string { return string(types.CompressGhostscript) }

func (g *GhostscriptCompressor) command() []string {
	return []string{
		"gs",
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.5",
		"-dPDFSETTINGS=/" + g.quality,
		"-dDetectDuplicateImages=true",
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-sOutputFile=-",
		"-",
	}
}

func (g *GhostscriptCompressor) Compress(ctx context.Context, in, out string) error {
	src, err := os.Open(in)
	if err != nil {
		return unreadable(in, err)
	}
	defer src.Close()

	dst, err := os.Create(out)
	if err != nil {
		return types.NewError(types.KindOutputWriteFailed, out, "cannot create file", err)
	}
	runErr := g.runtime.Run(ctx, g.image, g.command(), src, dst)
	closeErr := dst.Close()
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return types.NewError(types.KindOutputWriteFailed, out, "cannot close file", closeErr)
	}
	return nil
}

// Compress writes compressed_{name}.pdf for every input. A result that is
// larger than its input, loses pages, or changes the extractable text is
// discarded and the input bytes are written instead.
func (e *Engine) Compress(ctx context.Context, req types.Request, progress types.ProgressFunc) (types.Result, error) {
	start := time.Now()
	res := types.Result{RequestID: req.ID, Kind: req.Kind}

	for i, path := range req.InputPaths() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		doc, err := e.openPlain(path)
		if err != nil {
			return res, err
		}
		name := filepath.Base(path)
		progress(fmt.Sprintf("compressing %s with %s (%d/%d)", name, e.compressor.Name(), i+1, len(req.Inputs)))

		var before []string
		if e.cfg.Compress.VerifyText {
			before, err = ExtractPageText(path)
			if err != nil {
				e.logger.Debug("text verification skipped", zap.String("path", path), zap.Error(err))
				before = nil
			}
		}

		dest := types.OutputPath(types.OpCompress, req.Params.Output, path)
		err = writeAtomic(dest, func(tmp string) error {
			if err := e.compressor.Compress(ctx, path, tmp); err != nil {
				return classifyWrite(dest, err)
			}
			if reason := e.rejectCompressed(tmp, doc, before); reason != "" {
				progress(fmt.Sprintf("%s: %s, keeping original", name, reason))
				return copyFile(path, tmp)
			}
			return nil
		})
		if err != nil {
			return res, err
		}

		outSize := fileSize(dest)
		res.Outputs = append(res.Outputs, dest)
		res.Pages += doc.PageCount
		res.BytesIn += doc.Size
		res.BytesOut += outSize
		progress(fmt.Sprintf("compressed %s: %s -> %s", name, types.FormatSize(doc.Size), types.FormatSize(outSize)))
	}

	res.Duration = time.Since(start)
	return res, nil
}

// rejectCompressed returns why the candidate at tmp must not replace the
// original, or "" when it is acceptable.
func (e *Engine) rejectCompressed(tmp string, orig types.Document, before []string) string {
	if fileSize(tmp) >= orig.Size {
		return "already optimally compressed"
	}
	pages, err := e.PageCount(tmp)
	if err != nil {
		return "compressed output could not be read back"
	}
	if pages != orig.PageCount {
		return fmt.Sprintf("compressed output has %d pages instead of %d", pages, orig.PageCount)
	}
	if before == nil {
		return ""
	}
	after, err := ExtractPageText(tmp)
	if err != nil || !sameText(before, after) {
		return "compressed output changed the document text"
	}
	return ""
}

func sameText(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.Join(strings.Fields(a[i]), " ") != strings.Join(strings.Fields(b[i]), " ") {
			return false
		}
	}
	return true
}
