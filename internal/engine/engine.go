// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine implements the PDF operation handlers on top of pdfcpu.
// Every handler reads its inputs, performs a bounded sequence of library
// calls, and writes each output through a temporary file that is renamed
// over the target only on success.
package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-tools/pkg/types"
)

// Engine runs PDF operations with a fixed configuration.
type Engine struct {
	cfg        types.Config
	compressor Compressor
	logger     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCompressor replaces the default pdfcpu compressor.
func WithCompressor(c Compressor) Option {
	return func(e *Engine) { e.compressor = c }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine. pdfcpu's on-disk configuration directory is
// disabled so the engine only uses the settings in cfg.
func New(cfg types.Config, opts ...Option) *Engine {
	api.DisableConfigDir()

	e := &Engine{cfg: cfg, logger: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	if e.compressor == nil {
		e.compressor = NewPdfcpuCompressor(func() *model.Configuration { return e.newConf("") })
	}
	return e
}

// Handlers returns the handler for every operation kind.
func (e *Engine) Handlers() map[types.OperationKind]types.Handler {
	return map[types.OperationKind]types.Handler{
		types.OpMerge:     e.Merge,
		types.OpSplit:     e.Split,
		types.OpCompress:  e.Compress,
		types.OpWatermark: e.Watermark,
		types.OpProtect:   e.Protect,
		types.OpUnlock:    e.Unlock,
	}
}

// newConf returns a fresh pdfcpu configuration. pdfcpu mutates the
// configuration it is given, so each call gets its own.
func (e *Engine) newConf(password string) *model.Configuration {
	conf := model.NewDefaultConfiguration()
	e.applyValidation(conf)
	if password != "" {
		conf.UserPW = password
		conf.OwnerPW = password
	}
	return conf
}

func (e *Engine) applyValidation(conf *model.Configuration) {
	if e.cfg.PDF.Validation == "strict" {
		conf.ValidationMode = model.ValidationStrict
	} else {
		conf.ValidationMode = model.ValidationRelaxed
	}
}

// Inspect opens path and returns its document reference. Encrypted documents
// that cannot be opened without a password are returned with Encrypted set
// and a zero page count.
func (e *Engine) Inspect(path string) (types.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.Document{}, unreadable(path, err)
	}
	if info.IsDir() {
		return types.Document{}, types.NewError(types.KindInputUnreadable, path, "is a directory", nil)
	}

	doc := types.Document{Path: path, Size: info.Size()}
	ctx, err := e.readContext(path, "")
	if err != nil {
		if types.KindOf(err) == types.KindInputEncrypted {
			doc.Encrypted = true
			return doc, nil
		}
		return types.Document{}, err
	}
	doc.PageCount = ctx.PageCount
	doc.Encrypted = ctx.Encrypt != nil
	return doc, nil
}

// readContext parses and validates the document at path, decrypting with
// password when one is given.
func (e *Engine) readContext(path, password string) (*model.Context, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, unreadable(path, err)
	}
	defer f.Close()

	ctx, err := api.ReadContext(f, e.newConf(password))
	if err != nil {
		return nil, classifyRead(path, password, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, types.NewError(types.KindUnsupportedDocument, path, "document failed validation", err)
	}
	if ctx.PageCount == 0 {
		if err := ctx.EnsurePageCount(); err != nil {
			return nil, types.NewError(types.KindUnsupportedDocument, path, "cannot count pages", err)
		}
	}
	return ctx, nil
}

// openPlain reads an input for any operation other than unlock. Encrypted
// inputs are refused.
func (e *Engine) openPlain(path string) (types.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.Document{}, unreadable(path, err)
	}
	ctx, err := e.readContext(path, "")
	if err != nil {
		return types.Document{}, err
	}
	if ctx.Encrypt != nil {
		return types.Document{}, types.NewError(types.KindInputEncrypted, path,
			"document is password protected; unlock it first", nil)
	}
	return types.Document{Path: path, PageCount: ctx.PageCount, Size: info.Size()}, nil
}

// PageCount returns the number of pages of an unencrypted document.
func (e *Engine) PageCount(path string) (int, error) {
	ctx, err := e.readContext(path, "")
	if err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}

func unreadable(path string, err error) error {
	return types.NewError(types.KindInputUnreadable, path, "cannot read file", err)
}

// classifyRead maps a pdfcpu read failure to an error kind. pdfcpu reports
// password failures only through the message text.
func classifyRead(path, password string, err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return unreadable(path, err)
	}
	if strings.Contains(strings.ToLower(err.Error()), "password") {
		if password == "" {
			return types.NewError(types.KindInputEncrypted, path, "document is password protected", err)
		}
		return types.NewError(types.KindWrongPassword, path, "password does not validate", err)
	}
	return types.NewError(types.KindUnsupportedDocument, path, "cannot parse document", err)
}

// classifyWrite maps a failure while producing dest. Inputs have already
// been read once, so file-system errors point at the output side.
func classifyWrite(dest string, err error) error {
	var te *types.Error
	if errors.As(err, &te) {
		return err
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return types.NewError(types.KindOutputWriteFailed, dest, "cannot write output", err)
	}
	return types.NewError(types.KindUnsupportedDocument, dest, "processing failed", err)
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func describePages(n int) string {
	if n == 1 {
		return "1 page"
	}
	return fmt.Sprintf("%d pages", n)
}
