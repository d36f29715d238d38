// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/pdf-tools/pkg/types"
)

// protectConf builds an AES encryption configuration for password.
func (e *Engine) protectConf(password string) *model.Configuration {
	keyLen := e.cfg.Security.KeyLength
	if keyLen != 128 {
		keyLen = 256
	}
	owner := e.cfg.Security.OwnerPassword
	if owner == "" {
		owner = password
	}
	conf := model.NewAESConfiguration(password, owner, keyLen)
	e.applyValidation(conf)
	return conf
}

// Protect encrypts every input with req.Params.Password, writing
// secured_{name}.pdf. Opening the output requires the password.
func (e *Engine) Protect(ctx context.Context, req types.Request, progress types.ProgressFunc) (types.Result, error) {
	start := time.Now()
	res := types.Result{RequestID: req.ID, Kind: req.Kind}
	if req.Params.Password == "" {
		return res, types.NewError(types.KindSelection, "", "password is required", nil)
	}

	for i, path := range req.InputPaths() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		doc, err := e.openPlain(path)
		if err != nil {
			return res, err
		}
		progress(fmt.Sprintf("encrypting %s (%d/%d)", filepath.Base(path), i+1, len(req.Inputs)))

		dest := types.OutputPath(types.OpProtect, req.Params.Output, path)
		err = writeAtomic(dest, func(tmp string) error {
			if err := api.EncryptFile(path, tmp, e.protectConf(req.Params.Password)); err != nil {
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

// Unlock removes encryption from every input using req.Params.Password,
// writing unlocked_{name}.pdf. An input that is not encrypted is copied
// unchanged. A wrong password fails the request and writes nothing for
// that input.
func (e *Engine) Unlock(ctx context.Context, req types.Request, progress types.ProgressFunc) (types.Result, error) {
	start := time.Now()
	res := types.Result{RequestID: req.ID, Kind: req.Kind}

	for i, path := range req.InputPaths() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return res, unreadable(path, err)
		}
		name := filepath.Base(path)
		dest := types.OutputPath(types.OpUnlock, req.Params.Output, path)

		encrypted, pages, err := e.probeEncryption(path, req.Params.Password)
		if err != nil {
			return res, err
		}

		if !encrypted {
			progress(fmt.Sprintf("%s is not password protected, copying", name))
			err = writeAtomic(dest, func(tmp string) error { return copyFile(path, tmp) })
		} else {
			progress(fmt.Sprintf("decrypting %s (%d/%d)", name, i+1, len(req.Inputs)))
			err = writeAtomic(dest, func(tmp string) error {
				if err := api.DecryptFile(path, tmp, e.newConf(req.Params.Password)); err != nil {
					if te := classifyRead(path, req.Params.Password, err); types.KindOf(te) == types.KindWrongPassword {
						return te
					}
					return classifyWrite(dest, err)
				}
				return nil
			})
		}
		if err != nil {
			return res, err
		}

		res.Outputs = append(res.Outputs, dest)
		res.Pages += pages
		res.BytesIn += info.Size()
		res.BytesOut += fileSize(dest)
	}

	res.Duration = time.Since(start)
	return res, nil
}

// probeEncryption reports whether path is encrypted and, if so, checks that
// password opens it.
func (e *Engine) probeEncryption(path, password string) (bool, int, error) {
	ctx, err := e.readContext(path, "")
	if err == nil && ctx.Encrypt == nil {
		return false, ctx.PageCount, nil
	}
	if err != nil && types.KindOf(err) != types.KindInputEncrypted {
		return false, 0, err
	}
	if password == "" {
		return true, 0, types.NewError(types.KindWrongPassword, path, "password is required", nil)
	}
	ctx, err = e.readContext(path, password)
	if err != nil {
		return true, 0, err
	}
	return true, ctx.PageCount, nil
}
