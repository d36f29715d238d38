// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf-tools/pkg/types"
)

// Info reads the metadata of the document at path. password is only needed
// for encrypted documents. When withText is set the text layer of every
// page is included; extraction failures leave PageText empty.
func (e *Engine) Info(path, password string, withText bool) (types.DocumentInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return types.DocumentInfo{}, unreadable(path, err)
	}
	ctx, err := e.readContext(path, password)
	if err != nil {
		return types.DocumentInfo{}, err
	}

	x := ctx.XRefTable
	info := types.DocumentInfo{
		Document: types.Document{
			Path:      path,
			PageCount: ctx.PageCount,
			Size:      stat.Size(),
			Encrypted: ctx.Encrypt != nil,
		},
		FileName:     filepath.Base(path),
		Title:        x.Title,
		Author:       x.Author,
		Creator:      x.Creator,
		Producer:     x.Producer,
		CreationDate: x.CreationDate,
		ModDate:      x.ModDate,
	}

	if withText && !info.Encrypted {
		pages, err := ExtractPageText(path)
		if err != nil {
			e.logger.Debug("text extraction failed", zap.String("path", path), zap.Error(err))
		} else {
			info.PageText = pages
		}
	}
	return info, nil
}
