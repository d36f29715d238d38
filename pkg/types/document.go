// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the records shared by the pdf-tools components:
// selected documents, operation requests and results, activity log entries,
// the error taxonomy, and configuration.
package types

import (
	"path/filepath"
	"strings"
)

// Document is a reference to a selected PDF file. The page count is read once
// at selection time and cached for planning output names.
type Document struct {
	// Path is the cleaned file-system path as given by the user.
	Path string `json:"path" yaml:"path"`

	// PageCount is the number of pages, or 0 when the document is encrypted
	// and could not be opened without a password.
	PageCount int `json:"page_count" yaml:"page_count"`

	// Size is the file size in bytes at selection time.
	Size int64 `json:"size" yaml:"size"`

	// Encrypted reports whether the document carries an encryption dictionary.
	Encrypted bool `json:"encrypted" yaml:"encrypted"`
}

// Name returns the file name without directory and extension
// (e.g. "report" for "/tmp/report.pdf").
func (d Document) Name() string {
	return StemOf(d.Path)
}

// StemOf returns the base name of path with its extension removed.
func StemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DocumentInfo holds descriptive metadata for a single PDF, as reported by
// the info command.
type DocumentInfo struct {
	Document `yaml:",inline"`

	FileName     string `json:"file_name" yaml:"file_name"`
	Title        string `json:"title,omitempty" yaml:"title,omitempty"`
	Author       string `json:"author,omitempty" yaml:"author,omitempty"`
	Creator      string `json:"creator,omitempty" yaml:"creator,omitempty"`
	Producer     string `json:"producer,omitempty" yaml:"producer,omitempty"`
	CreationDate string `json:"creation_date,omitempty" yaml:"creation_date,omitempty"`
	ModDate      string `json:"mod_date,omitempty" yaml:"mod_date,omitempty"`

	// PageText holds extracted text per page (index 0 is page 1). Only
	// populated when text extraction was requested.
	PageText []string `json:"page_text,omitempty" yaml:"page_text,omitempty"`
}
