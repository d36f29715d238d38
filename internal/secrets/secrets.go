// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials from a directory of plain-text files.
// The file name is the key and the trimmed contents are the value. The
// protect and unlock commands fall back to the pdf-password file when no
// password is given on the command line.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PDFPasswordKey names the file holding the default document password.
const PDFPasswordKey = "pdf-password"

// Load reads all regular, non-hidden files in dir. A missing directory is
// not an error and yields an empty map. Unreadable files are reported
// through warn and skipped; warn may be nil.
func Load(dir string, warn func(name string, err error)) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if warn != nil {
				warn(name, err)
			}
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}

// Password returns flagValue when set, otherwise the pdf-password secret
// from dir. It returns "" when neither is available.
func Password(flagValue, dir string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	s, err := Load(dir, nil)
	if err != nil {
		return "", err
	}
	return s[PDFPasswordKey], nil
}
