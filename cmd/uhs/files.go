package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/uhs/uhs/internal/domain/admin"
	"github.com/uhs/uhs/internal/platform/apiclient"
)

// saveAttachment writes att to path, or to its own filename in the current
// directory when path is empty.
func (a *app) saveAttachment(att *apiclient.Attachment, path string) error {
	if path == "" {
		path = filepath.Base(att.Filename)
	}
	if err := os.WriteFile(path, att.Data, 0o600); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	fmt.Fprintf(a.out, "Saved %s (%d bytes).\n", path, len(att.Data))
	return nil
}

func readUpload(path string) (admin.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return admin.Upload{}, apiclient.Invalid("file", err.Error())
	}
	return admin.Upload{Filename: filepath.Base(path), Data: data}, nil
}
