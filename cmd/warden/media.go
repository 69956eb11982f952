package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Tammibriggs/we-conect-community/community"
)

// diskMediaCleaner removes uploaded files from the local uploads directory
// when a submission fails and the asset would be orphaned.
type diskMediaCleaner struct {
	Dir    string
	Logger *slog.Logger
}

func (d *diskMediaCleaner) Delete(ctx context.Context, ref *community.MediaRef) error {
	name := filepath.Base(ref.Filename)
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("refusing to delete suspicious media filename: %q", ref.Filename)
	}
	path := filepath.Join(d.Dir, name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			d.Logger.Warn("orphaned media already gone", "path", path)
			return nil
		}
		return fmt.Errorf("removing orphaned media: %w", err)
	}
	d.Logger.Info("removed orphaned media", "path", path)
	return nil
}
