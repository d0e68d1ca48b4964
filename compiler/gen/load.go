package gen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Startitecture/storm-sub007/schema"
)

// LoadFiles decodes the YAML schema files in parallel and returns their
// descriptors in file order. Tables without a schema use defaultSchema.
func LoadFiles(ctx context.Context, defaultSchema string, paths ...string) ([]*schema.Descriptor, error) {
	if len(paths) == 0 {
		return nil, &ConfigError{Option: "schema", Message: "no schema files given"}
	}
	loaded := make([][]*schema.Descriptor, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			descs, err := loadFile(path, defaultSchema)
			if err != nil {
				return err
			}
			loaded[i] = descs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	var descs []*schema.Descriptor
	for _, d := range loaded {
		descs = append(descs, d...)
	}
	return descs, nil
}

func loadFile(path, defaultSchema string) ([]*schema.Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stormgen: open schema: %w", err)
	}
	defer f.Close()
	doc, err := schema.Decode(f)
	if err != nil {
		return nil, &SchemaError{File: path, Cause: err}
	}
	descs, err := doc.Descriptors(defaultSchema)
	if err != nil {
		return nil, &SchemaError{File: path, Cause: err}
	}
	return descs, nil
}

// WriteFile writes generated source to path, creating its directory.
func WriteFile(path string, src []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &GenerationError{Op: "create directory", File: path, Cause: err}
	}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return &GenerationError{Op: "write", File: path, Cause: err}
	}
	return nil
}
