package engine

import (
	"context"
	"io"
	"reflect"
)

// Builder materializes an archive file from a target file or directory.
type Builder interface {
	// Build writes archivePath from the contents of targetPath and reports whether
	// archivePath exists afterwards. Filesystem failures are returned as errors;
	// a false result without an error means a best-effort step (e.g. an external
	// compressor) did not produce the archive.
	Build(ctx context.Context, archivePath, targetPath string) (bool, error)
}

// BuilderFunc adapts a plain function into a Builder.
type BuilderFunc func(ctx context.Context, archivePath, targetPath string) (bool, error)

func (f BuilderFunc) Build(ctx context.Context, archivePath, targetPath string) (bool, error) {
	return f(ctx, archivePath, targetPath)
}

// Sink is a destination built archives are published to.
type Sink interface {
	Named
	Closer
	Write(ctx context.Context, path string, data io.Reader) error
}

// isNilBuilder catches both a nil interface and a typed nil (nil func, nil pointer).
func isNilBuilder(b Builder) bool {
	if b == nil {
		return true
	}
	v := reflect.ValueOf(b)
	switch v.Kind() {
	case reflect.Func, reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
