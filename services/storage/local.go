package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/mailgate/interfaces"
	"github.com/customeros/mailgate/internal/tracing"
)

var (
	ErrObjectExists = errors.New("object already exists")
	ErrInvalidKey   = errors.New("invalid storage key")
)

// LocalStorageService keeps objects as files below a root directory. Keys use forward slashes.
type LocalStorageService struct {
	root string
}

func NewLocalStorageService(root string) (interfaces.StorageService, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "resolve storage root")
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, errors.Wrap(err, "create storage root")
	}
	return &LocalStorageService{root: abs}, nil
}

func (s *LocalStorageService) path(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	full := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	return full, nil
}

// Upload writes to a temp file in the target directory and links it into place.
// Linking fails when the key is taken, so an existing object is never replaced.
func (s *LocalStorageService) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "LocalStorageService.Upload")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("key", key, "size", len(data))

	target, err := s.path(key)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "create object directory")
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "close temp file")
	}

	if err := os.Link(tmpName, target); err != nil {
		if os.IsExist(err) {
			return errors.Wrapf(ErrObjectExists, "%q", key)
		}
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "publish object")
	}
	return nil
}

func (s *LocalStorageService) Download(ctx context.Context, key string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "LocalStorageService.Download")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("key", key)

	target, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "read %s", key)
	}
	return data, nil
}

func (s *LocalStorageService) Delete(ctx context.Context, key string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "LocalStorageService.Delete")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("key", key)

	target, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}

func (s *LocalStorageService) Exists(ctx context.Context, key string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "LocalStorageService.Exists")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	target, err := s.path(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "stat %s", key)
	}
	return info.Mode().IsRegular(), nil
}
