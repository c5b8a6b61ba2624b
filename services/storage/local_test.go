package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) (*LocalStorageService, string) {
	root := t.TempDir()
	svc, err := NewLocalStorageService(root)
	require.NoError(t, err)
	return svc.(*LocalStorageService), root
}

func TestLocalStorage_UploadDownload(t *testing.T) {
	svc, root := newLocal(t)
	ctx := context.Background()

	key := "inbound/1/2025/01/02/030405-abc.eml"
	require.NoError(t, svc.Upload(ctx, key, []byte("raw mime"), "message/rfc822"))

	data, err := svc.Download(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "raw mime", string(data))

	_, err = os.Stat(filepath.Join(root, "inbound", "1", "2025", "01", "02", "030405-abc.eml"))
	assert.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "inbound", "1", "2025", "01", "02"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestLocalStorage_RefusesOverwrite(t *testing.T) {
	svc, _ := newLocal(t)
	ctx := context.Background()

	require.NoError(t, svc.Upload(ctx, "a/b.eml", []byte("first"), "message/rfc822"))
	err := svc.Upload(ctx, "a/b.eml", []byte("second"), "message/rfc822")
	assert.True(t, errors.Is(err, ErrObjectExists))

	data, err := svc.Download(ctx, "a/b.eml")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestLocalStorage_MissingObject(t *testing.T) {
	svc, _ := newLocal(t)
	ctx := context.Background()

	_, err := svc.Download(ctx, "nope.eml")
	assert.Equal(t, ErrObjectNotFound, err)

	exists, err := svc.Exists(ctx, "nope.eml")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	svc, _ := newLocal(t)
	ctx := context.Background()

	for _, key := range []string{"", "/etc/passwd", "../outside.eml", "a/../../outside.eml", ".."} {
		err := svc.Upload(ctx, key, []byte("x"), "message/rfc822")
		assert.True(t, errors.Is(err, ErrInvalidKey), "key %q", key)
	}
}

func TestLocalStorage_DeleteAndExists(t *testing.T) {
	svc, _ := newLocal(t)
	ctx := context.Background()

	require.NoError(t, svc.Upload(ctx, "x/y.eml", []byte("x"), "message/rfc822"))
	exists, err := svc.Exists(ctx, "x/y.eml")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, svc.Delete(ctx, "x/y.eml"))
	require.NoError(t, svc.Delete(ctx, "x/y.eml"), "deleting a missing key is not an error")

	exists, err = svc.Exists(ctx, "x/y.eml")
	require.NoError(t, err)
	assert.False(t, exists)
}
