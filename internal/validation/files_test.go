package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileValidator_ValidateInputDirectory(t *testing.T) {
	logger := slog.Default()
	v := NewFileValidator(logger)

	t.Run("missing directory", func(t *testing.T) {
		err := v.ValidateInputDirectory(filepath.Join(t.TempDir(), "absent"), "")
		assert.ErrorContains(t, err, "does not exist")
	})

	t.Run("path is a file", func(t *testing.T) {
		path := writeTemp(t, "plain.csv", []byte("a,b\n"))
		err := v.ValidateInputDirectory(path, "")
		assert.ErrorContains(t, err, "not a directory")
	})

	t.Run("no matching files", func(t *testing.T) {
		err := v.ValidateInputDirectory(t.TempDir(), "*.csv")
		assert.ErrorContains(t, err, "no files matching")
	})

	t.Run("matching files present", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "monthly_sales.csv"), []byte("a,b\n"), 0o644))
		assert.NoError(t, v.ValidateInputDirectory(dir, "*.csv"))
	})
}

func TestFileValidator_ValidateRequiredFile(t *testing.T) {
	v := NewFileValidator(nil)

	t.Run("missing", func(t *testing.T) {
		err := v.ValidateRequiredFile(filepath.Join(t.TempDir(), "nope.csv"))
		assert.ErrorContains(t, err, "does not exist")
	})

	t.Run("empty", func(t *testing.T) {
		path := writeTemp(t, "empty.csv", nil)
		err := v.ValidateRequiredFile(path)
		assert.ErrorContains(t, err, "is empty")
	})

	t.Run("directory", func(t *testing.T) {
		err := v.ValidateRequiredFile(t.TempDir())
		assert.ErrorContains(t, err, "is a directory")
	})

	t.Run("valid", func(t *testing.T) {
		path := writeTemp(t, "stock.csv", []byte("reference,final_inventory\n"))
		assert.NoError(t, v.ValidateRequiredFile(path))
	})
}

func TestFileValidator_ValidateTextAssets(t *testing.T) {
	v := NewFileValidator(slog.Default())

	t.Run("clean tree", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sales.csv"), []byte("botín,10\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "data.xlsx"), []byte{0x50, 0x4b, 0x03, 0x04}, 0o644))
		assert.NoError(t, v.ValidateTextAssets(dir))
	})

	t.Run("corrupt csv", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sales.csv"), []byte("gesti\xf3n,10\n"), 0o644))

		err := v.ValidateTextAssets(dir)
		var encErr *EncodingError
		require.ErrorAs(t, err, &encErr)
		assert.NotEmpty(t, encErr.Findings)
	})

	t.Run("binary workbooks ignored", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "data.xlsx"), []byte{0xff, 0xfe, 0x00}, 0o644))
		assert.NoError(t, v.ValidateTextAssets(dir))
	})
}
