package pipeline

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath_Home(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	home = evalExisting(home)

	got, err := ResolvePath("~")
	require.NoError(t, err)
	assert.Equal(t, home, got)

	got, err = ResolvePath("~/models/../models/best.pt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "models", "best.pt"), got)
}

func TestResolvePath_UnknownUserKept(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	chdir(t, root)

	got, err := ResolvePath("~no-such-user-xyz/best.pt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "~no-such-user-xyz", "best.pt"), got)
}

func TestResolvePath_RelativeNeedNotExist(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	chdir(t, root)

	got, err := ResolvePath("android/app/src/main/assets/")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "android", "app", "src", "main", "assets"), got)
	assert.True(t, filepath.IsAbs(got))
}

func TestResolvePath_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	trainDir := filepath.Join(root, "runs", "detect", "train")
	require.NoError(t, os.MkdirAll(trainDir, 0o755))
	link := filepath.Join(root, "latest")
	require.NoError(t, os.Symlink(trainDir, link))

	got, err := ResolvePath(filepath.Join(link, "weights", "best.pt"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(trainDir, "weights", "best.pt"), got, "existing prefix resolved, missing tail kept")

	target := filepath.Join(trainDir, "best.tflite")
	require.NoError(t, os.WriteFile(target, []byte{1}, 0o644))
	fileLink := filepath.Join(root, "best.tflite")
	require.NoError(t, os.Symlink(target, fileLink))
	got, err = ResolvePath(fileLink)
	require.NoError(t, err)
	assert.Equal(t, target, got)
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
