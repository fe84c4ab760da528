package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	require := require.New(t)
	c := NewConfig(WithRootDir(t.TempDir()))
	require.Equal(4, c.Workers)
	require.Equal(int64(64<<20), c.MaxFileSize)
	require.False(c.SkipDuplicateKeys)
	require.Equal("bencat", c.LoggingPrefix)
}

func TestOptions(t *testing.T) {
	require := require.New(t)
	c := NewConfig(
		WithRootDir(t.TempDir()),
		WithDebug(true),
		WithSkipDuplicateKeys(true),
		WithWorkers(0),
		WithMaxFileSize(10),
		WithLoggingPrefix("test"),
	)
	require.True(c.Debug)
	require.True(c.SkipDuplicateKeys)
	require.Equal(1, c.Workers)
	require.Equal(int64(10), c.MaxFileSize)
	require.Equal("test", c.LoggingPrefix)
}

func TestLoggerWritesFile(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	c := NewConfig(WithRootDir(dir), WithDebug(true))
	log := c.Logger("config")
	log.Debugf("hello %d", 1)
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "bencat.log"))
	require.Nil(err)
	require.Contains(string(data), "hello 1")
	require.Contains(string(data), "bencat:config")
}

func TestLoggerWithoutRootDirWritesNoFile(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	chdir(t, dir)

	c := NewConfig()
	require.Equal("", c.RootDir)
	log := c.Logger("config")
	log.Infof("hello %d", 1)
	_ = log.Sync()

	entries, err := os.ReadDir(dir)
	require.Nil(err)
	require.Empty(entries)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
