package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	c, err := loadConfig(viper.New(), false)
	require.NoError(t, err)

	assert.Equal(t, 5000, c.DefaultPort)
	assert.Equal(t, 5, c.Crawler.Workers)
	assert.Equal(t, "https://api.chzzk.naver.com", c.Crawler.APIBase)
	assert.Equal(t, "2099", c.Crawler.SID)
	assert.Equal(t, "ko_KR", c.Crawler.Locale)
	assert.Equal(t, []string{"pstatic.net", "naver.net", "naver.com"}, c.AllowedImageDomains)

	assert.True(t, filepath.IsAbs(c.DatabasePath))
	assert.Equal(t, filepath.Join(c.UserDataDir, "chzzk.db"), c.DatabasePath)
	assert.Equal(t, filepath.Join(c.UserDataDir, "images"), c.ImageStorageDir)
	assert.NotContains(t, c.Logging.LogFile, "{{user_data_dir}}")
	assert.Same(t, c, Get())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := "user_data_dir: " + dir + "\ncrawler:\n  workers: 2\n  locale: en_US\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))
	t.Setenv("CRAWLER_SID", "22099")

	c, err := loadConfig(viper.New(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Crawler.Workers)
	assert.Equal(t, "en_US", c.Crawler.Locale)
	assert.Equal(t, "22099", c.Crawler.SID)
	assert.Equal(t, filepath.Join(dir, "chzzk.db"), c.DatabasePath)
	assert.DirExists(t, filepath.Join(dir, "images"))
}

func TestNormalizePath(t *testing.T) {
	p, err := normalizePath("")
	require.NoError(t, err)
	assert.Equal(t, "", p)

	p, err = normalizePath("a/../b")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(p))
	assert.Equal(t, "b", filepath.Base(p))
}
