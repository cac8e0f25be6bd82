package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, Execute())
	assert.Contains(t, buf.String(), "ticsgate CLI")
	assert.Contains(t, buf.String(), "Version: dev")
}

func TestInputEnvironment(t *testing.T) {
	t.Setenv("INPUT_VIEWER_URL", "http://viewer.com/tiobeweb/TICS/api/cfg?name=a")
	t.Setenv("INPUT_SHOW-BLOCKING-AFTER", "true")
	t.Setenv("GITHUB_TOKEN", "ghs_token")
	initConfig()

	assert.Equal(t, "http://viewer.com/tiobeweb/TICS/api/cfg?name=a", viper.GetString("viewer-url"))
	assert.True(t, viper.GetBool("show-blocking-after"))
	assert.Equal(t, "ghs_token", viper.GetString("github-token"))
	assert.True(t, viper.GetBool("post-annotations"))
	assert.Equal(t, "client", viper.GetString("mode"))
}

func TestConfigFileKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".ticsgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project: ${TICS_PROJECT}\nadditional-flags: -x\n"), 0o644))
	t.Setenv("INPUT_ADDITIONAL_FLAGS", "-exclude $HOME_DIR/x")
	t.Cleanup(func() {
		viper.Reset()
		require.NoError(t, viper.BindPFlags(rootCmd.PersistentFlags()))
	})

	initConfig()
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	keys := configFileKeys()
	assert.True(t, keys["project"])
	assert.False(t, keys["additional-flags"], "the environment overrides the file")
	assert.False(t, keys["mode"])
}

func TestMaxRetriesHelp(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("max-retries")
	require.NotNil(t, flag)
	assert.Contains(t, flag.Usage, "the first attempt is not counted")
}
