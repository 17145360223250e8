package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwards/ciassoc/internal/config"
)

func TestPropertiesStringProperty(t *testing.T) {
	p := config.Properties{"remoteHost": "127.0.0.1", "empty": ""}

	v, err := p.StringProperty("remoteHost")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", v)

	v, err = p.StringProperty("empty")
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = p.StringProperty("missing")
	assert.ErrorIs(t, err, config.ErrPropertyNotSet)
}

func TestAllPropertiesIsACopy(t *testing.T) {
	p := config.Properties{"a": "1"}
	all := p.AllProperties()
	all["a"] = "2"
	assert.Equal(t, "1", p["a"])
}

func TestLoadProperties(t *testing.T) {
	path := filepath.Join(t.TempDir(), "handler.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`remoteHost: "127.0.0.1"
remotePort: "3528"
targetFdn: "X=1,Y=1,Z=1"
`), 0o600))

	p, err := config.LoadProperties(path)
	require.NoError(t, err)
	assert.Equal(t, config.Properties{
		"remoteHost": "127.0.0.1",
		"remotePort": "3528",
		"targetFdn":  "X=1,Y=1,Z=1",
	}, p)
}

func TestLoadPropertiesErrors(t *testing.T) {
	_, err := config.LoadProperties(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a\n- map\n"), 0o600))
	_, err = config.LoadProperties(path)
	assert.Error(t, err)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "REMOTE_HOST", config.EnvName("remoteHost"))
	assert.Equal(t, "TARGET_FDN", config.EnvName("targetFdn"))
	assert.Equal(t, "PORT", config.EnvName("port"))
}

func TestWithEnv(t *testing.T) {
	t.Setenv("CIASSOC_REMOTE_HOST", "10.0.0.1")
	t.Setenv("CIASSOC_TARGET_FDN", "")

	p := config.Properties{"remoteHost": "127.0.0.1", "targetFdn": "X=1", "remotePort": "3528"}
	out := p.WithEnv("CIASSOC_", "remoteHost", "remotePort", "targetFdn")

	assert.Equal(t, "10.0.0.1", out["remoteHost"])
	assert.Equal(t, "3528", out["remotePort"])
	assert.Equal(t, "", out["targetFdn"])
	assert.Equal(t, "127.0.0.1", p["remoteHost"], "original must be untouched")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CIASSOC_DOTENV_TEST=from-file\n"), 0o600))
	t.Setenv("CIASSOC_DOTENV_TEST", "")
	require.NoError(t, os.Unsetenv("CIASSOC_DOTENV_TEST"))

	require.NoError(t, config.LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("CIASSOC_DOTENV_TEST"))
}
