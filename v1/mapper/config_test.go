package mapper

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
mongo:
  default: master
  naming: snake
  counterCollection: sequences
  logCommands: true
  sources:
    - name: master
      uri: mongodb://primary:27017
      databases: [shop, audit]
      connectTimeout: 3s
    - name: reporting
      uri: mongodb://replica:27017
      databases: [warehouse]
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "master", cfg.Default)
	assert.Equal(t, "snake", cfg.Naming)
	assert.Equal(t, "sequences", cfg.counterCollection())
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "mongodb://primary:27017", cfg.Sources[0].URI)
	assert.Equal(t, []string{"shop", "audit"}, cfg.Sources[0].Databases)
	assert.Equal(t, 3*time.Second, cfg.Sources[0].ConnectTimeout)

	ds := cfg.DataSources()
	for _, s := range ds.Sources {
		assert.True(t, s.LogCommands, s.Name)
	}
	assert.False(t, cfg.Sources[1].LogCommands)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Sources, 2)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("mongo: [not, a, map]"))
	assert.Error(t, err)
}

func TestCounterCollectionDefault(t *testing.T) {
	assert.Equal(t, "counter", Config{}.counterCollection())
}
