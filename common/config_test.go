package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConf(t *testing.T, content string) string {
	p := filepath.Join(t.TempDir(), "conf.yml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoadConfigFile(t *testing.T) {
	p := writeConf(t, `
Server: http://seata:7091
RequestTimeout: 3000
TimeZone: Asia/Shanghai
PageSize: 20
DropStaleResponses: true
Store:
  driver: redis
  host: localhost
`)
	require.NoError(t, LoadConfig(p))
	t.Cleanup(resetConfig)
	assert.Equal(t, "http://seata:7091", Config.Server)
	assert.Equal(t, 3*time.Second, Config.Timeout())
	assert.Equal(t, "Asia/Shanghai", Config.Location().String())
	assert.Equal(t, 20, Config.PageSize)
	assert.True(t, Config.DropStaleResponses)
	assert.Equal(t, StoreDriverRedis, Config.Store["driver"])
	assert.Equal(t, "info", Config.LogLevel)
}

func TestLoadConfigEnv(t *testing.T) {
	p := writeConf(t, "Server: http://seata:7091\n")
	t.Setenv("TXCONSOLE_SERVER", "https://coordinator:8091")
	t.Setenv("TXCONSOLE_PAGE_SIZE", "50")
	t.Setenv("TXCONSOLE_STORE_DRIVER", "none")
	require.NoError(t, LoadConfig(p))
	t.Cleanup(resetConfig)
	assert.Equal(t, "https://coordinator:8091", Config.Server)
	assert.Equal(t, 50, Config.PageSize)
	assert.Equal(t, StoreDriverNone, Config.Store["driver"])
	assert.Equal(t, int64(10000), Config.RequestTimeout)

	t.Setenv("TXCONSOLE_PAGE_SIZE", "many")
	assert.Error(t, LoadConfig(p))
}

func TestCheckConfig(t *testing.T) {
	t.Cleanup(resetConfig)
	cases := []func(){
		func() { Config.Server = "seata:7091" },
		func() { Config.RequestTimeout = 0 },
		func() { Config.PageSize = 101 },
		func() { Config.TimeZone = "Mars/Olympus" },
		func() { Config.Store["driver"] = "mongo" },
	}
	for _, c := range cases {
		resetConfig()
		c()
		assert.Error(t, CheckConfig())
	}
	resetConfig()
	assert.NoError(t, CheckConfig())
	assert.Error(t, LoadConfig(filepath.Join(t.TempDir(), "missing.yml")))
}
