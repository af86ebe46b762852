package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PAWFUND_HOME", t.TempDir())

	cfg, err := Load("", "")
	require.NoError(t, err)
	require.Equal(t, "goleveldb", cfg.DBBackend)
	require.Equal(t, "0.0.0.0:8080", cfg.API.Listen)
	require.Equal(t, 30*time.Second, cfg.API.ReadTimeout)
	require.NotNil(t, cfg.API.RateLimit)
	require.Equal(t, 10, cfg.API.RateLimit.TxPerSecond)
	require.False(t, cfg.API.EnableFaucet)
	require.Equal(t, uint64(100), cfg.Fund.Fees.FeeDenominator)
	require.Equal(t, "ubase", cfg.Custody.BaseDenom)
	require.Equal(t, cfg.Fund.TargetDenom, cfg.Venue.TargetDenom)
	require.Equal(t, "@every 1m", cfg.Sweep.Schedule)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pawfund.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
home: `+dir+`
db_backend: memdb
api:
  listen: 127.0.0.1:9000
  enable_faucet: true
  rate_limit:
    block_duration: 5s
fund:
  fees:
    fee_numerator: 2
  routing_buffer: 10
genesis:
  - address: alice
    denom: ubase
    amount: 5000
`), 0o600))
	t.Setenv("PAWFUND_API_LISTEN", "127.0.0.1:9100")
	t.Setenv("PAWFUND_LOG_FORMAT", "json")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	require.Equal(t, "memdb", cfg.DBBackend)
	require.Equal(t, "127.0.0.1:9100", cfg.API.Listen)
	require.True(t, cfg.API.EnableFaucet)
	require.Equal(t, 5*time.Second, cfg.API.RateLimit.BlockDuration)
	require.Equal(t, uint64(2), cfg.Fund.Fees.FeeNumerator)
	require.Equal(t, uint64(100), cfg.Fund.Fees.FeeDenominator)
	require.Equal(t, uint64(10), cfg.Fund.RoutingBuffer)
	require.Equal(t, "json", cfg.Log.Format)
	require.Len(t, cfg.Genesis, 1)
	require.Equal(t, uint64(5000), cfg.Genesis[0].Amount)

	opts := cfg.Options(nil)
	require.NoError(t, opts.Validate())
	require.Equal(t, cfg.Genesis, opts.Genesis)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"log level", map[string]string{"PAWFUND_LOG_LEVEL": "loud"}},
		{"log format", map[string]string{"PAWFUND_LOG_FORMAT": "xml"}},
		{"sweep schedule", map[string]string{"PAWFUND_SWEEP_SCHEDULE": "every minute"}},
		{"db backend", map[string]string{"PAWFUND_DB_BACKEND": "rocksdb"}},
		{"target denom mismatch", map[string]string{"PAWFUND_VENUE_TARGET_DENOM": "uother"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PAWFUND_HOME", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load("", ""); err == nil {
				t.Errorf("expected %s to be rejected", tt.name)
			}
		})
	}
}

func TestHomeOverride(t *testing.T) {
	t.Setenv("PAWFUND_HOME", t.TempDir())
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("api:\n  listen: 127.0.0.1:7000\n"), 0o600))

	cfg, err := Load("", home)
	require.NoError(t, err)
	require.Equal(t, home, cfg.Home)
	require.Equal(t, "127.0.0.1:7000", cfg.API.Listen)
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "")
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "info", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)
	logger.Info("Fund created", "fund_id", "alpha")
	logger.Debug("suppressed")
	require.Contains(t, buf.String(), `"fund_id":"alpha"`)
	require.NotContains(t, buf.String(), "suppressed")
}
