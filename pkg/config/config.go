package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cosmossdk.io/log"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/openalpha/pawfund/api"
	"github.com/openalpha/pawfund/api/middleware"
	"github.com/openalpha/pawfund/api/websocket"
	"github.com/openalpha/pawfund/app"
	custodytypes "github.com/openalpha/pawfund/x/custody/types"
	fundtypes "github.com/openalpha/pawfund/x/fund/types"
	"github.com/openalpha/pawfund/x/fund/venue"
)

// EnvPrefix prefixes every environment override, e.g. PAWFUND_API_LISTEN
const EnvPrefix = "PAWFUND"

// LogConfig selects the daemon log level and output format
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// SweepConfig schedules the lifecycle sweep
type SweepConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Schedule is a cron expression; descriptors such as "@every 1m" are accepted.
	Schedule string `mapstructure:"schedule" yaml:"schedule"`
}

// Config is the daemon configuration
type Config struct {
	Home      string `mapstructure:"home" yaml:"home"`
	DBBackend string `mapstructure:"db_backend" yaml:"db_backend"`
	Authority string `mapstructure:"authority" yaml:"authority"`

	Log       LogConfig           `mapstructure:"log" yaml:"log"`
	API       api.Config          `mapstructure:"api" yaml:"api"`
	WebSocket websocket.HubConfig `mapstructure:"websocket" yaml:"websocket"`
	Sweep     SweepConfig         `mapstructure:"sweep" yaml:"sweep"`

	Custody custodytypes.Params `mapstructure:"custody" yaml:"custody"`
	Fund    fundtypes.Params    `mapstructure:"fund" yaml:"fund"`
	Venue   venue.Config        `mapstructure:"venue" yaml:"venue"`
	Genesis []app.Allocation    `mapstructure:"genesis" yaml:"genesis"`
}

// Load reads the configuration. Values come from defaults, then the YAML file
// at path (or <home>/config.yaml when path is empty and the file exists),
// then PAWFUND_* environment variables. A non-empty home overrides all of them.
func Load(path, home string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if home != "" {
		v.Set("home", home)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString("home"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	opts := app.DefaultOptions()
	apiCfg := api.DefaultConfig()
	rl := middleware.DefaultRateLimitConfig()
	hub := websocket.DefaultHubConfig()

	v.SetDefault("home", app.DefaultNodeHome)
	v.SetDefault("db_backend", app.BackendGoLevelDB)
	v.SetDefault("authority", opts.Authority)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("api.listen", apiCfg.Listen)
	v.SetDefault("api.read_timeout", apiCfg.ReadTimeout)
	v.SetDefault("api.write_timeout", apiCfg.WriteTimeout)
	v.SetDefault("api.enable_faucet", false)
	v.SetDefault("api.disable_rate_limit", false)
	v.SetDefault("api.rate_limit.ip_requests_per_second", rl.IPRequestsPerSecond)
	v.SetDefault("api.rate_limit.ip_burst", rl.IPBurst)
	v.SetDefault("api.rate_limit.block_duration", rl.BlockDuration)
	v.SetDefault("api.rate_limit.tx_per_second", rl.TxPerSecond)
	v.SetDefault("api.rate_limit.tx_burst", rl.TxBurst)
	v.SetDefault("api.rate_limit.cleanup_interval", rl.CleanupInterval)
	v.SetDefault("api.rate_limit.bucket_ttl", rl.BucketTTL)

	v.SetDefault("websocket.max_clients_per_ip", hub.MaxClientsPerIP)
	v.SetDefault("websocket.max_subscriptions", hub.MaxSubscriptions)
	v.SetDefault("websocket.message_rate_limit", hub.MessageRateLimit)

	v.SetDefault("sweep.enabled", true)
	v.SetDefault("sweep.schedule", "@every 1m")

	v.SetDefault("custody.base_denom", opts.Custody.BaseDenom)
	v.SetDefault("custody.account_reserve", opts.Custody.AccountReserve)

	v.SetDefault("fund.fees.fee_numerator", opts.Fund.Fees.FeeNumerator)
	v.SetDefault("fund.fees.fee_denominator", opts.Fund.Fees.FeeDenominator)
	v.SetDefault("fund.fees.split_numerator", opts.Fund.Fees.SplitNumerator)
	v.SetDefault("fund.fees.split_denominator", opts.Fund.Fees.SplitDenominator)
	v.SetDefault("fund.max_fund_age_seconds", opts.Fund.MaxFundAgeSeconds)
	v.SetDefault("fund.routing_buffer", opts.Fund.RoutingBuffer)
	v.SetDefault("fund.base_reserve", opts.Fund.BaseReserve)
	v.SetDefault("fund.target_denom", opts.Fund.TargetDenom)
	v.SetDefault("fund.fee_collector", opts.Fund.FeeCollector)

	v.SetDefault("venue.id", opts.Venue.ID)
	v.SetDefault("venue.liquidity", opts.Venue.Liquidity)
	v.SetDefault("venue.rate_numerator", opts.Venue.RateNumerator)
	v.SetDefault("venue.rate_denominator", opts.Venue.RateDenominator)
	v.SetDefault("venue.target_denom", opts.Venue.TargetDenom)
	v.SetDefault("venue.fail_after_spend", opts.Venue.FailAfterSpend)
}

// Validate checks the settings that are not covered by app.Options
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.API.Listen == "" {
		return fmt.Errorf("api.listen must not be empty")
	}
	if c.Sweep.Enabled {
		if _, err := cron.ParseStandard(c.Sweep.Schedule); err != nil {
			return fmt.Errorf("sweep.schedule: %w", err)
		}
	}
	return c.Options(nil).Validate()
}

// Options converts the configuration into app.Options
func (c *Config) Options(logger log.Logger) app.Options {
	opts := app.DefaultOptions()
	opts.DBBackend = c.DBBackend
	opts.Home = c.Home
	opts.Authority = c.Authority
	opts.Custody = c.Custody
	opts.Fund = c.Fund
	opts.Venue = c.Venue
	opts.Genesis = c.Genesis
	if logger != nil {
		opts.Logger = logger
	}
	return opts
}

// NewLogger builds the daemon logger
func (c LogConfig) NewLogger(w io.Writer) (log.Logger, error) {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := []log.Option{log.LevelOption(level), log.TimeFormatOption(time.RFC3339)}
	if c.Format == "json" {
		opts = append(opts, log.OutputJSONOption())
	}
	return log.NewLogger(w, opts...), nil
}
