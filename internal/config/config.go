// Package config loads the daemon configuration from flags, environment,
// an optional .env file and an optional YAML file.
//
// Precedence is flags > environment > file > defaults. The result is
// validated once; an invalid configuration is fatal at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	// Embedded zone database; the Pi image may ship without /usr/share/zoneinfo.
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sweeney/shed-heater/internal/logic"
)

// EnvPrefix prefixes every environment variable, e.g. SHED_HEATER_TARGET_TEMPERATURE.
const EnvPrefix = "SHED_HEATER"

// Sensor sources.
const (
	SensorBME280 = "bme280"
	SensorMQTT   = "mqtt"
)

// Relay drivers.
const (
	RelayGPIO = "gpio"
	RelayMQTT = "mqtt"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the immutable daemon configuration.
type Config struct {
	TargetTemperature   float64 `mapstructure:"target-temperature"`
	MinTemperature      float64 `mapstructure:"min-temperature"`
	StartHour           int     `mapstructure:"start-hour" validate:"gte=0,lte=23"`
	EndHour             int     `mapstructure:"end-hour" validate:"gte=0,lte=23"`
	LastActiveWeekday   int     `mapstructure:"last-active-weekday" validate:"gte=0,lte=6"`
	TimeZone            string  `mapstructure:"time-zone" validate:"required,timezone"`
	MinOffSeconds       int     `mapstructure:"min-off-seconds" validate:"gte=0"`
	PollIntervalSeconds int     `mapstructure:"poll-interval-seconds" validate:"gt=0"`

	LogLevel string `mapstructure:"log-level" validate:"oneof=debug info warn error"`

	SensorSource  string        `mapstructure:"sensor" validate:"oneof=bme280 mqtt"`
	I2CBus        int           `mapstructure:"i2c-bus" validate:"gte=0"`
	I2CAddress    int           `mapstructure:"i2c-address" validate:"gte=0,lte=127"`
	SensorTopic   string        `mapstructure:"sensor-topic" validate:"required_if=SensorSource mqtt"`
	SensorField   string        `mapstructure:"sensor-field"`
	SensorMaxAge  time.Duration `mapstructure:"sensor-max-age" validate:"gte=0"`
	SensorRetries int           `mapstructure:"sensor-retries" validate:"gte=0"`

	RelayDriver     string `mapstructure:"relay" validate:"oneof=gpio mqtt"`
	GPIOChip        string `mapstructure:"gpio-chip" validate:"required_if=RelayDriver gpio"`
	RelayPin        int    `mapstructure:"relay-pin" validate:"gte=0"`
	RelayActiveLow  bool   `mapstructure:"relay-active-low"`
	RelayTopic      string `mapstructure:"relay-topic" validate:"required_if=RelayDriver mqtt"`
	RelayPayloadOn  string `mapstructure:"relay-payload-on" validate:"required"`
	RelayPayloadOff string `mapstructure:"relay-payload-off" validate:"required"`
	RelayRetries    int    `mapstructure:"relay-retries" validate:"gte=0"`

	RetryInterval time.Duration `mapstructure:"retry-interval" validate:"gte=0"`
	ReadTimeout   time.Duration `mapstructure:"read-timeout" validate:"gt=0"`

	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client-id"`

	Heartbeat  time.Duration `mapstructure:"heartbeat" validate:"gte=0"`
	PrintState bool          `mapstructure:"print-state"`
}

// NewFlagSet declares every option with its default.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "Path to a YAML config file (optional)")

	fs.Float64("target-temperature", 20.0, "Heat below this temperature (°C) during active hours")
	fs.Float64("min-temperature", 7.0, "Frost-protection temperature (°C) outside active hours")
	fs.Int("start-hour", 8, "First active hour (0-23, inclusive)")
	fs.Int("end-hour", 17, "End of active hours (0-23, exclusive)")
	fs.Int("last-active-weekday", 4, "Last active weekday, 0=Monday")
	fs.String("time-zone", "Europe/London", "IANA time zone for the schedule")
	fs.Int("min-off-seconds", 300, "Minimum seconds the heater stays off before turning on again")
	fs.Int("poll-interval-seconds", 60, "Seconds between temperature polls")

	fs.String("log-level", "info", "Log level (debug, info, warn, error)")

	fs.String("sensor", SensorBME280, "Temperature source (bme280, mqtt)")
	fs.Int("i2c-bus", 1, "I2C bus of the BME280")
	fs.Int("i2c-address", 0x76, "I2C address of the BME280")
	fs.String("sensor-topic", "", "MQTT topic carrying temperature readings")
	fs.String("sensor-field", "temperature", `JSON field holding the temperature ("" for bare numbers)`)
	fs.Duration("sensor-max-age", 5*time.Minute, "Reject MQTT readings older than this (0 to disable)")
	fs.Int("sensor-retries", 2, "Extra sensor read attempts per poll")

	fs.String("relay", RelayGPIO, "Relay driver (gpio, mqtt)")
	fs.String("gpio-chip", "gpiochip0", "GPIO character device")
	fs.Int("relay-pin", 12, "BCM pin driving the relay")
	fs.Bool("relay-active-low", false, "Relay energises on a low output")
	fs.String("relay-topic", "", "MQTT command topic of the smart relay")
	fs.String("relay-payload-on", "ON", "MQTT payload that switches the relay on")
	fs.String("relay-payload-off", "OFF", "MQTT payload that switches the relay off")
	fs.Int("relay-retries", 2, "Extra relay write attempts per command")

	fs.Duration("retry-interval", 500*time.Millisecond, "Initial delay between retries")
	fs.Duration("read-timeout", 10*time.Second, "Upper bound on one poll's I/O")

	fs.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	fs.String("client-id", "shed-heater", "MQTT client id")

	fs.Duration("heartbeat", 15*time.Minute, "Heartbeat log interval (0 to disable)")
	fs.Bool("print-state", false, "Print current reading and decision, then exit")
	return fs
}

// Load parses args and merges them with the environment and config file.
func Load(args []string) (*Config, error) {
	fs := NewFlagSet("shed-heater")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field bounds and cross-field requirements.
// An end hour at or before the start hour is accepted: it yields a window
// that is never active.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.MinTemperature > c.TargetTemperature {
		return fmt.Errorf("%w: min-temperature %.1f above target-temperature %.1f", ErrInvalid, c.MinTemperature, c.TargetTemperature)
	}
	return nil
}

// Location loads the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: time zone %q: %v", ErrInvalid, c.TimeZone, err)
	}
	return loc, nil
}

// Schedule returns the schedule evaluator for this configuration.
func (c *Config) Schedule() (logic.Schedule, error) {
	loc, err := c.Location()
	if err != nil {
		return logic.Schedule{}, err
	}
	return logic.Schedule{
		StartHour:         c.StartHour,
		EndHour:           c.EndHour,
		LastActiveWeekday: c.LastActiveWeekday,
		Location:          loc,
	}, nil
}

// Policy returns the controller thresholds for this configuration.
func (c *Config) Policy() logic.Policy {
	return logic.Policy{
		Target: c.TargetTemperature,
		Min:    c.MinTemperature,
		MinOff: time.Duration(c.MinOffSeconds) * time.Second,
	}
}

// PollInterval returns the delay between ticks.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// UsesMQTT reports whether any adapter needs a broker connection.
func (c *Config) UsesMQTT() bool {
	return c.SensorSource == SensorMQTT || c.RelayDriver == RelayMQTT
}
