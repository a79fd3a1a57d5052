// Package config is used to load the configuration file
package config

import (
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/blacktop/go-elf/pkg/elf"
)

type parser struct {
	CountMethod elf.CountMethod   `mapstructure:"count-method" json:"count-method"`
	ForcedCount uint64            `mapstructure:"forced-count" json:"forced-count"`
	CountOrder  []elf.CountMethod `mapstructure:"count-order" json:"count-order"`
}

type logging struct {
	Level string `mapstructure:"level" json:"level"`
}

// Config is the configuration struct
type Config struct {
	Parser parser  `mapstructure:"parser" json:"parser"`
	Log    logging `mapstructure:"log" json:"log"`

	level log.Level
}

func (c *Config) verify() error {
	m := c.Parser.CountMethod
	if m == elf.CountForced && c.Parser.ForcedCount == 0 {
		return fmt.Errorf("config: parser.forced-count must be set when parser.count-method is %s", elf.CountForced)
	} else if m != elf.CountForced && c.Parser.ForcedCount != 0 {
		return fmt.Errorf("config: parser.forced-count requires parser.count-method %s", elf.CountForced)
	}
	for _, om := range c.Parser.CountOrder {
		if om == elf.CountAuto || om == elf.CountForced {
			return fmt.Errorf("config: parser.count-order cannot contain %s", om)
		}
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	var err error
	if c.level, err = log.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("config: invalid log.level: %v", err)
	}

	return nil
}

// ElfConfig returns the parse configuration for the file at path.
func (c *Config) ElfConfig(path string) elf.Config {
	return elf.Config{
		Name:        path,
		CountMethod: c.Parser.CountMethod,
		ForcedCount: c.Parser.ForcedCount,
		CountOrder:  c.Parser.CountOrder,
	}
}

// LogLevel returns the verified log level.
func (c *Config) LogLevel() log.Level { return c.level }

// LoadConfig loads the configuration file
func LoadConfig() (*Config, error) {
	return load(viper.GetViper())
}

func load(v *viper.Viper) (*Config, error) {
	var c *Config

	if err := v.Unmarshal(&c, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	))); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %v", err)
	}
	if c == nil {
		c = &Config{}
	}

	if err := c.verify(); err != nil {
		return nil, fmt.Errorf("config: failed to verify: %v", err)
	}

	return c, nil
}
