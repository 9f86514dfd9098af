package mapper

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Aleph-Alpha/mongoplus/v1/datasource"
	"github.com/Aleph-Alpha/mongoplus/v1/idgen"
)

// Config is the mapper layer configuration.
//
//	mongo:
//	  default: master
//	  naming: snake
//	  counterCollection: counter
//	  logCommands: true
//	  sources:
//	    - name: master
//	      uri: mongodb://localhost:27017
//	      databases: [shop]
type Config struct {
	datasource.Config `yaml:",inline"`

	// Naming selects how field names are stored: "camel" (default) keeps
	// lowerCamel names, "snake" stores user_name for userName.
	Naming string `yaml:"naming"`

	// CounterCollection holds the auto-increment sequences.
	// Default: "counter"
	CounterCollection string `yaml:"counterCollection"`

	// DisableObjectIDConversion keeps ObjectID-shaped string identifiers
	// as strings instead of storing them as native ObjectIDs.
	DisableObjectIDConversion bool `yaml:"disableObjectIdConversion"`

	// LogCommands turns on driver command logging for every source.
	LogCommands bool `yaml:"logCommands"`
}

// FileConfig is the layout of a configuration file.
type FileConfig struct {
	Mongo Config `yaml:"mongo"`
}

// LoadConfig reads a YAML file with a top-level mongo key.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML with a top-level mongo key.
func ParseConfig(data []byte) (Config, error) {
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return fc.Mongo, nil
}

// DataSources returns the datasource configuration with LogCommands applied
// to every source.
func (c Config) DataSources() datasource.Config {
	out := datasource.Config{Default: c.Default, Sources: make([]datasource.Source, len(c.Sources))}
	for i, s := range c.Sources {
		if c.LogCommands {
			s.LogCommands = true
		}
		out.Sources[i] = s
	}
	return out
}

func (c Config) counterCollection() string {
	if c.CounterCollection == "" {
		return idgen.DefaultCounterCollection
	}
	return c.CounterCollection
}
