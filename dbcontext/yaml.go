package dbcontext

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/syssam/dbcore/connstrategy"
)

// fileConfig is the YAML document shape LoadConfig accepts. It mirrors
// Config's fields with plain (non-tri-state) types since a YAML file
// either sets a key or omits it — there is no distinct "explicitly false"
// encoding needed beyond a present/absent key, which yaml.v3 already
// tracks for us via its own nil-vs-zero unmarshaling.
type fileConfig struct {
	ConnectionString         string `yaml:"connectionString"`
	ReadOnlyConnectionString string `yaml:"readOnlyConnectionString"`
	ProviderName             string `yaml:"providerName"`
	DbMode                   string `yaml:"dbMode"`
	ReadWriteMode            string `yaml:"readWriteMode"`
	MaxConcurrentReads       int64  `yaml:"maxConcurrentReads"`
	MaxConcurrentWrites      int64  `yaml:"maxConcurrentWrites"`
	PoolAcquireTimeout       string `yaml:"poolAcquireTimeout"`
	ModeLockTimeout          string `yaml:"modeLockTimeout"`
	EnablePoolGovernor       *bool  `yaml:"enablePoolGovernor"`
	EnableWriterPreference   *bool  `yaml:"enableWriterPreference"`
	ForceManualPrepare       *bool  `yaml:"forceManualPrepare"`
	DisablePrepare           *bool  `yaml:"disablePrepare"`
	ApplicationName          string `yaml:"applicationName"`
}

var yamlDbModes = map[string]connstrategy.Mode{
	"":                 connstrategy.Best,
	"best":             connstrategy.Best,
	"standard":         connstrategy.Standard,
	"keepalive":        connstrategy.KeepAlive,
	"singlewriter":     connstrategy.SingleWriter,
	"singleconnection": connstrategy.SingleConnection,
}

// LoadConfig reads a YAML file at path and builds a Config from it,
// additive to the functional-options constructor (NewConfig): a file is
// the base, opts layered afterward override anything it set. This is the
// core's own Config loader, distinct from the entity/audit configuration
// loader spec.md §1 treats as an external collaborator.
func LoadConfig(path string, opts ...Option) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dbcontext: reading config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("dbcontext: parsing config file: %w", err)
	}
	if fc.ConnectionString == "" {
		return nil, fmt.Errorf("dbcontext: config file %s is missing connectionString", path)
	}

	mode, ok := yamlDbModes[fc.DbMode]
	if !ok {
		return nil, fmt.Errorf("dbcontext: config file %s: unrecognized dbMode %q", path, fc.DbMode)
	}

	cfg := &Config{
		ConnectionString:         fc.ConnectionString,
		ReadOnlyConnectionString: fc.ReadOnlyConnectionString,
		ProviderName:             fc.ProviderName,
		DbMode:                   mode,
		ReadWriteMode:            ReadWrite,
		MaxConcurrentReads:       fc.MaxConcurrentReads,
		MaxConcurrentWrites:      fc.MaxConcurrentWrites,
		PoolAcquireTimeout:       defaultPoolAcquireTimeout,
		ModeLockTimeout:          defaultModeLockTimeout,
		EnablePoolGovernor:       fc.EnablePoolGovernor,
		EnableWriterPreference:   fc.EnableWriterPreference,
		ForceManualPrepare:       fc.ForceManualPrepare,
		DisablePrepare:           fc.DisablePrepare,
		ApplicationName:          fc.ApplicationName,
	}
	if fc.ReadWriteMode == "readonly" {
		cfg.ReadWriteMode = ReadOnly
	}
	if fc.PoolAcquireTimeout != "" {
		d, err := time.ParseDuration(fc.PoolAcquireTimeout)
		if err != nil {
			return nil, fmt.Errorf("dbcontext: config file %s: poolAcquireTimeout: %w", path, err)
		}
		cfg.PoolAcquireTimeout = d
	}
	if fc.ModeLockTimeout != "" {
		d, err := time.ParseDuration(fc.ModeLockTimeout)
		if err != nil {
			return nil, fmt.Errorf("dbcontext: config file %s: modeLockTimeout: %w", path, err)
		}
		cfg.ModeLockTimeout = d
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}
