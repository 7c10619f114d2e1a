package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/GurdipSCode/devops-utils-bootstrappers/util"
)

var configLog = util.NewContextLogger("config")

// Config holds every input the provisioning passes need. Each pass
// validates only the keys it uses, before making any remote call.
type Config struct {
	GithubOrg   string `mapstructure:"github_org"`
	GithubToken string `mapstructure:"github_token"`

	BuildkiteOrg   string `mapstructure:"buildkite_org"`
	BuildkiteToken string `mapstructure:"buildkite_token"`

	VaultAddr  string `mapstructure:"vault_addr"`
	VaultToken string `mapstructure:"vault_token"`
	VaultMount string `mapstructure:"vault_mount"`

	HarborURL      string `mapstructure:"harbor_url"`
	HarborUser     string `mapstructure:"harbor_user"`
	HarborPassword string `mapstructure:"harbor_password"`

	CosignPassword string `mapstructure:"cosign_password"`

	Services []string `mapstructure:"services"`

	PipelineFiles   []string `mapstructure:"pipeline_files"`
	RequireFolder   string   `mapstructure:"require_folder"`
	IncludeArchived bool     `mapstructure:"include_archived"`
	IncludeForks    bool     `mapstructure:"include_forks"`
	FallbackBranch  string   `mapstructure:"fallback_branch"`

	OutputDir string `mapstructure:"output_dir"`
}

// Load reads the YAML config file and applies environment overrides
// (PROVISION_GITHUB_TOKEN and friends)
func Load(file string) (*Config, error) {
	log := configLog.InFunc("Load")

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(file)
	v.SetEnvPrefix("provision")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// credentials are usually injected through the environment, bind them
	// so Unmarshal sees keys absent from the file
	for _, key := range []string{
		"github_org", "github_token",
		"buildkite_org", "buildkite_token",
		"vault_addr", "vault_token",
		"harbor_url", "harbor_user", "harbor_password",
		"cosign_password",
	} {
		_ = v.BindEnv(key)
	}

	v.SetDefault("vault_mount", "secret")
	v.SetDefault("pipeline_files", []string{
		".buildkite/pipeline.yml",
		".buildkite/pipeline.yaml",
		"buildkite.yaml",
	})
	v.SetDefault("fallback_branch", "main")
	v.SetDefault("output_dir", "./reports")

	if err := v.ReadInConfig(); err != nil {
		log.WithError(err).Errorln("Unable to read config file")
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		log.WithError(err).Errorln("Unable to parse config file")
		return nil, err
	}

	return cfg, nil
}

// ValidatePipelineSync checks the keys the pipeline reconciler needs
func (c *Config) ValidatePipelineSync() error {
	return c.require(map[string]string{
		"github_org":      c.GithubOrg,
		"github_token":    c.GithubToken,
		"buildkite_org":   c.BuildkiteOrg,
		"buildkite_token": c.BuildkiteToken,
	})
}

// ValidateVault checks the keys the Vault bootstrap needs
func (c *Config) ValidateVault() error {
	if len(c.Services) == 0 {
		return fmt.Errorf("Missing configuration: [services]")
	}
	return c.require(map[string]string{
		"vault_addr":  c.VaultAddr,
		"vault_token": c.VaultToken,
	})
}

// ValidateHarbor checks the keys the Harbor robot sync needs
func (c *Config) ValidateHarbor() error {
	if len(c.Services) == 0 {
		return fmt.Errorf("Missing configuration: [services]")
	}
	return c.require(map[string]string{
		"harbor_url":      c.HarborURL,
		"harbor_user":     c.HarborUser,
		"harbor_password": c.HarborPassword,
	})
}

// ValidateSigning checks the keys the cosign key generation needs
func (c *Config) ValidateSigning() error {
	if err := c.ValidateVault(); err != nil {
		return err
	}
	return c.require(map[string]string{
		"cosign_password": c.CosignPassword,
	})
}

func (c *Config) require(keys map[string]string) error {
	missing := []string{}
	for key, value := range keys {
		if len(value) == 0 {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("Missing configuration: [%s]", strings.Join(missing, ", "))
	}
	return nil
}
