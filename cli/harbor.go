package main

import (
	"github.com/urfave/cli"

	"github.com/GurdipSCode/devops-utils-bootstrappers/config"
	"github.com/GurdipSCode/devops-utils-bootstrappers/harbor"
	"github.com/GurdipSCode/devops-utils-bootstrappers/report"
	"github.com/GurdipSCode/devops-utils-bootstrappers/vault"
)

func syncRobots(c *cli.Context) error {
	cfg, err := config.Load(c.GlobalString("conf"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if err := cfg.ValidateHarbor(); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	syncer := &harbor.Syncer{
		Client: harbor.NewClient(cfg.HarborURL, cfg.HarborUser, cfg.HarborPassword),
		DryRun: c.GlobalBool("dryrun"),
	}

	// robot credentials are stored in Vault when it is configured
	if cfg.VaultAddr != "" && cfg.VaultToken != "" {
		client, err := vault.NewClient(cfg.VaultAddr, cfg.VaultToken, cfg.VaultMount)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		syncer.Secrets = client
	}

	rep := report.New("harbor-sync")
	if err := syncer.Sync(cfg.Services, rep); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return finishPass(rep, cfg.OutputDir)
}
