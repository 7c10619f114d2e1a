package main

import (
	"github.com/urfave/cli"

	"github.com/GurdipSCode/devops-utils-bootstrappers/config"
	"github.com/GurdipSCode/devops-utils-bootstrappers/report"
	"github.com/GurdipSCode/devops-utils-bootstrappers/sign"
	"github.com/GurdipSCode/devops-utils-bootstrappers/vault"
)

func generateKeys(c *cli.Context) error {
	cfg, err := config.Load(c.GlobalString("conf"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if err := cfg.ValidateSigning(); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	client, err := vault.NewClient(cfg.VaultAddr, cfg.VaultToken, cfg.VaultMount)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	generator := &sign.Generator{
		Password: cfg.CosignPassword,
		Secrets:  client,
		DryRun:   c.GlobalBool("dryrun"),
	}

	rep := report.New("cosign-keys")
	if err := generator.Generate(cfg.Services, rep); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return finishPass(rep, cfg.OutputDir)
}
