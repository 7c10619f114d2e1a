package main

import (
	"github.com/urfave/cli"

	"github.com/GurdipSCode/devops-utils-bootstrappers/ci"
	"github.com/GurdipSCode/devops-utils-bootstrappers/config"
	"github.com/GurdipSCode/devops-utils-bootstrappers/reconcile"
	"github.com/GurdipSCode/devops-utils-bootstrappers/report"
	"github.com/GurdipSCode/devops-utils-bootstrappers/scm/github"
)

func syncPipelines(c *cli.Context) error {
	cfg, err := config.Load(c.GlobalString("conf"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if err := cfg.ValidatePipelineSync(); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	reconciler := &reconcile.Reconciler{
		SCM: github.NewClient(cfg.GithubToken),
		CI:  ci.NewClient(cfg.BuildkiteOrg, cfg.BuildkiteToken),
		Opts: reconcile.Options{
			Org:             cfg.GithubOrg,
			CandidatePaths:  cfg.PipelineFiles,
			RequireFolder:   cfg.RequireFolder,
			IncludeArchived: cfg.IncludeArchived,
			IncludeForks:    cfg.IncludeForks,
			FallbackBranch:  cfg.FallbackBranch,
			DryRun:          c.GlobalBool("dryrun"),
		},
	}

	rep := report.New("pipeline-sync")
	if err := reconciler.Run(rep); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return finishPass(rep, cfg.OutputDir)
}
