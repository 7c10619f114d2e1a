package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/GurdipSCode/devops-utils-bootstrappers/report"
	"github.com/GurdipSCode/devops-utils-bootstrappers/util"
)

func main() {
	util.SetLogLevel()

	app := cli.NewApp()
	app.Name = "provision"
	app.Usage = "bootstrap CI/CD and secrets configuration for the service fleet"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "conf, c",
			Value: "./config.yml",
			Usage: "Specify an alternate configuration file (default: ./config.yml)",
		},
		cli.BoolFlag{
			Name:  "dryrun",
			Usage: "compute and report actions without mutating remote state",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "sync-pipelines",
			Usage:  "reconcile CI pipelines with the organization's repositories",
			Action: syncPipelines,
		},
		{
			Name:   "bootstrap-vault",
			Usage:  "provision per-service Vault policies and AppRoles",
			Action: bootstrapVault,
		},
		{
			Name:   "sync-robots",
			Usage:  "provision per-service Harbor projects and robot accounts",
			Action: syncRobots,
		},
		{
			Name:   "generate-keys",
			Usage:  "generate per-service cosign keypairs into Vault",
			Action: generateKeys,
		},
	}
	app.Run(os.Args)
}

// finishPass prints the report, writes the artifacts and maps failures to
// the process exit status
func finishPass(rep *report.Report, outputDir string) error {
	fmt.Println(rep.Table())
	fmt.Print(rep.Summary())

	csvPath, jsonPath, err := rep.WriteFiles(outputDir)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	fmt.Printf("report written to %s and %s\n", csvPath, jsonPath)

	if failed := rep.Failed(); failed > 0 {
		return cli.NewExitError(fmt.Sprintf("%d items failed", failed), 1)
	}
	return nil
}
