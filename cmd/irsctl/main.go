package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/trigg3rX/irs-avs/internal/operator/config"
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "irsctl",
		Usage:   "Create IRS AVS tasks and lending positions",
		Version: config.SemVer,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to the node config YAML (falls back to CONFIG_FILE)",
			},
		},
		Commands: []*cli.Command{
			SwapCommand(),
			MatchCommand(),
			SettleCommand(),
			ListCommand(),
			LendCommand(),
		},
		Action: func(c *cli.Context) error {
			if c.Args().Present() {
				return cli.Exit(fmt.Sprintf("Unknown command %q. Use swap, match, settle, list or lend.", c.Args().First()), 1)
			}
			return cli.ShowAppHelp(c)
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
