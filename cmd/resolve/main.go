package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"Internect/internal/config"
)

func main() {
	app := &cli.App{
		Name:  "resolve",
		Usage: "look up AT Protocol identities from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "plc-host",
				Usage:   "PLC directory URL",
				EnvVars: []string{"PLC_DIRECTORY_URL"},
			},
			&cli.StringFlag{
				Name:    "appview-host",
				Usage:   "AppView URL used for handles and profiles",
				EnvVars: []string{"APPVIEW_URL"},
			},
			&cli.StringFlag{
				Name:    "handle-resolution",
				Usage:   "handle resolution mode: xrpc or directory",
				EnvVars: []string{"HANDLE_RESOLUTION"},
			},
		},
		Commands: []*cli.Command{
			cmdResolve,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.SetFlags(0)
		log.Fatal(err)
	}
}

// loadConfig reads the environment and applies global flag overrides
func loadConfig(cctx *cli.Context) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if v := cctx.String("plc-host"); v != "" {
		cfg.PLCDirectoryURL = v
	}
	if v := cctx.String("appview-host"); v != "" {
		cfg.AppViewURL = v
	}
	if v := cctx.String("handle-resolution"); v != "" {
		mode := config.HandleResolution(v)
		if mode != config.HandleResolutionXRPC && mode != config.HandleResolutionDirectory {
			return cfg, fmt.Errorf("unknown handle resolution mode %q", v)
		}
		cfg.HandleResolution = mode
	}
	return cfg, nil
}
