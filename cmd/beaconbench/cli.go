package main

import (
	"github.com/urfave/cli/v3"
)

const (
	widthKey    = "width"
	depthKey    = "depth"
	itersKey    = "iters"
	writesKey   = "writes"
	rendererKey = "table"
)

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:  "beaconbench",
		Usage: "Benchmark the beacon reactive graph",
		Commands: []*cli.Command{
			propagateCommand(),
			coalesceCommand(),
			timeopsCommand(),
		},
	}
}

func rendererFlag(defaultValue string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  rendererKey,
		Usage: "table renderer to use: go-pretty or tablewriter",
		Value: defaultValue,
	}
}
