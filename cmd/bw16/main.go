package main

import (
	"github.com/alecthomas/kong"

	"github.com/vitaminmoo/bw16-tool/internal/cli"
)

func main() {
	var c cli.CLI
	ctx := kong.Parse(&c,
		kong.Name("bw16"),
		kong.Description("Host controller for BW16 WiFi/BLE auditing firmware"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)
	err := ctx.Run(&c)
	ctx.FatalIfErrorf(err)
}
