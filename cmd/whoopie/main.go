package main

import (
	"fmt"

	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`

	Serve      ServeCmd    `cmd:"" help:"Run the Whoopie websocket host"`
	Simulate   SimulateCmd `cmd:"" help:"Play headless bot games and report statistics"`
	VersionCmd VersionCmd  `cmd:"" name:"version" help:"Print the version"`
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(version)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("whoopie"),
		kong.Description("Server and tools for the Whoopie trick-taking card game"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
