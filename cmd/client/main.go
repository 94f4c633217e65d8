package main

import (
	"context"
	"fmt"
	"os"

	"github.com/iudanet/finsync/internal/client/cli"
	"github.com/iudanet/finsync/internal/client/iocli"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	c := cli.New(iocli.NewStdio(), cli.VersionInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
	})

	err := c.Execute(context.Background(), os.Args[1:])
	c.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
