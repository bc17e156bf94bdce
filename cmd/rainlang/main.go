// Command rainlang validates rain documents from the command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "rainlang",
		Usage: "Work with rain documents",
		Commands: []*cli.Command{
			checkCommand(),
			hashCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
