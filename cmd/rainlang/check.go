package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.lsp.dev/uri"

	"github.com/beehive-innovation/rainlang"
	"github.com/beehive-innovation/rainlang/meta"
)

var (
	ErrNoFiles          = errors.New("no files given")
	ErrDocumentProblems = errors.New("documents contain problems")
)

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Parse rain documents and report problems",
		ArgsUsage: "[files...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a yaml store configuration",
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "resolve imports against the local cache only",
			},
		},
		Action: runCheck,
	}
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return ErrNoFiles
	}

	cfg, err := meta.LoadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	store, err := meta.NewStoreFromConfig(cfg)
	if err != nil {
		return err
	}

	failed := false
	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		docURI := uri.File(path)
		if _, err := store.SetDotrain(string(raw), string(docURI), false); err != nil {
			return err
		}

		var rd *rainlang.RainDocument
		if cmd.Bool("offline") {
			rd = rainlang.Create(string(raw), docURI, store)
		} else {
			rd = rainlang.CreateAsync(ctx, string(raw), docURI, store)
		}

		problems := rd.AllProblems()
		if len(problems) == 0 {
			fmt.Printf("%s: ok\n", path)
			continue
		}
		failed = true
		for _, problem := range problems {
			pos := rainlang.PositionAt(string(raw), problem.Position[0])
			fmt.Printf("%s:%d:%d: [%d] %s\n",
				path, pos.Line+1, pos.Character+1, problem.Code, problem.Msg)
		}
	}

	if failed {
		return ErrDocumentProblems
	}
	return nil
}

func hashCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash",
		Usage:     "Print the meta hash a rain document would be stored under",
		ArgsUsage: "[files...]",
		Action: func(_ context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				return ErrNoFiles
			}
			for _, path := range files {
				raw, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				payload, err := meta.Encode([]meta.DocumentItem{{
					Payload:     raw,
					Magic:       meta.DotrainV1,
					ContentType: "application/octet-stream",
				}})
				if err != nil {
					return err
				}
				fmt.Printf("%s %s\n", meta.Hash(payload), path)
			}
			return nil
		},
	}
}
