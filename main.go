package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	pkgerrors "github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/valley-lang/valleyc/compileerrors"
	"github.com/valley-lang/valleyc/context"
	"github.com/valley-lang/valleyc/lexer"
	"github.com/valley-lang/valleyc/parser"
	"github.com/valley-lang/valleyc/project"
	"github.com/valley-lang/valleyc/types"
)

func main() {
	app := &cli.App{
		Name:  "valleyc",
		Usage: "parse a Valley source file and report the first error, if any",
		Commands: []*cli.Command{
			{
				Name:      "parse",
				Usage:     "tokenize, parse and type-check a single source file",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "ast", Usage: "print the parsed statement tree"},
					&cli.StringFlag{Name: "config", Usage: "path to a valley.yaml project file"},
				},
				Action: runParse,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("%s", err.Error()))
		os.Exit(1)
	}
}

func runParse(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one source file argument.", 1)
	}
	path := c.Args().Get(0)
	useColor := true

	if cfgPath := c.String("config"); cfgPath != "" {
		cfg, err := project.Load(cfgPath)
		if err != nil {
			return err
		}
		useColor = cfg.Diagnostics.Color
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "reading %q", path)
	}

	reg := types.NewRegistry()
	globals := context.NewGlobal()
	mustDeclareGlobal(globals, "true", reg.Bool())
	mustDeclareGlobal(globals, "false", reg.Bool())
	mustDeclareGlobal(globals, "null", reg.Void())

	stream := lexer.NewPushbackStream(string(src))
	it := lexer.NewTokenIterator(stream)
	stmtParser := parser.NewStmtParser(it, globals, reg)

	program, parseErr := stmtParser.ParseProgram()
	if parseErr != nil {
		printError(parseErr, string(src), useColor)
		return nil
	}

	if c.Bool("ast") {
		for i, stmt := range program {
			fmt.Printf("--- %d ---\n%s\n", i+1, stmt.String())
		}
	}
	return nil
}

func mustDeclareGlobal(ctx *context.Context, name string, t *types.Type) {
	if _, err := ctx.CreateIdentifier(name, t, true, false); err != nil {
		panic(err)
	}
}

// printError renders a *compileerrors.Error the way the reference
// compiler's Error::format does: message, source line, caret/tilde
// underline, colored the way lib/compiler/utils.go's posError colors its
// single-line diagnostics.
func printError(err error, source string, useColor bool) {
	ce, ok := err.(*compileerrors.Error)
	if !ok {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if ferr := ce.Format(os.Stderr, strings.NewReader(source), useColor); ferr != nil {
		fmt.Fprintln(os.Stderr, ferr)
	}
}
