package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"Internect/internal/app"
	"Internect/internal/core/lookup"
	"Internect/internal/core/repos"
)

var cmdResolve = &cli.Command{
	Name:      "resolve",
	Usage:     "resolve a handle, DID, AT-URI or profile URL",
	ArgsUsage: `<identifier>`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "history",
			Usage: "print the PLC operation history instead of the full identity",
		},
		&cli.BoolFlag{
			Name:  "collections",
			Usage: "list the collections in the identity's repository",
		},
	},
	Action: runResolve,
}

func runResolve(cctx *cli.Context) error {
	ctx := context.Background()
	s := cctx.Args().First()
	if s == "" {
		return fmt.Errorf("need to provide an identifier as an argument")
	}

	cfg, err := loadConfig(cctx)
	if err != nil {
		return err
	}
	services := app.New(cfg, nil)
	out := cctx.App.Writer

	if cctx.Bool("collections") {
		result, err := services.Repos.Collections(ctx, s)
		if err != nil {
			return userError(err)
		}
		return printCollections(out, result)
	}

	ident, err := services.Lookup.Resolve(ctx, s)
	if err != nil {
		return userError(err)
	}

	if cctx.Bool("history") {
		return printHistory(out, ident)
	}

	b, err := json.MarshalIndent(ident, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}

func printHistory(w io.Writer, ident *lookup.ResolvedIdentity) error {
	if !ident.HasHistory {
		_, err := fmt.Fprintf(w, "%s has no operation history (%s DIDs keep none)\n", ident.DID, ident.Method)
		return err
	}

	for _, rec := range ident.AuditLog {
		line := fmt.Sprintf("%s  %s", rec.CreatedAt.UTC().Format("2006-01-02 15:04:05"), rec.Summary())
		if rec.Nullified {
			line += "  (nullified)"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func printCollections(w io.Writer, result *repos.CollectionsResult) error {
	host := ""
	if result.Repository.PDS != nil {
		host = result.Repository.PDS.ServiceEndpoint
	}
	if _, err := fmt.Fprintf(w, "%s on %s\n", result.Repository.DID, host); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, strings.Join(result.Collections, "\n"))
	return err
}

// userError replaces pipeline errors with their user-facing message
func userError(err error) error {
	var pe *lookup.PipelineError
	if errors.As(err, &pe) {
		return errors.New(pe.Message())
	}
	return err
}
