// Package cli implements manualexecctl, the operator client of the manual
// execution service.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"manualexec/internal/cli/client"
	"manualexec/internal/cli/output"
)

type Context struct {
	APIBase string
	Token   string
	Output  output.Format

	Out io.Writer
	Err io.Writer
}

func (ctx Context) stdout() io.Writer {
	if ctx.Out != nil {
		return ctx.Out
	}
	return os.Stdout
}

func (ctx Context) stderr() io.Writer {
	if ctx.Err != nil {
		return ctx.Err
	}
	return os.Stderr
}

func (ctx Context) client() *client.Client {
	return &client.Client{BaseURL: ctx.APIBase, Token: ctx.Token}
}

func Usage(w io.Writer) {
	fmt.Fprint(w, `manualexecctl <command> <subcommand> [flags]

Global Flags:
  --api-base    service base URL (env: MX_API_BASE)
  --token       bearer token (env: MX_TOKEN)
  --output      json|text (default json)

Commands:
  plan       import|show
  export     show|regenerate
  prepare    --confirm-token <token> --confirm
  ticket     show|regenerate
  record     submit|show
  dry-run    run|show
  ops        summary|regenerate|watch
  snapshots  list
  settings   list|get|set
  token      issue

Mutating subcommands refuse to run without --confirm.
Confirm tokens can be passed through MX_CONFIRM_TOKEN instead of a flag.
`)
}

func Dispatch(ctx Context, args []string) error {
	if len(args) == 0 {
		Usage(ctx.stderr())
		return errors.New("missing command")
	}
	switch args[0] {
	case "plan":
		return planCmd(ctx, args[1:])
	case "export":
		return exportCmd(ctx, args[1:])
	case "prepare":
		return prepareCmd(ctx, args[1:])
	case "ticket":
		return ticketCmd(ctx, args[1:])
	case "record":
		return recordCmd(ctx, args[1:])
	case "dry-run":
		return dryRunCmd(ctx, args[1:])
	case "ops":
		return opsCmd(ctx, args[1:])
	case "snapshots":
		return snapshotsCmd(ctx, args[1:])
	case "settings":
		return settingsCmd(ctx, args[1:])
	case "token":
		return tokenCmd(ctx, args[1:])
	case "help", "-h", "--help":
		Usage(ctx.stdout())
		return nil
	default:
		Usage(ctx.stderr())
		return fmt.Errorf("unknown command: %s", args[0])
	}
}
