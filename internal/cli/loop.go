package cli

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"

	"manualexec/internal/cli/client"
	"manualexec/internal/cli/output"
)

const loopBase = "/api/manual_loop"

// do sends the request and prints data (or the decision body on refusal).
func do(ctx Context, method, path string, body any) error {
	c := ctx.client()
	req, err := c.NewRequest(method, path, body)
	if err != nil {
		return err
	}
	env, err := c.Do(req)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && len(apiErr.Envelope.Data) > 0 {
			_ = output.Write(ctx.stdout(), ctx.Output, json.RawMessage(apiErr.Envelope.Data))
		}
		return err
	}
	if result, ok := env.Meta["result"].(string); ok && result != "" {
		fmt.Fprintln(ctx.stderr(), "result:", result)
	}
	if len(env.Data) == 0 {
		return output.Write(ctx.stdout(), ctx.Output, map[string]any{"message": env.Message})
	}
	return output.Write(ctx.stdout(), ctx.Output, json.RawMessage(env.Data))
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("manualexecctl "+name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func requireConfirmFlag(op string, confirm bool) error {
	if !confirm {
		return fmt.Errorf("refusing to %s without --confirm", op)
	}
	return nil
}

func confirmToken(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv("MX_CONFIRM_TOKEN"))
}

func readJSONFile(path string, out any) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("--file required")
	}
	var b []byte
	var err error
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func planCmd(ctx Context, args []string) error {
	if len(args) == 0 {
		return errors.New("plan subcommand required: import|show")
	}
	switch args[0] {
	case "show":
		return do(ctx, http.MethodGet, loopBase+"/order_plan/latest", nil)
	case "import":
		fs := newFlagSet("plan import")
		file := fs.String("file", "", "order plan JSON file, - for stdin")
		confirm := fs.Bool("confirm", false, "confirm the write")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if err := requireConfirmFlag("import a plan", *confirm); err != nil {
			return err
		}
		var plan map[string]any
		if err := readJSONFile(*file, &plan); err != nil {
			return err
		}
		return do(ctx, http.MethodPost, loopBase+"/order_plan/import?confirm=true", plan)
	default:
		return fmt.Errorf("unknown plan subcommand: %s", args[0])
	}
}

func exportCmd(ctx Context, args []string) error {
	if len(args) == 0 {
		return errors.New("export subcommand required: show|regenerate")
	}
	switch args[0] {
	case "show":
		return do(ctx, http.MethodGet, loopBase+"/export/latest", nil)
	case "regenerate":
		fs := newFlagSet("export regenerate")
		confirm := fs.Bool("confirm", false, "confirm the write")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if err := requireConfirmFlag("regenerate the export", *confirm); err != nil {
			return err
		}
		return do(ctx, http.MethodPost, loopBase+"/export/regenerate?confirm=true", nil)
	default:
		return fmt.Errorf("unknown export subcommand: %s", args[0])
	}
}

func prepareCmd(ctx Context, args []string) error {
	fs := newFlagSet("prepare")
	token := fs.String("confirm-token", "", "token from the export (env: MX_CONFIRM_TOKEN)")
	confirm := fs.Bool("confirm", false, "confirm the write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireConfirmFlag("prepare", *confirm); err != nil {
		return err
	}
	tok := confirmToken(*token)
	if tok == "" {
		return errors.New("usage: manualexecctl prepare --confirm-token <token> --confirm")
	}
	return do(ctx, http.MethodPost, loopBase+"/prepare?confirm=true", map[string]any{"confirm_token": tok})
}

func ticketCmd(ctx Context, args []string) error {
	if len(args) == 0 {
		return errors.New("ticket subcommand required: show|regenerate")
	}
	switch args[0] {
	case "show":
		return do(ctx, http.MethodGet, loopBase+"/ticket/latest", nil)
	case "regenerate":
		fs := newFlagSet("ticket regenerate")
		confirm := fs.Bool("confirm", false, "confirm the write")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if err := requireConfirmFlag("generate a ticket", *confirm); err != nil {
			return err
		}
		return do(ctx, http.MethodPost, loopBase+"/ticket/regenerate?confirm=true", nil)
	default:
		return fmt.Errorf("unknown ticket subcommand: %s", args[0])
	}
}

func recordCmd(ctx Context, args []string) error {
	if len(args) == 0 {
		return errors.New("record subcommand required: submit|show")
	}
	switch args[0] {
	case "show":
		fs := newFlagSet("record show")
		planID := fs.String("plan-id", "", "plan id; empty means most recent")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		path := loopBase + "/record/latest"
		if v := strings.TrimSpace(*planID); v != "" {
			path += "?plan_id=" + url.QueryEscape(v)
		}
		return do(ctx, http.MethodGet, path, nil)
	case "submit":
		fs := newFlagSet("record submit")
		file := fs.String("file", "", "record payload JSON file, - for stdin")
		token := fs.String("confirm-token", "", "token from the export (env: MX_CONFIRM_TOKEN)")
		planID := fs.String("plan-id", "", "overrides source.plan_id")
		key := fs.String("idempotency-key", "", "overrides dedupe.idempotency_key")
		confirm := fs.Bool("confirm", false, "confirm the write")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if err := requireConfirmFlag("submit a record", *confirm); err != nil {
			return err
		}
		var payload map[string]any
		if err := readJSONFile(*file, &payload); err != nil {
			return err
		}
		if tok := confirmToken(*token); tok != "" {
			payload["confirm_token"] = tok
		}
		if v := strings.TrimSpace(*planID); v != "" {
			payload["source"] = map[string]any{"plan_id": v}
		}
		dedupe, _ := payload["dedupe"].(map[string]any)
		if dedupe == nil {
			dedupe = map[string]any{}
		}
		if v := strings.TrimSpace(*key); v != "" {
			dedupe["idempotency_key"] = v
		}
		if k, _ := dedupe["idempotency_key"].(string); strings.TrimSpace(k) == "" {
			generated := uuid.NewString()
			dedupe["idempotency_key"] = generated
			fmt.Fprintln(ctx.stderr(), "idempotency key:", generated, "(reuse it with --idempotency-key when retrying)")
		}
		payload["dedupe"] = dedupe
		return do(ctx, http.MethodPost, loopBase+"/record/submit?confirm=true", payload)
	default:
		return fmt.Errorf("unknown record subcommand: %s", args[0])
	}
}

func dryRunCmd(ctx Context, args []string) error {
	if len(args) == 0 {
		return errors.New("dry-run subcommand required: run|show")
	}
	switch args[0] {
	case "show":
		return do(ctx, http.MethodGet, loopBase+"/dry_run/latest", nil)
	case "run":
		fs := newFlagSet("dry-run run")
		confirm := fs.Bool("confirm", false, "confirm the write")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if err := requireConfirmFlag("record a dry run", *confirm); err != nil {
			return err
		}
		return do(ctx, http.MethodPost, loopBase+"/dry_run?confirm=true", nil)
	default:
		return fmt.Errorf("unknown dry-run subcommand: %s", args[0])
	}
}

func snapshotsCmd(ctx Context, args []string) error {
	if len(args) == 0 || args[0] != "list" {
		return errors.New("usage: manualexecctl snapshots list --type <doc_type> [--limit n]")
	}
	fs := newFlagSet("snapshots list")
	docType := fs.String("type", "", "document type, e.g. manual_execution_record")
	limit := fs.Int("limit", 20, "max items")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if strings.TrimSpace(*docType) == "" {
		return errors.New("--type required")
	}
	return do(ctx, http.MethodGet, fmt.Sprintf("%s/snapshots/%s?limit=%d", loopBase, url.PathEscape(strings.TrimSpace(*docType)), *limit), nil)
}

func settingsCmd(ctx Context, args []string) error {
	if len(args) == 0 {
		return errors.New("settings subcommand required: list|get|set")
	}
	switch args[0] {
	case "list":
		return do(ctx, http.MethodGet, "/api/settings", nil)
	case "get":
		if len(args) < 2 {
			return errors.New("usage: manualexecctl settings get <key>")
		}
		return do(ctx, http.MethodGet, "/api/settings/"+url.PathEscape(strings.TrimSpace(args[1])), nil)
	case "set":
		if len(args) < 3 {
			return errors.New("usage: manualexecctl settings set <key> <json value> --confirm")
		}
		fs := newFlagSet("settings set")
		confirm := fs.Bool("confirm", false, "confirm the write")
		if err := fs.Parse(args[3:]); err != nil {
			return err
		}
		if err := requireConfirmFlag("change a setting", *confirm); err != nil {
			return err
		}
		var value any
		if err := json.Unmarshal([]byte(args[2]), &value); err != nil {
			// bare words are taken as strings
			value = args[2]
		}
		return do(ctx, http.MethodPut, "/api/settings/"+url.PathEscape(strings.TrimSpace(args[1]))+"?confirm=true", map[string]any{"value": value})
	default:
		return fmt.Errorf("unknown settings subcommand: %s", args[0])
	}
}
