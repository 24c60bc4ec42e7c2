package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"manualexec/internal/cli/output"
)

func opsCmd(ctx Context, args []string) error {
	if len(args) == 0 {
		return errors.New("ops subcommand required: summary|regenerate|watch")
	}
	switch args[0] {
	case "summary":
		return do(ctx, http.MethodGet, loopBase+"/ops/summary/latest", nil)
	case "regenerate":
		fs := newFlagSet("ops regenerate")
		confirm := fs.Bool("confirm", false, "confirm the write")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if err := requireConfirmFlag("regenerate the ops summary", *confirm); err != nil {
			return err
		}
		return do(ctx, http.MethodPost, loopBase+"/ops/summary/regenerate?confirm=true", nil)
	case "watch":
		fs := newFlagSet("ops watch")
		count := fs.Int("count", 0, "stop after n summaries; 0 means until interrupted")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watch(sigCtx, ctx, *count)
	default:
		return fmt.Errorf("unknown ops subcommand: %s", args[0])
	}
}

// streamURL turns the http base into the websocket stream address.
func streamURL(apiBase string) (string, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(apiBase), "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported api base scheme %q", u.Scheme)
	}
	u.Path += loopBase + "/ops/summary/stream"
	return u.String(), nil
}

func watch(sigCtx context.Context, ctx Context, count int) error {
	addr, err := streamURL(ctx.APIBase)
	if err != nil {
		return err
	}
	dialCtx, cancel := context.WithTimeout(sigCtx, 10*time.Second)
	defer cancel()
	opts := &websocket.DialOptions{HTTPHeader: http.Header{}}
	if tok := strings.TrimSpace(ctx.Token); tok != "" {
		opts.HTTPHeader.Set("Authorization", "Bearer "+tok)
	}
	conn, _, err := websocket.Dial(dialCtx, addr, opts)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	for seen := 0; count <= 0 || seen < count; seen++ {
		var summary map[string]any
		if err := wsjson.Read(sigCtx, conn, &summary); err != nil {
			if errors.Is(sigCtx.Err(), context.Canceled) {
				return nil
			}
			return err
		}
		if err := output.Write(ctx.stdout(), ctx.Output, summary); err != nil {
			return err
		}
	}
	return nil
}
