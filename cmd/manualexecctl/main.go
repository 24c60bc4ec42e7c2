package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"manualexec/internal/cli"
	"manualexec/internal/cli/output"
)

func main() {
	var (
		apiBase = flag.String("api-base", "", "service base URL (env: MX_API_BASE)")
		token   = flag.String("token", "", "bearer token (env: MX_TOKEN)")
		outFmt  = flag.String("output", "json", "output format: json|text")
	)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		cli.Usage(os.Stderr)
		os.Exit(2)
	}

	base := strings.TrimSpace(*apiBase)
	if base == "" {
		base = strings.TrimSpace(os.Getenv("MX_API_BASE"))
	}
	if base == "" {
		base = "http://localhost:8080"
	}

	ctx := cli.Context{
		APIBase: strings.TrimRight(base, "/"),
		Output:  output.Format(strings.TrimSpace(*outFmt)),
	}

	// flag first, then env
	if strings.TrimSpace(*token) != "" {
		ctx.Token = strings.TrimSpace(*token)
	} else {
		ctx.Token = strings.TrimSpace(os.Getenv("MX_TOKEN"))
	}

	if err := cli.Dispatch(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
