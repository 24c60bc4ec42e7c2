package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"manualexec/internal/auth"
	"manualexec/internal/cli/output"
)

type tokenResponse struct {
	Token     string `json:"token"`
	Subject   string `json:"subject"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expires_at"`
}

// tokenCmd signs an operator token locally with the server's shared secret.
func tokenCmd(ctx Context, args []string) error {
	if len(args) == 0 || args[0] != "issue" {
		return errors.New("usage: manualexecctl token issue --subject <operator> [--role operator] [--ttl 12h]")
	}
	fs := newFlagSet("token issue")
	subject := fs.String("subject", "", "operator name")
	role := fs.String("role", "operator", "role claim")
	ttl := fs.Duration("ttl", 12*time.Hour, "token lifetime")
	secret := fs.String("secret", "", "signing secret (env: MX_AUTH_SECRET)")
	issuer := fs.String("issuer", "", "issuer claim (env: MX_AUTH_ISSUER)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if strings.TrimSpace(*subject) == "" {
		return errors.New("--subject required")
	}
	key := strings.TrimSpace(*secret)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("MX_AUTH_SECRET"))
	}
	if key == "" {
		return errors.New("signing secret required: --secret or MX_AUTH_SECRET")
	}
	iss := strings.TrimSpace(*issuer)
	if iss == "" {
		iss = strings.TrimSpace(os.Getenv("MX_AUTH_ISSUER"))
	}

	j := auth.JWT{Secret: []byte(key), TokenTTL: *ttl, Issuer: iss}
	tok, exp, err := j.Sign(auth.Claims{
		Role:             strings.TrimSpace(*role),
		RegisteredClaims: jwt.RegisteredClaims{Subject: strings.TrimSpace(*subject)},
	})
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	return output.Write(ctx.stdout(), ctx.Output, tokenResponse{
		Token:     tok,
		Subject:   strings.TrimSpace(*subject),
		Role:      strings.TrimSpace(*role),
		ExpiresAt: exp.UTC().Format(time.RFC3339),
	})
}
