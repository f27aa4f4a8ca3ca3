package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/terraincognita07/duet/internal/api"
	"github.com/terraincognita07/duet/internal/services"
)

type IssueTokenOptions struct {
	SecretKey  string
	UserID     string
	Role       string
	Tier       string
	CoupleCode string
	TTL        time.Duration
}

// RunIssueTokenCommand prints a signed bearer token for local testing.
func RunIssueTokenCommand(opts IssueTokenOptions, out io.Writer) error {
	role, ok := services.ParseRole(opts.Role)
	if !ok {
		return fmt.Errorf("role must be owner or partner, got %q", opts.Role)
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	token, err := api.IssueToken([]byte(opts.SecretKey), api.Viewer{
		UserID:      opts.UserID,
		Role:        role,
		Entitlement: services.ParseEntitlement(opts.Tier),
		CoupleCode:  opts.CoupleCode,
	}, ttl, time.Now())
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	fmt.Fprintln(out, token)
	return nil
}
