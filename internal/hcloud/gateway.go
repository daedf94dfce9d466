// Package hcloud drives the external Hetzner Cloud CLI. The binary is a
// black box: callers get an ok/output pair and never see its stderr.
package hcloud

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	binaryName = "hcloud"
	tokenEnv   = "HCLOUD_TOKEN"
)

// NotFoundOutput is the sentinel returned when the hcloud binary is absent.
const NotFoundOutput = binaryName + " not found"

// Runner invokes the provider CLI with an argument vector. ok is true iff
// the process exited 0; output is trimmed stdout, returned on failure too.
type Runner interface {
	Run(ctx context.Context, args ...string) (ok bool, output string)
}

// CLI is the production Runner. It injects the API token into the
// subprocess environment; the ambient environment is otherwise inherited.
type CLI struct {
	Token string
}

func NewCLI(token string) *CLI { return &CLI{Token: token} }

func (c *CLI) Run(ctx context.Context, args ...string) (bool, string) {
	path, err := exec.LookPath(binaryName)
	if err != nil {
		return false, NotFoundOutput
	}
	log.Debug().Strs("args", args).Msg("hcloud")
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = os.Environ()
	if c.Token != "" {
		cmd.Env = append(cmd.Env, tokenEnv+"="+c.Token)
	}
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	runErr := cmd.Run()
	return runErr == nil, strings.TrimSpace(stdout.String())
}

// Available reports whether the hcloud binary responds at all.
func Available(ctx context.Context, r Runner) bool {
	ok, _ := r.Run(ctx, "version")
	return ok
}

// TokenValid checks the credential with a harmless read-only call.
func TokenValid(ctx context.Context, r Runner) bool {
	ok, _ := r.Run(ctx, "context", "list")
	return ok
}
