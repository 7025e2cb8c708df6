// Package credentials resolves login passwords and enable secrets before any
// device is contacted.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"fleetpoll/internal/domain"
)

// ErrUnavailable means a resolver has no credential to offer
var ErrUnavailable = errors.New("credentials unavailable")

// Resolver returns the credential for a username
type Resolver interface {
	Resolve(ctx context.Context, username string) (domain.Credential, error)
}

// Env reads the password and enable secret from environment variables
type Env struct {
	PasswordVar string
	SecretVar   string
	// Lookup defaults to os.LookupEnv
	Lookup func(string) (string, bool)
}

// Resolve implements Resolver
func (e Env) Resolve(_ context.Context, username string) (domain.Credential, error) {
	lookup := e.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	password, ok := lookup(e.PasswordVar)
	if !ok || password == "" {
		return domain.Credential{}, fmt.Errorf("%s not set: %w", e.PasswordVar, ErrUnavailable)
	}
	secret, _ := lookup(e.SecretVar)
	return domain.NewCredential(username, password, secret), nil
}

// Prompt asks for the password and enable secret on a terminal
type Prompt struct {
	// Fd is the terminal file descriptor, usually os.Stdin
	Fd int
	// Out receives the prompts
	Out io.Writer
	// ReadPassword defaults to term.ReadPassword
	ReadPassword func(fd int) ([]byte, error)
	// IsTerminal defaults to term.IsTerminal
	IsTerminal func(fd int) bool
}

// NewPrompt returns a resolver reading from stdin and prompting on stderr
func NewPrompt() *Prompt {
	return &Prompt{
		Fd:  int(os.Stdin.Fd()),
		Out: os.Stderr,
	}
}

// Resolve implements Resolver
func (p *Prompt) Resolve(ctx context.Context, username string) (domain.Credential, error) {
	isTerminal := p.IsTerminal
	if isTerminal == nil {
		isTerminal = term.IsTerminal
	}
	if !isTerminal(p.Fd) {
		return domain.Credential{}, fmt.Errorf("stdin is not a terminal: %w", ErrUnavailable)
	}

	password, err := p.ask(ctx, fmt.Sprintf("Password for %s: ", username))
	if err != nil {
		return domain.Credential{}, err
	}
	if password == "" {
		return domain.Credential{}, fmt.Errorf("empty password for %s", username)
	}

	secret, err := p.ask(ctx, "Enable secret (empty to skip): ")
	if err != nil {
		return domain.Credential{}, err
	}
	return domain.NewCredential(username, password, secret), nil
}

func (p *Prompt) ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	read := p.ReadPassword
	if read == nil {
		read = term.ReadPassword
	}

	fmt.Fprint(p.Out, prompt)
	b, err := read(p.Fd)
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("read from terminal: %w", err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

// Chain tries resolvers in order, moving on only when one reports
// ErrUnavailable.
type Chain []Resolver

// Resolve implements Resolver
func (c Chain) Resolve(ctx context.Context, username string) (domain.Credential, error) {
	var errs []error
	for _, r := range c {
		cred, err := r.Resolve(ctx, username)
		if err == nil {
			return cred, nil
		}
		if !errors.Is(err, ErrUnavailable) {
			return domain.Credential{}, err
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return domain.Credential{}, fmt.Errorf("no credential source configured: %w", ErrUnavailable)
	}
	return domain.Credential{}, errors.Join(errs...)
}
