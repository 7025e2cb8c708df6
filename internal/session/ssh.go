package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"fleetpoll/internal/domain"
)

// SSHConfig holds connection settings for the SSH provider
type SSHConfig struct {
	// ConnectTimeout bounds dial, handshake and reading the first prompt
	ConnectTimeout time.Duration
	// CommandTimeout bounds the wait for the prompt after each command
	CommandTimeout time.Duration
	// KnownHostsFile enables host key checking when set
	KnownHostsFile string
	// DisablePaging sends "terminal length 0" after login
	DisablePaging bool
}

// DefaultSSHConfig returns sensible defaults
func DefaultSSHConfig() SSHConfig {
	return SSHConfig{
		ConnectTimeout: 10 * time.Second,
		CommandTimeout: 30 * time.Second,
		DisablePaging:  true,
	}
}

// SSHProvider opens interactive PTY shells on network devices
type SSHProvider struct {
	config SSHConfig
	log    zerolog.Logger
}

// SSHOption configures an SSHProvider
type SSHOption func(*SSHProvider)

// WithLogger sets the provider logger
func WithLogger(log zerolog.Logger) SSHOption {
	return func(p *SSHProvider) {
		p.log = log.With().Str("component", "ssh").Logger()
	}
}

// NewSSHProvider creates a new SSH session provider
func NewSSHProvider(config SSHConfig, opts ...SSHOption) *SSHProvider {
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if config.CommandTimeout == 0 {
		config.CommandTimeout = 30 * time.Second
	}

	p := &SSHProvider{
		config: config,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open connects to the device, logs in, enters enable mode when a secret is
// available and turns off paging.
func (p *SSHProvider) Open(ctx context.Context, device domain.DeviceDescriptor) (Session, error) {
	clientConfig, err := p.buildClientConfig(device.Credential)
	if err != nil {
		return nil, fmt.Errorf("build ssh config for %s: %w", device.Host, err)
	}

	client, err := p.dial(ctx, device.Address(), clientConfig)
	if err != nil {
		return nil, err
	}

	s, err := startShell(client, p.config.CommandTimeout)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("start shell on %s: %w", device.Host, err)
	}

	if err := p.login(s, device); err != nil {
		s.Close()
		return nil, err
	}

	p.log.Debug().
		Str("host", device.Host).
		Str("prompt", s.CurrentPrompt()).
		Msg("session ready")

	return s, nil
}

func (p *SSHProvider) login(s *sshSession, device domain.DeviceDescriptor) error {
	if err := s.awaitFirstPrompt(p.config.ConnectTimeout); err != nil {
		return fmt.Errorf("login to %s: %w", device.Host, err)
	}

	if !s.privileged() && device.Credential.HasEnableSecret() {
		if err := s.enable(device.Credential.EnableSecret(), p.config.ConnectTimeout); err != nil {
			return fmt.Errorf("enable on %s: %w", device.Host, err)
		}
	}

	if p.config.DisablePaging {
		if _, err := s.Send("terminal length 0"); err != nil {
			return fmt.Errorf("disable paging on %s: %w", device.Host, err)
		}
	}
	return nil
}

// dial establishes the SSH transport, bounded by ConnectTimeout
func (p *SSHProvider) dial(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	dialer := &net.Dialer{
		Timeout: p.config.ConnectTimeout,
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, classifyDialError(addr, err)
	}

	// Handshake and authentication share the connect deadline
	_ = conn.SetDeadline(time.Now().Add(p.config.ConnectTimeout))

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, classifyHandshakeError(addr, err)
	}
	_ = conn.SetDeadline(time.Time{})

	return ssh.NewClient(sshConn, chans, reqs), nil
}

// buildClientConfig creates a password + keyboard-interactive client config.
// IOS accepts either depending on the aaa configuration.
func (p *SSHProvider) buildClientConfig(cred domain.Credential) (*ssh.ClientConfig, error) {
	if cred.Username == "" {
		return nil, fmt.Errorf("username not set")
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if p.config.KnownHostsFile != "" {
		cb, err := knownhosts.New(p.config.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("load known hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	password := cred.Password()
	return &ssh.ClientConfig{
		User: cred.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         p.config.ConnectTimeout,
	}, nil
}

func classifyDialError(addr string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("dial %s: %v: %w", addr, err, domain.ErrTimeout)
	}
	return fmt.Errorf("dial %s: %v: %w", addr, err, domain.ErrConnect)
}

func classifyHandshakeError(addr string, err error) error {
	if strings.Contains(err.Error(), "unable to authenticate") {
		return fmt.Errorf("ssh %s: %v: %w", addr, err, domain.ErrAuth)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("ssh %s: %v: %w", addr, err, domain.ErrTimeout)
	}
	return fmt.Errorf("ssh %s: %v: %w", addr, err, domain.ErrConnect)
}
