package session

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"fleetpoll/internal/domain"
	"fleetpoll/internal/parser"
)

var passwordPrompt = regexp.MustCompile(`(?i)password:\s*$`)

// sshSession drives one PTY shell. Output is pumped by a reader goroutine
// into chunks; all other state is owned by the single caller goroutine.
type sshSession struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	chunks  chan []byte
	done    chan struct{}

	buf      bytes.Buffer
	prompt   string
	hostname string
	promptRE *regexp.Regexp
	timeout  time.Duration

	closeOnce sync.Once
	closeErr  error
}

// startShell requests a PTY and starts the interactive shell
func startShell(client *ssh.Client, timeout time.Duration) (*sshSession, error) {
	sess, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 38400,
		ssh.TTY_OP_OSPEED: 38400,
	}
	if err := sess.RequestPty("vt100", 0, 511, modes); err != nil {
		sess.Close()
		return nil, fmt.Errorf("failed to request PTY: %w", err)
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("failed to open stdin: %w", err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("failed to open stdout: %w", err)
	}

	if err := sess.Shell(); err != nil {
		sess.Close()
		return nil, fmt.Errorf("failed to start shell: %w", err)
	}

	s := &sshSession{
		client:  client,
		session: sess,
		stdin:   stdin,
		chunks:  make(chan []byte, 64),
		done:    make(chan struct{}),
		timeout: timeout,
	}
	go s.pump(stdout)
	return s, nil
}

func (s *sshSession) pump(r io.Reader) {
	defer close(s.chunks)
	b := make([]byte, 4096)
	for {
		n, err := r.Read(b)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, b[:n])
			select {
			case s.chunks <- chunk:
			case <-s.done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// CurrentPrompt implements Session
func (s *sshSession) CurrentPrompt() string {
	return s.prompt
}

// Send implements Session
func (s *sshSession) Send(command string) (string, error) {
	if err := s.write(command); err != nil {
		return "", err
	}

	raw, err := s.readUntil(s.atPrompt, s.timeout)
	if err != nil {
		return "", fmt.Errorf("command %q: %w", command, err)
	}

	output, prompt := splitReply(raw, command)
	s.prompt = prompt
	return output, nil
}

// Close implements Session
func (s *sshSession) Close() error {
	s.closeOnce.Do(func() {
		_, _ = io.WriteString(s.stdin, "exit\n")
		close(s.done)
		_ = s.session.Close()
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}

// awaitFirstPrompt reads the login banner up to the first prompt and pins
// the hostname so later reads only stop at this device's own prompt.
func (s *sshSession) awaitFirstPrompt(timeout time.Duration) error {
	raw, err := s.readUntil(parser.IsPrompt, timeout)
	if err != nil {
		return err
	}
	return s.pinPrompt(raw)
}

func (s *sshSession) pinPrompt(raw string) error {
	hostname, err := parser.Hostname(raw)
	if err != nil {
		return err
	}
	s.prompt = lastLine(raw)
	s.hostname = strings.TrimSuffix(hostname, configModeSuffix(hostname))
	s.promptRE = pinnedPrompt(s.hostname)
	return nil
}

// pinnedPrompt matches hostname's prompt, in any config mode, standing at
// the start of the last line of a reply.
func pinnedPrompt(hostname string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[\r\n])` + regexp.QuoteMeta(hostname) + `(\([^)\s]*\))?[#>]\s*$`)
}

// enable escalates to privileged mode. A repeated password prompt or a
// final unprivileged prompt means the secret was rejected.
func (s *sshSession) enable(secret string, timeout time.Duration) error {
	if err := s.write("enable"); err != nil {
		return err
	}
	raw, err := s.readUntil(s.atPasswordOrPrompt, timeout)
	if err != nil {
		return err
	}

	if passwordPrompt.MatchString(raw) {
		if err := s.write(secret); err != nil {
			return err
		}
		raw, err = s.readUntil(s.atPasswordOrPrompt, timeout)
		if err != nil {
			return err
		}
		if passwordPrompt.MatchString(raw) {
			return fmt.Errorf("enable secret rejected: %w", domain.ErrAuth)
		}
	}

	s.prompt = lastLine(raw)
	if !s.privileged() {
		return fmt.Errorf("still unprivileged after enable (%q): %w", s.prompt, domain.ErrAuth)
	}
	return nil
}

func (s *sshSession) privileged() bool {
	return parser.Privileged(s.prompt)
}

func (s *sshSession) atPrompt(text string) bool {
	if s.promptRE == nil {
		return parser.IsPrompt(text)
	}
	return s.promptRE.MatchString(text)
}

func (s *sshSession) atPasswordOrPrompt(text string) bool {
	return passwordPrompt.MatchString(text) || s.atPrompt(text)
}

func (s *sshSession) write(line string) error {
	if _, err := io.WriteString(s.stdin, line+"\n"); err != nil {
		return fmt.Errorf("write to device: %v: %w", err, domain.ErrConnect)
	}
	return nil
}

// readUntil accumulates output until match accepts the buffer, the device
// hangs up, or timeout elapses.
func (s *sshSession) readUntil(match func(string) bool, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if text := s.buf.String(); text != "" && match(text) {
			s.buf.Reset()
			return text, nil
		}

		select {
		case chunk, ok := <-s.chunks:
			if !ok {
				return s.buf.String(), fmt.Errorf("session closed by device: %w", domain.ErrConnect)
			}
			s.buf.Write(chunk)
		case <-timer.C:
			return s.buf.String(), fmt.Errorf("no prompt after %s: %w", timeout, domain.ErrTimeout)
		}
	}
}

// splitReply strips the echoed command from the top and the prompt from the
// bottom of a reply.
func splitReply(raw, command string) (output, prompt string) {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "")
	lines := strings.Split(strings.TrimRight(text, " \n"), "\n")

	prompt = strings.TrimSpace(lines[len(lines)-1])
	lines = lines[:len(lines)-1]

	if len(lines) > 0 && strings.Contains(lines[0], command) {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n"), prompt
}

func lastLine(s string) string {
	s = strings.TrimRight(s, " \t\r\n")
	if idx := strings.LastIndexAny(s, "\r\n"); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

// configModeSuffix returns a trailing "(config...)" marker, if any
func configModeSuffix(hostname string) string {
	if i := strings.IndexByte(hostname, '('); i > 0 && strings.HasSuffix(hostname, ")") {
		return hostname[i:]
	}
	return ""
}
