package session

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"fleetpoll/internal/domain"
)

const (
	testUser     = "admin"
	testPassword = "cisco"
	testSecret   = "class"
)

// fakeIOS is a minimal in-process SSH server that behaves like an IOS CLI:
// user-mode prompt, "enable" with a secret, echoed input and canned replies.
type fakeIOS struct {
	hostname string
	replies  map[string]string
	listener net.Listener
}

func newFakeIOS(t *testing.T, hostname string, replies map[string]string) *fakeIOS {
	t.Helper()

	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(key)
	require.NoError(t, err)

	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == testUser && string(pass) == testPassword {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %q", c.User())
		},
	}
	config.AddHostKey(signer)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	f := &fakeIOS{hostname: hostname, replies: replies, listener: l}
	go f.serve(config)
	return f
}

func (f *fakeIOS) device(password, secret string) domain.DeviceDescriptor {
	host, port, _ := net.SplitHostPort(f.listener.Addr().String())
	p, _ := strconv.Atoi(port)
	return domain.DeviceDescriptor{
		Host:       host,
		Port:       p,
		Family:     "cisco_ios",
		Credential: domain.NewCredential(testUser, password, secret),
	}
}

func (f *fakeIOS) serve(config *ssh.ServerConfig) {
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			return
		}
		go f.handle(conn, config)
	}
}

func (f *fakeIOS) handle(conn net.Conn, config *ssh.ServerConfig) {
	_, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		conn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			newCh.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			continue
		}
		go func() {
			for req := range requests {
				switch req.Type {
				case "pty-req", "shell":
					req.Reply(true, nil)
				default:
					req.Reply(false, nil)
				}
			}
		}()
		go f.cli(ch)
	}
}

func (f *fakeIOS) cli(ch ssh.Channel) {
	defer ch.Close()

	mode := ">"
	prompt := func() { fmt.Fprintf(ch, "%s%s", f.hostname, mode) }

	fmt.Fprint(ch, "\r\n*** lab device ***\r\n\r\n")
	prompt()

	r := bufio.NewReader(ch)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimRight(line, "\r\n")
		fmt.Fprintf(ch, "%s\r\n", cmd)

		switch cmd {
		case "exit":
			return
		case "hang":
			continue
		case "enable":
			for attempt := 0; attempt < 3; attempt++ {
				fmt.Fprint(ch, "Password: ")
				secret, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if strings.TrimRight(secret, "\r\n") == testSecret {
					mode = "#"
					break
				}
			}
			if mode != "#" {
				fmt.Fprint(ch, "% Bad secrets\r\n\r\n")
			}
		default:
			if reply, ok := f.replies[cmd]; ok {
				fmt.Fprint(ch, strings.ReplaceAll(reply, "\n", "\r\n"))
			}
		}
		prompt()
	}
}

func testProvider() *SSHProvider {
	return NewSSHProvider(SSHConfig{
		ConnectTimeout: 2 * time.Second,
		CommandTimeout: 500 * time.Millisecond,
		DisablePaging:  true,
	})
}

func TestSSHProviderOpenAndSend(t *testing.T) {
	srv := newFakeIOS(t, "R1", map[string]string{
		"show cdp neighbors": "Device ID        Local Intrfce     Holdtme    Capability  Platform  Port ID\n" +
			"R2               Eth 0/0           166          R B   Linux Uni Eth 0/0\n",
	})

	s, err := testProvider().Open(context.Background(), srv.device(testPassword, testSecret))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "R1#", s.CurrentPrompt())

	out, err := s.Send("show cdp neighbors")
	require.NoError(t, err)
	assert.NotContains(t, out, "show cdp neighbors", "echo must be stripped")
	assert.NotContains(t, out, "R1#", "prompt must be stripped")
	assert.Contains(t, out, "R2               Eth 0/0")
	assert.Equal(t, "R1#", s.CurrentPrompt())

	require.NoError(t, s.Close())
	assert.NotPanics(t, func() { _ = s.Close() })
}

func TestSSHProviderWithoutSecretStaysUnprivileged(t *testing.T) {
	srv := newFakeIOS(t, "edge-1", nil)

	s, err := testProvider().Open(context.Background(), srv.device(testPassword, ""))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "edge-1>", s.CurrentPrompt())
}

func TestSSHProviderAuthFailure(t *testing.T) {
	srv := newFakeIOS(t, "R1", nil)

	_, err := testProvider().Open(context.Background(), srv.device("wrong", testSecret))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestSSHProviderEnableRejected(t *testing.T) {
	srv := newFakeIOS(t, "R1", nil)

	_, err := testProvider().Open(context.Background(), srv.device(testPassword, "nope"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestSSHProviderCommandTimeout(t *testing.T) {
	srv := newFakeIOS(t, "R1", nil)

	s, err := testProvider().Open(context.Background(), srv.device(testPassword, testSecret))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Send("hang")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestSSHProviderConnectRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().(*net.TCPAddr)
	l.Close()

	dev := domain.DeviceDescriptor{
		Host:       "127.0.0.1",
		Port:       addr.Port,
		Credential: domain.NewCredential(testUser, testPassword, ""),
	}
	_, err = testProvider().Open(context.Background(), dev)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConnect)
}

func TestSSHProviderRequiresUsername(t *testing.T) {
	_, err := testProvider().Open(context.Background(), domain.DeviceDescriptor{Host: "127.0.0.1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username not set")
}

func TestSplitReply(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		command    string
		wantOutput string
		wantPrompt string
	}{
		{
			name:       "echo and prompt",
			raw:        "show clock\r\n*10:00:00.000 UTC Mon Jan 1 2026\r\nR1#",
			command:    "show clock",
			wantOutput: "*10:00:00.000 UTC Mon Jan 1 2026",
			wantPrompt: "R1#",
		},
		{
			name:       "no output",
			raw:        "terminal length 0\r\nR1#",
			command:    "terminal length 0",
			wantOutput: "",
			wantPrompt: "R1#",
		},
		{
			name:       "no echo",
			raw:        "line one\nline two\nR1>",
			command:    "show x",
			wantOutput: "line one\nline two",
			wantPrompt: "R1>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, prompt := splitReply(tt.raw, tt.command)
			assert.Equal(t, tt.wantOutput, out)
			assert.Equal(t, tt.wantPrompt, prompt)
		})
	}
}

func TestConfigModeSuffix(t *testing.T) {
	assert.Equal(t, "(config)", configModeSuffix("R1(config)"))
	assert.Equal(t, "", configModeSuffix("R1"))
	assert.Equal(t, "", configModeSuffix("(x)"))
}

func TestPinnedPrompt(t *testing.T) {
	re := pinnedPrompt("R1")

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "bare prompt", text: "R1#", want: true},
		{name: "after output", text: "show clock\r\n*10:00\r\nR1#", want: true},
		{name: "config mode", text: "conf t\r\nR1(config-if)#", want: true},
		{name: "unprivileged", text: "\nR1> ", want: true},
		{name: "hostname inside a line", text: "description uplink-to-R1#", want: false},
		{name: "chunk ends mid line", text: "banner motd ^CR1#", want: false},
		{name: "other device", text: "\r\nR10#", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, re.MatchString(tt.text))
		})
	}
}
