package domain

import (
	"fmt"
	"net"
	"strconv"
)

// DefaultSSHPort is used when an inventory entry leaves the port unset
const DefaultSSHPort = 22

// Credential is an opaque login handle resolved once, before any device
// descriptor is built. The password and enable secret never leave the
// package except through the accessor methods.
type Credential struct {
	Username string `json:"username" yaml:"username"`

	password string
	secret   string
}

// NewCredential creates a credential handle. secret is the enable secret and
// may be empty when the account logs straight into privileged mode.
func NewCredential(username, password, secret string) Credential {
	return Credential{Username: username, password: password, secret: secret}
}

// Password returns the login password
func (c Credential) Password() string {
	return c.password
}

// EnableSecret returns the privilege escalation secret
func (c Credential) EnableSecret() string {
	return c.secret
}

// HasEnableSecret reports whether privilege escalation can be attempted
func (c Credential) HasEnableSecret() bool {
	return c.secret != ""
}

// String redacts everything but the username
func (c Credential) String() string {
	return fmt.Sprintf("%s:<redacted>", c.Username)
}

// DeviceDescriptor identifies one device in the inventory. It is supplied by
// the caller and only ever read by the dispatcher and collectors.
type DeviceDescriptor struct {
	// Name is the inventory label. It is informational: the device prompt
	// is the authoritative hostname.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Host is the management address (IP or DNS name)
	Host string `json:"host" yaml:"host"`

	// Port is the SSH port, DefaultSSHPort when zero
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Family is the device-family hint, e.g. "cisco_ios"
	Family string `json:"device_type,omitempty" yaml:"device_type,omitempty"`

	// Credential is the resolved login handle
	Credential Credential `json:"-" yaml:"-"`
}

// Address returns host:port suitable for dialing
func (d DeviceDescriptor) Address() string {
	port := d.Port
	if port == 0 {
		port = DefaultSSHPort
	}
	return net.JoinHostPort(d.Host, strconv.Itoa(port))
}

// Label returns the best human-readable identifier before the prompt has
// been seen: the inventory name if present, the host otherwise.
func (d DeviceDescriptor) Label() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Host
}

// CommandJob pairs one device with one command. Jobs are built per
// dispatch call and consumed once.
type CommandJob struct {
	Device  DeviceDescriptor
	Command string
}

// JobsFor builds one job per device, all sending the same command
func JobsFor(devices []DeviceDescriptor, command string) []CommandJob {
	jobs := make([]CommandJob, 0, len(devices))
	for _, d := range devices {
		jobs = append(jobs, CommandJob{Device: d, Command: command})
	}
	return jobs
}
