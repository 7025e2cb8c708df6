// Package inventory reads the devices file and turns it into device
// descriptors.
package inventory

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fleetpoll/internal/domain"
)

// Entry is one device in the devices file. Both "host" and the older "ip"
// key name the management address.
type Entry struct {
	Name       string `yaml:"name,omitempty"`
	Host       string `yaml:"host,omitempty"`
	IP         string `yaml:"ip,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	DeviceType string `yaml:"device_type,omitempty"`
	Username   string `yaml:"username,omitempty"`
}

// Address returns the management address
func (e Entry) Address() string {
	if e.Host != "" {
		return e.Host
	}
	return e.IP
}

// fileYAML is the mapping form of the devices file
type fileYAML struct {
	Devices []Entry `yaml:"devices"`
}

// CredentialResolver returns the credential for a username
type CredentialResolver interface {
	Resolve(ctx context.Context, username string) (domain.Credential, error)
}

// Load reads a devices file
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}
	entries, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("inventory %s: %w", path, err)
	}
	return entries, nil
}

// Parse decodes a devices document. It accepts a bare list of devices or a
// mapping with a "devices" key.
func Parse(data []byte) ([]Entry, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	var entries []Entry
	switch node.Content[0].Kind {
	case yaml.SequenceNode:
		if err := node.Content[0].Decode(&entries); err != nil {
			return nil, fmt.Errorf("decode devices: %w", err)
		}
	case yaml.MappingNode:
		var f fileYAML
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode devices: %w", err)
		}
		entries = f.Devices
	default:
		return nil, fmt.Errorf("expected a list of devices or a devices mapping")
	}

	for i, e := range entries {
		if e.Address() == "" {
			return nil, fmt.Errorf("device %d (%q): host is required", i+1, e.Name)
		}
		if e.Port < 0 || e.Port > 65535 {
			return nil, fmt.Errorf("device %s: port %d out of range", e.Address(), e.Port)
		}
	}
	return entries, nil
}

// Build resolves credentials once per distinct username and returns one
// descriptor per entry. Entries without a username use defaultUsername.
func Build(ctx context.Context, entries []Entry, defaultUsername string, resolver CredentialResolver) ([]domain.DeviceDescriptor, error) {
	creds := make(map[string]domain.Credential)
	devices := make([]domain.DeviceDescriptor, 0, len(entries))

	for _, e := range entries {
		username := e.Username
		if username == "" {
			username = defaultUsername
		}
		if username == "" {
			return nil, fmt.Errorf("device %s: no username in inventory or config", e.Address())
		}

		cred, ok := creds[username]
		if !ok {
			var err error
			cred, err = resolver.Resolve(ctx, username)
			if err != nil {
				return nil, fmt.Errorf("credentials for %s: %w", username, err)
			}
			creds[username] = cred
		}

		devices = append(devices, domain.DeviceDescriptor{
			Name:       e.Name,
			Host:       e.Address(),
			Port:       e.Port,
			Family:     e.DeviceType,
			Credential: cred,
		})
	}
	return devices, nil
}
