package preflight

import (
	"context"
	"errors"
	"testing"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetpoll/internal/domain"
)

func host(addr, name string, state string, ports ...nmap.Port) nmap.Host {
	h := nmap.Host{
		Addresses: []nmap.Address{{Addr: addr, AddrType: "ipv4"}},
		Status:    nmap.Status{State: state},
		Ports:     ports,
	}
	if name != "" {
		h.Hostnames = []nmap.Hostname{{Name: name, Type: "user"}}
	}
	return h
}

func tcp(id uint16, state string) nmap.Port {
	return nmap.Port{ID: id, Protocol: "tcp", State: nmap.State{State: state}}
}

func TestFilter(t *testing.T) {
	result := &nmap.Run{
		Hosts: []nmap.Host{
			host("10.0.0.1", "", "up", tcp(22, "open")),
			host("10.0.0.2", "", "up", tcp(22, "filtered")),
			host("10.0.0.3", "core.lab.example", "up", tcp(2222, "open"), tcp(22, "closed")),
			host("10.0.0.4", "", "down", tcp(22, "open")),
		},
	}

	var gotTargets []string
	var gotPorts string
	scan := func(_ context.Context, targets []string, ports string) (*nmap.Run, error) {
		gotTargets, gotPorts = targets, ports
		return result, nil
	}

	devices := []domain.DeviceDescriptor{
		{Host: "10.0.0.1"},
		{Host: "10.0.0.2"},
		{Host: "core.lab.example", Port: 2222},
		{Host: "10.0.0.4"},
		{Host: "10.0.0.5"},
	}

	reachable, unreachable, err := New(WithScanFunc(scan)).Filter(context.Background(), devices)
	require.NoError(t, err)

	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "core.lab.example", "10.0.0.4", "10.0.0.5"}, gotTargets)
	assert.Equal(t, "22,2222", gotPorts)

	assert.Equal(t, []domain.DeviceDescriptor{devices[0], devices[2]}, reachable)
	assert.Equal(t, []domain.DeviceDescriptor{devices[1], devices[3], devices[4]}, unreachable)
}

func TestFilterScanError(t *testing.T) {
	scan := func(context.Context, []string, string) (*nmap.Run, error) {
		return nil, errors.New("nmap binary not found")
	}

	_, _, err := New(WithScanFunc(scan)).Filter(context.Background(), []domain.DeviceDescriptor{{Host: "10.0.0.1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nmap binary not found")
}

func TestFilterEmpty(t *testing.T) {
	called := false
	scan := func(context.Context, []string, string) (*nmap.Run, error) {
		called = true
		return nil, nil
	}

	reachable, unreachable, err := New(WithScanFunc(scan)).Filter(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, reachable)
	assert.Nil(t, unreachable)
	assert.False(t, called)
}

func TestOpenPortsNilResult(t *testing.T) {
	assert.Empty(t, openPorts(nil))
}
