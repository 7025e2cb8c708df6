package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetpoll/internal/domain"
)

const showVersion7200 = `Cisco IOS Software, 7200 Software (C7200-ADVENTERPRISEK9-M), Version 15.2(4)S7, RELEASE SOFTWARE (fc4)
Technical Support: http://www.cisco.com/techsupport
Copyright (c) 1986-2017 by Cisco Systems, Inc.
Compiled Wed 01-Mar-17 14:29 by prod_rel_team

ROM: ROMMON Emulation Microcode
BOOTLDR: 7200 Software (C7200-ADVENTERPRISEK9-M), Version 15.2(4)S7, RELEASE SOFTWARE (fc4)

R1 uptime is 5 minutes
System image file is "tftp://255.255.255.255/unknown"

Cisco 7206VXR (NPE400) processor (revision A) with 491520K/32768K bytes of memory.
Processor board ID 4279256517
1 FastEthernet interface
`

const showVersionNPE = `
Cisco IOS Software, C2951 Software (c2951-universalk9npe), Version 15.4(3)M2, RELEASE SOFTWARE (fc2)
Copyright (c) 1986-2015 by Cisco Systems, Inc.

Cisco CISCO2951/K9 (revision 1.0) with 983040K/65536K bytes of memory, processor board
`

const cdpNeighbors = `Capability Codes: R - Router, T - Trans Bridge, B - Source Route Bridge
                  S - Switch, H - Host, I - IGMP, r - Repeater, P - Phone,
                  D - Remote, C - CVTA, M - Two-port Mac Relay

Device ID        Local Intrfce     Holdtme    Capability  Platform  Port ID
R2               Eth 0/0           166          R B   Linux Uni Eth 0/0
R3               Eth 0/1           140          R B   Linux Uni Eth 0/0
SW1              Eth 0/2           136          S I   Linux Uni Eth 0/3

Total cdp entries displayed : 3
`

func TestHostname(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		want    string
		wantErr bool
	}{
		{name: "privileged", prompt: "R1#", want: "R1"},
		{name: "unprivileged", prompt: "core-sw>", want: "core-sw"},
		{name: "trailing space", prompt: "R1# ", want: "R1"},
		{name: "banner before prompt", prompt: "\r\n*** authorised access only ***\r\nedge-01#", want: "edge-01"},
		{name: "config mode", prompt: "R1(config)#", want: "R1(config)"},
		{name: "no delimiter", prompt: "R1", wantErr: true},
		{name: "empty", prompt: "", wantErr: true},
		{name: "delimiter only", prompt: "#", wantErr: true},
		{name: "command after prompt", prompt: "R1# show version", want: "R1"},
		{name: "text glued to delimiter", prompt: "R1#extra", want: "R1"},
		{name: "unprivileged with input", prompt: "Router>enable", want: "Router"},
		{name: "only last line counts", prompt: "R1#\r\nno prompt here", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Hostname(tt.prompt)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrMalformedPrompt)
				var mpe *domain.MalformedPromptError
				require.ErrorAs(t, err, &mpe)
				assert.Equal(t, tt.prompt, mpe.Prompt)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHostnameReparseFailsDeterministically(t *testing.T) {
	name, err := Hostname("R1#")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := Hostname(name)
		assert.ErrorIs(t, err, domain.ErrMalformedPrompt)
	}
}

func TestPrivileged(t *testing.T) {
	assert.True(t, Privileged("R1#"))
	assert.True(t, Privileged("R1#\r\n"))
	assert.False(t, Privileged("R1>"))
	assert.True(t, IsPrompt("R1>"))
	assert.True(t, IsPrompt("show clock\r\n*10:00\r\nR1# "))
	assert.False(t, IsPrompt("Password:"))
	assert.False(t, IsPrompt("R1# show version"), "a prompt followed by input is not waiting")
}

func TestNeighbors(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   domain.CdpNeighborFact
	}{
		{
			name:   "three neighbors",
			output: cdpNeighbors,
			want:   domain.CdpNeighborFact{Device: "R1", Enabled: true, Neighbors: 3, Status: domain.CDPStatusOn},
		},
		{
			name:   "enabled but empty",
			output: "Device ID        Local Intrfce     Holdtme    Capability  Platform  Port ID\n\nTotal cdp entries displayed : 0\n",
			want:   domain.CdpNeighborFact{Device: "R1", Enabled: true, Neighbors: 0, Status: domain.CDPStatusOn},
		},
		{
			name:   "disabled",
			output: "% CDP is not enabled\n",
			want:   domain.CdpNeighborFact{Device: "R1", Enabled: false, Neighbors: 0, Status: domain.CDPStatusOff},
		},
		{
			name:   "disabled marker wins over rows",
			output: "% CDP is not enabled\n" + cdpNeighbors,
			want:   domain.CdpNeighborFact{Device: "R1", Enabled: false, Neighbors: 0, Status: domain.CDPStatusOff},
		},
		{
			name: "wrapped device id is not counted",
			output: "Device ID        Local Intrfce     Holdtme    Capability  Platform  Port ID\n" +
				"very-long-neighbor-name.example.net\n" +
				"                 Eth 0/0           166          R B   Linux Uni Eth 0/0\n" +
				"R2               Eth 0/1           166          R B   Linux Uni Eth 0/1\n",
			want: domain.CdpNeighborFact{Device: "R1", Enabled: true, Neighbors: 1, Status: domain.CDPStatusOn},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Neighbors("R1", tt.output))
		})
	}
}

func TestNeighborRecords(t *testing.T) {
	records := NeighborRecords(cdpNeighbors)
	require.Len(t, records, 3)

	assert.Equal(t, domain.NeighborRecord{
		DeviceID:        "SW1",
		LocalInterface:  "Eth 0/2",
		RemoteInterface: "Eth 0/3",
	}, records[2])

	assert.Nil(t, NeighborRecords("% CDP is not enabled"))
}

func TestIdentity(t *testing.T) {
	t.Run("unrestricted", func(t *testing.T) {
		fact, err := Identity("R1", showVersion7200)
		require.NoError(t, err)
		assert.Equal(t, domain.DeviceIdentityFact{
			Device:     "R1",
			Software:   "C7200-ADVENTERPRISEK9-M",
			Version:    "15.2(4)S7",
			Hardware:   "7206VXR",
			Encryption: domain.EncryptionExportUnrestricted,
		}, fact)
	})

	t.Run("restricted", func(t *testing.T) {
		fact, err := Identity("branch", showVersionNPE)
		require.NoError(t, err)
		assert.Equal(t, "c2951-universalk9npe", fact.Software)
		assert.Equal(t, "15.4(3)M2", fact.Version)
		assert.Equal(t, "CISCO2951/K9", fact.Hardware)
		assert.Equal(t, domain.EncryptionExportRestricted, fact.Encryption)
	})
}

func TestIdentityMissingField(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		missing string
	}{
		{
			name:    "no hardware line",
			output:  "Cisco IOS Software, 7200 Software (C7200-ADVENTERPRISEK9-M), Version 15.2(4)S7, RELEASE SOFTWARE (fc4)\n",
			missing: "hardware",
		},
		{
			name:    "no version",
			output:  "Cisco IOS Software, 7200 Software (C7200-ADVENTERPRISEK9-M)\nCisco 7206VXR (NPE400) processor (revision A)\n",
			missing: "version",
		},
		{
			name:    "no software image",
			output:  "Cisco IOS Software, Version 15.2(4)S7, RELEASE SOFTWARE\nCisco 7206VXR (NPE400) processor (revision A)\n",
			missing: "software",
		},
		{
			name:    "empty",
			output:  "",
			missing: "software",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fact, err := Identity("R1", tt.output)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrIdentityParse)
			assert.Equal(t, domain.DeviceIdentityFact{}, fact)

			var ipe *domain.IdentityParseError
			require.ErrorAs(t, err, &ipe)
			assert.Contains(t, ipe.Missing, tt.missing)
		})
	}
}

func TestClassifyEncryption(t *testing.T) {
	tests := []struct {
		software string
		want     domain.EncryptionClass
	}{
		{"c2951-universalk9npe", domain.EncryptionExportRestricted},
		{"C7200-ADVENTERPRISEK9-M", domain.EncryptionExportUnrestricted},
		{"C2951-UNIVERSALK9NPE", domain.EncryptionExportUnrestricted},
		{"npe-build-m", domain.EncryptionExportUnrestricted},
	}

	for _, tt := range tests {
		t.Run(tt.software, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyEncryption(tt.software))
		})
	}
}
