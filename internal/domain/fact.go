package domain

// CDPStatus is the neighbor-discovery state of a device
type CDPStatus string

const (
	CDPStatusOn      CDPStatus = "on"
	CDPStatusOff     CDPStatus = "off"
	CDPStatusUnknown CDPStatus = "unknown" // the job failed, nothing was parsed
)

// CdpNeighborFact summarises the CDP neighbor table of one device.
// Device is the prompt hostname; Address is the polled host:port, which
// stays distinct when several devices share a factory-default hostname.
type CdpNeighborFact struct {
	Device    string    `json:"device" yaml:"device"`
	Address   string    `json:"address,omitempty" yaml:"address,omitempty"`
	Enabled   bool      `json:"enabled" yaml:"enabled"`
	Neighbors int       `json:"neighbors" yaml:"neighbors"`
	Status    CDPStatus `json:"status" yaml:"status"`
}

// UnknownNeighborFact is the sentinel reported for devices whose job failed
func UnknownNeighborFact(device string) CdpNeighborFact {
	return CdpNeighborFact{Device: device, Status: CDPStatusUnknown}
}

// NeighborRecord is one parsed line of a CDP neighbor table
type NeighborRecord struct {
	DeviceID        string `json:"device_id" yaml:"device_id"`
	LocalInterface  string `json:"local_interface" yaml:"local_interface"`
	RemoteInterface string `json:"remote_interface" yaml:"remote_interface"`
}

// EncryptionClass separates export-restricted (no payload encryption)
// software builds from unrestricted ones.
type EncryptionClass string

const (
	EncryptionUnknown            EncryptionClass = ""
	EncryptionExportRestricted   EncryptionClass = "export-restricted"
	EncryptionExportUnrestricted EncryptionClass = "export-unrestricted"
)

// Short returns the NPE/PE shorthand used by operators
func (e EncryptionClass) Short() string {
	switch e {
	case EncryptionExportRestricted:
		return "NPE"
	case EncryptionExportUnrestricted:
		return "PE"
	default:
		return "unknown"
	}
}

// String implements fmt.Stringer
func (e EncryptionClass) String() string {
	if e == EncryptionUnknown {
		return "unknown"
	}
	return string(e)
}

// DeviceIdentityFact is the software and hardware identity of one device
type DeviceIdentityFact struct {
	Device     string          `json:"device" yaml:"device"`
	Address    string          `json:"address,omitempty" yaml:"address,omitempty"`
	Software   string          `json:"software" yaml:"software"`
	Version    string          `json:"version" yaml:"version"`
	Hardware   string          `json:"hardware" yaml:"hardware"`
	Encryption EncryptionClass `json:"encryption" yaml:"encryption"`
}

// NeighborTable holds the parsed CDP neighbor lines of one device
type NeighborTable struct {
	Device  string           `json:"device" yaml:"device"`
	Records []NeighborRecord `json:"records" yaml:"records"`
}
