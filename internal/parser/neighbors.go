package parser

import (
	"regexp"
	"strings"

	"fleetpoll/internal/domain"
)

// CDPDisabledMarker is printed by IOS in place of the table when CDP is off
const CDPDisabledMarker = "% CDP is not enabled"

// neighborPattern matches one row of "show cdp neighbors": a device ID
// followed by the local and remote interfaces, each "<word> <digit>/<digits>".
// Required groups: device, local, remote.
//
// Rows whose device ID is too long get wrapped by IOS onto two lines; those
// continuation rows do not match and are not counted.
var neighborPattern = regexp.MustCompile(
	`(?P<device>\S+)\s+` +
		`(?P<local>\S+\s\d/\d+).*?` +
		`(?P<remote>\S+\s\d/\d+)`,
)

// Neighbors summarises CDP output for one device
func Neighbors(device, output string) domain.CdpNeighborFact {
	if strings.Contains(output, CDPDisabledMarker) {
		return domain.CdpNeighborFact{
			Device:    device,
			Enabled:   false,
			Neighbors: 0,
			Status:    domain.CDPStatusOff,
		}
	}

	return domain.CdpNeighborFact{
		Device:    device,
		Enabled:   true,
		Neighbors: len(NeighborRecords(output)),
		Status:    domain.CDPStatusOn,
	}
}

// NeighborRecords returns every line of CDP output that looks like a
// neighbor row. It returns nil when CDP is disabled.
func NeighborRecords(output string) []domain.NeighborRecord {
	if strings.Contains(output, CDPDisabledMarker) {
		return nil
	}

	var records []domain.NeighborRecord
	for _, line := range strings.Split(output, "\n") {
		m := neighborPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		records = append(records, domain.NeighborRecord{
			DeviceID:        m[neighborPattern.SubexpIndex("device")],
			LocalInterface:  m[neighborPattern.SubexpIndex("local")],
			RemoteInterface: m[neighborPattern.SubexpIndex("remote")],
		})
	}
	return records
}
