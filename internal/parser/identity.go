package parser

import (
	"regexp"
	"strings"

	"fleetpoll/internal/domain"
)

// RestrictedBuildSuffix marks an IOS image without payload encryption
const RestrictedBuildSuffix = "npe"

// identityPattern extracts the three required identity fields from
// "show version" output. Required groups: software, version, hardware.
//
// The software line is the first line starting with "Cisco" that names an
// image in parentheses; the hardware line is the last line starting with
// "Cisco" that mentions the processor.
var identityPattern = regexp.MustCompile(
	`(?ms)^Cisco [^\n]*? Software \((?P<software>[^)\s]+)\), Version (?P<version>[^,\s]+),` +
		`.*^Cisco (?P<hardware>\S+) [^\n]*processor`,
)

// Field probes used only to report which part was missing
var (
	softwareProbe = regexp.MustCompile(`(?m)^Cisco [^\n]*? Software \([^)\s]+\)`)
	versionProbe  = regexp.MustCompile(`\), Version [^,\s]+,`)
	hardwareProbe = regexp.MustCompile(`(?m)^Cisco \S+ [^\n]*processor`)
)

// Identity classifies a device from its "show version" output. All three
// fields must be present; a partially populated fact is never returned.
func Identity(device, output string) (domain.DeviceIdentityFact, error) {
	m := identityPattern.FindStringSubmatch(output)
	if m == nil {
		return domain.DeviceIdentityFact{}, &domain.IdentityParseError{Missing: missingIdentityFields(output)}
	}

	software := m[identityPattern.SubexpIndex("software")]
	return domain.DeviceIdentityFact{
		Device:     device,
		Software:   software,
		Version:    m[identityPattern.SubexpIndex("version")],
		Hardware:   m[identityPattern.SubexpIndex("hardware")],
		Encryption: ClassifyEncryption(software),
	}, nil
}

// ClassifyEncryption derives the encryption class from the image name.
// The suffix check is case-sensitive.
func ClassifyEncryption(software string) domain.EncryptionClass {
	if strings.HasSuffix(software, RestrictedBuildSuffix) {
		return domain.EncryptionExportRestricted
	}
	return domain.EncryptionExportUnrestricted
}

func missingIdentityFields(output string) []string {
	var missing []string
	if !softwareProbe.MatchString(output) {
		missing = append(missing, "software")
	}
	if !versionProbe.MatchString(output) {
		missing = append(missing, "version")
	}
	if !hardwareProbe.MatchString(output) {
		missing = append(missing, "hardware")
	}
	return missing
}
