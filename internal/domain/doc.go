// Package domain defines the core types shared by the fleetpoll packages.
//
// # Inventory
//
// DeviceDescriptor identifies a device to poll: management address, SSH port,
// device-family hint and an opaque Credential handle. Descriptors are built
// once, after credentials have been resolved, and are never mutated.
//
// # Jobs and Results
//
// CommandJob pairs a descriptor with a command string. The dispatcher turns
// each job into exactly one RawResult, tagged with an Outcome (success,
// auth-failure, timeout, connect-failure, malformed-prompt). Failed jobs are
// reported, never dropped.
//
// # Facts
//
// CdpNeighborFact and DeviceIdentityFact are derived from RawResult output by
// the parser package. Run records one collector invocation for the fact store.
//
// # Errors
//
// The error taxonomy (ErrConnect, ErrAuth, ErrTimeout, ErrMalformedPrompt,
// ErrIdentityParse, ErrWrite) is expressed as sentinels; typed errors match
// them through errors.Is.
package domain
