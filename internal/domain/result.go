package domain

import "time"

// Outcome tags how a single job ended
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeAuthFailure     Outcome = "auth-failure"
	OutcomeTimeout         Outcome = "timeout"
	OutcomeConnectFailure  Outcome = "connect-failure"
	OutcomeMalformedPrompt Outcome = "malformed-prompt" // connected, but the prompt held no hostname
)

// RawResult is the unparsed product of one CommandJob. Exactly one is
// produced per job, including failed ones.
type RawResult struct {
	Device  DeviceDescriptor `json:"device"`
	Command string           `json:"command"`

	// Output is the command reply with the echo and trailing prompt removed.
	// Empty unless the command was sent.
	Output string `json:"output,omitempty"`

	// Hostname is resolved from the device prompt, empty when unknown
	Hostname string `json:"hostname,omitempty"`

	Outcome  Outcome       `json:"outcome"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether the job completed and the hostname is known
func (r RawResult) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// Identity returns the resolved hostname, falling back to the inventory
// label for jobs that never reached a prompt.
func (r RawResult) Identity() string {
	if r.Hostname != "" {
		return r.Hostname
	}
	return r.Device.Label()
}
