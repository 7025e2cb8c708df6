package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConnect means the device was unreachable at the transport level
	ErrConnect = errors.New("connect failed")
	// ErrAuth means the device rejected the credentials or the enable secret
	ErrAuth = errors.New("authentication failed")
	// ErrTimeout means no reply arrived within the configured bound
	ErrTimeout = errors.New("timed out")
	// ErrMalformedPrompt means the session came up but the prompt held no hostname
	ErrMalformedPrompt = errors.New("malformed prompt")
	// ErrIdentityParse means version output lacked a required field
	ErrIdentityParse = errors.New("identity parse failed")
	// ErrWrite means the archiver could not persist output
	ErrWrite = errors.New("archive write failed")
	// ErrHostnameCollision means two devices in one run answered with the
	// same prompt hostname
	ErrHostnameCollision = errors.New("hostname collision")
)

// MalformedPromptError carries the prompt that could not be parsed
type MalformedPromptError struct {
	Prompt string
}

func (e *MalformedPromptError) Error() string {
	return fmt.Sprintf("malformed prompt %q: no '#' or '>' delimiter", e.Prompt)
}

// Is lets errors.Is match ErrMalformedPrompt
func (e *MalformedPromptError) Is(target error) bool {
	return target == ErrMalformedPrompt
}

// IdentityParseError lists the required identity fields that were missing
type IdentityParseError struct {
	Missing []string
}

func (e *IdentityParseError) Error() string {
	if len(e.Missing) == 0 {
		return "identity parse failed: version output did not match"
	}
	return fmt.Sprintf("identity parse failed: missing %s", strings.Join(e.Missing, ", "))
}

// Is lets errors.Is match ErrIdentityParse
func (e *IdentityParseError) Is(target error) bool {
	return target == ErrIdentityParse
}

// OutcomeFor maps a session error to the outcome recorded in a RawResult.
// Anything not recognised counts as a transport failure.
func OutcomeFor(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrAuth):
		return OutcomeAuthFailure
	case errors.Is(err, ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, ErrMalformedPrompt):
		return OutcomeMalformedPrompt
	default:
		return OutcomeConnectFailure
	}
}
