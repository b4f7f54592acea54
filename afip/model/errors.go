package model

import (
	"fmt"
	"strings"
)

// ValidationError marks malformed caller input (credential material,
// receiver document, dates). Never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

// SigningError marks a failed CMS signing attempt. Treated as a
// credential or configuration problem, never retried.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing failed: %v", e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

// TransportError marks an unreachable endpoint, timeout or malformed
// transport response. Retryable by the caller; no automatic retry here.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport: %s returned status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport: %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError marks an unparsable ticket or response envelope: the
// remote contract changed. Raw keeps a payload fragment for diagnosis.
type ProtocolError struct {
	Message string
	Raw     string
}

const protocolRawLimit = 512

// NewProtocolError trims the raw payload to a diagnosable fragment.
func NewProtocolError(message string, raw []byte) *ProtocolError {
	s := string(raw)
	if len(s) > protocolRawLimit {
		s = s[:protocolRawLimit] + "..."
	}
	return &ProtocolError{Message: message, Raw: s}
}

func (e *ProtocolError) Error() string {
	if e.Raw == "" {
		return "protocol: " + e.Message
	}
	return fmt.Sprintf("protocol: %s; payload: %s", e.Message, e.Raw)
}

// SequenceLookupError is a genuine fault from the last-authorized lookup.
// The recovered "no prior voucher" condition never surfaces as this.
type SequenceLookupError struct {
	Details []Observation
}

func (e *SequenceLookupError) Error() string {
	return "sequence lookup failed: " + formatObservations(e.Details)
}

// RemoteError is a structured fault from any other remote operation,
// with the original codes and messages preserved.
type RemoteError struct {
	Operation string
	Details   []Observation
}

func (e *RemoteError) Error() string {
	return e.Operation + ": " + formatObservations(e.Details)
}

// FiscalRejectionError carries a rejected submission with its complete
// observation list: the authoritative reason the invoice was refused.
type FiscalRejectionError struct {
	Result *VoucherResult
}

func (e *FiscalRejectionError) Error() string {
	all := append([]Observation{}, e.Result.Errors...)
	all = append(all, e.Result.Observations...)
	return "voucher rejected: " + formatObservations(all)
}

func formatObservations(obs []Observation) string {
	if len(obs) == 0 {
		return "(no details)"
	}
	parts := make([]string, len(obs))
	for i, o := range obs {
		parts[i] = fmt.Sprintf("%d: %s", o.Code, o.Message)
	}
	return strings.Join(parts, "; ")
}
