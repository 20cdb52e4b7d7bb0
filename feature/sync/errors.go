package sync

import "fmt"

// MalformedRecordError rejects an upstream record before fingerprinting,
// typically for a missing identity key or an unrecognized status.
type MalformedRecordError struct {
	// UpstreamID is the record's identity key, possibly empty.
	UpstreamID string

	// Reason describes what made the record unusable.
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.UpstreamID == "" {
		return fmt.Sprintf("malformed record: %s", e.Reason)
	}
	return fmt.Sprintf("malformed record %s: %s", e.UpstreamID, e.Reason)
}

// TransactionError reports that one product's atomic unit of work could
// not commit. The correlation id ties the log line, the run report and
// any operator follow-up together.
type TransactionError struct {
	// UpstreamID identifies the failed product.
	UpstreamID string

	// CorrelationID is a unique id for this failure instance.
	CorrelationID string

	// Err is the underlying cause.
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("product %s failed (correlation %s): %v", e.UpstreamID, e.CorrelationID, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *TransactionError) Unwrap() error {
	return e.Err
}
