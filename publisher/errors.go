package publisher

import (
	"fmt"
	"strings"

	"github.com/pingcap/errors"
)

// FaultPolicy decides what Dispatch does when a handler returns an error.
type FaultPolicy int

const (
	// Abort stops the dispatch at the first failing handler.
	Abort FaultPolicy = iota
	// Continue calls every handler and reports all failures at the end.
	Continue
)

var ErrUnknownPolicy = errors.New("unknown fault policy")

// ParseFaultPolicy parses "abort" or "continue". The empty string means Abort.
func ParseFaultPolicy(s string) (FaultPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return Abort, nil
	case "continue":
		return Continue, nil
	}
	return Abort, errors.Annotatef(ErrUnknownPolicy, "%q", s)
}

func (p FaultPolicy) String() string {
	switch p {
	case Abort:
		return "abort"
	case Continue:
		return "continue"
	}
	return fmt.Sprintf("FaultPolicy(%d)", int(p))
}

// SubscriberFault is one failed handler invocation.
type SubscriberFault struct {
	Index int
	Err   error
}

// DispatchError collects the handler failures of a dispatch under the Continue policy.
type DispatchError struct {
	Faults []SubscriberFault
}

func (e *DispatchError) Error() string {
	msgs := make([]string, 0, len(e.Faults))
	for _, f := range e.Faults {
		msgs = append(msgs, fmt.Sprintf("subscriber #%d: %v", f.Index, f.Err))
	}
	return fmt.Sprintf("%d subscriber(s) failed: %s", len(e.Faults), strings.Join(msgs, "; "))
}
