package metrics

import (
	gometrics "github.com/rcrowley/go-metrics"
)

const (
	DispatchTotal  = "dispatch_total"
	DispatchFaults = "dispatch_faults"
)

// Registry is the process-wide registry that the publisher and sinks report to.
var Registry = gometrics.NewRegistry()

// SinkLines returns the counter of lines written by the named sink.
func SinkLines(r gometrics.Registry, sinkName string) gometrics.Counter {
	return gometrics.GetOrRegisterCounter("sink_"+sinkName+"_lines", r)
}

// SinkErrors returns the counter of failed writes of the named sink.
func SinkErrors(r gometrics.Registry, sinkName string) gometrics.Counter {
	return gometrics.GetOrRegisterCounter("sink_"+sinkName+"_errors", r)
}

func Dispatches(r gometrics.Registry) gometrics.Counter {
	return gometrics.GetOrRegisterCounter(DispatchTotal, r)
}

func Faults(r gometrics.Registry) gometrics.Counter {
	return gometrics.GetOrRegisterCounter(DispatchFaults, r)
}
