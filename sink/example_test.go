package sink

import (
	"time"

	"logevent/event"
	"logevent/publisher"
)

func ExampleConsoleSink() {
	p := publisher.NewPublisher("example")
	s1 := NewConsoleSink(nil, "")
	s2 := NewConsoleSink(nil, "15:04")
	s1.Subscribe(p)
	s2.Subscribe(p)

	ts := time.Date(2021, 3, 14, 15, 9, 26, 0, time.UTC)
	p.Dispatch(event.NewLogEvent("observer mode", ts))
	// Output:
	// 2021-03-14 15:09:26 - observer mode
	// 15:09 - observer mode
}
