package progress

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// FuncSink adapts a function to Sink.
type FuncSink func(Event)

func (f FuncSink) OnEvent(evt Event) {
	if f != nil {
		f(evt)
	}
}

// Emit sends evt to s when s is set.
func Emit(s Sink, evt Event) {
	if s != nil {
		s.OnEvent(evt)
	}
}

// EmitQueued reports every file as queued.
func EmitQueued(s Sink, files []string) {
	for _, f := range files {
		Emit(s, Event{File: f, Stage: StageLoad, Status: StatusQueued})
	}
}
