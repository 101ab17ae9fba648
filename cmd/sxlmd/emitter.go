package main

import (
	"log/slog"

	"github.com/rajdeep-singha/sXLM/core/events"
	"github.com/rajdeep-singha/sXLM/core/types"
)

// eventPayload is satisfied by every concrete event type in core/events,
// which all expose Event() *types.Event alongside EventType().
type eventPayload interface {
	Event() *types.Event
}

// logEmitter forwards every module event to structured logging. This repo
// has no RPC/mempool event log to append to, so it adapts the teacher's
// node-level event-forwarding wiring onto the one sink this binary has.
type logEmitter struct {
	logger *slog.Logger
	module string
}

func newLogEmitter(logger *slog.Logger, module string) *logEmitter {
	return &logEmitter{logger: logger, module: module}
}

func (l *logEmitter) Emit(ev events.Event) {
	payload, ok := ev.(eventPayload)
	if !ok {
		l.logger.Warn("unrenderable chain event", "module", l.module, "event", ev.EventType())
		return
	}
	e := payload.Event()
	args := make([]any, 0, 2+2*len(e.Attributes))
	args = append(args, "module", l.module)
	for k, v := range e.Attributes {
		args = append(args, k, v)
	}
	l.logger.Info(e.Type, args...)
}
