package parcel

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for codec lifecycle events.
var (
	SignalDumpsStart          = capitan.NewSignal("parcel.dumps.start", "Dumps operation beginning")
	SignalDumpsComplete       = capitan.NewSignal("parcel.dumps.complete", "Dumps operation finished")
	SignalLoadsStart          = capitan.NewSignal("parcel.loads.start", "Loads operation beginning")
	SignalLoadsComplete       = capitan.NewSignal("parcel.loads.complete", "Loads operation finished")
	SignalNamespaceRegistered = capitan.NewSignal("parcel.namespace.registered", "Namespace added to registry")
	SignalInternTableWrapped  = capitan.NewSignal("parcel.intern.wrapped", "Message wrapped with an intern table")
)

// Keys for typed event data.
var (
	KeyNamespace  = capitan.NewStringKey("namespace")
	KeySize       = capitan.NewIntKey("size")
	KeyEntryCount = capitan.NewIntKey("entry_count")
	KeyDuration   = capitan.NewDurationKey("duration")
	KeyError      = capitan.NewErrorKey("error")
)

// emitDumpsStart emits an event when Dumps begins.
func emitDumpsStart() {
	capitan.Emit(context.Background(), SignalDumpsStart)
}

// emitDumpsComplete emits an event when Dumps finishes.
func emitDumpsComplete(size int, duration time.Duration, err error) {
	ctx := context.Background()
	fields := []capitan.Field{
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalDumpsComplete, fields...)
		return
	}
	capitan.Emit(ctx, SignalDumpsComplete, fields...)
}

// emitLoadsStart emits an event when Loads begins.
func emitLoadsStart(size int) {
	capitan.Emit(context.Background(), SignalLoadsStart, KeySize.Field(size))
}

// emitLoadsComplete emits an event when Loads finishes.
func emitLoadsComplete(duration time.Duration, err error) {
	ctx := context.Background()
	fields := []capitan.Field{KeyDuration.Field(duration)}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalLoadsComplete, fields...)
		return
	}
	capitan.Emit(ctx, SignalLoadsComplete, fields...)
}

// emitNamespaceRegistered emits an event when a namespace is added to a registry.
func emitNamespaceRegistered(namespace string) {
	capitan.Emit(context.Background(), SignalNamespaceRegistered, KeyNamespace.Field(namespace))
}

// emitInternTableWrapped emits an event when a message is wrapped with intern entries.
func emitInternTableWrapped(entryCount int) {
	capitan.Emit(context.Background(), SignalInternTableWrapped, KeyEntryCount.Field(entryCount))
}
