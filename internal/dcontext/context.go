package dcontext

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"runtime"
	"time"
)

// Background returns a non-nil, empty root context. Kept as its own
// function, rather than a direct alias for context.Background, so every
// call site in this tree goes through one import.
func Background() context.Context {
	return context.Background()
}

type versionKey struct{}

func (versionKey) String() string { return "version" }

// WithVersion attaches the running binary's version to ctx, so it shows up
// on every log line derived from it.
func WithVersion(ctx context.Context, version string) context.Context {
	ctx = context.WithValue(ctx, versionKey{}, version)
	return WithLogger(ctx, GetLogger(ctx, versionKey{}))
}

// GetVersion returns the version WithVersion attached, or "".
func GetVersion(ctx context.Context) string {
	return GetStringValue(ctx, versionKey{})
}

const traceIDKey = "trace.id"

// WithTrace allocates a trace id for the call site one frame up from here
// and binds it, along with the caller's file/line/function and a start
// timestamp, into the returned context. The returned func logs its
// argument along with the elapsed time when called -- call it when the
// traced operation finishes.
func WithTrace(ctx context.Context) (context.Context, func(format string, a ...any)) {
	if ctx == nil {
		ctx = Background()
	}

	pc, file, line, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)

	parentID := ctx.Value(traceIDKey)
	start := time.Now()

	ctx = context.WithValue(ctx, traceIDKey, generateTraceID())
	ctx = context.WithValue(ctx, "trace.file", file)
	ctx = context.WithValue(ctx, "trace.line", line)
	ctx = context.WithValue(ctx, "trace.start", start)
	if fn != nil {
		ctx = context.WithValue(ctx, "trace.func", fn.Name())
	}
	if parentID != nil {
		ctx = context.WithValue(ctx, "trace.parent.id", parentID)
	}

	logger := GetLogger(ctx, "trace.id", "trace.file", "trace.line", "trace.func", "trace.parent.id")
	ctx = WithLogger(ctx, logger)

	return ctx, func(format string, a ...any) {
		logger.Infof(format+" (trace duration: %v)", append(a, time.Since(start))...)
	}
}

func generateTraceID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))
	}
	return hex.EncodeToString(b)
}
