package dcontext

import "context"

type remoteHostKey struct{}

func (remoteHostKey) String() string { return "remoteHost" }

// WithRemoteHost attaches the address of the peer making a request to ctx,
// so handlers further down the call chain can log it without threading an
// *http.Request through.
func WithRemoteHost(ctx context.Context, host string) context.Context {
	return context.WithValue(ctx, remoteHostKey{}, host)
}

// GetRemoteHost returns the address WithRemoteHost attached, or "".
func GetRemoteHost(ctx context.Context) string {
	return GetStringValue(ctx, remoteHostKey{})
}

// GetStringValue returns ctx's value at key as a string, or "" if it is
// absent or not a string.
func GetStringValue(ctx context.Context, key any) string {
	v, _ := ctx.Value(key).(string)
	return v
}
