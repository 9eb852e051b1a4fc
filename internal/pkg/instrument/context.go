package instrument

import "context"

type (
	correlationIDKey struct{}
	clientIPKey      struct{}
)

// SetCorrelationID stores the request correlation ID in ctx.
func SetCorrelationID(ctx context.Context, cID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, cID)
}

// GetCorrelationID returns the correlation ID stored in ctx or "".
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	cID, _ := ctx.Value(correlationIDKey{}).(string)
	return cID
}

// SetClientIP stores the resolved caller address in ctx. Sign-in and challenge
// logs carry it so repeated failures can be traced to a source.
func SetClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// GetClientIP returns the caller address stored in ctx or "".
func GetClientIP(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
