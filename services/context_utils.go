package services

import "context"

type requestMetaKey struct{}

// RequestMeta describes the HTTP caller for audit records.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// WithRequestMeta returns a context carrying meta for audit logging.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func requestMetaFrom(ctx context.Context) RequestMeta {
	if ctx == nil {
		return RequestMeta{}
	}
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}
	return RequestMeta{}
}

// persistentContext keeps values but drops cancellation, for work that must
// finish after the request has been answered.
func persistentContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
