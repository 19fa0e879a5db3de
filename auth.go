package fieldmap

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
)

type credentialsKey struct{}

// Credentials is the opaque session material an external collaborator attaches to a call.
// Tools never read it; only an Authenticator does.
type Credentials struct {
	Scheme string // e.g. "Bearer"
	Token  string
}

// WithCredentials returns a copy of ctx carrying creds.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

// CredentialsFrom returns the credentials attached to ctx, if any.
func CredentialsFrom(ctx context.Context) (Credentials, bool) {
	creds, ok := ctx.Value(credentialsKey{}).(Credentials)
	return creds, ok
}

// StaticTokenAuthenticator admits calls whose context carries the given token.
// An empty token admits every call.
func StaticTokenAuthenticator(token string) Authenticator {
	return func(ctx context.Context, _ ToolCall) (context.Context, error) {
		if token == "" {
			return ctx, nil
		}
		creds, ok := CredentialsFrom(ctx)
		if !ok || creds.Token == "" {
			return ctx, fmt.Errorf("%w: missing credentials", ErrUnauthorized)
		}
		if subtle.ConstantTimeCompare([]byte(creds.Token), []byte(token)) != 1 {
			return ctx, fmt.Errorf("%w: invalid token", ErrUnauthorized)
		}
		return ctx, nil
	}
}

func (r *Registry) authenticate(ctx context.Context, call ToolCall) (context.Context, error) {
	if r.opts.authenticate == nil {
		return ctx, nil
	}
	authCtx, err := r.opts.authenticate(ctx, call)
	if err != nil {
		if !errors.Is(err, ErrUnauthorized) {
			err = fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return ctx, err
	}
	if authCtx == nil {
		authCtx = ctx
	}
	return authCtx, nil
}
