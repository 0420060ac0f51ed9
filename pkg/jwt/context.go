package jwt

import "context"

type tokenKey struct{}

// ContextWithToken guarda el token del operador para reenviarlo al backend.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext devuelve el token guardado o "".
func TokenFromContext(ctx context.Context) string {
	s, _ := ctx.Value(tokenKey{}).(string)
	return s
}
