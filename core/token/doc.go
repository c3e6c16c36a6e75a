// Package token stores bearer session tokens per audience.
//
// An audience is a named session scope such as "customer" or "admin". Each
// audience has its own key ("session:<audience>:token"), so a customer session
// and an administrative session can coexist in the same store without
// overwriting each other.
//
//	tokens := token.NewStore(kv)
//	_ = tokens.Set(ctx, "admin", "eyJhbGciOi...")
//	tok, ok, err := tokens.Get(ctx, "admin")
//	_ = tokens.Clear(ctx, "admin")
//
// ExpiresAt and Expired inspect the exp claim of JWT-shaped tokens without
// verifying them.
package token
