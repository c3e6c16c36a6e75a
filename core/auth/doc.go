// Package auth sequences sign-in, sign-out and session restore for one
// audience.
//
// Login posts the credentials, turns embedded backend messages such as
// "Incorrect password" into a *CredentialError, stores the issued token, asks
// the backend who the user is and applies the audience's role gate. When the
// gate fails the session is ended before the *RoleMismatchError is returned,
// so a rejected account never keeps a live session. Wrong credentials leave
// an existing session as it was:
//
//	admin := auth.New(api, tokens, monitor,
//		auth.WithAudience("admin"),
//		auth.WithRequiredRole(auth.RoleAdmin),
//	)
//
//	user, err := admin.Login(ctx, auth.Credentials{Identifier: "admin@mlc.com", Password: pw})
//	if err != nil {
//		show(auth.UserMessage(err))
//		return
//	}
//
// A successful login arms the idle monitor with Logout as its expiry
// callback. RestoreSession runs once at start-up and either rebuilds the
// signed-in user from the stored token or logs out; Logout can be called any
// number of times.
//
// Backend user payloads are loosely shaped; NormalizeUser documents the
// field precedence used to build a User from them.
package auth
