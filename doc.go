// Package auth provides credential verification and session tokens for the
// job board API.
//
// Credentials:
//   - BcryptHasher hashes and checks passwords. Hashing is bounded by a
//     weighted semaphore so a burst of logins cannot starve other requests.
//
// Tokens:
//   - TokenService issues HS256 access and refresh tokens signed with two
//     distinct secrets. A token only verifies as the kind it was minted as.
//   - KindValidator binds verification to one kind and an optional
//     TokenDenylist, which is how logout revokes tokens before expiry.
//
// Sessions:
//   - SessionService implements register, login, refresh, logout and the
//     profile operations over a UserStore. Users is the bun backed store.
//
// HTTP:
//   - ProtectedRoute builds the fiber auth gate and RegisterAuthRoutes mounts
//     the JSON endpoints. Gated handlers read the caller with
//     IdentityFromContext.
package auth
