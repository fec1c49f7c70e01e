// Package auth authenticates API requests with HS256 bearer tokens.
//
// The middleware verifies the token, loads the account it names and rejects
// blocked accounts. The resulting Caller is attached to the request's user
// context, where handlers read it with CallerFrom. Token issuance belongs to
// the account service; Sign exists for tooling and tests.
package auth
