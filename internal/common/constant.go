// Package common contains shared constants and sentinel errors used across
// gophchat components.
package common

// AuthorizationHeaderName is the HTTP header that carries the bearer
// credential on outbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header value.
const BearerPrefix = "Bearer "

// CredentialKey is the single well-known metadata key holding the access token.
const CredentialKey = "access_token"

// DefaultSessionName is used when a chat session is created without a name.
const DefaultSessionName = "New Chat"
