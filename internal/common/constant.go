package common

// AuthorizationHeaderName is the HTTP header that carries the session token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the optional scheme prefix in front of the token.
const BearerPrefix = "Bearer "
