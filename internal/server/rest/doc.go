// Package rest is the JSON-over-HTTP surface of the server.
//
// Routes:
//
//	POST /signup     register an account
//	POST /signin     verify credentials, receive a session token
//	GET  /dashboard  protected; requires a token in the Authorization header
//	GET  /health     storage reachability
//	GET  /metrics    Prometheus exposition
//
// Every error is answered as {"message": "..."}; validation failures add an
// "errors" object keyed by field name.
package rest
