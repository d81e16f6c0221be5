// Package cli implements the interactive command-line client.
//
// After start-up the user is dropped into a REPL:
//
//	register    create an account (name, email, password)
//	login       sign in and keep the session token in memory
//	dashboard   fetch the protected dashboard with the current token
//	logout      forget the token
//	help        list commands
//	exit, quit  leave
//
// Passwords are read without echo and wiped after use. Logging out is
// purely local: the server keeps no session state, so a token stays valid
// until it expires.
package cli
