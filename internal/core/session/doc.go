// Package session implements the client-side session state machine.
//
// A Manager is the only writer of the token store and of the session
// state. Screens read state through State and Subscribe and act through
// Login, Register and Logout. The request gateway reports authorization
// failures back through HandleAuthorizationFailure.
//
// Operations that talk to the backend run without holding the state lock.
// Each one records the generation it started under; a result arriving after
// a logout (which bumps the generation) is discarded with
// ErrOperationSuperseded and the token it carried is never stored.
package session
