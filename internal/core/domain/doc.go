// Package domain defines the core domain models for lexdesk.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - State: the tagged session state variant and its transitions
//   - UserProfile: the authenticated identity returned by the backend
//   - Credentials / Registration: form inputs for login and register
//   - LoginResult / RegisterResult: canonical backend responses
//   - Errors: the session error taxonomy with structured codes
package domain
