// Package app composes the complaint client.
//
// # Architecture Role
//
// The app package builds the object graph from a loaded configuration and
// owns the two places where several services meet: the dashboard, which
// fetches complaints and statistics concurrently, and the session lifecycle,
// which is where a token obtained by the auth service gets persisted or
// erased. Endpoint logic stays in services/.
//
// # Dependency Direction
//
//	cmd/complaintctl/
//	      │
//	      ▼
//	internal/app/ (composition)
//	      │
//	      ├──► services/{auth,complaints,notifications,users}
//	      │           │
//	      │           └──► internal/httputil ──► internal/session ──► internal/kvstore
//	      │
//	      └──► internal/config, internal/metrics, pkg/logger
//
// # Session Ownership
//
// The auth service never writes the token. SignIn and SignUp persist it
// after a successful call, SignOut erases it whether or not the server
// acknowledged the logout, and the HTTP client erases it on any 401.
package app
