// Package server implements the relay: a long-lived HTTP server that lets a phone or a browser
// push data into the running application.
//
// # Routes
//
//	GET  /scan            self-contained upload page for a phone browser
//	POST /upload          multipart body with a "file" field, emitted as scan-received
//	GET  /oauth/callback  OAuth redirect, its code emitted as oauth-code-received
//
// Handlers only talk to the rest of the process through an [events.Emitter]; there is no other
// shared state, so requests are served fully concurrently. Bad requests become 4xx responses and
// never reach the server loop.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [Middleware] wraps handlers
// in reverse order (last added executes first). [BasicRouter] uses [http.ServeMux] internally and
// filters by method.
//
// Custom handlers implement the [Handler] interface, which adds the routes a handler serves so it
// can register itself, as [OAuthCallbackHandler] does.
//
// # Lifecycle
//
// [ManagedServer] binds synchronously so a busy port is reported to the caller, then serves in the
// background with connection-level read, write and idle timeouts. A failure leaves the server
// degraded rather than stopping the process.
package server
