// Package callback captures a single OAuth authorization code redirected to a loopback port.
//
// A [Listener] binds 127.0.0.1 on the requested port, accepts exactly one connection, reads the
// first request line, answers with the static success page from package pages, and reports the
// `code` query value or one classified error. Accept, read and write race a single deadline; when
// the deadline wins the socket and any accepted connection are closed and the port is released.
//
// Request parsing is deliberately narrow. Only the request target of the first line is examined,
// it is split on '&', and the first `code=` segment wins. The value is returned verbatim, without
// percent-decoding.
package callback
