// Package pages holds the static HTML served by the callback listener and the relay server.
//
// Pages take no runtime parameters. Both are always served with status 200 and a text/html content type.
package pages

import (
	_ "embed"
	"fmt"
	"net/http"
	"strconv"
)

//go:embed html/success.html
var success []byte

//go:embed html/scan.html
var scan []byte

// ContentType is sent with every page.
const ContentType = "text/html; charset=utf-8"

// Success returns the authentication success page.
func Success() []byte { return success }

// Scan returns the phone upload page. Its script talks to /upload with a multipart POST and
// decides between success and error states from the response status alone.
func Scan() []byte { return scan }

// WriteHTML writes body with a 200 status through w.
func WriteHTML(w http.ResponseWriter, body []byte) error {
	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(body)
	return err
}

// RawResponse assembles a complete HTTP/1.1 200 response carrying body, for writers that
// sit directly on a connection rather than behind net/http.
func RawResponse(body []byte) []byte {
	head := fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Type: %s\r\nContent-Length: %d\r\nConnection: close\r\n\r\n", ContentType, len(body))
	return append([]byte(head), body...)
}
