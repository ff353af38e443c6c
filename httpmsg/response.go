package httpmsg

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// StatusText maps the status codes this runtime emits to their reason
// phrase. Anything outside this table falls back to "Unknown".
var StatusText = map[int]string{
	200: "OK",
	201: "Created",
	202: "Accepted",
	204: "No Content",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	500: "Internal Server Error",
	501: "Not Implemented",
	503: "Service Unavailable",
}

// Response is a response under construction by a handler or the static
// file server. Handlers borrow a *Response for the duration of their
// invocation and must not retain it.
type Response struct {
	Status       int
	StatusPhrase string
	Headers      []Header
	Body         []byte
}

// NewResponse creates a Response with the given status and an empty body.
func NewResponse(status int) *Response {
	return &Response{Status: status}
}

// SetHeader sets (overwriting any existing value) a header by
// case-insensitive name.
func (r *Response) SetHeader(name, value string) {
	for i, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			r.Headers[i].Value = value
			return
		}
	}
	r.Headers = append(r.Headers, Header{Name: name, Value: value})
}

// Header returns a header by case-insensitive name.
func (r *Response) Header(name string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// phrase returns the configured status phrase, or the table default, or
// "Unknown".
func (r *Response) phrase() string {
	if r.StatusPhrase != "" {
		return r.StatusPhrase
	}
	if p, ok := StatusText[r.Status]; ok {
		return p
	}
	return "Unknown"
}

// finalize injects the Server and Connection headers (unless the handler
// already set them) and the Content-Length header when the body is
// non-empty, matching spec's required-header invariants.
func (r *Response) finalize(serverIdentity string) {
	if _, ok := r.Header("Server"); !ok {
		r.SetHeader("Server", serverIdentity)
	}
	if _, ok := r.Header("Connection"); !ok {
		r.SetHeader("Connection", "close")
	}
	if len(r.Body) > 0 {
		r.SetHeader("Content-Length", strconv.Itoa(len(r.Body)))
	}
}

// WriteTo serialises the response as "HTTP/1.1 <code> <phrase>\r\n", each
// header as "name: value\r\n", a blank line, then the body. serverIdentity
// names the value of a default Server header when the handler didn't set
// one.
func (r *Response) WriteTo(w io.Writer, serverIdentity string) (int64, error) {
	r.finalize(serverIdentity)

	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", r.Status, r.phrase())
	for _, h := range r.Headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h.Name, h.Value)
	}
	b.WriteString("\r\n")

	n, err := io.WriteString(w, b.String())
	if err != nil {
		return int64(n), err
	}
	if len(r.Body) > 0 {
		m, err := w.Write(r.Body)
		return int64(n + m), err
	}
	return int64(n), nil
}

// Bytes serialises the response into a byte slice, for call sites (tests,
// the reactor's HTTP/1.1 write path) that want the wire bytes directly.
func (r *Response) Bytes(serverIdentity string) []byte {
	var b strings.Builder
	r.WriteTo(&b, serverIdentity)
	return []byte(b.String())
}
