package server

import (
	"fmt"
	"net/textproto"
	"strconv"
	"strings"
)

// Request holds the parsed head of one HTTP exchange. Header keys are
// canonicalized (Content-Length, Range, ...).
type Request struct {
	Method        string
	Path          string
	Query         string
	Proto         string
	Headers       map[string]string
	ContentLength int64
}

// PathSegments splits the request path on "/" with the leading empty
// segment dropped: "/change/create/x" -> ["change", "create", "x"].
func (r *Request) PathSegments() []string {
	trimmed := strings.TrimPrefix(r.Path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// parseRequest decodes an accumulated request head (request line plus
// header lines, without the terminating blank line).
func parseRequest(head []byte) (*Request, error) {
	lines := strings.Split(string(head), "\r\n")
	if len(lines) == 0 {
		return nil, fmt.Errorf("empty request head")
	}

	fields := strings.Fields(lines[0])
	if len(fields) != 3 {
		return nil, fmt.Errorf("malformed request line %q", lines[0])
	}
	req := &Request{
		Method:  fields[0],
		Proto:   fields[2],
		Headers: make(map[string]string),
	}

	target := fields[1]
	if i := strings.IndexByte(target, '?'); i >= 0 {
		req.Path, req.Query = target[:i], target[i+1:]
	} else {
		req.Path = target
	}
	if !strings.HasPrefix(req.Path, "/") {
		return nil, fmt.Errorf("unsupported request target %q", target)
	}

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		i := strings.IndexByte(line, ':')
		if i < 0 {
			return nil, fmt.Errorf("malformed header line %q", line)
		}
		key := textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(line[:i]))
		req.Headers[key] = strings.TrimSpace(line[i+1:])
	}

	if v, ok := req.Headers["Content-Length"]; ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("malformed Content-Length %q", v)
		}
		req.ContentLength = n
	}
	return req, nil
}
