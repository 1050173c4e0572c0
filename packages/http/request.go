package http

import (
	"net/url"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/rorschach/packages/core/parser"
)

type Header struct {
	Key   string
	Value string
}

type Request struct {
	Method      string
	URL         string
	Headers     []Header
	QueryParams []Header
	Body        string
	Timeout     time.Duration
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method: method,
		URL:    requestURL,
	}
}

// SetHeader replaces any header with the same key, ignoring case.
func (r *Request) SetHeader(key, value string) *Request {
	for i, h := range r.Headers {
		if strings.EqualFold(h.Key, key) {
			r.Headers[i].Value = value
			return r
		}
	}
	r.Headers = append(r.Headers, Header{Key: key, Value: value})
	return r
}

func (r *Request) Header(key string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Key, key) {
			return h.Value
		}
	}
	return ""
}

func (r *Request) SetBody(body string) *Request {
	r.Body = body
	return r
}

func (r *Request) SetTimeout(d time.Duration) *Request {
	r.Timeout = d
	return r
}

func (r *Request) AddQueryParam(key, value string) *Request {
	r.QueryParams = append(r.QueryParams, Header{Key: key, Value: value})
	return r
}

// BuildURL appends the query parameters to URL, keeping any query already
// present.
func (r *Request) BuildURL() string {
	if len(r.QueryParams) == 0 {
		return r.URL
	}

	u, err := url.Parse(r.URL)
	if err != nil {
		return r.URL
	}

	q := u.Query()
	for _, p := range r.QueryParams {
		q.Add(p.Key, p.Value)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// BuildRequest turns a compiled request spec into a Request, applying the
// file defaults. Request headers win over file headers.
func BuildRequest(file *parser.TestFile, spec *parser.RequestSpec) *Request {
	var baseURL string
	if file != nil {
		baseURL = file.BaseURL
	}
	r := NewRequest(spec.Method, JoinURL(baseURL, spec.URL))

	if file != nil {
		for _, h := range file.Headers {
			r.SetHeader(h.Key, h.Value)
		}
	}
	for _, h := range spec.Headers {
		r.SetHeader(h.Key, h.Value)
	}
	for _, q := range spec.Query {
		r.AddQueryParam(q.Key, q.Value)
	}

	if spec.Body != nil {
		r.SetBody(spec.Body.Raw)
		if spec.Body.ContentType == parser.BodyJSON && r.Header("Content-Type") == "" {
			r.SetHeader("Content-Type", "application/json")
		}
	}

	return r
}

// JoinURL resolves target against base unless target is already absolute.
func JoinURL(base, target string) string {
	if base == "" || strings.Contains(target, "://") {
		return target
	}
	if target == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(target, "/")
}
