package http

import (
	"errors"

	"github.com/abdul-hamid-achik/rorschach/packages/jsonpath"
)

// ErrBodyNotJSON is reported for path lookups against a body that did not
// decode as JSON.
var ErrBodyNotJSON = errors.New("response body is not JSON")

// View is the decoded, read-only form of one response that assertions and
// bind extraction work against.
type View struct {
	Status   int
	Headers  map[string]string
	Raw      []byte
	Redirect string
	Body     jsonpath.Value
	BodyErr  error
}

// NewView decodes resp once. The body is decoded regardless of the declared
// content type; a failed decode is kept as BodyErr.
func NewView(resp *Response) *View {
	v := &View{
		Status:   resp.StatusCode,
		Headers:  resp.Headers,
		Raw:      resp.Body,
		Redirect: resp.Location(),
	}
	body, err := jsonpath.Parse(resp.Body)
	if err != nil {
		v.BodyErr = ErrBodyNotJSON
	} else {
		v.Body = body
	}
	return v
}

// JSON returns the decoded body or ErrBodyNotJSON.
func (v *View) JSON() (jsonpath.Value, error) {
	if v.BodyErr != nil {
		return nil, v.BodyErr
	}
	return v.Body, nil
}

func (v *View) Header(key string) string {
	return (&Response{Headers: v.Headers}).Header(key)
}
