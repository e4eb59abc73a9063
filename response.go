package wisefetch

import (
	"encoding/json"
	"io"
	"net/http"
)

// Response is the engine-agnostic view of an HTTP response. The body
// accessors drain and close the body, so only one of them may be used per
// response.
type Response struct {
	StatusCode int
	StatusText string
	URL        string
	Header     http.Header
	Body       io.ReadCloser
}

// Bytes reads the whole body and closes it.
func (r *Response) Bytes() ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// Text reads the whole body as a string and closes it.
func (r *Response) Text() (string, error) {
	b, err := r.Bytes()
	return string(b), err
}

// JSON decodes the whole body into v and closes it.
func (r *Response) JSON(v any) error {
	b, err := r.Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// classifyResponse decides whether a dispatched response counts as a
// success. 2xx always succeeds, 3xx succeeds under a manual redirect
// policy, 304 always succeeds, and resolveUnsuccessfulResponse turns every
// status into a success.
func classifyResponse(resp *Response, requestedURL string, opts Options) error {
	if resolve, _ := opts["resolveUnsuccessfulResponse"].(bool); resolve {
		return nil
	}

	maxSuccess := 299
	if stringOpt(opts, "redirect", "follow") == "manual" {
		maxSuccess = 399
	}
	status := resp.StatusCode
	if (status >= 200 && status <= maxSuccess) || status == 304 {
		return nil
	}

	return &ResponseError{
		Response:     resp,
		Method:       stringOpt(opts, "method", "GET"),
		RequestedURL: requestedURL,
	}
}
