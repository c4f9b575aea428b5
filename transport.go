package mcsession

import "net/http"

// Transport is an [http.RoundTripper] that implements the manager's caller
// contract for authenticated requests: it obtains a valid access token,
// injects the bearer header, and reports every response status to
// [Manager.HandleAPIError]. A 401 response surfaces as [ErrUnauthorized]
// after the forced logout side effects have run.
type Transport struct {
	Manager *Manager

	// Base is the underlying round tripper. Defaults to
	// [http.DefaultTransport] when nil.
	Base http.RoundTripper
}

// RoundTrip describes the roundtrip operation and its observable behavior.
//
// RoundTrip may return an error when input validation, dependency calls, or security checks fail.
// RoundTrip never mutates the caller's request; headers are set on a clone.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t == nil || t.Manager == nil {
		return nil, ErrManagerNotReady
	}

	accessToken, err := t.Manager.ValidAccessToken(req.Context())
	if err != nil {
		return nil, err
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+accessToken)

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(clone)
	if err != nil {
		return nil, err
	}

	if t.Manager.HandleAPIError(req.Context(), resp.StatusCode) {
		resp.Body.Close()
		return nil, ErrUnauthorized
	}

	return resp, nil
}
