package gateway

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"GameStore/pkg/apperr"
	"GameStore/pkg/registry"
)

const DefaultTimeout = 5 * time.Second

// hop-by-hop headers are meaningful only for a single connection and are never relayed.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Forwarder makes exactly one downstream call per request and relays the answer.
type Forwarder struct {
	client  *http.Client
	timeout time.Duration
}

// NewForwarder uses transport for outbound calls; nil means http.DefaultTransport.
func NewForwarder(timeout time.Duration, transport http.RoundTripper) *Forwarder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Forwarder{
		client: &http.Client{
			Transport: transport,
			// redirects go back to the caller untouched
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		timeout: timeout,
	}
}

// Outbound describes the downstream call derived from an inbound request.
type Outbound struct {
	Instance registry.Instance
	Path     string
	ClientIP string
}

// TargetURL is http://{address}:{port}{path} plus the inbound query string.
func (o Outbound) TargetURL(rawQuery string) string {
	u := "http://" + o.Instance.HostPort() + o.Path
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	return u
}

// Forward sends r to the instance and writes the downstream status, headers and body
// to w, whatever the status. On failure nothing is written and the returned error is
// GatewayTimeout for a timeout and Internal for anything else.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, out Outbound) error {
	ctx, cancel := context.WithTimeout(r.Context(), f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, r.Method, out.TargetURL(r.URL.RawQuery), r.Body)
	if err != nil {
		return apperr.Internal(err)
	}
	req.ContentLength = r.ContentLength
	req.Header = r.Header.Clone()
	removeHopHeaders(req.Header)

	proto := "http"
	if r.TLS != nil {
		proto = "https"
	}
	if out.ClientIP != "" {
		req.Header.Set("X-Forwarded-For", out.ClientIP)
	}
	req.Header.Set("X-Forwarded-Proto", proto)
	req.Header.Set("X-Forwarded-Host", r.Host)
	req.Header.Set("X-Service-Id", out.Instance.ID)

	resp, err := f.client.Do(req)
	if err != nil {
		return classify(ctx, err)
	}
	defer resp.Body.Close()

	// buffer the whole body so a timeout mid-read never produces a partial response
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(ctx, err)
	}

	header := w.Header()
	for k, vv := range resp.Header {
		for _, v := range vv {
			header.Add(k, v)
		}
	}
	removeHopHeaders(header)
	header.Del("Content-Length")

	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
	return nil
}

func classify(ctx context.Context, err error) error {
	var ne net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &ne) && ne.Timeout()) {
		return apperr.GatewayTimeout("", "Service request timeout").Wrap(err)
	}
	return apperr.New(apperr.KindInternal, "", "Gateway error").Wrap(err)
}

func removeHopHeaders(h http.Header) {
	for _, k := range hopHeaders {
		h.Del(k)
	}
}
