package booking

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"
)

const (
	DefaultAuthURL    = "https://libraryrooms.rhul.ac.uk/or-authenticate.php"
	DefaultReserveURL = "https://libraryrooms.rhul.ac.uk/or-reserve.php"
)

// maxBody caps how much of a response is read; the service answers with
// short HTML fragments.
const maxBody = 1 << 20

// Client talks to the library reservation endpoints. It is safe for
// sequential use by one loop; every attempt gets its own Session.
type Client struct {
	authURL    string
	reserveURL string
	transport  http.RoundTripper
	timeout    time.Duration
}

type Options struct {
	AuthURL    string
	ReserveURL string
	Timeout    time.Duration
	// ProxyURL is an optional socks5://[user:pass@]host:port proxy.
	ProxyURL string
	// Transport overrides the dialing transport; ProxyURL is then ignored.
	Transport http.RoundTripper
}

func NewClient(opts Options) (*Client, error) {
	c := &Client{
		authURL:    opts.AuthURL,
		reserveURL: opts.ReserveURL,
		transport:  opts.Transport,
		timeout:    opts.Timeout,
	}
	if c.authURL == "" {
		c.authURL = DefaultAuthURL
	}
	if c.reserveURL == "" {
		c.reserveURL = DefaultReserveURL
	}
	if c.timeout <= 0 {
		c.timeout = 20 * time.Second
	}
	if c.transport == nil {
		t, err := newTransport(opts.ProxyURL)
		if err != nil {
			return nil, err
		}
		c.transport = t
	}
	return c, nil
}

func newTransport(proxyURL string) (http.RoundTripper, error) {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = dialer.DialContext
	if proxyURL == "" {
		return t, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url: %w", err)
	}
	if u.Scheme != "socks5" {
		return nil, fmt.Errorf("unsupported proxy scheme %q (want socks5)", u.Scheme)
	}
	var auth *proxy.Auth
	if u.User != nil {
		password, _ := u.User.Password()
		auth = &proxy.Auth{User: u.User.Username(), Password: password}
	}
	d, err := proxy.SOCKS5("tcp", u.Host, auth, dialer)
	if err != nil {
		return nil, fmt.Errorf("socks5 dialer: %w", err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("socks5 dialer does not support contexts")
	}
	t.DialContext = cd.DialContext
	return t, nil
}

// StatusError is returned for a non-2xx response. The body of such a
// response is never classified, so an overloaded server reads as a
// connection failure and the attempt is retried.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Session is the cookie context of one attempt.
type Session struct {
	hc *http.Client
	c  *Client
}

// NewSession returns a session with an empty cookie jar.
func (c *Client) NewSession() (*Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &Session{
		hc: &http.Client{Transport: c.transport, Jar: jar, Timeout: c.timeout},
		c:  c,
	}, nil
}

// Authenticate posts the login form and returns the response body.
func (s *Session) Authenticate(ctx context.Context, req Request) (string, error) {
	return s.post(ctx, s.c.authURL, req.LoginBody())
}

// Reserve posts the reservation form and returns the response body.
func (s *Session) Reserve(ctx context.Context, req Request) (string, error) {
	return s.post(ctx, s.c.reserveURL, req.ReserveBody())
}

func (s *Session) post(ctx context.Context, rawURL, form string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := s.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxBody))
		return "", &StatusError{URL: rawURL, Code: res.StatusCode}
	}
	b, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Attempt runs one authenticate+reserve round trip on a fresh session.
// Transport errors and non-2xx statuses are folded into a KindConnection
// outcome.
func (c *Client) Attempt(ctx context.Context, req Request) Outcome {
	s, err := c.NewSession()
	if err != nil {
		return ConnectionFailed(err)
	}

	body, err := s.Authenticate(ctx, req)
	if err != nil {
		return ConnectionFailed(fmt.Errorf("authenticate: %w", err))
	}
	if out, ok := ClassifyLogin(body); !ok {
		return out
	}

	body, err = s.Reserve(ctx, req)
	if err != nil {
		return ConnectionFailed(fmt.Errorf("reserve: %w", err))
	}
	return ClassifyReserve(body)
}
