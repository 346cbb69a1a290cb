package tor

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// checkProxyTimeout bounds the SOCKS5 handshake performed by CheckConnection.
const checkProxyTimeout = 5 * time.Second

// maxRedirects is the number of redirects followed before the last response is returned.
const maxRedirects = 10

// SOCKS5 protocol constants (RFC 1928, RFC 1929).
const (
	socks5Version       = 0x05
	socks5AuthNone      = 0x00
	socks5AuthPassword  = 0x02
	socks5AuthNoAccept  = 0xFF
	socks5CmdConnect    = 0x01
	socks5AddrTypeDomID = 0x03
	socks5PassVersion   = 0x01

	// socks5ProbeOnion is a syntactically valid but unused address. The
	// proxy only has to answer the CONNECT request, not complete it.
	socks5ProbeOnion = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.onion"
)

// Client routes connections through a Tor SOCKS5 proxy.
type Client struct {
	// proxyAddress is the proxy in "host:port" form.
	proxyAddress string

	// auth is sent to the proxy when set. Tor isolates circuits per credential.
	auth *proxy.Auth

	dialer  proxy.Dialer
	timeout time.Duration
}

// ParseProxy splits a proxy specification into its address and optional
// credentials. Accepted forms are "host:port" and
// "socks5://[user[:password]@]host:port" (socks5h is accepted as an alias).
func ParseProxy(spec string) (string, *proxy.Auth, error) {
	spec = strings.TrimSpace(spec)
	if !strings.Contains(spec, "://") {
		if !isValidHostPort(spec) {
			return "", nil, ErrInvalidProxyAddress
		}
		return spec, nil, nil
	}

	// The parse error would echo the credentials.
	u, err := url.Parse(spec)
	if err != nil {
		return "", nil, ErrInvalidProxyAddress
	}
	if u.Scheme != "socks5" && u.Scheme != "socks5h" {
		return "", nil, ErrInvalidProxyAddress
	}
	if !isValidHostPort(u.Host) || (u.Path != "" && u.Path != "/") {
		return "", nil, ErrInvalidProxyAddress
	}

	var auth *proxy.Auth
	if u.User != nil {
		password, _ := u.User.Password()
		auth = &proxy.Auth{User: u.User.Username(), Password: password}
	}
	return u.Host, auth, nil
}

func isValidHostPort(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// NewClient creates a Client for the given proxy. timeout is applied to HTTP
// clients made by NewHTTPClient; zero leaves request timeouts to the caller.
// The proxy is not contacted; call CheckConnection for that.
func NewClient(proxySpec string, timeout time.Duration) (*Client, error) {
	addr, auth, err := ParseProxy(proxySpec)
	if err != nil {
		return nil, err
	}

	dialer, err := proxy.SOCKS5("tcp", addr, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	return &Client{
		proxyAddress: addr,
		auth:         auth,
		dialer:       dialer,
		timeout:      timeout,
	}, nil
}

// ProxyAddress returns the proxy address in "host:port" form, without credentials.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// CheckConnection performs a SOCKS5 handshake and a CONNECT probe against
// the proxy. Any CONNECT reply, including "host unreachable", proves the
// proxy is forwarding requests.
func (c *Client) CheckConnection(ctx context.Context) ProxyStatus {
	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.proxyAddress)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return ProxyStatusCannotConnect
	}

	if status := c.negotiate(conn); status != ProxyStatusOK {
		return status
	}
	return probeConnect(conn)
}

// Check is CheckConnection returning an error that names the proxy.
func (c *Client) Check(ctx context.Context) error {
	if err := c.CheckConnection(ctx).Error(); err != nil {
		return fmt.Errorf("%w (%s)", err, c.proxyAddress)
	}
	return nil
}

// negotiate runs the method selection and, when requested by the proxy,
// username/password authentication.
func (c *Client) negotiate(conn net.Conn) ProxyStatus {
	greeting := []byte{socks5Version, 0x01, socks5AuthNone}
	if c.auth != nil {
		greeting = []byte{socks5Version, 0x02, socks5AuthNone, socks5AuthPassword}
	}
	if _, err := conn.Write(greeting); err != nil {
		return ProxyStatusCannotConnect
	}

	resp := make([]byte, 2)
	if _, err := io.ReadFull(conn, resp); err != nil {
		return readFailure(err)
	}
	if resp[0] != socks5Version {
		return ProxyStatusWrongType
	}

	switch resp[1] {
	case socks5AuthNone:
		return ProxyStatusOK
	case socks5AuthPassword:
		if c.auth == nil {
			return ProxyStatusWrongType
		}
		return c.authenticate(conn)
	default:
		return ProxyStatusWrongType
	}
}

func (c *Client) authenticate(conn net.Conn) ProxyStatus {
	user, pass := c.auth.User, c.auth.Password
	if len(user) > 255 || len(pass) > 255 {
		return ProxyStatusAuthFailed
	}

	req := make([]byte, 0, 3+len(user)+len(pass))
	req = append(req, socks5PassVersion, byte(len(user)))
	req = append(req, user...)
	req = append(req, byte(len(pass)))
	req = append(req, pass...)
	if _, err := conn.Write(req); err != nil {
		return ProxyStatusCannotConnect
	}

	resp := make([]byte, 2)
	if _, err := io.ReadFull(conn, resp); err != nil {
		return readFailure(err)
	}
	if resp[0] != socks5PassVersion {
		return ProxyStatusWrongType
	}
	if resp[1] != 0x00 {
		return ProxyStatusAuthFailed
	}
	return ProxyStatusOK
}

func probeConnect(conn net.Conn) ProxyStatus {
	const port = 80
	req := []byte{socks5Version, socks5CmdConnect, 0x00, socks5AddrTypeDomID, byte(len(socks5ProbeOnion))}
	req = append(req, socks5ProbeOnion...)
	req = append(req, byte(port>>8), byte(port&0xFF))
	if _, err := conn.Write(req); err != nil {
		return ProxyStatusCannotConnect
	}

	// version, reply, reserved, address type
	resp := make([]byte, 4)
	if _, err := io.ReadFull(conn, resp); err != nil {
		return readFailure(err)
	}
	if resp[0] != socks5Version {
		return ProxyStatusWrongType
	}
	return ProxyStatusOK
}

func readFailure(err error) ProxyStatus {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ProxyStatusTimeout
	}
	return ProxyStatusWrongType
}

// NewHTTPClient creates an HTTP client whose connections all go through the proxy.
// Redirects are followed up to ten hops; after that the redirect response
// itself is returned. Certificates are not verified because onion services
// authenticate through their address.
func (c *Client) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: c.dialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // onion services use self-signed certificates
		},
		// Each connection holds a Tor circuit.
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
		DisableCompression:  true,
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	return &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

func (c *Client) dialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := c.dialer.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, addr)
	}

	type dialResult struct {
		conn net.Conn
		err  error
	}
	ch := make(chan dialResult, 1)
	go func() {
		conn, err := c.dialer.Dial(network, addr)
		ch <- dialResult{conn, err}
	}()

	select {
	case r := <-ch:
		return r.conn, r.err
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.conn != nil {
				_ = r.conn.Close() //nolint:errcheck // abandoned dial
			}
		}()
		return nil, ctx.Err()
	}
}
