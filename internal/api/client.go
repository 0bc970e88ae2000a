// Package api is the single chokepoint for every request to the book
// shop backend: it attaches bearer credentials, recovers from expired
// access tokens with a one-shot refresh-and-retry, and keeps a
// tag-invalidated cache of query responses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/fjod/go_bookshop/internal/auth"
	"github.com/fjod/go_bookshop/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

// Notifier receives the user-visible side effects of the access layer:
// surfaced 403/404 messages and the session-expired redirect. The UI
// layer decides presentation; a no-signal default logs instead.
type Notifier interface {
	Notify(status int, message string)
	SessionExpired()
}

type logNotifier struct{}

func (logNotifier) Notify(status int, message string) {
	log.Printf("api: request failed (%d): %s", status, message)
}

func (logNotifier) SessionExpired() {
	log.Printf("api: session expired, sign-in required")
}

type Client struct {
	baseURL  string
	http     *http.Client
	session  *auth.Session
	cache    *Cache
	notifier Notifier

	// Concurrent 401s coalesce into a single refresh call; every
	// waiter shares its outcome.
	refresh singleflight.Group

	// breaker guards the transport. Repeated connection failures trip
	// it and subsequent calls fail fast instead of waiting out the
	// client timeout.
	breaker *gobreaker.CircuitBreaker[roundTrip]
}

type roundTrip struct {
	status int
	body   []byte
}

type Option func(*Client)

func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTracing instruments the transport with otelhttp spans.
func WithTracing() Option {
	return func(c *Client) {
		base := c.http.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c.http.Transport = otelhttp.NewTransport(base)
	}
}

// NewClient builds the access layer. The cookie jar holds the http-only
// refresh cookie the backend sets on login; the refresh call relies on
// it instead of the expired bearer token.
func NewClient(baseURL string, session *auth.Session, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		session:  session,
		cache:    NewCache(),
		notifier: logNotifier{},
		breaker: gobreaker.NewCircuitBreaker[roundTrip](gobreaker.Settings{
			Name:    "bookshop-api",
			Timeout: 15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache exposes the response cache for tag subscriptions.
func (c *Client) Cache() *Cache {
	return c.cache
}

func (c *Client) Session() *auth.Session {
	return c.session
}

// request is the static description of one endpoint call. Tag
// declarations are per-endpoint metadata, never computed from response
// content.
type request struct {
	method string
	path   string
	params url.Values
	body   any
	header map[string]string

	provides    []Tag // query: cache the response under these tags
	invalidates []Tag // mutation: mark these tags stale on success
	noCache     bool  // always refetch (profile, payment verify)
	quiet       bool  // suppress 403/404 notifications (payment verify)
}

// do runs the full request pipeline and returns the response envelope.
func (c *Client) do(ctx context.Context, req request) (*domain.Envelope, error) {
	key := cacheKey(req.method, req.path, req.params)
	cacheable := req.method == http.MethodGet && len(req.provides) > 0 && !req.noCache

	if cacheable {
		if body, ok := c.cache.Get(key); ok {
			return decodeEnvelope(body)
		}
	}

	status, body, err := c.send(ctx, req, c.session.Token())
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: genericMessage}
	}

	if status == http.StatusUnauthorized {
		token, refreshErr := c.refreshAccessToken(ctx)
		if refreshErr != nil {
			return nil, &Error{Kind: KindAuthExpired, Status: status, Message: "session expired"}
		}

		// Exactly one retry; its result is final either way.
		status, body, err = c.send(ctx, req, token)
		if err != nil {
			return nil, &Error{Kind: KindNetwork, Message: genericMessage}
		}
		if status == http.StatusUnauthorized {
			return nil, &Error{Kind: KindAuthExpired, Status: status, Message: "session expired"}
		}
	}

	if status >= 400 {
		return nil, c.classify(status, body, req)
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}

	if cacheable {
		c.cache.Set(key, body, req.provides)
	}
	if len(req.invalidates) > 0 {
		c.cache.Invalidate(req.invalidates...)
	}
	return env, nil
}

// send performs one HTTP round trip with the given bearer token ("" for
// anonymous requests).
func (c *Client) send(ctx context.Context, req request, token string) (int, []byte, error) {
	u := c.baseURL + req.path
	if len(req.params) > 0 {
		u += "?" + req.params.Encode()
	}

	var payload io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range req.header {
		httpReq.Header.Set(k, v)
	}

	// Tripping is driven by transport failures only; HTTP error
	// statuses are answers, not outages.
	rt, err := c.breaker.Execute(func() (roundTrip, error) {
		resp, err := c.http.Do(httpReq)
		if err != nil {
			return roundTrip{}, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return roundTrip{}, err
		}
		return roundTrip{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		return 0, nil, err
	}
	return rt.status, rt.body, nil
}

// refreshAccessToken exchanges the refresh cookie for a new access
// token. Concurrent callers share one in-flight call; a definitive
// failure clears the session once and fires the expiry hook.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	v, err, _ := c.refresh.Do("refresh", func() (interface{}, error) {
		token, err := c.callRefresh(ctx)
		if err != nil {
			log.Printf("api: token refresh failed: %v", err)
			c.session.Clear()
			c.notifier.SessionExpired()
			return nil, err
		}
		c.session.SetToken(token)
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) callRefresh(ctx context.Context) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh-token", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build refresh request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("refresh call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read refresh response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("refresh rejected with status %d", resp.StatusCode)
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return "", err
	}
	var data struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.AccessToken == "" {
		return "", errors.New("refresh response carried no access token")
	}
	return data.AccessToken, nil
}

// classify maps a non-2xx response onto the error taxonomy and decides
// whether the failure is surfaced to the notifier.
func (c *Client) classify(status int, body []byte, req request) error {
	message := genericMessage
	if env, err := decodeEnvelope(body); err == nil && env.Message != "" {
		message = env.Message
	}

	if status >= 500 {
		return &Error{Kind: KindServer, Status: status, Message: message}
	}

	if (status == http.StatusForbidden || status == http.StatusNotFound) && !req.quiet {
		c.notifier.Notify(status, message)
	}
	return &Error{Kind: KindClient, Status: status, Message: message}
}

func decodeEnvelope(body []byte) (*domain.Envelope, error) {
	var env domain.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &env, nil
}

// decodeData unmarshals an envelope's data payload into out.
func decodeData(env *domain.Envelope, out any) error {
	if len(env.Data) == 0 {
		return errors.New("response carried no data")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
