package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-nimbu-client/auth"
	"github.com/jrsteele09/go-nimbu-client/client"
	"github.com/jrsteele09/go-nimbu-client/storage/memory"
	"github.com/jrsteele09/go-nimbu-client/transport"
)

const testToken = "my token"

type recordedCall struct {
	method transport.Method
	path   string
	opts   transport.Options
	body   string
}

// fakeAPI records every request and answers with a canned response.
type fakeAPI struct {
	mu     sync.Mutex
	calls  []recordedCall
	status int
	body   string
	err    error
}

func newFakeAPI(status int, body string) *fakeAPI {
	return &fakeAPI{status: status, body: body}
}

func (f *fakeAPI) Send(_ context.Context, method transport.Method, path string, opts transport.Options, body io.Reader) (*http.Response, error) {
	call := recordedCall{method: method, path: path, opts: opts}
	if body != nil {
		data, _ := io.ReadAll(body)
		call.body = string(data)
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Status:     fmt.Sprintf("%d %s", f.status, http.StatusText(f.status)),
		Header:     http.Header{"Content-Type": []string{transport.ContentTypeJSON}},
		Body:       io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

func (f *fakeAPI) lastCall(t *testing.T) recordedCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls, "expected at least one request")
	return f.calls[len(f.calls)-1]
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestClient(t *testing.T, api *fakeAPI, opts ...client.Option) *client.Client {
	t.Helper()
	c, err := client.New(api, client.StaticToken(testToken), opts...)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Run("requires a token provider", func(t *testing.T) {
		c, err := client.New(newFakeAPI(http.StatusOK, "{}"), nil)
		require.Error(t, err)
		assert.Nil(t, c)
	})

	t.Run("defaults the sender", func(t *testing.T) {
		c, err := client.New(nil, client.StaticToken(testToken))
		require.NoError(t, err)
		assert.NotNil(t, c)
	})
}

func TestClient_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes the response", func(t *testing.T) {
		api := newFakeAPI(http.StatusOK, `{"id":"mocked"}`)
		c := newTestClient(t, api)

		var out map[string]any
		require.NoError(t, c.Get(ctx, "/", &out))
		assert.Equal(t, "mocked", out["id"])
	})

	t.Run("sends the token, method and path", func(t *testing.T) {
		api := newFakeAPI(http.StatusOK, `{}`)
		c := newTestClient(t, api)

		require.NoError(t, c.Get(ctx, "/channels", nil))

		call := api.lastCall(t)
		assert.Equal(t, transport.MethodGet, call.method)
		assert.Equal(t, "/channels", call.path)
		assert.Equal(t, testToken, call.opts.Token)
		assert.Empty(t, call.body)
	})

	t.Run("passes on the request options", func(t *testing.T) {
		api := newFakeAPI(http.StatusOK, `{}`)
		c := newTestClient(t, api,
			client.WithUserAgent("custom_user_agent"),
			client.WithClientVersion("custom_client_version"),
			client.WithHost("http://api.nimbu.test"),
			client.WithSite("my_site"),
		)

		require.NoError(t, c.Get(ctx, "/", nil))

		call := api.lastCall(t)
		assert.Equal(t, "custom_user_agent", call.opts.UserAgent)
		assert.Equal(t, "custom_client_version", call.opts.ClientVersion)
		assert.Equal(t, "http://api.nimbu.test", call.opts.Host)
		assert.Equal(t, "my_site", call.opts.Site)
	})

	t.Run("request options cannot override the token", func(t *testing.T) {
		api := newFakeAPI(http.StatusOK, `{}`)
		c := newTestClient(t, api, client.WithRequestOptions(transport.Options{
			Token: "other",
			Site:  "from-options",
		}))

		require.NoError(t, c.Get(ctx, "/", nil))

		call := api.lastCall(t)
		assert.Equal(t, testToken, call.opts.Token)
		assert.Equal(t, "from-options", call.opts.Site)
	})

	t.Run("GetAs decodes into the type", func(t *testing.T) {
		api := newFakeAPI(http.StatusOK, `{"id":"c1","email":"jane@example.com","firstname":"Jane"}`)
		c := newTestClient(t, api)

		customer, err := client.GetAs[client.Customer](ctx, c, "/customers/c1")
		require.NoError(t, err)
		assert.Equal(t, "c1", customer.ID)
		assert.Equal(t, "Jane", customer.Firstname)
	})
}

func TestClient_BodyVerbs(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		method transport.Method
		call   func(c *client.Client, out any) error
	}{
		{"post", transport.MethodPost, func(c *client.Client, out any) error {
			return c.Post(ctx, "/", map[string]string{"foo": "bar"}, out)
		}},
		{"put", transport.MethodPut, func(c *client.Client, out any) error {
			return c.Put(ctx, "/", map[string]string{"foo": "bar"}, out)
		}},
		{"patch", transport.MethodPatch, func(c *client.Client, out any) error {
			return c.Patch(ctx, "/", map[string]string{"foo": "bar"}, out)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(http.StatusOK, `{"id":"mocked"}`)
			c := newTestClient(t, api)

			var out map[string]any
			require.NoError(t, tt.call(c, &out))

			call := api.lastCall(t)
			assert.Equal(t, tt.method, call.method)
			assert.JSONEq(t, `{"foo":"bar"}`, call.body)
			assert.Equal(t, "mocked", out["id"])
		})
	}
}

func TestClient_Delete(t *testing.T) {
	api := newFakeAPI(http.StatusNoContent, "")
	c := newTestClient(t, api)

	require.NoError(t, c.Delete(context.Background(), "/customers/c1"))

	call := api.lastCall(t)
	assert.Equal(t, transport.MethodDelete, call.method)
	assert.Equal(t, "/customers/c1", call.path)
	assert.Empty(t, call.body)
}

func TestClient_Do(t *testing.T) {
	ctx := context.Background()

	t.Run("no content skips decoding", func(t *testing.T) {
		api := newFakeAPI(http.StatusNoContent, "")
		c := newTestClient(t, api)

		var out map[string]any
		result, err := c.Do(ctx, transport.MethodDelete, "/x", nil, &out)
		require.NoError(t, err)
		assert.True(t, result.NoContent)
		assert.Equal(t, http.StatusNoContent, result.Status)
		assert.Nil(t, out)
	})

	t.Run("invalid json in a 2xx response is an error", func(t *testing.T) {
		api := newFakeAPI(http.StatusOK, `not json`)
		c := newTestClient(t, api)

		var out map[string]any
		_, err := c.Do(ctx, transport.MethodGet, "/x", nil, &out)
		require.Error(t, err)
		var apiErr *client.APIError
		assert.False(t, errors.As(err, &apiErr))
	})

	t.Run("unprocessable entity carries validation errors", func(t *testing.T) {
		api := newFakeAPI(http.StatusUnprocessableEntity, `{"errors":[{"resource":"Customer","code":"custom","field":"email","message":"email is already taken"}]}`)
		c := newTestClient(t, api)

		_, err := c.Do(ctx, transport.MethodPost, "/customers", map[string]string{"email": "taken@example.com"}, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, client.ErrValidation))

		var apiErr *client.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.True(t, apiErr.IsValidation())
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
		assert.Equal(t, []client.EntityError{{
			Resource: "Customer",
			Code:     "custom",
			Field:    "email",
			Message:  "email is already taken",
		}}, apiErr.Errors)
	})

	t.Run("other failures report the status", func(t *testing.T) {
		api := newFakeAPI(http.StatusNotFound, `{"message":"not found"}`)
		c := newTestClient(t, api)

		_, err := c.Do(ctx, transport.MethodGet, "/missing", nil, nil)
		require.Error(t, err)
		assert.EqualError(t, err, "Not Found (404)")
		assert.True(t, errors.Is(err, client.ErrNotFound))
		assert.False(t, errors.Is(err, client.ErrValidation))

		var apiErr *client.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Empty(t, apiErr.Errors)
	})

	t.Run("transport errors propagate", func(t *testing.T) {
		api := newFakeAPI(http.StatusOK, "")
		api.err = errors.New("connection refused")
		c := newTestClient(t, api)

		_, err := c.Do(ctx, transport.MethodGet, "/x", nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestClient_Unauthenticated(t *testing.T) {
	ctx := context.Background()

	t.Run("empty token fails before any request", func(t *testing.T) {
		api := newFakeAPI(http.StatusOK, `{}`)
		c, err := client.New(api, client.StaticToken(""))
		require.NoError(t, err)

		err = c.Get(ctx, "/", nil)
		assert.ErrorIs(t, err, client.ErrUnauthenticated)
		assert.Zero(t, api.callCount())
	})

	t.Run("manager without credentials fails before any request", func(t *testing.T) {
		manager, err := auth.NewManager("client-id", auth.WithSender(newFakeAPI(http.StatusOK, `{}`)))
		require.NoError(t, err)

		api := newFakeAPI(http.StatusOK, `{}`)
		c, err := client.New(api, manager)
		require.NoError(t, err)

		err = c.Get(ctx, "/", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNoRefreshToken)
		assert.Zero(t, api.callCount())
	})
}

func TestClient_CustomerSession(t *testing.T) {
	ctx := context.Background()

	t.Run("login stores the session token", func(t *testing.T) {
		api := newFakeAPI(http.StatusOK, `{"id":"c1","email":"jane@example.com","session_token":"session-1","favourite_colour":"green"}`)
		c := newTestClient(t, api)

		customer, err := c.Login(ctx, "jane@example.com", "secret")
		require.NoError(t, err)
		assert.Equal(t, "session-1", customer.SessionToken)
		assert.Equal(t, "green", customer.CustomFields["favourite_colour"])
		assert.Equal(t, "session-1", c.SessionToken())

		call := api.lastCall(t)
		assert.Equal(t, transport.MethodPost, call.method)
		assert.Equal(t, "/customers/login", call.path)
		assert.JSONEq(t, `{"username":"jane@example.com","password":"secret"}`, call.body)

		require.NoError(t, c.Get(ctx, "/orders", nil))
		assert.Equal(t, "session-1", api.lastCall(t).opts.SessionToken)
	})

	t.Run("logout clears the session token", func(t *testing.T) {
		api := newFakeAPI(http.StatusOK, `{"id":"c1","session_token":"session-1"}`)
		c := newTestClient(t, api)

		_, err := c.Login(ctx, "jane@example.com", "secret")
		require.NoError(t, err)
		c.Logout()

		assert.Empty(t, c.SessionToken())
		require.NoError(t, c.Get(ctx, "/orders", nil))
		assert.Empty(t, api.lastCall(t).opts.SessionToken)
	})

	t.Run("validate session keeps a valid token", func(t *testing.T) {
		api := newFakeAPI(http.StatusOK, `{"id":"c1","email":"jane@example.com","created_at":"2020-05-08T12:25:04.021Z"}`)
		c := newTestClient(t, api)

		customer, err := c.ValidateSession(ctx, "session-1")
		require.NoError(t, err)
		require.NotNil(t, customer)
		assert.Equal(t, "jane@example.com", customer.Email)
		assert.Equal(t, time.Date(2020, 5, 8, 12, 25, 4, 21000000, time.UTC), customer.CreatedAt.UTC())
		assert.Equal(t, "session-1", c.SessionToken())

		call := api.lastCall(t)
		assert.Equal(t, "/customers/me", call.path)
		assert.Equal(t, "session-1", call.opts.SessionToken)
	})

	t.Run("validate session with an expired token", func(t *testing.T) {
		api := newFakeAPI(http.StatusUnauthorized, `{"message":"unauthorized"}`)
		c := newTestClient(t, api)

		customer, err := c.ValidateSession(ctx, "expired")
		require.NoError(t, err)
		assert.Nil(t, customer)
		assert.Empty(t, c.SessionToken())
	})

	t.Run("validate session with a server error", func(t *testing.T) {
		api := newFakeAPI(http.StatusInternalServerError, ``)
		c := newTestClient(t, api)

		customer, err := c.ValidateSession(ctx, "session-1")
		require.Error(t, err)
		assert.Nil(t, customer)
		assert.EqualError(t, err, "Internal Server Error (500)")
		assert.Empty(t, c.SessionToken())
	})

	t.Run("request password reset", func(t *testing.T) {
		api := newFakeAPI(http.StatusNoContent, "")
		c := newTestClient(t, api)

		require.NoError(t, c.RequestPasswordReset(ctx, "jane@example.com"))

		call := api.lastCall(t)
		assert.Equal(t, "/customers/password/reset", call.path)
		assert.JSONEq(t, `{"email":"jane@example.com"}`, call.body)
	})

	t.Run("me", func(t *testing.T) {
		api := newFakeAPI(http.StatusOK, `{"id":"c1","name":"Jane Doe","verified_email":true}`)
		c := newTestClient(t, api)

		customer, err := c.Me(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", customer.Name)
		require.NotNil(t, customer.VerifiedEmail)
		assert.True(t, *customer.VerifiedEmail)
		assert.Nil(t, customer.CustomFields)
	})
}

func TestCustomer_MarshalKeepsCustomFields(t *testing.T) {
	customer := client.Customer{
		Email:        "jane@example.com",
		CustomFields: map[string]any{"favourite_colour": "green"},
	}
	customer.ID = "c1"

	data, err := json.Marshal(customer)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "c1", decoded["id"])
	assert.Equal(t, "jane@example.com", decoded["email"])
	assert.Equal(t, "green", decoded["favourite_colour"])
}

// TestClient_WithManager runs the full stack against a test server: the
// manager obtains a token through the password grant, the client uses it.
func TestClient_WithManager(t *testing.T) {
	var grants int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/tokens":
			grants++
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "password", r.PostForm.Get("grant_type"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"server-token","expires_in":1800,"refresh_token":"server-refresh"}`))
		case "/channels":
			assert.Equal(t, "server-token", r.Header.Get("Authorization"))
			assert.Equal(t, "my_site", r.Header.Get(transport.HeaderSite))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":"ch1"},{"id":"ch2"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	manager, err := auth.NewManager("client-id",
		auth.WithRequestOptions(transport.Options{Host: server.URL}),
		auth.WithSessionStorage(memory.New()),
	)
	require.NoError(t, err)

	ok, err := manager.Login(ctx, "jane", "secret", false)
	require.NoError(t, err)
	require.True(t, ok)

	c, err := client.New(nil, manager, client.WithHost(server.URL), client.WithSite("my_site"))
	require.NoError(t, err)

	channels, err := client.GetAs[[]map[string]any](ctx, c, "/channels")
	require.NoError(t, err)
	assert.Len(t, channels, 2)

	_, err = client.GetAs[[]map[string]any](ctx, c, "/channels")
	require.NoError(t, err)
	assert.Equal(t, 1, grants)
}
