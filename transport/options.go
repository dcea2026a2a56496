package transport

import "net/http"

// Version is the library version advertised in the default user agent.
const Version = "0.1.0"

const (
	DefaultHost = "https://api.nimbu.io"

	HeaderClientVersion = "X-Nimbu-Client-Version"
	HeaderSite          = "X-Nimbu-Site"
	HeaderSessionToken  = "X-Nimbu-Session-Token"
	HeaderRequestID     = "X-Request-Id"

	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// Method is an HTTP verb supported by the API.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodPatch  Method = http.MethodPatch
	MethodDelete Method = http.MethodDelete
)

// Options are the per-request settings merged over the defaults.
// Empty fields mean "not set".
type Options struct {
	Host          string
	UserAgent     string
	ClientVersion string
	Token         string // bearer token
	SessionToken  string // customer session token
	Site          string // target site id or subdomain
	ContentType   string // overrides the JSON default when a body is sent
}

func DefaultOptions() Options {
	return Options{
		Host:          DefaultHost,
		UserAgent:     "nimbu-go-api/" + Version,
		ClientVersion: "nimbu-go-api/" + Version,
	}
}

// Merge returns o with every non-empty field of override applied on top.
func (o Options) Merge(override Options) Options {
	if override.Host != "" {
		o.Host = override.Host
	}
	if override.UserAgent != "" {
		o.UserAgent = override.UserAgent
	}
	if override.ClientVersion != "" {
		o.ClientVersion = override.ClientVersion
	}
	if override.Token != "" {
		o.Token = override.Token
	}
	if override.SessionToken != "" {
		o.SessionToken = override.SessionToken
	}
	if override.Site != "" {
		o.Site = override.Site
	}
	if override.ContentType != "" {
		o.ContentType = override.ContentType
	}
	return o
}
