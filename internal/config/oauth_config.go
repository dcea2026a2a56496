package config

import (
	"strconv"

	"github.com/jrsteele09/go-nimbu-client/internal/utils"
	"github.com/jrsteele09/go-nimbu-client/transport"
)

const (
	hostEnvVar         = "NIMBU_HOST"
	siteEnvVar         = "NIMBU_SITE"
	clientIDEnvVar     = "NIMBU_CLIENT_ID"
	clientSecretEnvVar = "NIMBU_CLIENT_SECRET"
	nameEnvVar         = "NIMBU_NAME"
	scopeEnvVar        = "NIMBU_SCOPE"
	rememberEnvVar     = "NIMBU_REMEMBER"
)

type OAuthConfig interface {
	GetHost() string
	GetSite() string
	GetClientID() string
	GetClientSecret() string
	GetName() string
	GetScope() []string
	GetRemember() bool
}

type OAuth struct {
	source
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetHost() string {
	return o.get(hostEnvVar, transport.DefaultHost)
}

func (o OAuth) GetSite() string {
	return o.get(siteEnvVar, "")
}

func (o OAuth) GetClientID() string {
	return o.get(clientIDEnvVar, "")
}

func (o OAuth) GetClientSecret() string {
	return o.get(clientSecretEnvVar, "")
}

// GetName distinguishes several token managers sharing one client id.
func (o OAuth) GetName() string {
	return o.get(nameEnvVar, "")
}

// GetScope accepts space or comma separated scopes.
func (o OAuth) GetScope() []string {
	return utils.SplitScope(o.get(scopeEnvVar, ""))
}

// GetRemember controls whether refresh tokens are written to persistent storage.
func (o OAuth) GetRemember() bool {
	remember, err := strconv.ParseBool(o.get(rememberEnvVar, "true"))
	if err != nil {
		return true
	}
	return remember
}

func joinScope(scope []string) string {
	return utils.JoinScope(scope)
}
