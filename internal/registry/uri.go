package registry

import (
	"net"
	"net/url"
	"strconv"

	"github.com/corpusgate/corpusgate/internal/config"
)

// BuildURI assembles the driver connection URI for a store:
// redis://[user:pass@]host:port/0[?authRealm=...]. The password arrives
// already vault-decrypted; url.UserPassword percent-encodes it.
func BuildURI(cfg config.ConnectionConfig, password string) string {
	u := url.URL{
		Scheme: "redis",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/0",
	}

	switch {
	case password != "":
		u.User = url.UserPassword(cfg.Username, password)
	case cfg.Username != "":
		u.User = url.User(cfg.Username)
	}

	if cfg.AuthRealm != "" {
		q := url.Values{}
		q.Set("authRealm", cfg.AuthRealm)
		u.RawQuery = q.Encode()
	}

	return u.String()
}
