package database

import (
	"net"
	"net/url"
	"strconv"

	"github.com/rickgao/gift-heatmap/internal/config"
)

// ApplicationName tags heatmap sessions in pg_stat_activity.
const ApplicationName = "gift-heatmap"

// BuildConnString builds the URL form of a market database connection.
// Credentials are encoded as userinfo, so spaces and '+' survive intact.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("application_name", ApplicationName)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}
