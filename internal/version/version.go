// Package version carries the heatmap build stamp. It is logged when
// heatmapd and the heatmap CLI start and sent as the User-Agent to the
// image host and the delivery endpoint.
//
// Release builds stamp it with ldflags:
//
//	go build -ldflags "-X github.com/rickgao/gift-heatmap/internal/version.Version=1.0.0 \
//	                   -X github.com/rickgao/gift-heatmap/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/rickgao/gift-heatmap/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	         ./cmd/heatmapd
package version

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"

	// Commit is the short git hash.
	Commit = "unknown"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// String returns the stamp as one line, e.g. "1.0.0 (abc1234) built 2024-01-15T12:00:00Z".
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}

// Attrs returns the stamp as slog key/value pairs.
func Attrs() []any {
	return []any{"version", Version, "commit", Commit, "built", BuildTime}
}

// UserAgent returns the User-Agent sent on outbound requests.
func UserAgent() string {
	return "gift-heatmap/" + Version
}
