package sources

// Source describes a configured blocklist source.
type Source struct {
	ID       string
	Location string
	// ContentType is the media type the source must declare. Empty means the
	// fetcher's default.
	ContentType string
	Enabled     bool
	Auth        AuthConfig
}

// AuthConfig defines optional authentication for a source.
type AuthConfig struct {
	Username string
	Password string
	Token    string
	Header   string
	Scheme   string
}

// ListConfig defines a blocklist configuration entry.
type ListConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	URL         string `mapstructure:"url"`
	ContentType string `mapstructure:"content_type"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	Token       string `mapstructure:"token"`
	Header      string `mapstructure:"header"`
	Scheme      string `mapstructure:"scheme"`
}
