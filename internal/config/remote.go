package config

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"
)

// RemoteOptions locates a config document served over HTTP.
type RemoteOptions struct {
	URL     string
	Token   string        // sent as a bearer token when set
	Timeout time.Duration // default 30s
	Client  *http.Client
}

// maxRemoteSize caps the fetched document.
const maxRemoteSize = 1 << 20

// LoadRemote fetches, parses and validates a config document. The format
// comes from the Content-Type header, falling back to the URL extension.
func LoadRemote(ctx context.Context, opts RemoteOptions) (*Config, error) {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("config: remote request: %w", err)
	}
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("config: remote fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteSize))
	if err != nil {
		return nil, fmt.Errorf("config: remote read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("config: remote HTTP %d: %s", resp.StatusCode, string(body))
	}

	cfg, err := Parse(body, remoteFormat(resp.Header.Get("Content-Type"), opts.URL))
	if err != nil {
		return nil, fmt.Errorf("config: remote parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func remoteFormat(contentType, rawURL string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "application/yaml", "application/x-yaml", "text/yaml":
			return FormatYAML
		case "application/toml":
			return FormatTOML
		case "application/json":
			return FormatJSON
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		return formatOf(u.Path)
	}
	return FormatJSON
}
