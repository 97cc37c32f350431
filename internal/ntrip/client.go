// Package ntrip implements NTRIP sourcetable discovery: querying a
// caster's root URL for the list of mountpoints it serves, so an
// operator can pick one before pointing transport.NTRIPSource at it.
package ntrip

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client queries an NTRIP caster's sourcetable.
type Client struct {
	URL        string
	Username   string
	Password   string
	httpClient *http.Client
}

// NewClient creates a sourcetable discovery client for the given
// caster root URL.
func NewClient(url, username, password string) *Client {
	return &Client{
		URL:      url,
		Username: username,
		Password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Sourcetable represents an NTRIP sourcetable
type Sourcetable struct {
	Mounts []MountPoint
}

// MountPoint represents a mountpoint in an NTRIP sourcetable
type MountPoint struct {
	Name          string
	Identifier    string
	Format        string
	FormatDetails string
}

// GetSourcetable retrieves the sourcetable from the NTRIP server
func (c *Client) GetSourcetable(ctx context.Context) (*Sourcetable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("User-Agent", "NTRIP gnssproc/1.0")
	req.Header.Set("Ntrip-Version", "Ntrip/2.0")

	if c.Username != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error connecting to NTRIP caster: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 response code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %v", err)
	}

	return parseSourcetable(string(data)), nil
}

func parseSourcetable(data string) *Sourcetable {
	lines := strings.Split(data, "\r\n")
	sourcetable := &Sourcetable{
		Mounts: []MountPoint{},
	}

	for _, line := range lines {
		if !strings.HasPrefix(line, "STR;") {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) < 5 {
			continue
		}

		sourcetable.Mounts = append(sourcetable.Mounts, MountPoint{
			Name:          fields[1],
			Identifier:    fields[2],
			Format:        fields[3],
			FormatDetails: fields[4],
		})
	}

	return sourcetable
}
