package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// NTRIPSource reads the RTCM byte stream from an NTRIP caster mountpoint,
// grounded on the teacher's ntrip.Client (internal/ntrip, pkg/ntrip).
type NTRIPSource struct {
	URL        string
	Mountpoint string
	Username   string
	Password   string

	httpClient *http.Client
	body       io.ReadCloser
}

// NewNTRIPSource creates an NTRIPSource for the given caster URL and
// mountpoint.
func NewNTRIPSource(url, mountpoint, username, password string) *NTRIPSource {
	return &NTRIPSource{
		URL:        url,
		Mountpoint: mountpoint,
		Username:   username,
		Password:   password,
		httpClient: &http.Client{Timeout: 0},
	}
}

func (n *NTRIPSource) Open(ctx context.Context) error {
	fullURL := n.URL
	if n.Mountpoint != "" && !strings.Contains(fullURL, n.Mountpoint) {
		if !strings.HasSuffix(fullURL, "/") {
			fullURL += "/"
		}
		fullURL += n.Mountpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("transport: building NTRIP request: %w", err)
	}
	req.Header.Set("User-Agent", "NTRIP gnssproc/1.0")
	req.Header.Set("Ntrip-Version", "Ntrip/2.0")
	if n.Username != "" {
		req.SetBasicAuth(n.Username, n.Password)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transport: connecting to NTRIP caster: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("transport: NTRIP caster returned status %d", resp.StatusCode)
	}

	n.body = resp.Body
	return nil
}

func (n *NTRIPSource) Read(ctx context.Context, buf []byte) (int, error) {
	if n.body == nil {
		return 0, fmt.Errorf("transport: NTRIP stream not open")
	}
	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		nRead, err := n.body.Read(buf)
		done <- result{nRead, err}
	}()
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r := <-done:
		return r.n, r.err
	}
}

func (n *NTRIPSource) Close() error {
	if n.body == nil {
		return nil
	}
	err := n.body.Close()
	n.body = nil
	return err
}

// GGAInterval is the default rate at which a rover sends its NMEA GGA
// position back to the caster for VRS/network RTK mountpoints.
const GGAInterval = 10 * time.Second
