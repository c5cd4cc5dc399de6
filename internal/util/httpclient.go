package util

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"strings"
	"time"

	"mapexec/internal/config"
)

// Version is set by the mapexec binary and reported in the User-Agent.
var Version = "dev"

// NewHTTPClient builds the client shared by the catalog loader and the
// execution controller. Mapping runs can be slow, so the overall timeout is
// the configured one, while dialing and TLS have their own short limits.
func NewHTTPClient(cfg *config.Config) *http.Client {
	timeout := 120 * time.Second
	insecure := false
	if cfg != nil {
		if cfg.Network.TimeoutSeconds > 0 {
			timeout = time.Duration(cfg.Network.TimeoutSeconds) * time.Second
		}
		insecure = !cfg.TLSVerifyEnabled()
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: insecure, //nolint:gosec // opt-in via network.tls_verify: false
		},
	}
	client := &http.Client{Transport: tr, Timeout: timeout}
	// Keep the UA across redirects. Avoid leaking Authorization across hosts.
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) == 0 {
			return nil
		}
		if len(via) >= 10 {
			return fmt.Errorf("stopped after %d redirects", len(via))
		}
		prev := via[len(via)-1]
		if ua := prev.Header.Get("User-Agent"); ua != "" {
			req.Header.Set("User-Agent", ua)
		}
		if prev.URL != nil && req.URL != nil && strings.EqualFold(prev.URL.Host, req.URL.Host) {
			if auth := prev.Header.Get("Authorization"); auth != "" {
				req.Header.Set("Authorization", auth)
			}
		}
		return nil
	}
	return client
}

// UserAgent returns the configured User-Agent, or
// "mapexec/<version> (<goos>/<goarch>)" when not set.
func UserAgent(cfg *config.Config) string {
	if cfg != nil && cfg.Network.UserAgent != "" {
		return cfg.Network.UserAgent
	}
	return fmt.Sprintf("mapexec/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}
