// Package system holds environment checks used by mapexec doctor.
package system

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"mapexec/internal/errors"
)

// ServicePort returns the TCP port of a service URL, defaulting by scheme.
func ServicePort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	if u.Scheme == "https" {
		return "443"
	}
	return "80"
}

// CheckServiceReachable resolves the service host and opens a TCP connection
// to it. It says nothing about whether the mapping API answers.
func CheckServiceReachable(ctx context.Context, base *url.URL) error {
	host := base.Hostname()
	if net.ParseIP(host) == nil {
		resolver := &net.Resolver{}
		if _, err := resolver.LookupHost(ctx, host); err != nil {
			return errors.NewFriendlyError(
				fmt.Sprintf("Cannot resolve host: %s", host),
				"Check that service.base_url is correct and your DNS is working",
			).WithDetails(err)
		}
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	addr := net.JoinHostPort(host, ServicePort(base))
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.NewFriendlyError(
			fmt.Sprintf("Cannot connect to the mapping service at %s", addr),
			fmt.Sprintf("Service is unreachable:\n"+
				"1. Check that the mapping service is running\n"+
				"2. Verify the host is not blocked by a firewall\n"+
				"3. Try: curl -I %s", base.Redacted()),
		).WithDetails(err)
	}
	_ = conn.Close()
	return nil
}

// ClassifyTransportError turns certificate failures into a friendly error
// and everything else into a network error.
func ClassifyTransportError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "certificate") || strings.Contains(err.Error(), "x509") {
		return errors.NewFriendlyError(
			"SSL/TLS certificate verification failed",
			"You may be behind a corporate proxy or firewall:\n"+
				"1. Install the CA certificate of the proxy\n"+
				"2. Or disable TLS verification (insecure) in config: network.tls_verify: false\n"+
				"3. Check proxy settings: echo $HTTP_PROXY $HTTPS_PROXY",
		).WithDetails(err)
	}
	return errors.NetworkError(err)
}

// DetectProxySettings returns proxy configuration from environment
func DetectProxySettings() map[string]string {
	proxies := make(map[string]string)

	envVars := []string{"HTTP_PROXY", "HTTPS_PROXY", "NO_PROXY", "http_proxy", "https_proxy", "no_proxy"}
	for _, envVar := range envVars {
		if val := os.Getenv(envVar); val != "" {
			proxies[envVar] = val
		}
	}

	dummyReq, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	if proxyURL, _ := http.ProxyFromEnvironment(dummyReq); proxyURL != nil {
		if _, exists := proxies["HTTP_PROXY"]; !exists {
			proxies["HTTP_PROXY"] = proxyURL.String()
		}
	}
	dummyReqHTTPS, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	if proxyURL, _ := http.ProxyFromEnvironment(dummyReqHTTPS); proxyURL != nil {
		if _, exists := proxies["HTTPS_PROXY"]; !exists {
			proxies["HTTPS_PROXY"] = proxyURL.String()
		}
	}
	return proxies
}
