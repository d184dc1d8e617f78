// Package transport builds the HTTP clients used by the crawler.
//
// A Client is created once per command from the configuration and hands out
// *http.Client values with the request timeout, a public-suffix aware cookie
// jar, a bounded redirect policy and, when a proxy address is configured, a
// SOCKS5 dialer from golang.org/x/net/proxy.
//
// CheckConnection performs a SOCKS5 handshake against the proxy so that a
// misconfigured proxy is reported before a crawl produces nothing but
// unreachable pages.
package transport
