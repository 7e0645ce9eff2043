// Package isapi speaks the small slice of the Hikvision ISAPI surface the
// monitor needs: the proxied-channel status list, fetched over HTTP digest
// auth.
package isapi

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"
)

const statusPath = "/ISAPI/ContentMgmt/InputProxy/channels/status"

// DefaultTimeout bounds one poll. Recorders answer in well under a second on
// a healthy LAN; anything slower counts as down.
const DefaultTimeout = 6 * time.Second

// ChannelStatus is one camera channel as the recorder reports it.
type ChannelStatus struct {
	ID     string
	Online bool
	IP     string
}

type Client struct {
	httpClient *http.Client
}

// NewClient builds a client with the poll timeout. The transport carries no
// proxy: recorders sit on the local network and must never be reached through
// an ambient HTTP_PROXY.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{Proxy: nil},
		},
	}
}

type inputProxyChannelStatusList struct {
	XMLName  xml.Name                  `xml:"InputProxyChannelStatusList"`
	Channels []inputProxyChannelStatus `xml:"InputProxyChannelStatus"`
}

type inputProxyChannelStatus struct {
	ID         string `xml:"id"`
	Online     string `xml:"online"`
	Descriptor struct {
		IPAddress string `xml:"ipAddress"`
	} `xml:"sourceInputPortDescriptor"`
}

// ChannelStatuses fetches every proxied channel of the recorder at ip.
// Channels without a source address report 0.0.0.0, same as the firmware
// default.
func (c *Client) ChannelStatuses(ctx context.Context, ip, username, password string) ([]ChannelStatus, error) {
	rawURL := fmt.Sprintf("http://%s%s", ip, statusPath)

	resp, err := c.get(ctx, rawURL, username, password)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var list inputProxyChannelStatusList
	if err := xml.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("parse channel status: %w", err)
	}

	statuses := make([]ChannelStatus, 0, len(list.Channels))
	for _, ch := range list.Channels {
		ipAddr := ch.Descriptor.IPAddress
		if ipAddr == "" {
			ipAddr = "0.0.0.0"
		}
		statuses = append(statuses, ChannelStatus{
			ID:     ch.ID,
			Online: ch.Online == "true",
			IP:     ipAddr,
		})
	}
	return statuses, nil
}

// get performs a GET with one digest round trip: first request bare, and on a
// 401 retry once with the Authorization the challenge asks for. A non-401
// first answer is returned as is.
func (c *Client) get(ctx context.Context, rawURL, username, password string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	challenge := resp.Header.Get("WWW-Authenticate")
	resp.Body.Close()

	digest, err := parseDigestChallenge(challenge)
	if err != nil {
		return nil, err
	}

	req2, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req2.Header.Set("Authorization", digest.authorization(http.MethodGet, req2.URL.RequestURI(), username, password))

	return c.httpClient.Do(req2)
}
