// Package marketplace implements the Amazon MWS gateways on top of a
// shared signed HTTP client.
package marketplace

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/amws/backend/internal/domain/amws"
	"github.com/amws/backend/internal/infrastructure/config"
)

// API sections and versions
const (
	ordersPath    = "/Orders/2013-09-01"
	ordersVersion = "2013-09-01"
	feedsPath     = "/Feeds/2009-01-01"
	feedsVersion  = "2009-01-01"
)

// Client is the signed MWS HTTP client shared by the order and feed
// gateways
type Client struct {
	http    *resty.Client
	host    string
	maxSize int64
	logger  *zap.Logger
	now     func() time.Time
}

// NewClient creates an MWS client for the configured endpoint
func NewClient(cfg config.AmwsConfig, logger *zap.Logger) (*Client, error) {
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid marketplace endpoint %q: %w", cfg.Endpoint, err)
	}

	http := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "amws-backend/1.0 (Language=Go)")

	return &Client{
		http:    http,
		host:    endpoint.Host,
		maxSize: cfg.MaxResponseSize,
		logger:  logger.Named("mws"),
		now:     time.Now,
	}, nil
}

// call performs one signed MWS action and returns the raw response
// body. body is the feed content for feed submissions and nil
// otherwise.
func (c *Client) call(ctx context.Context, store *amws.Store, path, version, action string, params map[string]string, body []byte) ([]byte, error) {
	query := map[string]string{
		"Action":           action,
		"AWSAccessKeyId":   store.AccessKeyID,
		"SellerId":         store.SellerID,
		"SignatureMethod":  "HmacSHA256",
		"SignatureVersion": "2",
		"Timestamp":        c.now().UTC().Format(time.RFC3339),
		"Version":          version,
	}
	if store.AuthToken != "" {
		query["MWSAuthToken"] = store.AuthToken
	}
	for k, v := range params {
		query[k] = v
	}
	query["Signature"] = sign(store.SecretKey, c.host, path, query)

	req := c.http.R().
		SetContext(ctx).
		SetQueryParams(query)
	if body != nil {
		req.SetHeader("Content-Type", "text/xml; charset=utf-8").
			SetBody(body)
	} else {
		req.SetHeader("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := req.Post(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", amws.ErrGatewayUnavailable, action, err)
	}

	c.logger.Debug("mws request",
		zap.String("action", action),
		zap.String("store_id", store.ID),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", resp.Time()),
	)

	switch {
	case resp.StatusCode() == 503:
		return nil, fmt.Errorf("%w: %s", amws.ErrGatewayThrottled, action)
	case resp.StatusCode() != 200:
		return nil, fmt.Errorf("%w: %s returned status %d: %s",
			amws.ErrGatewayRequestFailed, action, resp.StatusCode(), truncate(resp.Body(), 512))
	case int64(len(resp.Body())) > c.maxSize:
		return nil, fmt.Errorf("%w: %s response exceeds %d bytes",
			amws.ErrGatewayInvalidResponse, action, c.maxSize)
	}

	return resp.Body(), nil
}

// sign computes the MWS signature version 2 over the canonical query
// string
func sign(secretKey, host, path string, query map[string]string) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(query[k]))
	}
	canonical := strings.Join(pairs, "&")

	stringToSign := strings.Join([]string{"POST", host, path, canonical}, "\n")

	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode applies RFC 3986 encoding as required by the
// signature
func percentEncode(s string) string {
	encoded := url.QueryEscape(s)
	encoded = strings.ReplaceAll(encoded, "+", "%20")
	encoded = strings.ReplaceAll(encoded, "*", "%2A")
	encoded = strings.ReplaceAll(encoded, "%7E", "~")
	return encoded
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
