package ecommerce

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultMagentoAPIPath is the XML-RPC endpoint of a Magento 1 store
	DefaultMagentoAPIPath = "/index.php/api/xmlrpc"
	// DefaultMagentoTimeoutSeconds bounds a single XML-RPC round trip
	DefaultMagentoTimeoutSeconds = 30
)

// Errors for Magento configuration
var (
	ErrMagentoConfigMissingURL     = errors.New("magento: store URL is required")
	ErrMagentoConfigInvalidURL     = errors.New("magento: store URL is invalid")
	ErrMagentoConfigMissingAPIUser = errors.New("magento: API user is required")
	ErrMagentoConfigMissingAPIKey  = errors.New("magento: API key is required")
)

// MagentoConfig holds the settings used to reach a Magento XML-RPC API
type MagentoConfig struct {
	// URL is the base URL of the store (without the API path)
	URL string
	// APIUser is the SOAP/XML-RPC role user
	APIUser string
	// APIKey is the API key of the user
	APIKey string
	// APIPath is appended to URL to form the endpoint
	APIPath string
	// TimeoutSeconds is the dial and response timeout
	TimeoutSeconds int
}

// NewMagentoConfig creates a Magento configuration with defaults
func NewMagentoConfig(storeURL, apiUser, apiKey string) *MagentoConfig {
	return &MagentoConfig{
		URL:            storeURL,
		APIUser:        apiUser,
		APIKey:         apiKey,
		APIPath:        DefaultMagentoAPIPath,
		TimeoutSeconds: DefaultMagentoTimeoutSeconds,
	}
}

// Validate validates the configuration and fills defaults
func (c *MagentoConfig) Validate() error {
	if c.URL == "" {
		return ErrMagentoConfigMissingURL
	}
	if u, err := url.Parse(c.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return ErrMagentoConfigInvalidURL
	}
	if c.APIUser == "" {
		return ErrMagentoConfigMissingAPIUser
	}
	if c.APIKey == "" {
		return ErrMagentoConfigMissingAPIKey
	}
	if c.APIPath == "" {
		c.APIPath = DefaultMagentoAPIPath
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultMagentoTimeoutSeconds
	}
	return nil
}

// Endpoint returns the full XML-RPC URL
func (c *MagentoConfig) Endpoint() string {
	return strings.TrimRight(c.URL, "/") + "/" + strings.TrimLeft(c.APIPath, "/")
}

// Timeout returns the timeout as a duration
func (c *MagentoConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
