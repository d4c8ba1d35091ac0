package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Minio    MinioConfig    `yaml:"minio"`
	AI       AIConfig       `yaml:"ai"`
	DocuSign DocuSignConfig `yaml:"docusign"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Auth     AuthConfig     `yaml:"auth"`
	Users    []User         `yaml:"users"`
}

type ServerConfig struct {
	Port       int    `yaml:"port"`
	AppBaseURL string `yaml:"app_base_url"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

type StoreConfig struct {
	MaxContracts int `yaml:"max_contracts"` // 0 = unlimited
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type AIConfig struct {
	APIURL         string `yaml:"api_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// DocuSignConfig holds the JWT-grant credentials and the anchor
// placement used when building envelopes.
type DocuSignConfig struct {
	IntegrationKey string `yaml:"integration_key"`
	UserID         string `yaml:"user_id"`
	PrivateKey     string `yaml:"private_key"` // PEM, RSA
	OAuthBasePath  string `yaml:"oauth_base_path"`
	BasePath       string `yaml:"base_path"`
	ReturnURL      string `yaml:"return_url"`

	// Anchor placement. When AnchorString is set the signature tab is
	// placed relative to matching text in the document; otherwise the
	// explicit page/x/y coordinates are used.
	AnchorString  string `yaml:"anchor_string"`
	AnchorXOffset string `yaml:"anchor_x_offset"`
	AnchorYOffset string `yaml:"anchor_y_offset"`
	AnchorPage    string `yaml:"anchor_page"`
	AnchorX       string `yaml:"anchor_x"`
	AnchorY       string `yaml:"anchor_y"`

	LinkRetries    int           `yaml:"link_retries"`
	LinkRetryDelay time.Duration `yaml:"link_retry_delay"`
}

type WebhookConfig struct {
	HMACSecret string `yaml:"hmac_secret"` // empty disables signature checks
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MockIntegrationKey enables the signing provider's mock mode;
// no network calls are made and mock envelope ids are returned.
const MockIntegrationKey = "mock-integration-key"

var GlobalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.AppBaseURL == "" {
		cfg.Server.AppBaseURL = "http://localhost:8080"
	}
	if cfg.Store.MaxContracts < 0 {
		cfg.Store.MaxContracts = 0
	}
	if cfg.AI.APIURL == "" {
		cfg.AI.APIURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gemini-flash-latest"
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 30
	}
	if cfg.DocuSign.IntegrationKey == "" {
		cfg.DocuSign.IntegrationKey = MockIntegrationKey
	}
	if cfg.DocuSign.OAuthBasePath == "" {
		cfg.DocuSign.OAuthBasePath = "account-d.docusign.com"
	}
	if cfg.DocuSign.BasePath == "" {
		cfg.DocuSign.BasePath = "https://demo.docusign.net/restapi"
	}
	if cfg.DocuSign.AnchorString == "" && cfg.DocuSign.AnchorPage == "" {
		cfg.DocuSign.AnchorString = "Authorized Signature:"
		cfg.DocuSign.AnchorXOffset = "0"
		cfg.DocuSign.AnchorYOffset = "20"
	}
	if cfg.DocuSign.LinkRetries == 0 {
		cfg.DocuSign.LinkRetries = 3
	}
	if cfg.DocuSign.LinkRetryDelay == 0 {
		cfg.DocuSign.LinkRetryDelay = 1500 * time.Millisecond
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
