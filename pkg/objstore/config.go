package objstore

import (
	"fmt"
	"os"
	"strings"
)

// Config holds the S3-compatible storage settings.
type Config struct {
	Endpoint      string // host[:port], no scheme
	Secure        bool
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string // optional; public read base for stored objects
}

// LoadConfig reads storage settings from the environment.
//
// Either SNAPVAULT_S3_ENDPOINT (host or URL) or SNAPVAULT_R2_ACCOUNT_ID must
// be set; with an R2 account id the endpoint becomes
// <id>.r2.cloudflarestorage.com. Credentials and bucket are mandatory:
// a misconfigured server must fail at startup, never fall through to an
// insecure default.
func LoadConfig() (Config, error) {
	cfg := Config{
		AccessKey:     os.Getenv("SNAPVAULT_S3_ACCESS_KEY"),
		SecretKey:     os.Getenv("SNAPVAULT_S3_SECRET_KEY"),
		Bucket:        os.Getenv("SNAPVAULT_S3_BUCKET"),
		PublicBaseURL: strings.TrimRight(os.Getenv("SNAPVAULT_PUBLIC_BASE_URL"), "/"),
		Secure:        true,
	}

	endpoint := os.Getenv("SNAPVAULT_S3_ENDPOINT")
	if endpoint == "" {
		if account := os.Getenv("SNAPVAULT_R2_ACCOUNT_ID"); account != "" {
			endpoint = account + ".r2.cloudflarestorage.com"
		}
	}
	if endpoint == "" {
		return cfg, fmt.Errorf("missing env var: SNAPVAULT_S3_ENDPOINT or SNAPVAULT_R2_ACCOUNT_ID")
	}

	// Accept a full URL for convenience; the SDK wants host + secure flag.
	if strings.HasPrefix(endpoint, "http://") {
		cfg.Secure = false
		endpoint = strings.TrimPrefix(endpoint, "http://")
	} else {
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}
	cfg.Endpoint = strings.TrimRight(endpoint, "/")

	for name, v := range map[string]string{
		"SNAPVAULT_S3_ACCESS_KEY": cfg.AccessKey,
		"SNAPVAULT_S3_SECRET_KEY": cfg.SecretKey,
		"SNAPVAULT_S3_BUCKET":     cfg.Bucket,
	} {
		if v == "" {
			return cfg, fmt.Errorf("missing env var: %s", name)
		}
	}

	return cfg, nil
}
