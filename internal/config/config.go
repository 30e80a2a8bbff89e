package config

import "os"

type Config struct {
	HTTPAddr      string
	DatabaseURL   string
	AuthSecret    string
	StorefrontDir string
	ServiceName   string
}

// Load reads configuration from the environment. An empty DATABASE_URL
// selects the in-memory store.
func Load() Config {
	return Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":9091"),
		DatabaseURL:   getenv("DATABASE_URL", ""),
		AuthSecret:    getenv("AUTH_SECRET", "blackcoffe-dev-secret"),
		StorefrontDir: getenv("STOREFRONT_DIR", "seed"),
		ServiceName:   getenv("SERVICE_NAME", "blackcoffe-api"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
