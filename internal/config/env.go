package config

import (
	"os"

	"github.com/joho/godotenv"
)

// pi-helper env var names (written to /run/pi-helper.env).
const (
	EnvNetworkType       = "NETWORK_TYPE"
	EnvNetworkIP         = "NETWORK_IP"
	EnvNetworkStatus     = "NETWORK_STATUS"
	EnvNetworkGateway    = "NETWORK_GATEWAY"
	EnvNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	EnvNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

// Env returns a lookup over the given env file, falling back to the process
// environment for keys the file does not set or when it cannot be read.
func Env(path string) func(string) string {
	vars := map[string]string{}
	if path != "" {
		if m, err := godotenv.Read(path); err == nil {
			vars = m
		}
	}
	return func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return os.Getenv(key)
	}
}
