package config

import (
	"os"
	"strings"
)

// GetEnvList reads a comma separated list from the environment. An unset
// variable yields def.
func GetEnvList(name string, def []string) []string {
	val, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	return strings.Split(val, ",")
}

// GetEnvMap reads comma separated key:value pairs from the environment.
// An unset or empty variable yields def.
func GetEnvMap(name string, def map[string]string) map[string]string {
	val := os.Getenv(name)
	if val == "" {
		return def
	}
	out := map[string]string{}
	for _, pair := range strings.Split(val, ",") {
		k, v, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		out[k] = v
	}
	return out
}
