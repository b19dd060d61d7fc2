package shared

import (
	"log"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "meme_token_catalog_"

func DefaultValues() map[string]interface{} {
	return map[string]interface{}{
		"app.name":                "meme-token-catalog",
		"app.host":                ":8080",
		"app.idle-timeout":        50 * time.Second,
		"app.print-routes":        false,
		"app.prefork":             false,
		"app.production":          false,
		"redis.url":               "redis://127.0.0.1:6379",
		"redis.keeplive-interval": 30 * time.Second,
		"redis.retry-count":       3,
		"sync.graduated-url":      "https://advanced-api-v2.pump.fun/coins/graduated?sortBy=creationTime",
		"sync.metadata-url":       "https://frontend-api-v3.pump.fun/coins",
		"sync.dexscreener-url":    "https://api.dexscreener.com/latest/dex/tokens",
		"sync.max-batch":          20,
		"sync.watermark-buffer":   30 * time.Second,
		"sync.record-delay":       200 * time.Millisecond,
		"sync.interval":           1 * time.Minute,
		"sync.migration-dex":      "PumpSwap",
	}
}

func NewKoanfInstance() *koanf.Koanf {
	k := koanf.New(".")

	// defaults first, lowest precedence
	if err := k.Load(confmap.Provider(DefaultValues(), "."), nil); err != nil {
		log.Fatalf("error loading default values: %v", err)
	}

	// local config file
	if err := k.Load(file.Provider("config/default.yaml"), yaml.Parser()); err != nil {
		log.Panicf("Error loading defautl config: %v", err)
	}
	log.Println("Load local config!")

	// environment variables merge over everything else
	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(s string, v string) (string, interface{}) {
		key := strings.Replace(strings.TrimPrefix(s, envPrefix), "_", ".", -1)

		if strings.Contains(v, " ") {
			return key, strings.Split(v, " ")
		}

		return key, v
	}), nil); err != nil {
		log.Panicf("Error loading env: %v", err)
	}

	return k
}
