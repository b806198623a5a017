package utils

import (
	"math/rand"
	"os"
	"time"
)

type AppConfig struct {
	UrlPrefix               string
	SentryDsn               string
	EnableProfiler          bool
	DisableSafePanicHandler bool
	StartTime               int
}

func GetConfig() *AppConfig {
	var appConfig = AppConfig{
		UrlPrefix: "/molt",
		StartTime: int(time.Now().Unix()),
	}

	if urlPrefix := os.Getenv("URL_PREFIX"); len(urlPrefix) > 0 {
		appConfig.UrlPrefix = urlPrefix
	}

	if sentryDsn := os.Getenv("SENTRY_DSN"); len(sentryDsn) > 0 {
		appConfig.SentryDsn = sentryDsn
	}

	if enableProfiler := os.Getenv("ENABLE_PROFILER"); enableProfiler == "true" {
		appConfig.EnableProfiler = true
	}

	if disableSafePanicHandler := os.Getenv("DISABLE_SAFE_PANIC_HANDLER"); disableSafePanicHandler == "true" {
		appConfig.DisableSafePanicHandler = true
	}

	return &appConfig
}

const letterBytes = "abcdefghijklmnopqrstuvwxyz"

func RandomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	return string(b)
}
