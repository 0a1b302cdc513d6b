// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
)

// Env holds the configuration values for the application.
type Env struct {
	Region            string
	Bucket            string
	Table             string
	ImportTopicARN    string
	ShopifyAPIVersion string
	LogLevel          string
	DevBypassAuth     bool
}

// MustLoad reads the environment variables and returns an Env struct.
func MustLoad() Env {
	return Env{
		Region:            get("AWS_REGION", "us-east-1"),
		Bucket:            must("S3_FILE_UPLOAD_BUCKET"),
		Table:             must("BULK_MANAGER_TABLE"),
		ImportTopicARN:    must("IMPORT_TOPIC_ARN"),
		ShopifyAPIVersion: get("SHOPIFY_API_VERSION", "2024-01"),
		LogLevel:          get("LOG_LEVEL", "info"),
		DevBypassAuth:     get("DEV_BYPASS_AUTH", "") == "true",
	}
}

// get returns the value of the environment variable k or def if not set.
func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// must returns the value of the environment variable k or panics if not set.
func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic(fmt.Errorf("missing env %s", k))
	}
	return v
}
