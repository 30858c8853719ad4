// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	rebuildCatalog = pflag.Bool("rebuild-catalog", true, "Rebuilds the video catalog from object storage tags on startup")
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDBDrivers = []string{"sqlite", "postgres"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// RebuildCatalogEnabled reports whether the startup catalog rebuild was
// requested. Disable with --rebuild-catalog=false for faster local restarts
// against a bucket that hasn't changed.
func RebuildCatalogEnabled() bool {
	return *rebuildCatalog
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")
	v.BindEnv("app.debug", "app_debug")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")
	v.BindEnv("host.ssl.enabled", "host_ssl_enabled")

	v.BindEnv("jwt.secret", "jwt_secret")

	v.BindEnv("database.driver", "database_driver")
	v.BindEnv("database.dsn", "database_dsn")

	v.BindEnv("aws.region", "aws_region")
	v.BindEnv("aws.access_key_id", "aws_access_key_id")
	v.BindEnv("aws.secret_access_key", "aws_secret_access_key")
	v.BindEnv("aws.bucket", "aws_bucket")
	v.BindEnv("aws.public_url", "aws_public_url")

	v.BindEnv("upload.max_size", "upload_max_size")
	v.BindEnv("upload.chunk_size", "upload_chunk_size")
	v.BindEnv("upload.multipart_threshold", "upload_multipart_threshold")
	v.BindEnv("upload.part_concurrency", "upload_part_concurrency")

	v.BindEnv("storage.quota", "storage_quota")

	v.BindEnv("discord.webhook_url", "discord_webhook_url")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.debug", false)

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	// All sizes are megabytes in the config file and shifted into
	// bytes at the end of Setup
	v.SetDefault("upload.max_size", 2048)
	v.SetDefault("upload.chunk_size", 50)
	v.SetDefault("upload.multipart_threshold", 50)
	v.SetDefault("upload.part_concurrency", 4)

	// 5 GiB per user
	v.SetDefault("storage.quota", 5120)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if !slices.Contains(validDBDrivers, v.GetString("database.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("aws.region") == "" {
		return errors.New("aws region can't be empty")
	}
	if v.GetString("aws.access_key_id") == "" {
		return errors.New("aws access key id can't be empty")
	}
	if v.GetString("aws.secret_access_key") == "" {
		return errors.New("aws secret access key can't be empty")
	}
	if v.GetString("aws.bucket") == "" {
		return errors.New("bucket can't be empty")
	}

	if v.GetString("aws.public_url") == "" {
		v.Set("aws.public_url", fmt.Sprintf("https://%s.s3.%s.amazonaws.com",
			v.GetString("aws.bucket"), v.GetString("aws.region")))
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	// S3 rejects multipart parts below 5 MB (except the last one)
	if v.GetInt("upload.chunk_size") < 5 {
		return errors.New("upload.chunk_size must be at least 5")
	}

	if v.GetInt("upload.multipart_threshold") <= 0 {
		return errors.New("upload.multipart_threshold must be bigger than 0")
	}

	if v.GetInt("upload.part_concurrency") <= 0 {
		return errors.New("upload.part_concurrency must be bigger than 0")
	}

	if v.GetInt("storage.quota") <= 0 {
		return errors.New("storage.quota must be bigger than 0")
	}

	if v.GetString("discord.webhook_url") == "" {
		zap.L().Warn("No discord.webhook_url set, upload notifications are disabled")
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	v.Set("upload.chunk_size", v.GetInt64("upload.chunk_size")<<20)
	v.Set("upload.multipart_threshold", v.GetInt64("upload.multipart_threshold")<<20)
	v.Set("storage.quota", v.GetInt64("storage.quota")<<20)
	return nil
}
