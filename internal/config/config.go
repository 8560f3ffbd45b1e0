package config

import (
	"encoding/base64"
	"fmt"
)

type Config struct {
	ServerAddr     string
	MongoURI       string
	DatabaseName   string
	SigningKey     []byte
	AllowedOrigins []string
	ExecServiceURL string
	ExecServiceKey string
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(base64Secret)
}

func NewConfig(serverAddr, mongoURI, dbName, base64Secret, execServiceURL, execServiceKey string, allowedOrigins []string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if mongoURI == "" {
		return nil, fmt.Errorf("mongo URI cannot be empty")
	}
	if dbName == "" {
		return nil, fmt.Errorf("database name cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}
	if execServiceURL == "" {
		return nil, fmt.Errorf("execution service URL cannot be empty")
	}

	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	// execServiceKey may be empty for self-hosted execution services
	return &Config{
		ServerAddr:     serverAddr,
		MongoURI:       mongoURI,
		DatabaseName:   dbName,
		SigningKey:     signingKey,
		AllowedOrigins: allowedOrigins,
		ExecServiceURL: execServiceURL,
		ExecServiceKey: execServiceKey,
	}, nil
}
