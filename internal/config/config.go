package config

import (
	"os"
)

type Config struct {
	ProjectID          string
	Region             string
	LogLevel           string
	Port               string
	WebhookToken       string
	WebhookTokenSecret string
}

func New() *Config {
	return &Config{
		ProjectID:          os.Getenv("PROJECTID"),
		Region:             os.Getenv("REGION"),
		LogLevel:           os.Getenv("LOGLEVEL"),
		Port:               getPort(os.Getenv("PORT")),
		WebhookToken:       os.Getenv("WEBHOOKTOKEN"),
		WebhookTokenSecret: os.Getenv("WEBHOOKTOKENSECRET"),
	}
}

func getPort(port string) string {
	if port == "" {
		return "8080"
	}
	return port
}
