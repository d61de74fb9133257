package bootstrap

import (
	"context"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	"github.com/hearthfin/hearth-backend/internal/config"
)

// ResolveWebhookToken prefers the Secret Manager version named in
// WEBHOOKTOKENSECRET and falls back to the plain WEBHOOKTOKEN env var for
// local runs. An empty result disables the webhook route.
func ResolveWebhookToken(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.WebhookTokenSecret == "" {
		return cfg.WebhookToken, nil
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: cfg.WebhookTokenSecret,
	})
	if err != nil {
		return "", err
	}
	return string(resp.GetPayload().GetData()), nil
}
