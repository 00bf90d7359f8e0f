package notify

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config defines notification configuration. Templates are text/template
// sources; empty fields fall back to the built-in wording.
type Config struct {
	WebhookURL             string `yaml:"webhook_url"`
	DeliveryTemplate       string `yaml:"delivery_template"`
	PendingPaymentTemplate string `yaml:"pending_payment_template"`
	SellerReminderTemplate string `yaml:"seller_reminder_template"`
}

// LoadConfig loads config from the yaml file named by NOTIFY_CONFIG, with
// NOTIFY_WEBHOOK_URL as the env fallback for the webhook endpoint.
func LoadConfig() (Config, error) {
	cfg := Config{
		WebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
	}

	if path := os.Getenv("NOTIFY_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.WebhookURL == "" {
		cfg.WebhookURL = os.Getenv("NOTIFY_WEBHOOK_URL")
	}
	return cfg, nil
}
