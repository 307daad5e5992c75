package commands

import (
	"fmt"

	"feedbackportal/internal/config"

	"github.com/spf13/cobra"
)

// ConfigCommands returns the configuration inspection commands
func ConfigCommands(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long:  `Show the effective configuration after file loading and environment overrides. Secrets are redacted.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Printf("server.port:            %s\n", cfg.Server.Port)
			fmt.Printf("server.app_base_url:    %s\n", cfg.Server.AppBaseURL)
			fmt.Printf("server.cors_origins:    %v\n", cfg.Server.CORSOrigins)
			fmt.Printf("server.admin_api_key:   %s\n", redact(cfg.Server.AdminAPIKey))
			fmt.Printf("database.url:           %s\n", redact(cfg.Database.URL))
			fmt.Printf("ai.enabled:             %t\n", cfg.AI.Enabled)
			fmt.Printf("ai.model:               %s\n", cfg.AI.Model)
			fmt.Printf("ai.api_key:             %s\n", redact(cfg.AI.APIKey))
			fmt.Printf("email.enabled:          %t\n", cfg.Email.Enabled)
			fmt.Printf("email.smtp.host:        %s\n", cfg.Email.SMTP.Host)
			fmt.Printf("otel.enable_tracing:    %t\n", cfg.OpenTelemetry.EnableTracing)
			fmt.Printf("otel.endpoint:          %s\n", cfg.OpenTelemetry.Endpoint)
			return nil
		},
	}
}

func redact(s string) string {
	if s == "" {
		return "(unset)"
	}
	return "********"
}
