package cli

import (
	"context"
	"fmt"

	"github.com/soyeahso/switchboard/internal/config"
	"github.com/soyeahso/switchboard/internal/provider"
	"github.com/spf13/cobra"
)

func newProviderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage per-tenant WhatsApp provider settings",
	}

	cmd.AddCommand(newProviderShowCmd())
	cmd.AddCommand(newProviderSetCmd())
	cmd.AddCommand(newProviderFallbackCmd())
	cmd.AddCommand(newProviderHealthCmd())
	return cmd
}

func newProviderShowCmd() *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a tenant's provider settings and available providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			db, fb, err := openFallback(&cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			tp, err := fb.SettingsWithProviders(context.Background(), tenantID)
			if err != nil {
				return err
			}

			ps := tp.Settings
			fmt.Printf("Tenant:   %s\n", tenantID)
			fmt.Printf("Active:   %s\n", ps.ActiveProvider)
			if ps.FallbackEnabled && ps.FallbackProvider != "" {
				fmt.Printf("Fallback: %s\n", ps.FallbackProvider)
			} else {
				fmt.Println("Fallback: (disabled)")
			}
			if ps.PreferTemplatesFrom != "" {
				fmt.Printf("Templates: %s\n", ps.PreferTemplatesFrom)
			}
			for name, ok := range tp.Available {
				state := "credentials missing"
				if ok {
					state = "available"
				}
				fmt.Printf("  %-10s %s\n", name, state)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "default", "tenant ID")
	return cmd
}

func newProviderSetCmd() *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:   "set [provider]",
		Short: "Set a tenant's active WhatsApp provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			db, fb, err := openFallback(&cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := fb.SetActiveProvider(context.Background(), tenantID, args[0]); err != nil {
				return err
			}
			fmt.Printf("active provider for %s is now %s\n", tenantID, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "default", "tenant ID")
	return cmd
}

func newProviderFallbackCmd() *cobra.Command {
	var (
		tenantID string
		enable   bool
		disable  bool
		name     string
	)

	cmd := &cobra.Command{
		Use:   "fallback",
		Short: "Configure a tenant's fallback provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			if enable == disable {
				return fmt.Errorf("exactly one of --enable or --disable is required")
			}
			if enable && name == "" {
				return fmt.Errorf("--provider is required with --enable")
			}

			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			db, fb, err := openFallback(&cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			enabled := enable
			patch := provider.SettingsPatch{FallbackEnabled: &enabled}
			if name != "" {
				patch.FallbackProvider = &name
			}
			ps, err := fb.UpdateSettings(context.Background(), tenantID, patch)
			if err != nil {
				return err
			}
			if ps.FallbackEnabled {
				fmt.Printf("fallback for %s enabled via %s\n", tenantID, ps.FallbackProvider)
			} else {
				fmt.Printf("fallback for %s disabled\n", tenantID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "default", "tenant ID")
	cmd.Flags().BoolVar(&enable, "enable", false, "enable fallback")
	cmd.Flags().BoolVar(&disable, "disable", false, "disable fallback")
	cmd.Flags().StringVar(&name, "provider", "", "fallback provider name")
	return cmd
}

func newProviderHealthCmd() *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe a tenant's active and fallback providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			db, fb, err := openFallback(&cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			checks, err := fb.CheckProviderHealth(context.Background(), tenantID)
			if err != nil {
				return err
			}
			for _, c := range checks {
				role := "fallback"
				if c.Active {
					role = "active"
				}
				switch {
				case c.ConstructErr != "":
					fmt.Printf("%-10s %-8s unavailable: %s\n", c.Provider, role, c.ConstructErr)
				case c.Health.Healthy:
					fmt.Printf("%-10s %-8s healthy  latency=%s\n", c.Provider, role, c.Health.Latency)
				default:
					fmt.Printf("%-10s %-8s UNHEALTHY error=%s\n", c.Provider, role, c.Health.LastError)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "default", "tenant ID")
	return cmd
}
