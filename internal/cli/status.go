package cli

import (
	"fmt"
	"os"

	"github.com/soyeahso/switchboard/internal/config"
	"github.com/soyeahso/switchboard/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show switchboard status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Switchboard %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			cfg, err := config.Load(paths.Config)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Println("Config:  not found (using defaults)")
				} else {
					fmt.Printf("Config:  error loading: %v\n", err)
				}
				return nil
			}

			probes := "on"
			if !cfg.Health.ProbesEnabled() {
				probes = "off"
			}
			fmt.Printf("Health:  interval=%dms threshold=%d probes=%s\n",
				cfg.Health.CheckIntervalMS, cfg.Health.UnhealthyThreshold, probes)
			fmt.Printf("Store:   %s\n", paths.StorePath(&cfg))

			// Channels
			if wa := cfg.Channels.WhatsApp; wa != nil {
				fmt.Printf("WhatsApp Cloud: phoneNumberId=%s\n", wa.PhoneNumberID)
			} else {
				fmt.Println("WhatsApp Cloud: (not configured)")
			}
			if tw := cfg.Channels.Twilio; tw != nil {
				fmt.Printf("Twilio:  accountSid=%s smsFrom=%s whatsappFrom=%s\n",
					tw.AccountSID, tw.SMSFrom, tw.WhatsAppFrom)
			} else {
				fmt.Println("Twilio:  (not configured)")
			}
			if fb := cfg.Channels.Facebook; fb != nil {
				fmt.Printf("Facebook: pageId=%s\n", fb.PageID)
			} else {
				fmt.Println("Facebook: (not configured)")
			}
			if ig := cfg.Channels.Instagram; ig != nil {
				fmt.Printf("Instagram: pageId=%s\n", ig.PageID)
			} else {
				fmt.Println("Instagram: (not configured)")
			}

			fmt.Printf("Default WhatsApp provider: %s\n", cfg.Fallback.DefaultProvider)

			router := buildRouter(&cfg)
			defer router.Shutdown()
			fmt.Printf("Routable channels: %d\n", len(router.Channels()))

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}
}
