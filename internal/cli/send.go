package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/switchboard/internal/config"
	"github.com/soyeahso/switchboard/internal/domain"
	"github.com/soyeahso/switchboard/internal/identity"
	"github.com/spf13/cobra"
)

// recipientKey maps each channel to the metadata key its adapter reads the
// recipient from.
var recipientKey = map[domain.ChannelType]string{
	domain.ChannelWhatsApp:  "phone",
	domain.ChannelSMS:       "phone",
	domain.ChannelFacebook:  "psid",
	domain.ChannelInstagram: "igsid",
}

func newSendCmd() *cobra.Command {
	var (
		channel  string
		to       string
		tenantID string
	)

	cmd := &cobra.Command{
		Use:   "send [message]",
		Short: "Send a text message through a channel and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			ch := domain.ChannelType(channel)
			key, ok := recipientKey[ch]
			if !ok {
				return fmt.Errorf("unknown channel %q", channel)
			}
			if to == "" {
				return fmt.Errorf("--to is required")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			router := buildRouter(&cfg)
			defer router.Shutdown()

			// WhatsApp traffic honors the tenant's provider settings,
			// including fallback to the backup provider.
			if ch == domain.ChannelWhatsApp {
				db, fb, err := openFallback(&cfg)
				if err != nil {
					return err
				}
				defer db.Close()
				res, err := fb.AdapterWithFallback(ctx, tenantID)
				if err != nil {
					return err
				}
				if res.UsingFallback {
					fmt.Fprintf(cmd.ErrOrStderr(), "[provider=%s fallback]\n", res.Provider)
				}
				router.RegisterAdapter(res.Adapter)
			}

			now := time.Now()
			msg := &domain.CanonicalMessage{
				ID:              uuid.NewString(),
				ChannelType:     ch,
				Direction:       domain.DirectionOutbound,
				SenderType:      domain.SenderAgent,
				ContentType:     domain.ContentText,
				Content:         strings.Join(args, " "),
				Status:          domain.StatusPending,
				ChannelMetadata: map[string]string{key: identity.Normalize(ch, to)},
				Timestamp:       now,
				CreatedAt:       now,
				UpdatedAt:       now,
			}

			result := router.Route(ctx, msg)
			if !result.Success {
				if result.Retryable {
					return fmt.Errorf("send failed (retryable): %s", result.Error)
				}
				return fmt.Errorf("send failed: %s", result.Error)
			}
			fmt.Printf("sent %s id=%s\n", result.ChannelType, result.ChannelMessageID)
			return nil
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "whatsapp", "channel to send on (whatsapp, sms, facebook, instagram)")
	cmd.Flags().StringVar(&to, "to", "", "recipient identifier (phone number, PSID or IGSID)")
	cmd.Flags().StringVar(&tenantID, "tenant", "default", "tenant whose provider settings apply")

	return cmd
}
