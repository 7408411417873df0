package cli

import (
	"context"
	"fmt"

	"github.com/soyeahso/switchboard/internal/config"
	"github.com/soyeahso/switchboard/internal/domain"
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health [channel]",
		Short: "Probe channel health on demand",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			router := buildRouter(&cfg)
			defer router.Shutdown()

			channels := router.Channels()
			if len(args) == 1 {
				channels = []domain.ChannelType{domain.ChannelType(args[0])}
			}
			if len(channels) == 0 {
				fmt.Println("no channels configured")
				return nil
			}

			for _, ch := range channels {
				adapter, ok := router.Adapter(ch)
				if !ok {
					fmt.Printf("%-10s not registered\n", ch)
					continue
				}
				res := adapter.HealthCheck(context.Background())
				if res.Healthy {
					fmt.Printf("%-10s healthy  latency=%s\n", ch, res.Latency)
				} else {
					fmt.Printf("%-10s UNHEALTHY latency=%s error=%s\n", ch, res.Latency, res.LastError)
				}
			}
			return nil
		},
	}
}
