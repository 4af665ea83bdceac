package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/mediauth/mailer/amqpmail"
	"github.com/MrEthical07/mediauth/mailer/smtpmail"
)

func newMailRelayCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "mail-relay",
		Short: "Deliver queued reset mails over SMTP",
		Long: `Consume reset mails published by the amqp mailer and send each one
over SMTP. Deliveries that fail are nacked without requeue.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Queue.URL == "" {
				return oops.Code("CONFIG_INVALID").Errorf("queue.url is required")
			}
			if cfg.SMTP.Host == "" {
				return oops.Code("CONFIG_INVALID").Errorf("smtp.host is required")
			}
			log := cfg.Log.NewLogger(os.Stderr)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := amqpmail.Dial(cfg.Queue.URL, cfg.Queue.Name)
			if err != nil {
				return err
			}
			defer client.Close()

			deliveries, err := amqpmail.Consume(client.Channel(), client.Queue())
			if err != nil {
				return err
			}

			sender := smtpmail.New(smtpmail.Config{
				Host:     cfg.SMTP.Host,
				Port:     cfg.SMTP.Port,
				Username: cfg.SMTP.Username,
				Password: cfg.SMTP.Password,
				From:     cfg.SMTP.From,
			})

			log.Info("mail relay started", slog.String("queue", client.Queue()))
			err = amqpmail.NewRelay(sender, log).Run(ctx, deliveries)
			if errors.Is(err, context.Canceled) {
				log.Info("mail relay stopped")
				return nil
			}
			return err
		},
	}
}
