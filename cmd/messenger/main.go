package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ForeFoldAi/eye-care-sub001/internal/client"
	"github.com/ForeFoldAi/eye-care-sub001/internal/config"
	"github.com/ForeFoldAi/eye-care-sub001/internal/rest"
	"github.com/ForeFoldAi/eye-care-sub001/internal/transport"
	"github.com/ForeFoldAi/eye-care-sub001/pkg/types"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "messenger",
		Short: "Real-time chat and notification client for the eye-care backend",
	}

	rootCmd.AddCommand(roomsCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(notificationsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildClient loads config and assembles the SDK with real collaborators.
func buildClient() (*client.Client, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	api := rest.NewClient(cfg.ServerURL, cfg.Token, cfg.RequestTimeout, logger)
	push := transport.New(transport.Options{
		URL:               cfg.WebSocketURL,
		Token:             cfg.Token,
		HandshakeTimeout:  cfg.HandshakeTimeout,
		ReconnectDelay:    cfg.ReconnectDelay,
		ReconnectAttempts: cfg.ReconnectAttempts,
		Logger:            logger,
	})

	c := client.New(client.Options{
		Self:             types.UserSummary{ID: os.Getenv("USER_ID"), Name: os.Getenv("USER_NAME")},
		Transport:        push,
		Chat:             api,
		Notifications:    api,
		TypingTTL:        cfg.TypingTTL,
		NotifyPollPeriod: cfg.NotifyPollPeriod,
		PageSize:         cfg.PageSize,
		RequestTimeout:   cfg.RequestTimeout,
		Logger:           logger,
	})
	return c, cfg, nil
}

func roomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List the caller's conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, err := buildClient()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()
			if err := c.RefreshRooms(ctx); err != nil {
				return err
			}

			rooms, _ := c.Rooms()
			for _, room := range rooms {
				last := ""
				if room.LastMessage != nil {
					last = room.LastMessage.Body
				}
				fmt.Printf("%-36s  %-6s  %-24s  %s\n", room.ID, room.Kind, room.Name, last)
			}
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <room-id>",
		Short: "Join a room and print messages as they arrive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, err := buildClient()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			if err := c.Connect(ctx); err != nil {
				cancel()
				return err
			}
			if err := c.JoinRoom(ctx, args[0]); err != nil {
				cancel()
				return err
			}
			cancel()

			_, msgs := c.Messages()
			for _, m := range msgs {
				printMessage(m)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			seen := len(msgs)
			ticker := time.NewTicker(500 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					_, msgs := c.Messages()
					for ; seen < len(msgs); seen++ {
						printMessage(msgs[seen])
					}
				case <-c.Done():
					if err := c.LastError(); err != nil {
						return err
					}
					return nil
				case <-sigCh:
					return nil
				}
			}
		},
	}
}

func notificationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "List notifications and the unread counter",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, err := buildClient()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()
			if err := c.Notifications().Refresh(ctx); err != nil {
				return err
			}
			if err := c.Notifications().RefreshUnread(ctx); err != nil {
				return err
			}

			notifications, _ := c.NotificationList()
			for _, n := range notifications {
				fmt.Printf("%-36s  %-10s  %-8s  %s\n", n.ID, n.Type, n.Priority, n.Title)
			}
			unread, _ := c.NotificationUnread()
			fmt.Printf("unread: %d\n", unread)
			return nil
		},
	}
}

func printMessage(m *types.Message) {
	sender := "?"
	if m.Sender != nil {
		sender = m.Sender.Name
		if sender == "" {
			sender = m.Sender.ID
		}
	}
	marker := ""
	if m.Pending {
		marker = " (sending)"
	}
	fmt.Printf("[%s] %s: %s%s\n", m.CreatedAt.Format("15:04:05"), sender, m.Body, marker)
}
