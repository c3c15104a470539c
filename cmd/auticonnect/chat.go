package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/auticonnect"
	"github.com/aretw0/auticonnect/pkg/adapters/console"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the bot from the terminal",
	Long: `Starts an interactive session against the engine.
Type /comando to run a command, #token or a button number to choose an
option, and anything else as free text. /sair ends the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		userID, _ := cmd.Flags().GetString("user")
		name, _ := cmd.Flags().GetString("name")
		opts := []console.Option{
			console.WithUser(userID, name),
			console.WithLogger(a.logger),
		}

		out := cmd.OutOrStdout()
		if console.IsTerminal(os.Stdout) {
			console.PrintBanner(os.Stdout, auticonnect.Version)
			if renderer, err := console.NewMarkdownRenderer(); err == nil {
				opts = append(opts, console.WithRenderer(renderer))
			} else {
				a.logger.Warn("Markdown rendering disabled", "err", err)
			}
		}

		go a.engine.Sessions().RunSweeper(ctx, a.cfg.Session.SweepInterval)
		return console.New(a.engine, cmd.InOrStdin(), out, opts...).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("user", console.DefaultUserID, "User id sent with every message")
	chatCmd.Flags().String("name", "", "Display name sent with every message")
}
