package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"candy-drop/pkg/drop"
	"candy-drop/pkg/models"
	"candy-drop/pkg/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect the wallet, silently unless --interactive is set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		interactive, _ := cmd.Flags().GetBool("interactive")
		if interactive {
			pk, err := a.service.Connect(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connected with public key: %s\n", pk)
			return nil
		}

		if err := a.service.Start(ctx); err != nil {
			return err
		}
		if !a.store.IsAuthorized() {
			return errors.New("wallet is not trusted yet, run connect --interactive")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Connected with public key: %s\n", a.store.AuthorizedWallet())
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the drop stats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.service.RefreshStats(cmd.Context()); err != nil {
			return err
		}
		printStats(cmd.OutOrStdout(), a.service)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the items minted so far",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.service.Refresh(cmd.Context()); err != nil {
			return err
		}

		items := a.service.Items()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Minted items (%d):\n", len(items))
		for _, item := range items {
			fmt.Fprintf(out, "  %-32s %s\n", item.Name, item.ImageURI)
		}
		return nil
	},
}

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint one item from the drop",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		out := cmd.OutOrStdout()

		if err := a.service.Start(ctx); err != nil {
			return err
		}
		if !a.store.IsAuthorized() {
			if _, err := a.service.Connect(ctx); err != nil {
				return err
			}
		}
		if _, ok := a.service.Stats(); !ok {
			if err := a.service.RefreshStats(ctx); err != nil {
				return err
			}
		}
		printStats(out, a.service)

		if button := a.service.MintButton(); !button.Enabled {
			return fmt.Errorf("minting unavailable: %s", button.Label)
		}

		pending, err := a.service.Mint(ctx)
		if err != nil {
			var mintErr *service.MintError
			if errors.As(err, &mintErr) {
				return errors.New(mintErr.Message)
			}
			return err
		}
		fmt.Fprintf(out, "%s\nTransaction: %s\n", drop.LabelMinting, pending.Signature)

		select {
		case <-pending.Done():
		case <-ctx.Done():
			return fmt.Errorf("stopped waiting for confirmation of %s", pending.Signature)
		}

		outcome := pending.Outcome()
		if outcome.Err != nil {
			return errors.New(outcome.Err.Message)
		}
		fmt.Fprintf(out, "Minted %s (fee %.6f SOL)\n", outcome.Mint, float64(outcome.Fee)/1_000_000_000)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the wallet connected and poll the drop stats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		out := cmd.OutOrStdout()

		a.service.OnStats(func(stats models.DropStats) {
			banner := drop.Banner(stats, time.Now())
			fmt.Fprintf(out, "[%s] %d/%d redeemed, %d remaining | %s\n",
				time.Now().Format("15:04:05"), stats.ItemsRedeemed, stats.ItemsAvailable, stats.ItemsRemaining, banner.Message)
		})

		if err := a.service.Start(ctx); err != nil {
			return err
		}
		a.telegram.SendWatchStartedMessage(a.cfg.CandyMachineID.String(), a.store.AuthorizedWallet(), a.cfg.CheckInterval)

		<-ctx.Done()
		a.logger.Info("received termination signal, shutting down", zap.Int("items", len(a.service.Items())))
		return nil
	},
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Summarize the mints recorded by this client",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if a.recorder == nil {
			return errors.New("mint ledger is unavailable")
		}
		summary, err := a.recorder.GetMintSummary()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Mints last 24h: %d\n", summary.Last24h)
		fmt.Fprintf(out, "Mints last week: %d\n", summary.LastWeek)
		fmt.Fprintf(out, "Mints total: %d\n", summary.Total)
		fmt.Fprintf(out, "Failed attempts: %d\n", summary.Failed)
		fmt.Fprintf(out, "Fees paid: %.6f SOL\n", summary.FeesSol)
		return nil
	},
}

func init() {
	connectCmd.Flags().Bool("interactive", false, "Ask for approval instead of reusing a previous grant")
}

func printStats(out io.Writer, s *service.DropService) {
	stats, _ := s.Stats()
	banner := s.Banner(time.Now())
	button := s.MintButton()

	fmt.Fprintln(out, banner.Message)
	fmt.Fprintf(out, "Items available: %d\n", stats.ItemsAvailable)
	fmt.Fprintf(out, "Items redeemed:  %d\n", stats.ItemsRedeemed)
	fmt.Fprintf(out, "Items remaining: %d\n", stats.ItemsRemaining)
	fmt.Fprintf(out, "Price: %.4f SOL\n", float64(stats.Price)/1_000_000_000)
	fmt.Fprintf(out, "[ %s ]\n", button.Label)
}
