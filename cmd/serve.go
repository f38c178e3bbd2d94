package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/edalens/internal/server"
	"github.com/spf13/cobra"
)

var (
	srvAddr  string
	srvQuiet bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP JSON API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := settings()
		addr := st.ServerAddr
		if cmd.Flags().Changed("addr") {
			addr = srvAddr
		}
		opt := server.OptionsFromConfig(st)
		var err error
		if opt.Dataset, err = datasetOptions(); err != nil {
			return err
		}
		if !srvQuiet {
			opt.Logf = func(format string, args ...any) {
				fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		successf(cmd.OutOrStdout(), "Listening on http://%s (max upload %d MB, %d sessions)", addr, st.MaxUploadMB, st.SessionLimit)
		if err := server.New(opt).Run(ctx, addr); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		successf(cmd.OutOrStdout(), "Server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "127.0.0.1:8501", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&srvQuiet, "quiet", false, "do not log requests")
}
