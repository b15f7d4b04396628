package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// errReported 表示错误已经以 "Error: ..." 的形式输出过
var errReported = errors.New("reported")

func newRootCmd() *cobra.Command {
	var verbose bool
	opts := defaultRemoveOptions()

	rootCmd := &cobra.Command{
		Use:           "bgclear",
		Short:         "Make the near-black background of an image transparent",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
		// 不带子命令时按默认路径执行一次 remove
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, opts)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newRemoveCmd(), newServeCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
