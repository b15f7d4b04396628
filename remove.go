package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/chaos-io/bgclear/rembg"
	"github.com/chaos-io/bgclear/util"
)

const (
	defaultInput  = "public/rv_logo_raw.png"
	defaultOutput = "public/rv_logo.png"
)

type removeOptions struct {
	input    string
	output   string
	maxSide  int
	schedule string
}

func defaultRemoveOptions() *removeOptions {
	return &removeOptions{input: defaultInput, output: defaultOutput}
}

func newRemoveCmd() *cobra.Command {
	opts := defaultRemoveOptions()

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Replace near-black pixels with transparency and save as PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", defaultInput, "Input image path or http(s) URL")
	cmd.Flags().StringVarP(&opts.output, "output", "o", defaultOutput, "Output PNG path")
	cmd.Flags().IntVar(&opts.maxSide, "max-side", 0, "Downscale so the longest side is at most N pixels (0 keeps the size); resampling loses the RGB of fully transparent pixels")
	cmd.Flags().StringVar(&opts.schedule, "schedule", "", "Cron spec to repeat the conversion, e.g. \"@every 5m\"")
	return cmd
}

func runRemove(cmd *cobra.Command, opts *removeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.schedule == "" {
		return removeOnce(ctx, cmd, opts)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runScheduled(ctx, cmd, opts)
}

// removeOnce 执行一次转换，成功输出 Success，失败输出 Error: <message>
func removeOnce(ctx context.Context, cmd *cobra.Command, opts *removeOptions) error {
	defer util.Trace("remove background")()

	var rembgOpts []rembg.Option
	if opts.maxSide > 0 {
		rembgOpts = append(rembgOpts, rembg.WithMaxSide(opts.maxSide))
	}

	res, err := rembg.RemoveBackgroundContext(ctx, opts.input, opts.output, rembgOpts...)
	if err != nil {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Error: %v\n", err)
		return errReported
	}

	slog.Debug("converted", "input", opts.input, "output", opts.output,
		"format", res.Format, "width", res.Width, "height", res.Height, "cleared", res.Cleared)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Success")
	return nil
}

// runScheduled 立即执行一次，之后按 cron 表达式重复，直到 ctx 结束。
// 首次执行和定时执行共用同一个 SkipIfStillRunning 包装，不会重叠
func runScheduled(ctx context.Context, cmd *cobra.Command, opts *removeOptions) error {
	logger := slogCronLogger{}
	c := cron.New(cron.WithLogger(logger))

	job := newScheduledJob(logger, func() {
		_ = removeOnce(ctx, cmd, opts)
	})
	if _, err := c.AddJob(opts.schedule, job); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", opts.schedule, err)
	}

	c.Start()
	slog.Info("scheduled", "spec", opts.schedule)
	job.Run()

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// newScheduledJob 上一次还没结束时跳过本次执行
func newScheduledJob(logger cron.Logger, fn func()) cron.Job {
	return cron.NewChain(cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(fn))
}

// slogCronLogger 把 cron 的日志转到 slog
type slogCronLogger struct{}

func (slogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug(msg, keysAndValues...)
}

func (slogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error(msg, append(keysAndValues, "error", err)...)
}
