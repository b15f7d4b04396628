package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeBlackPNG(t *testing.T, path string) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestRemoveCmd(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "rv_logo_raw.png")
	out := filepath.Join(dir, "rv_logo.png")
	writeBlackPNG(t, in)

	stdout, err := execute(t, "remove", "-i", in, "-o", out)
	require.NoError(t, err)
	assert.Equal(t, "Success\n", stdout)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 0}, color.NRGBAModel.Convert(img.At(1, 1)))
}

func TestRemoveCmd_Error(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "rv_logo.png")

	stdout, err := execute(t, "remove", "-i", filepath.Join(dir, "missing.png"), "-o", out)
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, stdout, "Error: ")
	assert.Contains(t, stdout, "missing.png")
	assert.NoFileExists(t, out)
}

func TestRemoveCmd_InvalidSchedule(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "remove",
		"-i", filepath.Join(dir, "in.png"),
		"-o", filepath.Join(dir, "out.png"),
		"--schedule", "not a cron spec")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schedule")
}

func TestRunScheduled(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	writeBlackPNG(t, in)

	var stdout bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	opts := &removeOptions{input: in, output: out, schedule: "@every 1h"}
	require.NoError(t, runScheduled(ctx, cmd, opts))

	assert.Equal(t, "Success\n", stdout.String())
	assert.FileExists(t, out)
}

func TestNewScheduledJob_NoOverlap(t *testing.T) {
	var (
		calls   atomic.Int32
		started = make(chan struct{})
		release = make(chan struct{})
	)
	job := newScheduledJob(slogCronLogger{}, func() {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		job.Run()
	}()
	<-started

	// 上一次还在执行，这次应被跳过并立即返回
	job.Run()
	assert.Equal(t, int32(1), calls.Load())

	close(release)
	wg.Wait()

	// 结束后可以再次执行
	go job.Run()
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 10*time.Millisecond)
}

func TestRunScheduled_ContextReachesJob(t *testing.T) {
	var stdout bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	opts := &removeOptions{
		input:    "http://127.0.0.1:1/rv_logo_raw.png",
		output:   filepath.Join(dir, "out.png"),
		schedule: "@every 1h",
	}
	require.NoError(t, runScheduled(ctx, cmd, opts))

	assert.Contains(t, stdout.String(), "Error: ")
	assert.Contains(t, stdout.String(), "context canceled")
	assert.NoFileExists(t, opts.output)
}
