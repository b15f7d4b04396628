package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/chaos-io/bgclear/rembg"
	"github.com/chaos-io/bgclear/server"
)

func newServeCmd() *cobra.Command {
	var (
		addr    string
		maxSize int64
		maxSide int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve background removal over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gin.SetMode(gin.ReleaseMode)

			cfg := server.Config{Addr: addr, MaxUploadBytes: maxSize}
			if maxSide > 0 {
				cfg.Options = append(cfg.Options, rembg.WithMaxSide(maxSide))
			}
			return server.New(cfg).ListenAndServe()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().Int64Var(&maxSize, "max-upload-bytes", server.DefaultMaxUploadBytes, "Maximum upload size in bytes")
	cmd.Flags().IntVar(&maxSide, "max-side", 0, "Downscale so the longest side is at most N pixels (0 keeps the size); resampling loses the RGB of fully transparent pixels")
	return cmd
}
