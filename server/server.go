package server

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"

	"github.com/chaos-io/bgclear/rembg"
	"github.com/chaos-io/bgclear/util"
)

const (
	DefaultMaxUploadBytes = 32 << 20

	formField       = "image"
	requestIDHeader = "X-Request-Id"
	clearedHeader   = "X-Cleared-Pixels"
)

type Config struct {
	Addr           string
	MaxUploadBytes int64
	Options        []rembg.Option
}

type Server struct {
	cfg Config
	rem *rembg.DarkRemBG
}

func New(cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Server{
		cfg: cfg,
		rem: rembg.NewDarkRemBG(cfg.Options...),
	}
}

// Handler 返回注册好路由的 gin 引擎
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/v1/remove-background", s.removeBackground)
	return r
}

// ListenAndServe 阻塞直到服务退出
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("listening", "addr", s.cfg.Addr)
	return srv.ListenAndServe()
}

func (s *Server) removeBackground(c *gin.Context) {
	if c.Request.ContentLength > s.cfg.MaxUploadBytes {
		abortWithError(c, http.StatusRequestEntityTooLarge, errors.New("upload too large"))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	fh, err := c.FormFile(formField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			abortWithError(c, http.StatusRequestEntityTooLarge, err)
			return
		}
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	file, err := fh.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	defer func() {
		_ = file.Close()
	}()

	img, format, err := util.DecodeImage(file)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	out, cleared, err := s.rem.RemoveCount(c.Request.Context(), img)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	var buf bytes.Buffer
	if err := util.EncodePNG(&buf, out); err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	slog.Debug("removed background", "file", fh.Filename, "format", format, "cleared", cleared)
	c.Header(clearedHeader, strconv.Itoa(cleared))
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func abortWithError(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = ksuid.New().String()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"id", c.GetString(requestIDHeader),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
