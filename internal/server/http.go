package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/oggyb/campus-connect/internal/app"
	"github.com/oggyb/campus-connect/internal/auth"
	"github.com/oggyb/campus-connect/internal/logger"
	"github.com/oggyb/campus-connect/internal/storage"
)

// multipartOverhead is the slack allowed on top of the image itself for
// boundaries and part headers.
const multipartOverhead = 64 << 10

var imageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// NewHTTPHandler builds the HTTP surface: health check, profile image upload
// and, for local storage, the static media files. The router is wrapped in CORS.
func NewHTTPHandler(appCtx *app.AppContext) http.Handler {
	if appCtx.Config.App.ENV != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), GinLogging(appCtx.Logger.With("component", "http")))

	h := &httpHandler{appCtx: appCtx}
	r.GET("/healthz", h.health)

	v1 := r.Group("/v1")
	v1.Use(auth.GinMiddleware(appCtx.Tokens))
	v1.POST("/profile/image", h.uploadImage)

	if local, ok := appCtx.Storage.(*storage.LocalStorage); ok {
		r.Static("/media", local.BasePath())
	}

	return cors.New(cors.Options{
		AllowedOrigins:   appCtx.Config.HTTP.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", headerRequestID},
		ExposedHeaders:   []string{headerRequestID},
		AllowCredentials: false,
	}).Handler(r)
}

type httpHandler struct {
	appCtx *app.AppContext
}

func (h *httpHandler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"db": "ok", "redis": "ok"}
	healthy := true

	if sqlDB, err := h.appCtx.DB.DB(); err != nil {
		checks["db"], healthy = err.Error(), false
	} else if err := sqlDB.PingContext(ctx); err != nil {
		checks["db"], healthy = err.Error(), false
	}
	if err := h.appCtx.RedisCache.Ping(ctx); err != nil {
		checks["redis"], healthy = err.Error(), false
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
}

// uploadImage stores a profile image and returns its public URL.
//
// Behavior:
//   - Multipart field "image"; the type is sniffed from content, not trusted from headers.
//   - jpeg, png, gif or webp up to storage.max_image_bytes.
//   - Stored under <identity>/<unix_ms>.<ext>.
//
// The URL is only stored on the profile by a later CreateProfile/UpdateProfile.
func (h *httpHandler) uploadImage(c *gin.Context) {
	log := logger.FromContext(c.Request.Context(), h.appCtx.Logger)
	user, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	limit := h.appCtx.Config.Storage.MaxImageBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	fh, err := c.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("image larger than %d bytes", limit)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"image\" is required"})
		return
	}
	if fh.Size > limit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("image larger than %d bytes", limit)})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := imageTypes[contentType]
	if !ok {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "image must be jpeg, png, gif or webp"})
		return
	}

	key := fmt.Sprintf("%s/%d.%s", user, time.Now().UnixMilli(), ext)
	url, err := h.appCtx.Storage.Upload(c.Request.Context(), key, io.MultiReader(bytes.NewReader(head), f), fh.Size, contentType)
	if err != nil {
		log.Error("image upload failed", "user", user, "key", key, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}

	log.Info("profile image uploaded", "user", user, "key", key, "bytes", fh.Size)
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// ServeHTTP runs handler on addr until ctx is done, then shuts down gracefully.
func ServeHTTP(ctx context.Context, handler http.Handler, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
