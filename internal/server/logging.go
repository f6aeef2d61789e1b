package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/campus-connect/internal/auth"
	"github.com/oggyb/campus-connect/internal/logger"
)

const (
	metadataKeyRequestID = "x-request-id"
	headerRequestID      = "X-Request-ID"
)

// UnaryLoggingInterceptor attaches a request-scoped logger to the context and
// logs every completed call with its status code and latency.
func UnaryLoggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		child := log.With("request_id", requestIDFromMD(ctx), "grpc_method", info.FullMethod)

		resp, err := handler(logger.WithContext(ctx, child), req)

		logCompleted(ctx, child, "unary call completed", start, err)
		return resp, err
	}
}

// StreamLoggingInterceptor is the streaming counterpart of UnaryLoggingInterceptor.
func StreamLoggingInterceptor(log *slog.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		ctx := ss.Context()
		child := log.With("request_id", requestIDFromMD(ctx), "grpc_method", info.FullMethod)

		err := handler(srv, &wrappedStream{ServerStream: ss, ctx: logger.WithContext(ctx, child)})

		logCompleted(ctx, child, "stream call completed", start, err)
		return err
	}
}

func logCompleted(ctx context.Context, log *slog.Logger, msg string, start time.Time, err error) {
	code := status.Code(err)
	attrs := []any{"grpc_code", code.String(), "latency_ms", logger.Since(start)}
	if err != nil {
		attrs = append(attrs, "err", err)
	}
	level := slog.LevelInfo
	if code == codes.Internal || code == codes.Unknown {
		level = slog.LevelError
	}
	log.Log(ctx, level, msg, attrs...)
}

// wrappedStream overrides Context() to carry the request logger.
type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}

func requestIDFromMD(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(metadataKeyRequestID); len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
	}
	return uuid.NewString()
}

// GinLogging reads or generates X-Request-ID, stores a request logger in the
// request context and logs the completed request.
func GinLogging(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		child := log.With(
			"request_id", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
		)

		c.Header(headerRequestID, reqID)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), child))

		c.Next()

		attrs := []any{"status", c.Writer.Status(), "latency_ms", logger.Since(start)}
		if id, ok := auth.FromContext(c.Request.Context()); ok {
			attrs = append(attrs, "user", id.UserID)
		}
		child.Info("request completed", attrs...)
	}
}
