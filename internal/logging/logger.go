// Package logging sets up structured logging and carries a per-request
// logger through context.Context, adapted from the teacher's
// core/logger package.
package logging

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKeyType struct{}

var contextKey = &contextKeyType{}

const requestIDField = "requestID"

// Init configures the package-wide logrus formatter and level.
func Init(level logrus.Level) {
	formatter := new(logrus.TextFormatter)
	formatter.TimestampFormat = "2006-01-02 15:04:05"
	formatter.FullTimestamp = true
	logrus.SetFormatter(formatter)
	logrus.SetLevel(level)
}

// Middleware attaches a fresh request-scoped logger to every inbound
// request's context, so downstream handlers and the request log
// manager can tag every line with the same request id.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := ContextWithLogger(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ContextWithLogger returns ctx unchanged if it already carries a
// logger, otherwise a child context with a fresh one tagged with a new
// request id.
func ContextWithLogger(ctx context.Context) (context.Context, *logrus.Entry) {
	if ctx == nil {
		ctx = context.Background()
	} else if entry := fromContext(ctx); entry != nil {
		return ctx, entry
	}
	id := uuid.New().String()
	entry := logrus.WithField(requestIDField, id)
	return context.WithValue(ctx, contextKey, entry), entry
}

// FromContext returns the request-scoped logger, or the package
// default if ctx carries none.
func FromContext(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	if entry := fromContext(ctx); entry != nil {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// RequestIDFromContext returns the request id tagged on ctx's logger,
// or "" if none.
func RequestIDFromContext(ctx context.Context) string {
	entry := fromContext(ctx)
	if entry == nil {
		return ""
	}
	if v, ok := entry.Data[requestIDField].(string); ok {
		return v
	}
	return ""
}

func fromContext(ctx context.Context) *logrus.Entry {
	entry, ok := ctx.Value(contextKey).(*logrus.Entry)
	if !ok {
		return nil
	}
	return entry
}
