// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// LogMiddleware is an HTTP middleware that logs incoming requests using Logrus.
// Logs the method, path, and duration of each request.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := r.URL.Path
			method := r.Method

			next.ServeHTTP(w, r)

			duration := time.Since(start)
			logger.WithFields(logrus.Fields{
				"method":   method,
				"path":     path,
				"duration": duration,
				"remote":   r.RemoteAddr,
			}).Info("HTTP Request")
		})
	}
}

// LogDeviceConnect logs a scanner device opening its WebSocket feed.
func LogDeviceConnect(logger *logrus.Logger, deviceID, remoteAddr, path string) {
	logger.WithFields(logrus.Fields{
		"device": deviceID,
		"remote": remoteAddr,
		"path":   path,
	}).Info("Scanner device connected")
}

// LogDeviceDisconnect logs a scanner device dropping its WebSocket feed.
func LogDeviceDisconnect(logger *logrus.Logger, deviceID, remoteAddr, path string, err error) {
	fields := logrus.Fields{
		"device": deviceID,
		"remote": remoteAddr,
		"path":   path,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("Scanner device disconnected")
}
