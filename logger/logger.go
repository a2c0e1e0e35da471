package logger

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/kamari/service/config"
)

// Init configures the process logger and returns a cleanup func closing the
// log file, if any.
func Init(c config.Log) (func(), error) {
	l, err := logrus.ParseLevel(c.Level)
	if err != nil {
		l = logrus.InfoLevel
	}
	logrus.SetLevel(l)

	if c.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}

	var file *os.File
	switch c.Output {
	case "stderr":
		logrus.SetOutput(os.Stderr)
	case "file":
		if c.File == "" {
			return nil, fmt.Errorf("log.file is required for file output")
		}
		if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
			return nil, fmt.Errorf("log dir: %w", err)
		}
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("log: %w", err)
		}
		logrus.SetOutput(f)
		file = f
	default:
		logrus.SetOutput(os.Stdout)
	}

	return func() {
		if file != nil {
			file.Close()
		}
	}, nil
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// Debugf 调试输出
func Debugf(fields map[string]interface{}, format string, args ...interface{}) {
	if fields == nil {
		logrus.Debugf(format, args...)
	} else {
		logrus.WithFields(fields).Debugf(format, args...)
	}
}

// Infof 信息输出
func Infof(fields map[string]interface{}, format string, args ...interface{}) {
	if fields == nil {
		logrus.Infof(format, args...)
	} else {
		logrus.WithFields(fields).Infof(format, args...)
	}
}

// Warnf 告警输出
func Warnf(fields map[string]interface{}, format string, args ...interface{}) {
	if fields == nil {
		logrus.Warnf(format, args...)
	} else {
		logrus.WithFields(fields).Warnf(format, args...)
	}
}

// Errorf 错误输出
func Errorf(fields map[string]interface{}, format string, args ...interface{}) {
	if fields == nil {
		logrus.Errorf(format, args...)
	} else {
		logrus.WithFields(fields).Errorf(format, args...)
	}
}

// Middleware logs one line per request.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			entry := logrus.WithFields(logrus.Fields{
				"method":  req.Method,
				"path":    c.Path(),
				"uri":     req.RequestURI,
				"status":  c.Response().Status,
				"latency": time.Since(start).String(),
				"remote":  c.RealIP(),
			})
			if err != nil {
				entry.WithError(err).Warn("request failed")
			} else if c.Response().Status >= http.StatusInternalServerError {
				// recovered panics arrive already handled
				entry.Warn("request failed")
			} else {
				entry.Debug("request")
			}
			return nil
		}
	}
}
