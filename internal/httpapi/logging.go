package httpapi

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"findd/pkg/types"
)

// zlog is the structured logger used by the HTTP layer. Nop until SetLogger.
var zlog = zerolog.Nop()

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = l.With().Str("component", "http").Logger() }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = parseLevel(os.Getenv("FINDD_LOG_LEVEL"))

// SetDefaultLogLevel overrides the level used when a request carries none.
func SetDefaultLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// requestEvent starts a log event carrying the request id, or nil when lvl
// is below floor.
func requestEvent(r *http.Request, lvl, floor LogLevel) *zerolog.Event {
	if lvl < floor {
		return nil
	}
	var e *zerolog.Event
	switch floor {
	case LevelError:
		e = zlog.Error()
	case LevelDebug:
		e = zlog.Debug()
	default:
		e = zlog.Info()
	}
	e = e.Str("path", r.URL.Path)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		e = e.Str("request_id", rid)
	}
	return e
}

// logSearchEnd writes the end-of-request line; statuses are included at debug.
func logSearchEnd(r *http.Request, lvl LogLevel, status int, start time.Time, resp *types.SearchResponse, err error) {
	floor := LevelInfo
	if err != nil && status >= 500 {
		floor = LevelError
	}
	e := requestEvent(r, lvl, floor)
	if e == nil {
		return
	}
	e = e.Int("status", status).Dur("dur", time.Since(start))
	if resp != nil {
		e = e.Bool("handled", resp.Handled).Int("results", len(resp.Paths))
		if lvl >= LevelDebug {
			texts := make([]string, 0, len(resp.Statuses))
			for _, s := range resp.Statuses {
				texts = append(texts, s.Text)
			}
			e = e.Strs("statuses", texts)
		}
	}
	if err != nil {
		e = e.Err(err)
	}
	e.Msg("search end")
}
