package webd

import (
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	ghandlers "github.com/gorilla/handlers"
)

// tokenAuthenticationMiddleware checks the request token against Config.Token.
// If no token is configured, it allows all requests.
// Clients send the token as "Authorization: Bearer <token>" or as the api_token query param.
func (s *WebDaemon) tokenAuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		validToken := s.Config.Token
		if validToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			token = r.URL.Query().Get("api_token")
		}
		if token != validToken {
			s.logger.Warn("Invalid token",
				"method", r.Method, "url", r.URL, "remote-addr", r.RemoteAddr,
				"user-agent", r.UserAgent())
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func permissiveCorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Add("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
		next.ServeHTTP(w, r)
	})
}

func contentTypeMiddlewareFunc(contentType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentType)
			next.ServeHTTP(w, r)
		})
	}
}

// remoteHost is the client host, followed by any X-Forwarded-For hops.
func remoteHost(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}
	for _, v := range req.Header.Values("X-Forwarded-For") {
		host += "->" + v
	}
	return host
}

// writeLog logs one request to the daemon logger, in place of an Apache common log line.
func (s *WebDaemon) writeLog(_ io.Writer, params ghandlers.LogFormatterParams) {
	req := params.Request
	uri := req.RequestURI
	if uri == "" {
		uri = params.URL.RequestURI()
	}
	s.logger.Info("HTTP",
		"remote", remoteHost(req),
		"method", req.Method,
		"uri", uri,
		"proto", req.Proto,
		"status", params.StatusCode,
		"size", params.Size,
		"elapsed", time.Since(params.TimeStamp).Round(time.Microsecond),
	)
}

// https://github.com/gorilla/mux#middleware
func (s *WebDaemon) loggingMiddleware(next http.Handler) http.Handler {
	return ghandlers.CustomLoggingHandler(io.Discard, next, s.writeLog)
}
