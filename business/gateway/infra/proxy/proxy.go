// Package proxy forwards wallet API calls to the upstream and serves the
// dapp catalog locally.
package proxy

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/fd1az/tonswap/internal/apperror"
	"github.com/fd1az/tonswap/internal/config"
	"github.com/fd1az/tonswap/internal/httpclient"
	"github.com/fd1az/tonswap/internal/logger"
	"github.com/fd1az/tonswap/internal/web"
)

const (
	catalogPath = "/v2/dapp/catalog"
	robotsPath  = "/robots.txt"

	headerAppEnv = "X-App-Env"

	defaultMaxBodyBytes = 10 << 20
)

// Catalog returns the current catalog document.
type Catalog interface {
	Get() json.RawMessage
}

// Handler is the reverse proxy.
type Handler struct {
	client   httpclient.Client
	catalog  Catalog
	prefixes []string
	allowed  []string
	appEnv   string
	maxBody  int64
	logger   logger.LoggerInterface
}

// NewHandler creates a proxy for cfg.UpstreamURL.
func NewHandler(cfg config.ProxyConfig, catalog Catalog, log logger.LoggerInterface) (*Handler, error) {
	opts := []httpclient.ClientOption{
		httpclient.WithBaseURL(cfg.UpstreamURL),
		httpclient.WithProviderName("proxy"),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, httpclient.WithRequestTimeout(cfg.Timeout))
	}

	client, err := httpclient.NewInstrumentedClient(opts...)
	if err != nil {
		return nil, err
	}

	appEnv := cfg.AppEnv
	if appEnv == "" {
		appEnv = "Production"
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	return &Handler{
		client:   client,
		catalog:  catalog,
		prefixes: cfg.Prefixes,
		allowed:  cfg.AllowedOrigins,
		appEnv:   appEnv,
		maxBody:  maxBody,
		logger:   log,
	}, nil
}

// Mount registers one catch-all route per prefix.
func (h *Handler) Mount(r *mux.Router) {
	for _, prefix := range h.prefixes {
		prefix := strings.TrimSuffix(prefix, "/")
		r.PathPrefix(prefix).Handler(h.strip(prefix))
	}
}

func (h *Handler) strip(prefix string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, prefix)
		if path == "" {
			path = "/"
		}
		if !strings.HasPrefix(path, "/") {
			// A sibling path such as /proxyfoo.
			http.NotFound(w, r)
			return
		}
		h.serve(w, r, path)
	})
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, path string) {
	web.SetCORSHeaders(w, r, h.allowed)

	switch {
	case r.Method == http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case path == catalogPath:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(h.catalog.Get())
	case path == robotsPath:
		w.WriteHeader(http.StatusOK)
	default:
		h.forward(w, r, path)
	}
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request, path string) {
	ctx := r.Context()

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	appEnv := r.Header.Get(headerAppEnv)
	if appEnv == "" {
		appEnv = h.appEnv
	}

	req := h.client.NewRequest().
		SetHeader("Content-Type", contentType).
		SetHeader("Accept", "application/json").
		SetHeader(headerAppEnv, appEnv).
		SetRawQuery(r.URL.RawQuery)

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				web.WriteJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
					"error": "request body exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
				})
				return
			}
			h.fail(w, r, path, err)
			return
		}
		req = req.SetBody(body)
	}

	resp, err := req.Execute(ctx, r.Method, path)
	if err != nil {
		h.fail(w, r, path, err)
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body())
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, path string, err error) {
	h.logger.Warn(r.Context(), "proxy request failed", "method", r.Method, "path", path, "error", err)

	appErr := apperror.New(apperror.CodeUpstreamProxyError, apperror.WithCause(err))
	web.WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": appErr.Error(),
	})
}
