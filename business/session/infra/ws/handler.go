// Package ws serves the client WebSocket protocol on top of the session
// manager, the swap service and the quote aggregator.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	quotingdomain "github.com/fd1az/tonswap/business/quoting/domain"
	"github.com/fd1az/tonswap/business/session/app"
	"github.com/fd1az/tonswap/business/session/domain"
	swapapp "github.com/fd1az/tonswap/business/swap/app"
	swapdomain "github.com/fd1az/tonswap/business/swap/domain"
	"github.com/fd1az/tonswap/internal/apperror"
	"github.com/fd1az/tonswap/internal/asset"
	"github.com/fd1az/tonswap/internal/logger"
	"github.com/fd1az/tonswap/internal/wsconn"
)

const meterName = "ws"

// Swapper answers estimate and build requests.
type Swapper interface {
	Estimate(ctx context.Context, req swapapp.EstimateRequest) (*swapdomain.EstimateResult, error)
	Build(ctx context.Context, req swapapp.BuildRequest) (*swapdomain.BuildResult, error)
}

// Lister lists pools and assets per backend.
type Lister interface {
	Pools(ctx context.Context, dex string) map[string][]quotingdomain.Pool
	Assets(ctx context.Context) map[string][]asset.Asset
}

// Sessions is the session lifecycle the handler drives.
type Sessions interface {
	Connect(sink app.Sink) string
	Subscribe(ctx context.Context, id string, pairs []string, interval time.Duration) (domain.Subscription, error)
	Unsubscribe(ctx context.Context, id string) error
	Disconnect(id string)
}

var (
	_ Swapper  = (*swapapp.Service)(nil)
	_ Sessions = (*app.Manager)(nil)
	_ app.Sink = (*client)(nil)
)

// Handler upgrades requests and runs one read loop per connection.
type Handler struct {
	sessions Sessions
	swap     Swapper
	lister   Lister
	config   wsconn.Config
	logger   logger.LoggerInterface

	messages metric.Int64Counter
}

// NewHandler creates a WebSocket handler.
func NewHandler(sessions Sessions, swap Swapper, lister Lister, config wsconn.Config, log logger.LoggerInterface) (*Handler, error) {
	messages, err := otel.Meter(meterName).Int64Counter(
		"ws_messages_total",
		metric.WithDescription("Inbound WebSocket messages by type"),
	)
	if err != nil {
		return nil, err
	}

	return &Handler{
		sessions: sessions,
		swap:     swap,
		lister:   lister,
		config:   config,
		logger:   log,
		messages: messages,
	}, nil
}

// client adapts a connection to the session manager's sink.
type client struct {
	conn *wsconn.Conn
}

func (c *client) ID() string {
	return c.conn.ID()
}

func (c *client) PushPrices(ctx context.Context, update domain.PriceUpdate) error {
	prices := update.Prices
	if prices == nil {
		prices = map[string]quotingdomain.PriceEntry{}
	}
	return c.conn.SendJSON(ctx, priceUpdateMessage{
		header:    header{Type: TypePriceUpdate},
		Prices:    prices,
		Timestamp: update.Timestamp.UnixMilli(),
	})
}

// ServeHTTP handles one client connection until it closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := wsconn.Accept(w, r, h.config)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	id := h.sessions.Connect(&client{conn: conn})
	h.logger.Info(ctx, "client connected", "client", id, "remote", r.RemoteAddr)

	h.send(ctx, conn, connectedMessage{
		header:    header{Type: TypeConnected},
		ClientID:  id,
		Message:   msgConnected,
		Timestamp: time.Now().UnixMilli(),
	})

	var inflight sync.WaitGroup
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			if apperror.GetCode(err) != apperror.CodeWebSocketClosed {
				h.logger.Warn(ctx, "websocket read failed", "client", id, "error", err)
			}
			break
		}
		h.dispatch(ctx, conn, id, data, &inflight)
	}

	// The refresh task stops here; in-flight requests only need the conn.
	h.sessions.Disconnect(id)
	cancel()
	inflight.Wait()
	_ = conn.Close()

	h.logger.Info(context.Background(), "client disconnected", "client", id)
}

func (h *Handler) dispatch(ctx context.Context, conn *wsconn.Conn, id string, data []byte, inflight *sync.WaitGroup) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.send(ctx, conn, errorMessage{header: header{Type: TypeError}, Error: msgInvalidEnvelope})
		return
	}
	h.messages.Add(ctx, 1, metric.WithAttributes(attribute.String("type", env.Type)))

	hdr := func(typ string) header {
		return header{Type: typ, RequestID: env.RequestID}
	}

	switch env.Type {
	case TypeSubscribePrices:
		var req subscribeRequest
		if err := json.Unmarshal(data, &req); err != nil {
			h.send(ctx, conn, errorMessage{header: hdr(TypeError), Error: msgInvalidEnvelope})
			return
		}
		interval := time.Duration(req.Interval * float64(time.Millisecond))
		sub, err := h.sessions.Subscribe(ctx, id, req.Pairs, interval)
		if err != nil {
			h.send(ctx, conn, errorMessage{header: hdr(TypeError), Error: apperror.PublicMessage(err)})
			return
		}
		h.send(ctx, conn, subscribedMessage{
			header:   hdr(TypeSubscribed),
			Pairs:    sub.Pairs,
			Interval: sub.Interval.Milliseconds(),
			Message:  msgSubscribed,
		})

	case TypeUnsubscribePrices:
		if err := h.sessions.Unsubscribe(ctx, id); err != nil {
			h.logger.Warn(ctx, "unsubscribe failed", "client", id, "error", err)
		}
		h.send(ctx, conn, unsubscribedMessage{header: hdr(TypeUnsubscribed), Message: msgUnsubscribed})

	case TypePing:
		h.send(ctx, conn, pongMessage{header: hdr(TypePong), Timestamp: time.Now().UnixMilli()})

	case TypeEstimate:
		var req swapapp.EstimateRequest
		if err := json.Unmarshal(data, &req); err != nil {
			h.send(ctx, conn, errorMessage{header: hdr(TypeError), Error: msgInvalidEnvelope})
			return
		}
		h.async(inflight, func() {
			res, err := h.swap.Estimate(ctx, req)
			if err != nil {
				h.sendError(ctx, conn, hdr(TypeEstimateErr), err)
				return
			}
			h.send(ctx, conn, estimateMessage{header: hdr(TypeEstimateOK), EstimateResult: res, Timestamp: time.Now().UnixMilli()})
		})

	case TypeBuild:
		var req swapapp.BuildRequest
		if err := json.Unmarshal(data, &req); err != nil {
			h.send(ctx, conn, errorMessage{header: hdr(TypeError), Error: msgInvalidEnvelope})
			return
		}
		h.async(inflight, func() {
			res, err := h.swap.Build(ctx, req)
			if err != nil {
				h.sendError(ctx, conn, hdr(TypeBuildErr), err)
				return
			}
			h.send(ctx, conn, buildMessage{header: hdr(TypeBuildOK), BuildResult: res, Timestamp: time.Now().UnixMilli()})
		})

	case TypeGetPools:
		var req poolsRequest
		if err := json.Unmarshal(data, &req); err != nil {
			h.send(ctx, conn, errorMessage{header: hdr(TypeError), Error: msgInvalidEnvelope})
			return
		}
		h.async(inflight, func() {
			pools := h.lister.Pools(ctx, req.Dex)
			if err := ctx.Err(); err != nil {
				h.sendError(ctx, conn, hdr(TypePoolsErr), apperror.New(apperror.CodeServiceTimeout, apperror.WithCause(err)))
				return
			}
			h.send(ctx, conn, poolsMessage{
				header:    hdr(TypePoolsOK),
				Success:   true,
				Pools:     pools,
				Timestamp: time.Now().UnixMilli(),
			})
		})

	case TypeGetAssets:
		h.async(inflight, func() {
			assets := h.lister.Assets(ctx)
			if err := ctx.Err(); err != nil {
				h.sendError(ctx, conn, hdr(TypeAssetsErr), apperror.New(apperror.CodeServiceTimeout, apperror.WithCause(err)))
				return
			}
			h.send(ctx, conn, assetsMessage(hdr(TypeAssetsOK), assets, time.Now()))
		})

	default:
		h.send(ctx, conn, errorMessage{header: hdr(TypeError), Error: msgUnknownType, ReceivedType: env.Type})
	}
}

func (h *Handler) async(inflight *sync.WaitGroup, fn func()) {
	inflight.Add(1)
	go func() {
		defer inflight.Done()
		fn()
	}()
}

func (h *Handler) sendError(ctx context.Context, conn *wsconn.Conn, hdr header, err error) {
	h.send(ctx, conn, errorMessage{header: hdr, Error: apperror.PublicMessage(err)})
}

// send writes v, dropping it when the connection is already gone.
func (h *Handler) send(ctx context.Context, conn *wsconn.Conn, v any) {
	if err := conn.SendJSON(context.WithoutCancel(ctx), v); err != nil {
		if apperror.GetCode(err) == apperror.CodeWebSocketClosed || errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		h.logger.Warn(ctx, "websocket send failed", "client", conn.ID(), "error", err)
	}
}
