package ws

import (
	"encoding/json"
	"time"

	quotingdomain "github.com/fd1az/tonswap/business/quoting/domain"
	swapdomain "github.com/fd1az/tonswap/business/swap/domain"
	"github.com/fd1az/tonswap/internal/asset"
)

// Inbound message types.
const (
	TypeSubscribePrices   = "subscribe_prices"
	TypeUnsubscribePrices = "unsubscribe_prices"
	TypeEstimate          = "estimate"
	TypeBuild             = "build"
	TypeGetPools          = "get_pools"
	TypeGetAssets         = "get_assets"
	TypePing              = "ping"
)

// Outbound message types.
const (
	TypeConnected    = "connected"
	TypeSubscribed   = "subscribed"
	TypeUnsubscribed = "unsubscribed"
	TypePriceUpdate  = "price_update"
	TypeEstimateOK   = "estimate_result"
	TypeEstimateErr  = "estimate_error"
	TypeBuildOK      = "build_result"
	TypeBuildErr     = "build_error"
	TypePoolsOK      = "pools_result"
	TypePoolsErr     = "pools_error"
	TypeAssetsOK     = "assets_result"
	TypeAssetsErr    = "assets_error"
	TypePong         = "pong"
	TypeError        = "error"
)

const (
	msgConnected       = "Connected to TON Swap Server"
	msgSubscribed      = "Price subscription active"
	msgUnsubscribed    = "Price subscription cancelled"
	msgUnknownType     = "Unknown message type"
	msgInvalidEnvelope = "Invalid message format"
)

// envelope is the part every inbound message shares.
type envelope struct {
	Type      string          `json:"type"`
	RequestID json.RawMessage `json:"requestId,omitempty"`
}

type subscribeRequest struct {
	Pairs    []string `json:"pairs"`
	Interval float64  `json:"interval"` // milliseconds, 0 for the default
}

type poolsRequest struct {
	Dex string `json:"dex"`
}

// header starts every outbound message. RequestID is echoed verbatim.
type header struct {
	Type      string          `json:"type"`
	RequestID json.RawMessage `json:"requestId,omitempty"`
}

type connectedMessage struct {
	header
	ClientID  string `json:"clientId"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type subscribedMessage struct {
	header
	Pairs    []string `json:"pairs"`
	Interval int64    `json:"interval"`
	Message  string   `json:"message"`
}

type unsubscribedMessage struct {
	header
	Message string `json:"message"`
}

type priceUpdateMessage struct {
	header
	Prices    map[string]quotingdomain.PriceEntry `json:"prices"`
	Timestamp int64                               `json:"timestamp"`
}

type estimateMessage struct {
	header
	*swapdomain.EstimateResult
	Timestamp int64 `json:"timestamp"`
}

type buildMessage struct {
	header
	*swapdomain.BuildResult
	Timestamp int64 `json:"timestamp"`
}

type poolsMessage struct {
	header
	Success   bool                            `json:"success"`
	Pools     map[string][]quotingdomain.Pool `json:"pools"`
	Timestamp int64                           `json:"timestamp"`
}

type pongMessage struct {
	header
	Timestamp int64 `json:"timestamp"`
}

type errorMessage struct {
	header
	Error        string `json:"error"`
	ReceivedType string `json:"receivedType,omitempty"`
}

// assetsMessage has one key per backend, so it is rendered as a map.
func assetsMessage(h header, byBackend map[string][]asset.Asset, now time.Time) map[string]any {
	out := make(map[string]any, len(byBackend)+4)
	for name, list := range byBackend {
		out[name] = list
	}
	out["type"] = h.Type
	if len(h.RequestID) > 0 {
		out["requestId"] = h.RequestID
	}
	out["success"] = true
	out["timestamp"] = now.UnixMilli()
	return out
}
