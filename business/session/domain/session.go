// Package domain contains the client session and price subscription types.
package domain

import (
	"time"

	quotingdomain "github.com/fd1az/tonswap/business/quoting/domain"
)

// State is a session's lifecycle position. Disconnected is terminal.
type State int

const (
	StateConnected State = iota
	StateSubscribed
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateSubscribed:
		return "subscribed"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Subscription is a periodic price push. Empty Pairs means every pair.
type Subscription struct {
	Pairs    []string
	Interval time.Duration
}

// Session is a point-in-time view of one client.
type Session struct {
	ID           string
	State        State
	Subscription *Subscription
	ConnectedAt  time.Time
}

// PriceUpdate is one tick of a subscription.
type PriceUpdate struct {
	Prices    map[string]quotingdomain.PriceEntry
	Timestamp time.Time
}
