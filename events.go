package mcsession

import (
	"io"

	"github.com/mmiura-2351/mcsession/internal/api"
	"github.com/mmiura-2351/mcsession/internal/notify"
	"github.com/mmiura-2351/mcsession/store"
)

// Event types published by the [Manager].
const (
	// EventTokensRefreshed carries the new token pair after a successful refresh.
	EventTokensRefreshed = notify.TypeTokensRefreshed
	// EventLoggedOut signals that the session became invalid and auth data was cleared.
	EventLoggedOut = notify.TypeLoggedOut
)

// TokenPair carries an access/refresh token pair.
type TokenPair = store.TokenPair

// UserProfile is the persisted dashboard user identity.
type UserProfile = store.UserProfile

// Event is a structured session lifecycle record emitted by the manager.
type Event = notify.Event

// Sink receives [Event] values from the manager's notification dispatcher.
type Sink = notify.Sink

// NoOpSink is a [Sink] that silently discards all events.
type NoOpSink = notify.NoOpSink

// ChannelSink is a buffered channel-based [Sink].
type ChannelSink = notify.ChannelSink

// JSONWriterSink is a [Sink] that writes JSON-encoded events to an
// [io.Writer]. Token values are never serialized.
type JSONWriterSink = notify.JSONWriterSink

// APIError is the structured failure result of a refresh call. Status is
// zero when the request never produced an HTTP response.
type APIError = api.Error

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return notify.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return notify.NewJSONWriterSink(w)
}
