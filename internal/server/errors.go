package server

import "errors"

// Moderation contract violations. These are reported to the caller and are
// never fatal to the server.
var (
	ErrAlreadyDecided = errors.New("bid already decided")
	ErrSuperseded     = errors.New("bid superseded by a higher approved bid")
	ErrAuctionClosed  = errors.New("auction is closed")
	ErrServerBusy     = errors.New("auction room is busy")
	ErrServerStopped  = errors.New("auction server is stopped")
)

// Structured intake rejection reasons, sent to the submitting user in a
// bid_rejected event. Never a silent drop.
const (
	ReasonMalformed       = "malformed"
	ReasonAuctionInactive = "auction_inactive"
	ReasonAmountTooLow    = "amount_too_low"
	ReasonSelfBid         = "self_bid"
	ReasonAuctionEnded    = "auction_ended"
)
