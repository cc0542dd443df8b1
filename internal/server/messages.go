package server

import (
	"net/http"
	"time"

	"github.com/antiqhall/go-auctionroom/internal/types"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is the envelope for everything a connection can send. Exactly
// one of the operation fields is set.
type ClientMessage struct {
	BaseMessage
	Join   *Join      `json:"join,omitempty"`
	Leave  *Leave     `json:"leave,omitempty"`
	Bid    *BidSubmit `json:"bid,omitempty"`
	UserId int        `json:"-"`
	client *Client    `json:"-"`
}

type Join struct {
	AuctionId string `json:"auction_id"`
}

type Leave struct {
	AuctionId string `json:"auction_id"`
}

type BidSubmit struct {
	AuctionId string  `json:"auction_id"`
	Amount    float64 `json:"amount"`
}

// ServerMessage is the envelope for everything pushed to a connection. UserId
// targets user-scoped delivery across rooms; zero means room- or global-scoped.
type ServerMessage struct {
	BaseMessage
	Response      *Response           `json:"response,omitempty"`
	BidUpdate     *BidUpdate          `json:"bid_update,omitempty"`
	AuctionUpdate *AuctionUpdate      `json:"auction_update,omitempty"`
	BidRejected   *BidRejected        `json:"bid_rejected,omitempty"`
	Notification  *types.Notification `json:"notification,omitempty"`
	Stats         map[string]int64    `json:"stats,omitempty"`
	UserId        int                 `json:"-"`
	SkipClient    *Client             `json:"-"`
}

type Response struct {
	ResponseCode int            `json:"response_code"`
	Error        string         `json:"error,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

// BidUpdate is emitted to the room once per approved transition.
type BidUpdate struct {
	AuctionId string  `json:"auction_id"`
	BidId     string  `json:"bid_id"`
	Amount    float64 `json:"amount"`
	BidderId  int     `json:"bidder_id"`
	SeqNum    int     `json:"seq_num"`
}

// AuctionUpdate is emitted to the room on every approved transition or
// status change.
type AuctionUpdate struct {
	AuctionId        string              `json:"auction_id"`
	CurrentBidAmount float64             `json:"current_bid_amount"`
	CurrentBidderId  int                 `json:"current_bidder_id,omitempty"`
	Status           types.AuctionStatus `json:"status"`
}

// BidRejected goes to the submitting user only, with a structured reason.
type BidRejected struct {
	BidId  string `json:"bid_id,omitempty"`
	Reason string `json:"reason"`
}

func NoErrOK(id int, data map[string]any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func NoErrAccepted(id int, data map[string]any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusAccepted,
			Data:         data,
		},
	}
}

func BidRejectedMessage(id int, bidId, reason string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		BidRejected: &BidRejected{
			BidId:  bidId,
			Reason: reason,
		},
	}
}

func ErrAuctionNotFound(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusNotFound,
			Error:        "auction not found",
		},
	}
}

func ErrNotJoined(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusConflict,
			Error:        "join the auction before bidding",
		},
	}
}

func ErrInternalError(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusInternalServerError,
			Error:        "internal server error",
		},
	}
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusServiceUnavailable,
			Error:        "service unavailable",
		},
	}
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid message format",
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
