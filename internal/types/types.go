package types

import (
	"time"
)

type AuctionStatus string

const (
	AuctionScheduled AuctionStatus = "scheduled"
	AuctionActive    AuctionStatus = "active"
	AuctionEnded     AuctionStatus = "ended"
	AuctionClosed    AuctionStatus = "closed"
)

type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidApproved BidStatus = "approved"
	BidRejected BidStatus = "rejected"
)

type NotificationType string

const (
	NotificationOutbid       NotificationType = "outbid"
	NotificationBidApproved  NotificationType = "bid_approved"
	NotificationBidRejected  NotificationType = "bid_rejected"
	NotificationAuctionWon   NotificationType = "auction_won"
	NotificationAuctionEnded NotificationType = "auction_ended"
)

type Role string

const (
	RoleBidder Role = "bidder"
	RoleAdmin  Role = "admin"
)

type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Role         Role      `json:"role,omitempty"`
	Password     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type Auction struct {
	Id               int           `json:"id"`
	ExternalId       string        `json:"external_id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	SellerId         int           `json:"seller_id"`
	StartingPrice    float64       `json:"starting_price"`
	MinIncrement     float64       `json:"min_increment"`
	CurrentBidAmount float64       `json:"current_bid_amount"`
	CurrentBidderId  int           `json:"current_bidder_id,omitempty"`
	Status           AuctionStatus `json:"status"`
	EndTime          time.Time     `json:"end_time"`
	CreatedAt        time.Time     `json:"created_at,omitempty"`
	UpdatedAt        time.Time     `json:"updated_at,omitempty"`
}

type Bid struct {
	Id        string    `json:"id"`
	AuctionId string    `json:"auction_id"`
	BidderId  int       `json:"bidder_id"`
	Amount    float64   `json:"amount"`
	Status    BidStatus `json:"status"`
	SeqNum    int       `json:"seq_num"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Notification struct {
	Id        string           `json:"id"`
	UserId    int              `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	AuctionId string           `json:"auction_id,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}
