package database

import "errors"

// ErrConflict is returned when the auction's conditional update matches no
// rows, e.g. an approval whose amount no longer exceeds the current bid.
var ErrConflict = errors.New("conditional update affected no rows")

// ErrBidDecided is returned when a bid row update matches no rows because the
// bid already left the pending state.
var ErrBidDecided = errors.New("bid is no longer pending")

type AuctionRepository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (Account, error)
	GetAccountById(accountId int) (Account, error)
	GetAccountByEmail(email string) (Account, error)
	CreateAuction(params CreateAuctionParams) (Auction, error)
	GetAuctionById(auctionId int) (Auction, error)
	GetAuctionByExternalId(externalId string) (Auction, error)
	UpdateAuctionStatus(auctionId int, status string) error
	CreateBid(bid Bid) (Bid, error)
	GetBidById(bidId string) (Bid, error)
	GetBidsByAuctionId(auctionId int) ([]Bid, error)
	GetHighestApprovedBid(auctionId int) (Bid, error)
	ApproveBid(bidId string, auctionId int, amount float64, bidderId int) error
	RejectBid(bidId, reason string) error
	RejectPendingBids(auctionId int, reason string) ([]Bid, error)
	CreateNotification(n Notification) (Notification, error)
	GetNotificationsByUserId(userId int) ([]Notification, error)
	MarkNotificationRead(notificationId string, userId int) error
}
