package server

import (
	"fmt"

	"github.com/antiqhall/go-auctionroom/internal/database"
	"github.com/antiqhall/go-auctionroom/internal/stats"
	"github.com/antiqhall/go-auctionroom/internal/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// userFanout delivers a message to every live connection of one user.
type userFanout interface {
	DeliverToUser(userId int, msg *ServerMessage) bool
}

// auctionSnapshot carries the auction fields the dispatcher needs without
// sharing the room's mutable state.
type auctionSnapshot struct {
	externalId string
	title      string
	sellerId   int
}

// NotificationDispatcher turns committed state transitions into persisted
// notifications and best-effort live deliveries. The durable row is written
// first; delivery failure only logs, since a disconnected user still has the
// row for later retrieval. Dispatch happens on the room goroutine at the
// commit point, so a given transition is dispatched exactly once.
type NotificationDispatcher struct {
	db     database.AuctionRepository
	log    *logrus.Logger
	fanout userFanout
	stats  stats.StatsProvider
}

func NewNotificationDispatcher(db database.AuctionRepository, logger *logrus.Logger, fanout userFanout, su stats.StatsProvider) *NotificationDispatcher {
	return &NotificationDispatcher{
		db:     db,
		log:    logger,
		fanout: fanout,
		stats:  su,
	}
}

// BidApproved notifies the outbid previous bidder (when one exists and is not
// the new bidder), the new bidder, and the seller.
func (nd *NotificationDispatcher) BidApproved(a auctionSnapshot, bidderId int, amount float64, previousBidderId int) {
	if previousBidderId != 0 && previousBidderId != bidderId {
		nd.create(previousBidderId, types.NotificationOutbid, "You have been outbid",
			fmt.Sprintf("Your bid on %q has been outbid. The current bid is now %.2f.", a.title, amount), a.externalId)
	}

	nd.create(bidderId, types.NotificationBidApproved, "Bid approved",
		fmt.Sprintf("Your bid of %.2f on %q was approved.", amount, a.title), a.externalId)

	nd.create(a.sellerId, types.NotificationBidApproved, "New bid on your auction",
		fmt.Sprintf("%q received a bid of %.2f.", a.title, amount), a.externalId)
}

func (nd *NotificationDispatcher) BidRejected(a auctionSnapshot, bidderId int, amount float64, reason string) {
	nd.create(bidderId, types.NotificationBidRejected, "Bid rejected",
		fmt.Sprintf("Your bid of %.2f on %q was rejected: %s.", amount, a.title, reason), a.externalId)
}

// AuctionEnded notifies the winner (when there is one) and the seller.
func (nd *NotificationDispatcher) AuctionEnded(a auctionSnapshot, winnerId int, winningAmount float64) {
	if winnerId != 0 {
		nd.create(winnerId, types.NotificationAuctionWon, "You won the auction",
			fmt.Sprintf("You won %q with a bid of %.2f.", a.title, winningAmount), a.externalId)
	}

	nd.create(a.sellerId, types.NotificationAuctionEnded, "Your auction has ended",
		fmt.Sprintf("The auction %q has ended.", a.title), a.externalId)
}

func (nd *NotificationDispatcher) create(userId int, notifType types.NotificationType, title, message, auctionId string) {
	row, err := nd.db.CreateNotification(database.Notification{
		Id:        uuid.NewString(),
		UserId:    userId,
		Type:      string(notifType),
		Title:     title,
		Message:   message,
		AuctionId: auctionId,
		CreatedAt: Now(),
	})
	if err != nil {
		// without the durable row there is nothing to deliver
		nd.log.WithError(err).WithFields(logrus.Fields{
			"user_id": userId,
			"type":    notifType,
		}).Error("failed to persist notification")
		return
	}

	nd.stats.Incr("NotificationsSent")

	nd.fanout.DeliverToUser(userId, &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Notification: &types.Notification{
			Id:        row.Id,
			UserId:    row.UserId,
			Type:      types.NotificationType(row.Type),
			Title:     row.Title,
			Message:   row.Message,
			AuctionId: row.AuctionId,
			Read:      row.Read,
			CreatedAt: row.CreatedAt,
		},
	})
}
