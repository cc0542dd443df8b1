package server

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/antiqhall/go-auctionroom/internal/database"
	"github.com/antiqhall/go-auctionroom/internal/types"
)

func (r *Room) handleDecision(req *decisionRequest) error {
	switch req.action {
	case actionApprove:
		return r.approveBid(req.bid)
	case actionReject:
		return r.rejectBid(req.bid, req.reason)
	default:
		return fmt.Errorf("unknown decision action %d", req.action)
	}
}

// approveBid commits the pending→approved transition. The durable write comes
// first; the in-memory current bid only moves once it succeeds, so a storage
// failure leaves memory and the store consistent and the caller gets a
// retryable error.
func (r *Room) approveBid(bid database.Bid) error {
	pb, ok := r.pending[bid.Id]
	if !ok {
		return ErrAlreadyDecided
	}

	if pb.amount <= r.currentAmount {
		return ErrSuperseded
	}

	// the end time is a hard deadline even before the timer fires
	if r.status != types.AuctionActive || !time.Now().Before(r.endTime) {
		return ErrAuctionClosed
	}

	if err := r.as.db.ApproveBid(pb.id, r.id, pb.amount, pb.bidderId); err != nil {
		switch {
		case errors.Is(err, database.ErrBidDecided):
			delete(r.pending, bid.Id)
			return ErrAlreadyDecided
		case errors.Is(err, database.ErrConflict):
			return ErrSuperseded
		}
		return fmt.Errorf("persist approval: %w", err)
	}

	previousBidderId := r.currentBidderId
	r.currentAmount = pb.amount
	r.currentBidderId = pb.bidderId
	delete(r.pending, bid.Id)

	r.as.stats.Incr("BidsApproved")
	r.as.notifier.BidApproved(r.snapshot(), pb.bidderId, pb.amount, previousBidderId)

	r.broadcast(&ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		BidUpdate: &BidUpdate{
			AuctionId: r.externalId,
			BidId:     pb.id,
			Amount:    pb.amount,
			BidderId:  pb.bidderId,
			SeqNum:    pb.seqNum,
		},
	})
	r.broadcast(&ServerMessage{
		BaseMessage:   BaseMessage{Timestamp: Now()},
		AuctionUpdate: r.auctionUpdate(),
	})

	r.maybeStartKillTimer()
	return nil
}

// rejectBid commits the pending→rejected transition. It never touches the
// auction's current bid.
func (r *Room) rejectBid(bid database.Bid, reason string) error {
	pb, ok := r.pending[bid.Id]
	if !ok {
		return ErrAlreadyDecided
	}

	if r.status != types.AuctionActive || !time.Now().Before(r.endTime) {
		return ErrAuctionClosed
	}

	if reason == "" {
		reason = "rejected_by_moderator"
	}

	if err := r.as.db.RejectBid(pb.id, reason); err != nil {
		if errors.Is(err, database.ErrBidDecided) {
			delete(r.pending, bid.Id)
			return ErrAlreadyDecided
		}
		return fmt.Errorf("persist rejection: %w", err)
	}

	delete(r.pending, bid.Id)

	r.as.stats.Incr("BidsRejected")
	r.as.notifier.BidRejected(r.snapshot(), pb.bidderId, pb.amount, reason)
	r.as.DeliverToUser(pb.bidderId, BidRejectedMessage(0, pb.id, reason))

	r.maybeStartKillTimer()
	return nil
}

// handleAuctionEnd fires when the auction's end time elapses. The deadline is
// enforced here, on the room goroutine, not by client timers: after this,
// every approve or reject fails with ErrAuctionClosed. Pending bids are
// bulk-rejected so none is left permanently pending.
func (r *Room) handleAuctionEnd() {
	if r.status != types.AuctionActive {
		return
	}

	r.log.WithField("auction_id", r.externalId).Info("auction end time reached")
	r.status = types.AuctionEnded

	if err := r.as.db.UpdateAuctionStatus(r.id, string(types.AuctionEnded)); err != nil {
		// the in-memory deadline still holds; the status write is retried
		// next time the room is loaded
		r.log.WithError(err).WithField("auction_id", r.externalId).Error("failed to persist auction end")
	}

	rejected, err := r.as.db.RejectPendingBids(r.id, ReasonAuctionEnded)
	if err != nil {
		r.log.WithError(err).WithField("auction_id", r.externalId).Error("failed to reject pending bids")
	}
	for _, b := range rejected {
		r.as.stats.Incr("BidsRejected")
		r.as.DeliverToUser(b.BidderId, BidRejectedMessage(0, b.Id, ReasonAuctionEnded))
	}
	r.pending = make(map[string]*pendingBid)

	winningBid, err := r.as.db.GetHighestApprovedBid(r.id)
	switch {
	case err == nil:
		r.as.notifier.AuctionEnded(r.snapshot(), winningBid.BidderId, winningBid.Amount)
	case errors.Is(err, sql.ErrNoRows):
		// no approved bids, no winner
		r.as.notifier.AuctionEnded(r.snapshot(), 0, 0)
	default:
		r.log.WithError(err).WithField("auction_id", r.externalId).Error("failed to look up winning bid")
		r.as.notifier.AuctionEnded(r.snapshot(), r.currentBidderId, r.currentAmount)
	}

	r.broadcast(&ServerMessage{
		BaseMessage:   BaseMessage{Timestamp: Now()},
		AuctionUpdate: r.auctionUpdate(),
	})

	r.maybeStartKillTimer()
}

func (r *Room) snapshot() auctionSnapshot {
	return auctionSnapshot{
		externalId: r.externalId,
		title:      r.title,
		sellerId:   r.sellerId,
	}
}

func (r *Room) auctionUpdate() *AuctionUpdate {
	return &AuctionUpdate{
		AuctionId:        r.externalId,
		CurrentBidAmount: r.currentAmount,
		CurrentBidderId:  r.currentBidderId,
		Status:           r.status,
	}
}
