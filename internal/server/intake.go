package server

import (
	"math"
	"time"

	"github.com/antiqhall/go-auctionroom/internal/database"
	"github.com/antiqhall/go-auctionroom/internal/types"
	"github.com/google/uuid"
)

// handleSubmit admits or rejects a bid attempt. It runs on the room goroutine,
// which is the serialization point: the sequence number is assigned here under
// the same single-writer discipline that moderation uses, so arrival order at
// this point breaks ties. The counter only advances once the pending bid is
// durably recorded.
func (r *Room) handleSubmit(msg *ClientMessage) {
	amount := msg.Bid.Amount

	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		r.rejectAtIntake(msg, ReasonMalformed)
		return
	}

	if r.status != types.AuctionActive || !time.Now().Before(r.endTime) {
		r.rejectAtIntake(msg, ReasonAuctionInactive)
		return
	}

	if msg.UserId == r.sellerId {
		r.rejectAtIntake(msg, ReasonSelfBid)
		return
	}

	// before any bid is approved the floor is the starting price itself
	threshold := r.currentAmount + r.minIncrement
	if r.currentBidderId == 0 {
		threshold = r.currentAmount
	}
	if amount < threshold {
		r.rejectAtIntake(msg, ReasonAmountTooLow)
		return
	}

	seq := r.seq + 1
	bid := database.Bid{
		Id:        uuid.NewString(),
		AuctionId: r.id,
		BidderId:  msg.UserId,
		Amount:    amount,
		Status:    string(types.BidPending),
		SeqNum:    seq,
		CreatedAt: msg.Timestamp,
	}

	created, err := r.as.db.CreateBid(bid)
	if err != nil {
		r.log.WithError(err).WithField("auction_id", r.externalId).Error("failed to persist bid")
		msg.client.queueMessage(ErrInternalError(msg.Id))
		return
	}

	r.seq = seq
	r.pending[created.Id] = &pendingBid{
		id:       created.Id,
		bidderId: created.BidderId,
		amount:   created.Amount,
		seqNum:   created.SeqNum,
	}
	r.killTimer.Stop()

	r.as.stats.Incr("BidsSubmitted")

	msg.client.queueMessage(NoErrAccepted(msg.Id, map[string]any{
		"bid_id":  created.Id,
		"seq_num": created.SeqNum,
		"status":  types.BidPending,
	}))
}

func (r *Room) rejectAtIntake(msg *ClientMessage, reason string) {
	r.log.WithFields(map[string]any{
		"auction_id": r.externalId,
		"user_id":    msg.UserId,
		"reason":     reason,
	}).Debug("bid rejected at intake")

	msg.client.queueMessage(BidRejectedMessage(msg.Id, "", reason))
}
