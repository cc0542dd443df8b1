package server

import (
	"sync"
	"time"

	"github.com/antiqhall/go-auctionroom/internal/database"
	"github.com/antiqhall/go-auctionroom/internal/types"
	"github.com/sirupsen/logrus"
)

const idleRoomTimeout = 30 * time.Second

// pendingBid is the in-memory record of a bid awaiting moderation.
type pendingBid struct {
	id       string
	bidderId int
	amount   float64
	seqNum   int
}

// Room is the per-auction actor. All mutations of the auction's bidding state
// (current bid, sequence counter, pending set, status) happen on its goroutine,
// one transition at a time, so two concurrently submitted high bids can never
// both become the current bid. Rooms for unrelated auctions run independently.
type Room struct {
	id              int
	externalId      string
	title           string
	sellerId        int
	status          types.AuctionStatus
	currentAmount   float64
	currentBidderId int
	minIncrement    float64
	endTime         time.Time
	seq             int
	pending         map[string]*pendingBid

	as         *AuctionServer
	clients    map[*Client]struct{}
	userMap    map[int]map[*Client]struct{}
	clientLock sync.RWMutex

	joinChan     chan *ClientMessage
	leaveChan    chan *ClientMessage
	submitChan   chan *ClientMessage
	decisionChan chan *decisionRequest

	log *logrus.Logger
	// killTimer unloads the room once it has no clients and no pending bids
	killTimer *time.Timer
	// endTimer enforces the auction's end time as a hard deadline
	endTimer *time.Timer
	exit     chan struct{}
	done     chan struct{}
}

// newRoom builds a room from the durable auction record and its bid history.
// The sequence counter resumes from the highest sequence number ever issued,
// and undecided bids are reloaded so none is left permanently pending.
func newRoom(as *AuctionServer, auction database.Auction, bids []database.Bid) *Room {
	r := &Room{
		id:              auction.Id,
		externalId:      auction.ExternalId,
		title:           auction.Title,
		sellerId:        auction.SellerId,
		status:          types.AuctionStatus(auction.Status),
		currentAmount:   auction.CurrentBidAmount,
		currentBidderId: auction.CurrentBidderId,
		minIncrement:    auction.MinIncrement,
		endTime:         auction.EndTime,
		pending:         make(map[string]*pendingBid),
		as:              as,
		clients:         make(map[*Client]struct{}),
		userMap:         make(map[int]map[*Client]struct{}),
		joinChan:        make(chan *ClientMessage, 256),
		leaveChan:       make(chan *ClientMessage, 256),
		submitChan:      make(chan *ClientMessage, 256),
		decisionChan:    make(chan *decisionRequest, 32),
		log:             as.log,
		exit:            make(chan struct{}),
		done:            make(chan struct{}),
	}

	for _, b := range bids {
		if b.SeqNum > r.seq {
			r.seq = b.SeqNum
		}
		if types.BidStatus(b.Status) == types.BidPending {
			r.pending[b.Id] = &pendingBid{
				id:       b.Id,
				bidderId: b.BidderId,
				amount:   b.Amount,
				seqNum:   b.SeqNum,
			}
		}
	}

	return r
}

func (r *Room) start() {
	r.log.WithField("auction_id", r.externalId).Info("starting auction room")
	defer close(r.done)

	r.killTimer = time.NewTimer(idleRoomTimeout)
	r.killTimer.Stop()

	r.endTimer = time.NewTimer(time.Hour)
	r.endTimer.Stop()
	if r.status == types.AuctionActive {
		remaining := time.Until(r.endTime)
		if remaining < 0 {
			remaining = 0
		}
		r.endTimer.Reset(remaining)
	}

	for {
		select {
		case join := <-r.joinChan:
			r.handleJoin(join)
		case leaveMsg := <-r.leaveChan:
			r.handleLeave(leaveMsg)
		case msg := <-r.submitChan:
			r.handleSubmit(msg)
		case req := <-r.decisionChan:
			req.resp <- r.handleDecision(req)
		case <-r.endTimer.C:
			r.handleAuctionEnd()
		case <-r.killTimer.C:
			r.handleRoomTimeout()
		case <-r.exit:
			r.handleRoomExit()
			return
		}
	}
}

func (r *Room) handleRoomTimeout() {
	r.log.WithField("auction_id", r.externalId).Info("auction room idle, unloading")
	select {
	case r.as.unloadRoomChan <- unloadRoomRequest{roomId: r.externalId}:
	default:
		// server busy, try again later
		r.killTimer.Reset(idleRoomTimeout)
	}
}

func (r *Room) handleRoomExit() {
	r.log.WithField("auction_id", r.externalId).Info("auction room exiting")

	r.clientLock.Lock()
	for c := range r.clients {
		c.delRoom(r.externalId)
	}
	r.clientLock.Unlock()
}

// handleJoin adds the connection to the room and replies with the current
// auction snapshot. Membership changes trigger no broadcasts.
func (r *Room) handleJoin(join *ClientMessage) {
	r.killTimer.Stop()

	c := join.client
	r.addClient(c)

	c.queueMessage(NoErrOK(join.Id, map[string]any{
		"auction_id":         r.externalId,
		"title":              r.title,
		"status":             r.status,
		"current_bid_amount": r.currentAmount,
		"current_bidder_id":  r.currentBidderId,
		"min_increment":      r.minIncrement,
		"end_time":           r.endTime,
	}))
}

func (r *Room) handleLeave(leaveMsg *ClientMessage) {
	r.removeClient(leaveMsg.client)

	if leaveMsg.Id != 0 {
		leaveMsg.client.queueMessage(NoErrOK(leaveMsg.Id, nil))
	}
}

// addClient is idempotent if the connection already joined.
func (r *Room) addClient(c *Client) {
	r.clientLock.Lock()
	defer r.clientLock.Unlock()

	r.clients[c] = struct{}{}
	if r.userMap[c.user.Id] == nil {
		r.userMap[c.user.Id] = make(map[*Client]struct{})
	}
	r.userMap[c.user.Id][c] = struct{}{}

	c.addRoom(r)
}

// removeClient is idempotent if the connection is absent.
func (r *Room) removeClient(c *Client) {
	r.clientLock.Lock()
	defer r.clientLock.Unlock()

	if _, ok := r.clients[c]; !ok {
		return
	}

	delete(r.clients, c)
	c.delRoom(r.externalId)

	if userClients, ok := r.userMap[c.user.Id]; ok {
		delete(userClients, c)
		if len(userClients) == 0 {
			delete(r.userMap, c.user.Id)
		}
	}

	r.maybeStartKillTimer()
}

func (r *Room) memberCount() int {
	r.clientLock.RLock()
	defer r.clientLock.RUnlock()

	return len(r.clients)
}

// maybeStartKillTimer arms the idle timer once the room has no clients and
// no bids awaiting a decision.
func (r *Room) maybeStartKillTimer() {
	if len(r.clients) == 0 && len(r.pending) == 0 {
		r.killTimer.Reset(idleRoomTimeout)
	}
}

// broadcast fans a message out to every member of the room. Events are
// emitted from the room goroutine in commit order, and each client's buffered
// send channel preserves that order; a slow client drops messages rather than
// stalling the room.
func (r *Room) broadcast(msg *ServerMessage) {
	r.clientLock.RLock()
	defer r.clientLock.RUnlock()

	for client := range r.clients {
		if client == msg.SkipClient {
			continue
		}

		client.queueMessage(msg)
	}
}
