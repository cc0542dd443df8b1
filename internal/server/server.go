package server

import (
	"context"
	"fmt"
	"time"

	"github.com/antiqhall/go-auctionroom/internal/database"
	"github.com/antiqhall/go-auctionroom/internal/stats"
	"github.com/sirupsen/logrus"
)

type unloadRoomRequest struct {
	roomId string
}

type decisionAction int

const (
	actionApprove decisionAction = iota
	actionReject
)

// decisionRequest carries an administrative approve/reject into the auction's
// room goroutine and the outcome back to the caller.
type decisionRequest struct {
	action  decisionAction
	auction database.Auction
	bid     database.Bid
	reason  string
	resp    chan error
}

var serverMetrics = []string{
	"ActiveConnections",
	"ActiveRooms",
	"BidsSubmitted",
	"BidsApproved",
	"BidsRejected",
	"NotificationsSent",
}

type AuctionServer struct {
	log            *logrus.Logger
	db             database.AuctionRepository
	stats          stats.StatsProvider
	notifier       *NotificationDispatcher
	registry       *connectionRegistry
	rooms          map[string]*Room
	joinChan       chan *ClientMessage
	decisionChan   chan *decisionRequest
	broadcastChan  chan *ServerMessage
	RegisterChan   chan *Client
	DeRegisterChan chan *Client
	unloadRoomChan chan unloadRoomRequest
	statsInterval  time.Duration
	stop           chan struct{}
	done           chan struct{}
}

func NewAuctionServer(logger *logrus.Logger, db database.AuctionRepository, su stats.StatsProvider, statsInterval time.Duration) (*AuctionServer, error) {
	if statsInterval <= 0 {
		statsInterval = 15 * time.Second
	}

	as := &AuctionServer{
		log:            logger,
		db:             db,
		stats:          su,
		registry:       newConnectionRegistry(),
		rooms:          make(map[string]*Room),
		joinChan:       make(chan *ClientMessage, 256),
		decisionChan:   make(chan *decisionRequest, 256),
		broadcastChan:  make(chan *ServerMessage, 512),
		RegisterChan:   make(chan *Client),
		DeRegisterChan: make(chan *Client),
		unloadRoomChan: make(chan unloadRoomRequest, 32),
		statsInterval:  statsInterval,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
	as.notifier = NewNotificationDispatcher(db, logger, as, su)

	for _, m := range serverMetrics {
		su.RegisterMetric(m)
	}

	return as, nil
}

func (as *AuctionServer) Run() {
	statsTicker := time.NewTicker(as.statsInterval)
	defer statsTicker.Stop()

	for {
		select {
		case joinMsg := <-as.joinChan:
			room, err := as.findOrLoadRoom(joinMsg.Join.AuctionId)
			if err != nil {
				joinMsg.client.queueMessage(ErrAuctionNotFound(joinMsg.Id))
				continue
			}

			select {
			case room.joinChan <- joinMsg:
			default:
				as.log.WithField("auction_id", room.externalId).Warn("join channel full")
				joinMsg.client.queueMessage(ErrServiceUnavailable(joinMsg.Id))
			}
		case req := <-as.decisionChan:
			room, err := as.findOrLoadRoom(req.auction.ExternalId)
			if err != nil {
				req.resp <- fmt.Errorf("load auction room: %w", err)
				continue
			}

			select {
			case room.decisionChan <- req:
			default:
				req.resp <- ErrServerBusy
			}
		case client := <-as.RegisterChan:
			as.log.WithField("user_id", client.user.Id).Info("adding connection")
			as.registry.add(client)
			as.stats.Incr("ActiveConnections")
		case client := <-as.DeRegisterChan:
			as.log.WithField("user_id", client.user.Id).Info("removing connection")
			as.registry.remove(client)
			as.stats.Decr("ActiveConnections")
		case msg := <-as.broadcastChan:
			as.deliver(msg)
		case req := <-as.unloadRoomChan:
			if room, ok := as.rooms[req.roomId]; ok {
				delete(as.rooms, req.roomId)
				close(room.exit)
				<-room.done
				as.stats.Decr("ActiveRooms")
			}
		case <-statsTicker.C:
			as.broadcastGlobalStats()
		case <-as.stop:
			as.log.Info("shutting down auction rooms")
			for id, room := range as.rooms {
				close(room.exit)
				<-room.done
				delete(as.rooms, id)
			}

			close(as.done)
			return
		}
	}
}

// findOrLoadRoom returns the live room for an auction, loading the auction and
// its bid history from storage and starting the actor lazily on first use.
func (as *AuctionServer) findOrLoadRoom(externalId string) (*Room, error) {
	if room, ok := as.rooms[externalId]; ok {
		return room, nil
	}

	auction, err := as.db.GetAuctionByExternalId(externalId)
	if err != nil {
		return nil, fmt.Errorf("get auction %q: %w", externalId, err)
	}

	bids, err := as.db.GetBidsByAuctionId(auction.Id)
	if err != nil {
		return nil, fmt.Errorf("get bids for auction %q: %w", externalId, err)
	}

	room := newRoom(as, auction, bids)
	as.rooms[externalId] = room
	as.stats.Incr("ActiveRooms")

	go room.start()

	return room, nil
}

// deliver routes a queued message: user-scoped when UserId is set, otherwise
// to every connection.
func (as *AuctionServer) deliver(msg *ServerMessage) {
	if msg.UserId != 0 {
		for _, c := range as.registry.clientsForUser(msg.UserId) {
			c.queueMessage(msg)
		}
		return
	}

	for _, c := range as.registry.all() {
		c.queueMessage(msg)
	}
}

// DeliverToUser queues a message for every live connection of one user.
// Best-effort: a full queue is logged and dropped, never blocking the caller.
func (as *AuctionServer) DeliverToUser(userId int, msg *ServerMessage) bool {
	msg.UserId = userId

	select {
	case as.broadcastChan <- msg:
		return true
	default:
		as.log.WithField("user_id", userId).Warn("broadcast channel full, dropping message")
		return false
	}
}

func (as *AuctionServer) broadcastGlobalStats() {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Stats:       as.stats.Snapshot(),
	}

	for _, c := range as.registry.all() {
		c.queueMessage(msg)
	}
}

// ApproveBid routes an administrative approval into the auction's room
// goroutine and waits for the outcome.
func (as *AuctionServer) ApproveBid(ctx context.Context, auction database.Auction, bid database.Bid) error {
	return as.decide(ctx, &decisionRequest{
		action:  actionApprove,
		auction: auction,
		bid:     bid,
		resp:    make(chan error, 1),
	})
}

// RejectBid routes an administrative rejection into the auction's room
// goroutine and waits for the outcome.
func (as *AuctionServer) RejectBid(ctx context.Context, auction database.Auction, bid database.Bid, reason string) error {
	return as.decide(ctx, &decisionRequest{
		action:  actionReject,
		auction: auction,
		bid:     bid,
		reason:  reason,
		resp:    make(chan error, 1),
	})
}

func (as *AuctionServer) decide(ctx context.Context, req *decisionRequest) error {
	select {
	case as.decisionChan <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-as.stop:
		return ErrServerStopped
	}

	select {
	case err := <-req.resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (as *AuctionServer) Shutdown(ctx context.Context) error {
	as.log.Info("received shutdown signal")
	for _, c := range as.registry.all() {
		c.stopClient()
	}

	close(as.stop)

	select {
	case <-as.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RegisterClient hands a new websocket connection to the server loop.
func (as *AuctionServer) RegisterClient(c *Client) {
	as.RegisterChan <- c
}
