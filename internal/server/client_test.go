package server

import (
	"context"
	"testing"
	"time"

	"github.com/antiqhall/go-auctionroom/internal/database"
	"github.com/antiqhall/go-auctionroom/internal/stats"
	"github.com/antiqhall/go-auctionroom/internal/testutil"
	"github.com/antiqhall/go-auctionroom/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_queueMessage(t *testing.T) {
	t.Run("successful queue", func(t *testing.T) {
		c := &Client{
			send: make(chan *ServerMessage, 1),
			log:  testutil.TestLogger(t),
		}

		res := c.queueMessage(&ServerMessage{})
		assert.True(t, res, "expected queueMessage to return true when channel is not full")

		select {
		case msg := <-c.send:
			assert.NotNil(t, msg, "expected a message to be sent to the client")
		default:
			t.Error("expected a message to be sent to the client, but none was sent")
		}
	})
	t.Run("channel full", func(t *testing.T) {
		c := &Client{
			send: make(chan *ServerMessage, 1),
			log:  testutil.TestLogger(t),
		}

		c.send <- &ServerMessage{} // Pre-fill the send channel to simulate a full channel
		res := c.queueMessage(&ServerMessage{})
		assert.False(t, res, "expected queueMessage to return false when channel is full")
	})
}

func Test_stopClient(t *testing.T) {
	c := &Client{
		stop: make(chan struct{}),
	}

	c.stopClient()

	select {
	case <-c.stop:
		// Channel is closed as expected
	default:
		t.Error("expected stop channel to be closed")
	}

	// calling again must not panic
	c.stopClient()
}

// A read pump can outlive the server. Its deregistration must not block once
// the run loop has stopped draining DeRegisterChan.
func Test_cleanupAfterShutdown(t *testing.T) {
	as := newTestAuctionServer(t, &database.MockAuctionRepository{}, &stats.MockStatsUpdater{})
	go as.Run()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, as.Shutdown(ctx), "expected shutdown to complete")

	c := NewClient(types.User{Id: 1}, nil, as, testutil.TestLogger(t))

	finished := make(chan struct{})
	go func() {
		c.cleanup()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Error("expected cleanup to return after shutdown")
	}
}

func Test_leaveAllRooms(t *testing.T) {
	rooms := []*Room{
		{
			externalId: "auction1",
			leaveChan:  make(chan *ClientMessage, 1),
		},
		{
			externalId: "auction2",
			leaveChan:  make(chan *ClientMessage, 1),
		},
	}

	c := &Client{
		user:  types.User{Id: 1},
		rooms: make(map[string]*Room),
	}

	for _, room := range rooms {
		c.addRoom(room)
	}

	c.leaveAllRooms()

	for _, room := range rooms {
		assert.Len(t, room.leaveChan, 1, "expected 1 leave message to be sent to room %s", room.externalId)

		select {
		case msg := <-room.leaveChan:
			assert.NotNil(t, msg, "expected leave message to be sent for room %s", room.externalId)
			assert.NotNil(t, msg.Leave, "expected leave message")
			assert.Equal(t, room.externalId, msg.Leave.AuctionId, "expected leave message for room %s", room.externalId)
			assert.Equal(t, c.user.Id, msg.UserId, "expected leave message to include user ID %d", c.user.Id)
			assert.Equal(t, c, msg.client, "expected leave message to include client")
		default:
			t.Errorf("expected leave message to be sent for room %s, but it was not", room.externalId)
		}
	}
}

func Test_submitBid(t *testing.T) {
	t.Run("routes to joined room", func(t *testing.T) {
		room := &Room{
			externalId: "test-auction",
			submitChan: make(chan *ClientMessage, 1),
		}

		c := &Client{
			user:  types.User{Id: 1},
			send:  make(chan *ServerMessage, 1),
			rooms: make(map[string]*Room),
			log:   testutil.TestLogger(t),
		}
		c.addRoom(room)

		c.submitBid(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1},
			Bid:         &BidSubmit{AuctionId: room.externalId, Amount: 100},
			UserId:      c.user.Id,
			client:      c,
		})

		assert.Len(t, room.submitChan, 1, "expected bid to be routed to the room")
	})

	t.Run("bid without join is refused", func(t *testing.T) {
		c := &Client{
			user:  types.User{Id: 1},
			send:  make(chan *ServerMessage, 1),
			rooms: make(map[string]*Room),
			log:   testutil.TestLogger(t),
		}

		c.submitBid(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1},
			Bid:         &BidSubmit{AuctionId: "unknown-auction", Amount: 100},
			UserId:      c.user.Id,
			client:      c,
		})

		select {
		case msg := <-c.send:
			assert.NotNil(t, msg.Response, "expected response message")
			assert.Equal(t, 409, msg.Response.ResponseCode, "expected conflict for bid without join")
		default:
			t.Error("expected client to receive error response")
		}
	})

	t.Run("full submit channel", func(t *testing.T) {
		room := &Room{
			externalId: "test-auction",
			submitChan: make(chan *ClientMessage, 1),
		}
		room.submitChan <- &ClientMessage{} // fill

		c := &Client{
			user:  types.User{Id: 1},
			send:  make(chan *ServerMessage, 1),
			rooms: make(map[string]*Room),
			log:   testutil.TestLogger(t),
		}
		c.addRoom(room)

		c.submitBid(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1},
			Bid:         &BidSubmit{AuctionId: room.externalId, Amount: 100},
			UserId:      c.user.Id,
			client:      c,
		})

		select {
		case msg := <-c.send:
			assert.NotNil(t, msg.Response, "expected response message")
			assert.Equal(t, 503, msg.Response.ResponseCode, "expected service unavailable when room is backed up")
		default:
			t.Error("expected client to receive error response")
		}
	})
}

func Test_joinAuction(t *testing.T) {
	t.Run("successful join routing", func(t *testing.T) {
		as := newTestAuctionServer(t, &database.MockAuctionRepository{}, &stats.MockStatsUpdater{})

		c := NewClient(types.User{Id: 1}, nil, as, testutil.TestLogger(t))
		msg := &ClientMessage{
			BaseMessage: BaseMessage{Id: 1},
			Join:        &Join{AuctionId: "test-auction"},
			UserId:      c.user.Id,
			client:      c,
		}

		c.joinAuction(msg)
		assert.Len(t, as.joinChan, 1, "expected join message to be routed to the server")
	})

	t.Run("full join channel", func(t *testing.T) {
		as := newTestAuctionServer(t, &database.MockAuctionRepository{}, &stats.MockStatsUpdater{})
		as.joinChan = make(chan *ClientMessage, 1)
		as.joinChan <- &ClientMessage{} // fill

		c := NewClient(types.User{Id: 1}, nil, as, testutil.TestLogger(t))
		c.joinAuction(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1},
			Join:        &Join{AuctionId: "test-auction"},
			UserId:      c.user.Id,
			client:      c,
		})

		select {
		case msg := <-c.send:
			assert.NotNil(t, msg.Response, "expected response message")
			assert.Equal(t, 503, msg.Response.ResponseCode, "expected service unavailable when server is backed up")
		default:
			t.Error("expected client to receive error response")
		}
	})
}
