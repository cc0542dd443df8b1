package server

import (
	"testing"

	"github.com/antiqhall/go-auctionroom/internal/types"
	"github.com/stretchr/testify/assert"
)

func Test_connectionRegistry(t *testing.T) {
	cr := newConnectionRegistry()

	c1 := &Client{user: types.User{Id: 1, Username: "user1"}}
	c2 := &Client{user: types.User{Id: 1, Username: "user1"}} // second connection, same user
	c3 := &Client{user: types.User{Id: 2, Username: "user2"}}

	cr.add(c1)
	cr.add(c2)
	cr.add(c3)

	assert.Equal(t, 3, cr.count(), "expected 3 connections")
	assert.Len(t, cr.all(), 3, "expected all to return every connection")
	assert.Len(t, cr.clientsForUser(1), 2, "expected 2 connections for user 1")
	assert.Len(t, cr.clientsForUser(2), 1, "expected 1 connection for user 2")
	assert.Empty(t, cr.clientsForUser(3), "expected no connections for unknown user")

	// add is idempotent
	cr.add(c1)
	assert.Equal(t, 3, cr.count(), "expected add to be idempotent")

	cr.remove(c1)
	assert.Equal(t, 2, cr.count(), "expected 2 connections after removal")
	assert.Len(t, cr.clientsForUser(1), 1, "expected 1 remaining connection for user 1")

	cr.remove(c2)
	assert.Empty(t, cr.clientsForUser(1), "expected user index entry to be dropped with last connection")

	// remove is idempotent
	cr.remove(c2)
	assert.Equal(t, 1, cr.count(), "expected remove to be idempotent")
}
