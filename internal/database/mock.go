package database

import (
	"github.com/stretchr/testify/mock"
)

type MockAuctionRepository struct {
	mock.Mock
}

func (m *MockAuctionRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockAuctionRepository) CreateAccount(params CreateAccountParams) (Account, error) {
	args := m.Called(params)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockAuctionRepository) GetAccountById(accountId int) (Account, error) {
	args := m.Called(accountId)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockAuctionRepository) GetAccountByEmail(email string) (Account, error) {
	args := m.Called(email)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockAuctionRepository) CreateAuction(params CreateAuctionParams) (Auction, error) {
	args := m.Called(params)
	return args.Get(0).(Auction), args.Error(1)
}
func (m *MockAuctionRepository) GetAuctionById(auctionId int) (Auction, error) {
	args := m.Called(auctionId)
	return args.Get(0).(Auction), args.Error(1)
}
func (m *MockAuctionRepository) GetAuctionByExternalId(externalId string) (Auction, error) {
	args := m.Called(externalId)
	return args.Get(0).(Auction), args.Error(1)
}
func (m *MockAuctionRepository) UpdateAuctionStatus(auctionId int, status string) error {
	args := m.Called(auctionId, status)
	return args.Error(0)
}
func (m *MockAuctionRepository) CreateBid(bid Bid) (Bid, error) {
	args := m.Called(bid)
	return args.Get(0).(Bid), args.Error(1)
}
func (m *MockAuctionRepository) GetBidById(bidId string) (Bid, error) {
	args := m.Called(bidId)
	return args.Get(0).(Bid), args.Error(1)
}
func (m *MockAuctionRepository) GetBidsByAuctionId(auctionId int) ([]Bid, error) {
	args := m.Called(auctionId)
	return args.Get(0).([]Bid), args.Error(1)
}
func (m *MockAuctionRepository) GetHighestApprovedBid(auctionId int) (Bid, error) {
	args := m.Called(auctionId)
	return args.Get(0).(Bid), args.Error(1)
}
func (m *MockAuctionRepository) ApproveBid(bidId string, auctionId int, amount float64, bidderId int) error {
	args := m.Called(bidId, auctionId, amount, bidderId)
	return args.Error(0)
}
func (m *MockAuctionRepository) RejectBid(bidId, reason string) error {
	args := m.Called(bidId, reason)
	return args.Error(0)
}
func (m *MockAuctionRepository) RejectPendingBids(auctionId int, reason string) ([]Bid, error) {
	args := m.Called(auctionId, reason)
	return args.Get(0).([]Bid), args.Error(1)
}
func (m *MockAuctionRepository) CreateNotification(n Notification) (Notification, error) {
	args := m.Called(n)
	return args.Get(0).(Notification), args.Error(1)
}
func (m *MockAuctionRepository) GetNotificationsByUserId(userId int) ([]Notification, error) {
	args := m.Called(userId)
	return args.Get(0).([]Notification), args.Error(1)
}
func (m *MockAuctionRepository) MarkNotificationRead(notificationId string, userId int) error {
	args := m.Called(notificationId, userId)
	return args.Error(0)
}
