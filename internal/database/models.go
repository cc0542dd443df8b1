package database

import "time"

type Account struct {
	Id           int
	Username     string
	EmailAddress string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Auction struct {
	Id               int
	ExternalId       string
	Title            string
	Description      string
	SellerId         int
	StartingPrice    float64
	MinIncrement     float64
	CurrentBidAmount float64
	CurrentBidderId  int
	Status           string
	EndTime          time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Bid struct {
	Id        string
	AuctionId int
	BidderId  int
	Amount    float64
	Status    string
	SeqNum    int
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Notification struct {
	Id        string
	UserId    int
	Type      string
	Title     string
	Message   string
	AuctionId string
	Read      bool
	CreatedAt time.Time
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
	Role         string
}

type CreateAuctionParams struct {
	Title         string
	Description   string
	SellerId      int
	ExternalId    string
	StartingPrice float64
	MinIncrement  float64
	EndTime       time.Time
}
