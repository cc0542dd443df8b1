package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/antiqhall/go-auctionroom/internal/database"
	"github.com/antiqhall/go-auctionroom/internal/server"
	"github.com/antiqhall/go-auctionroom/internal/types"
	"github.com/gorilla/websocket"
	"github.com/teris-io/shortid"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateAuctionRequest struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	StartingPrice float64   `json:"starting_price"`
	MinIncrement  float64   `json:"min_increment"`
	EndTime       time.Time `json:"end_time"`
}

type RejectBidRequest struct {
	Reason string `json:"reason"`
}

func (s *AuctionApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("json encode")
	}
}

func (s *AuctionApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.WithError(err).Error("health check failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *AuctionApp) createAccount(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	params := database.CreateAccountParams{
		Username:     req.Username,
		EmailAddress: req.Email,
		PasswordHash: pwdHash,
		Role:         string(types.RoleBidder),
	}

	newAccount, err := s.db.CreateAccount(params)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.User{
		Id:           newAccount.Id,
		Username:     newAccount.Username,
		EmailAddress: newAccount.EmailAddress,
		Role:         types.Role(newAccount.Role),
		CreatedAt:    newAccount.CreatedAt,
		UpdatedAt:    newAccount.UpdatedAt,
	})
}

func (s *AuctionApp) login(w http.ResponseWriter, r *http.Request) {
	var lr LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if lr.Email == "" || lr.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	account, err := s.db.GetAccountByEmail(lr.Email)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !verifyPassword(account.PasswordHash, lr.Password) {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	u := types.User{
		Id:           account.Id,
		Username:     account.Username,
		EmailAddress: account.EmailAddress,
		Role:         types.Role(account.Role),
		CreatedAt:    account.CreatedAt,
		UpdatedAt:    account.UpdatedAt,
	}

	token, err := s.createJwtForSession(u, defaultJwtExpiration)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	http.SetCookie(w, createJwtCookie(token, defaultJwtExpiration))

	s.writeJson(w, http.StatusOK, u)
}

func (s *AuctionApp) session(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	account, err := s.db.GetAccountById(userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.User{
		Id:           account.Id,
		Username:     account.Username,
		EmailAddress: account.EmailAddress,
		Role:         types.Role(account.Role),
		CreatedAt:    account.CreatedAt,
		UpdatedAt:    account.UpdatedAt,
	})
}

func (s *AuctionApp) logout(w http.ResponseWriter, _ *http.Request) {
	// instruct browser to delete cookie by overwriting it with an expired token
	http.SetCookie(w, createJwtCookie("", time.Duration(time.Unix(0, 0).Unix())))
	w.WriteHeader(http.StatusNoContent)
}

func (s *AuctionApp) createAuction(w http.ResponseWriter, r *http.Request) {
	var req CreateAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Title == "" || req.StartingPrice <= 0 || !req.EndTime.After(time.Now()) {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.MinIncrement <= 0 {
		req.MinIncrement = s.minIncrement
	}

	sid, err := shortid.Generate()
	if err != nil {
		s.log.WithError(err).Error("generate short id")
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	auction, err := s.db.CreateAuction(database.CreateAuctionParams{
		Title:         req.Title,
		Description:   req.Description,
		SellerId:      userId,
		ExternalId:    sid,
		StartingPrice: req.StartingPrice,
		MinIncrement:  req.MinIncrement,
		EndTime:       req.EndTime,
	})
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, auctionResponse(auction))
}

func (s *AuctionApp) getAuction(w http.ResponseWriter, r *http.Request) {
	externalId := r.URL.Query().Get("id")
	if externalId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	auction, err := s.db.GetAuctionByExternalId(externalId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, auctionResponse(auction))
}

// getBids returns an auction's full bid audit trail in sequence order.
func (s *AuctionApp) getBids(w http.ResponseWriter, r *http.Request) {
	externalId := r.URL.Query().Get("auction_id")
	if externalId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	auction, err := s.db.GetAuctionByExternalId(externalId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	bids, err := s.db.GetBidsByAuctionId(auction.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	resp := make([]types.Bid, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, types.Bid{
			Id:        b.Id,
			AuctionId: auction.ExternalId,
			BidderId:  b.BidderId,
			Amount:    b.Amount,
			Status:    types.BidStatus(b.Status),
			SeqNum:    b.SeqNum,
			Reason:    b.Reason,
			CreatedAt: b.CreatedAt,
		})
	}

	s.writeJson(w, http.StatusOK, resp)
}

func (s *AuctionApp) approveBid(w http.ResponseWriter, r *http.Request) {
	s.decideBid(w, r, func(ctx context.Context, auction database.Auction, bid database.Bid) error {
		return s.as.ApproveBid(ctx, auction, bid)
	})
}

func (s *AuctionApp) rejectBid(w http.ResponseWriter, r *http.Request) {
	var req RejectBidRequest
	if r.Body != nil {
		// reason is optional; ignore a missing or malformed body
		json.NewDecoder(r.Body).Decode(&req)
	}

	s.decideBid(w, r, func(ctx context.Context, auction database.Auction, bid database.Bid) error {
		return s.as.RejectBid(ctx, auction, bid, req.Reason)
	})
}

func (s *AuctionApp) decideBid(w http.ResponseWriter, r *http.Request, decide func(context.Context, database.Auction, database.Bid) error) {
	bidId := r.URL.Query().Get("id")
	if bidId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	bid, err := s.db.GetBidById(bidId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	auction, err := s.db.GetAuctionById(bid.AuctionId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), decisionTimeout)
	defer cancel()

	if err := decide(ctx, auction, bid); err != nil {
		var errResp *ApiError
		switch {
		case errors.Is(err, server.ErrAlreadyDecided),
			errors.Is(err, server.ErrSuperseded),
			errors.Is(err, server.ErrAuctionClosed):
			errResp = NewConflictError(err.Error())
		default:
			// retryable: storage failure, room busy or decision timed out
			errResp = NewServiceUnavailableError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"bid_id": bid.Id, "status": "decided"})
}

func (s *AuctionApp) getNotifications(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	rows, err := s.db.GetNotificationsByUserId(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	notifications := make([]types.Notification, 0, len(rows))
	for _, n := range rows {
		notifications = append(notifications, types.Notification{
			Id:        n.Id,
			UserId:    n.UserId,
			Type:      types.NotificationType(n.Type),
			Title:     n.Title,
			Message:   n.Message,
			AuctionId: n.AuctionId,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}

	s.writeJson(w, http.StatusOK, notifications)
}

func (s *AuctionApp) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	notificationId := r.URL.Query().Get("id")
	if notificationId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.MarkNotificationRead(notificationId, userId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *AuctionApp) serveWs(w http.ResponseWriter, r *http.Request) {
	id, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	account, err := s.db.GetAccountById(id)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Error("error upgrading connection")
		return
	}

	client := server.NewClient(types.User{
		Id:           account.Id,
		Username:     account.Username,
		EmailAddress: account.EmailAddress,
		Role:         types.Role(account.Role),
		CreatedAt:    account.CreatedAt,
		UpdatedAt:    account.UpdatedAt,
	}, conn, s.as, s.log)

	s.as.RegisterClient(client)
	go client.Write()
	go client.Read()
}

func auctionResponse(a database.Auction) types.Auction {
	return types.Auction{
		Id:               a.Id,
		ExternalId:       a.ExternalId,
		Title:            a.Title,
		Description:      a.Description,
		SellerId:         a.SellerId,
		StartingPrice:    a.StartingPrice,
		MinIncrement:     a.MinIncrement,
		CurrentBidAmount: a.CurrentBidAmount,
		CurrentBidderId:  a.CurrentBidderId,
		Status:           types.AuctionStatus(a.Status),
		EndTime:          a.EndTime,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}
