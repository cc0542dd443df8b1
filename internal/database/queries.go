package database

import (
	"database/sql"
	"fmt"
	"time"
)

func (db *PgAuctionRepository) CreateAccount(params CreateAccountParams) (Account, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (username, email, password_hash, role, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $5) RETURNING id, username, email, role, created_at, updated_at",
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		params.Role,
		time.Now().UTC(),
	)

	var a Account
	err := res.Scan(
		&a.Id,
		&a.Username,
		&a.EmailAddress,
		&a.Role,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	return a, err
}

func (db *PgAuctionRepository) GetAccountById(accountId int) (Account, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, role, created_at, updated_at FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		accountId,
	)

	var a Account
	err := row.Scan(
		&a.Id,
		&a.Username,
		&a.EmailAddress,
		&a.Role,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	return a, err
}

func (db *PgAuctionRepository) GetAccountByEmail(email string) (Account, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, role, created_at, updated_at FROM accounts "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var a Account
	err := row.Scan(
		&a.Id,
		&a.Username,
		&a.EmailAddress,
		&a.PasswordHash,
		&a.Role,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	return a, err
}

func (db *PgAuctionRepository) CreateAuction(params CreateAuctionParams) (Auction, error) {
	res := db.conn.QueryRow(
		"INSERT INTO auctions (external_id, title, description, seller_id, starting_price, min_increment, "+
			"current_bid_amount, status, end_time, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $5, 'active', $7, $8, $8) "+
			"RETURNING id, external_id, title, description, seller_id, starting_price, min_increment, "+
			"current_bid_amount, status, end_time, created_at, updated_at",
		params.ExternalId,
		params.Title,
		params.Description,
		params.SellerId,
		params.StartingPrice,
		params.MinIncrement,
		params.EndTime,
		time.Now().UTC(),
	)

	return scanAuctionRow(res)
}

func scanAuctionRow(row *sql.Row) (Auction, error) {
	var a Auction
	err := row.Scan(
		&a.Id,
		&a.ExternalId,
		&a.Title,
		&a.Description,
		&a.SellerId,
		&a.StartingPrice,
		&a.MinIncrement,
		&a.CurrentBidAmount,
		&a.Status,
		&a.EndTime,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	return a, err
}

const auctionColumns = "id, external_id, title, description, seller_id, starting_price, min_increment, " +
	"current_bid_amount, current_bidder_id, status, end_time, created_at, updated_at"

func (db *PgAuctionRepository) getAuction(where string, arg any) (Auction, error) {
	row := db.conn.QueryRow(
		"SELECT "+auctionColumns+" FROM auctions WHERE "+where+" LIMIT 1",
		arg,
	)

	var (
		a             Auction
		currentBidder sql.NullInt64
	)
	err := row.Scan(
		&a.Id,
		&a.ExternalId,
		&a.Title,
		&a.Description,
		&a.SellerId,
		&a.StartingPrice,
		&a.MinIncrement,
		&a.CurrentBidAmount,
		&currentBidder,
		&a.Status,
		&a.EndTime,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return Auction{}, err
	}

	if currentBidder.Valid {
		a.CurrentBidderId = int(currentBidder.Int64)
	}

	return a, nil
}

func (db *PgAuctionRepository) GetAuctionById(auctionId int) (Auction, error) {
	return db.getAuction("id = $1", auctionId)
}

func (db *PgAuctionRepository) GetAuctionByExternalId(externalId string) (Auction, error) {
	return db.getAuction("external_id = $1", externalId)
}

func (db *PgAuctionRepository) UpdateAuctionStatus(auctionId int, status string) error {
	_, err := db.conn.Exec(
		"UPDATE auctions SET status = $2, updated_at = $3 WHERE id = $1",
		auctionId,
		status,
		time.Now().UTC(),
	)

	return err
}

func (db *PgAuctionRepository) CreateBid(bid Bid) (Bid, error) {
	res := db.conn.QueryRow(
		"INSERT INTO bids (id, auction_id, bidder_id, amount, status, seq_num, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $7) "+
			"RETURNING id, auction_id, bidder_id, amount, status, seq_num, created_at, updated_at",
		bid.Id,
		bid.AuctionId,
		bid.BidderId,
		bid.Amount,
		bid.Status,
		bid.SeqNum,
		bid.CreatedAt,
	)

	var b Bid
	err := res.Scan(
		&b.Id,
		&b.AuctionId,
		&b.BidderId,
		&b.Amount,
		&b.Status,
		&b.SeqNum,
		&b.CreatedAt,
		&b.UpdatedAt,
	)

	return b, err
}

func scanBidRows(rows *sql.Rows) ([]Bid, error) {
	var bids []Bid
	for rows.Next() {
		var (
			b      Bid
			reason sql.NullString
		)
		if err := rows.Scan(&b.Id, &b.AuctionId, &b.BidderId, &b.Amount, &b.Status, &b.SeqNum, &reason, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan bid row: %w", err)
		}
		b.Reason = reason.String

		bids = append(bids, b)
	}

	return bids, rows.Err()
}

func (db *PgAuctionRepository) GetBidById(bidId string) (Bid, error) {
	row := db.conn.QueryRow(
		"SELECT id, auction_id, bidder_id, amount, status, seq_num, reason, created_at, updated_at "+
			"FROM bids WHERE id = $1 LIMIT 1",
		bidId,
	)

	var (
		b      Bid
		reason sql.NullString
	)
	err := row.Scan(&b.Id, &b.AuctionId, &b.BidderId, &b.Amount, &b.Status, &b.SeqNum, &reason, &b.CreatedAt, &b.UpdatedAt)
	b.Reason = reason.String

	return b, err
}

func (db *PgAuctionRepository) GetBidsByAuctionId(auctionId int) ([]Bid, error) {
	rows, err := db.conn.Query(
		"SELECT id, auction_id, bidder_id, amount, status, seq_num, reason, created_at, updated_at "+
			"FROM bids WHERE auction_id = $1 ORDER BY seq_num",
		auctionId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBidRows(rows)
}

func (db *PgAuctionRepository) GetHighestApprovedBid(auctionId int) (Bid, error) {
	row := db.conn.QueryRow(
		"SELECT id, auction_id, bidder_id, amount, status, seq_num, reason, created_at, updated_at "+
			"FROM bids WHERE auction_id = $1 AND status = 'approved' ORDER BY amount DESC LIMIT 1",
		auctionId,
	)

	var (
		b      Bid
		reason sql.NullString
	)
	err := row.Scan(&b.Id, &b.AuctionId, &b.BidderId, &b.Amount, &b.Status, &b.SeqNum, &reason, &b.CreatedAt, &b.UpdatedAt)
	b.Reason = reason.String

	return b, err
}

// ApproveBid marks a pending bid approved and advances the auction's current
// bid in one transaction. The auction update is conditional on the auction
// still being active and the amount still exceeding the stored current bid,
// which is the atomic read-then-conditional-write the storage contract
// requires. ErrConflict reports the auction condition no longer holding;
// ErrBidDecided reports the bid having already left the pending state.
func (db *PgAuctionRepository) ApproveBid(bidId string, auctionId int, amount float64, bidderId int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	res, err := tx.Exec(
		"UPDATE auctions SET current_bid_amount = $2, current_bidder_id = $3, updated_at = $4 "+
			"WHERE id = $1 AND status = 'active' AND current_bid_amount < $2",
		auctionId,
		amount,
		bidderId,
		now,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		err = ErrConflict
		return err
	}

	res, err = tx.Exec(
		"UPDATE bids SET status = 'approved', updated_at = $2 WHERE id = $1 AND status = 'pending'",
		bidId,
		now,
	)
	if err != nil {
		return err
	}

	affected, err = res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		err = ErrBidDecided
		return err
	}

	return tx.Commit()
}

func (db *PgAuctionRepository) RejectBid(bidId, reason string) error {
	res, err := db.conn.Exec(
		"UPDATE bids SET status = 'rejected', reason = $2, updated_at = $3 WHERE id = $1 AND status = 'pending'",
		bidId,
		reason,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrBidDecided
	}

	return nil
}

// RejectPendingBids terminally rejects every pending bid for an auction and
// returns the affected rows so callers can notify the bidders.
func (db *PgAuctionRepository) RejectPendingBids(auctionId int, reason string) ([]Bid, error) {
	rows, err := db.conn.Query(
		"UPDATE bids SET status = 'rejected', reason = $2, updated_at = $3 "+
			"WHERE auction_id = $1 AND status = 'pending' "+
			"RETURNING id, auction_id, bidder_id, amount, status, seq_num, reason, created_at, updated_at",
		auctionId,
		reason,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBidRows(rows)
}

func (db *PgAuctionRepository) CreateNotification(n Notification) (Notification, error) {
	res := db.conn.QueryRow(
		"INSERT INTO notifications (id, user_id, type, title, message, auction_id, read, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7) "+
			"RETURNING id, user_id, type, title, message, auction_id, read, created_at",
		n.Id,
		n.UserId,
		n.Type,
		n.Title,
		n.Message,
		n.AuctionId,
		n.CreatedAt,
	)

	var created Notification
	err := res.Scan(
		&created.Id,
		&created.UserId,
		&created.Type,
		&created.Title,
		&created.Message,
		&created.AuctionId,
		&created.Read,
		&created.CreatedAt,
	)

	return created, err
}

func (db *PgAuctionRepository) GetNotificationsByUserId(userId int) ([]Notification, error) {
	rows, err := db.conn.Query(
		"SELECT id, user_id, type, title, message, auction_id, read, created_at "+
			"FROM notifications WHERE user_id = $1 ORDER BY created_at DESC",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.Id, &n.UserId, &n.Type, &n.Title, &n.Message, &n.AuctionId, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}

		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func (db *PgAuctionRepository) MarkNotificationRead(notificationId string, userId int) error {
	res, err := db.conn.Exec(
		"UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2",
		notificationId,
		userId,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
