package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/antiqhall/go-auctionroom/internal/config"
	"github.com/antiqhall/go-auctionroom/internal/database"
	"github.com/antiqhall/go-auctionroom/internal/server"
	"github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"
)

const decisionTimeout = 5 * time.Second

type AuctionApp struct {
	log            *logrus.Logger
	db             database.AuctionRepository
	mux            *http.Server
	as             *server.AuctionServer
	signingKey     []byte
	allowedOrigins []string
	minIncrement   float64
}

func NewAuctionApp(mux *http.ServeMux, logger *logrus.Logger, as *server.AuctionServer, db database.AuctionRepository, cfg *config.Config) *AuctionApp {
	s := &AuctionApp{
		log:            logger,
		db:             db,
		as:             as,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
		minIncrement:   cfg.MinBidIncrement,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.Handle("POST /api/auctions", s.authMiddleware(s.createAuction))
	mux.Handle("GET /api/auctions", s.authMiddleware(s.getAuction))
	mux.Handle("GET /api/bids", s.authMiddleware(s.getBids))
	mux.Handle("POST /api/bids/approve", s.authMiddleware(s.requireAdmin(s.approveBid)))
	mux.Handle("POST /api/bids/reject", s.authMiddleware(s.requireAdmin(s.rejectBid)))
	mux.Handle("GET /api/notifications", s.authMiddleware(s.getNotifications))
	mux.Handle("POST /api/notifications/read", s.authMiddleware(s.markNotificationRead))
	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *AuctionApp) Start() error {
	s.log.Infof("starting server on %s", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *AuctionApp) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
