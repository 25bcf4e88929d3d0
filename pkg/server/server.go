// Package server assembles the token/catalog HTTP service: join tokens with
// topic metadata for the frontend, plus read-only catalog browsing endpoints.
package server

import (
	"log/slog"
	"net/http"

	lksdk "github.com/livekit/server-sdk-go/v2"

	"github.com/trumchinese/tutor-agent/pkg/agent/catalog"
	"github.com/trumchinese/tutor-agent/pkg/server/config"
	"github.com/trumchinese/tutor-agent/pkg/server/handlers"
	"github.com/trumchinese/tutor-agent/pkg/server/mw"
)

type Server struct {
	cfg     config.Config
	logger  *slog.Logger
	mux     *http.ServeMux
	catalog *catalog.Catalog
	rooms   handlers.RoomLister
}

// New builds the service around a loaded catalog. The room service client is
// only exercised by the token endpoint's room-name uniqueness check.
func New(cfg config.Config, cat *catalog.Catalog, logger *slog.Logger) *Server {
	rooms := lksdk.NewRoomServiceClient(cfg.LiveKitURL, cfg.LiveKitAPIKey, cfg.LiveKitAPISecret)
	return newWithRooms(cfg, cat, rooms, logger)
}

func newWithRooms(cfg config.Config, cat *catalog.Catalog, rooms handlers.RoomLister, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		mux:     http.NewServeMux(),
		catalog: cat,
		rooms:   rooms,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("GET /healthz", handlers.HealthHandler{})

	s.mux.Handle("GET /getToken", handlers.TokenHandler{
		APIKey:    s.cfg.LiveKitAPIKey,
		APISecret: s.cfg.LiveKitAPISecret,
		TTL:       s.cfg.TokenTTL,
		Rooms:     s.rooms,
		Logger:    s.logger,
	})

	s.mux.Handle("GET /chinese-categories", handlers.CategoriesHandler{Catalog: s.catalog})
	s.mux.Handle("GET /chinese-topics/{category_id}", handlers.TopicsHandler{Catalog: s.catalog})
	s.mux.Handle("GET /chinese-topic/{category_id}/{topic_id}", handlers.TopicDetailHandler{Catalog: s.catalog})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
