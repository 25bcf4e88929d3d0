package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
)

// RoomLister is the slice of the room service API the token endpoint needs;
// it matches the SDK's room service client.
type RoomLister interface {
	ListRooms(ctx context.Context, req *livekit.ListRoomsRequest) (*livekit.ListRoomsResponse, error)
}

// TokenHandler serves GET /getToken: it signs a room-join token carrying the
// chosen topic as participant metadata, minting a fresh room name when the
// caller does not supply one. The response body is the bare JWT.
type TokenHandler struct {
	APIKey    string
	APISecret string
	TTL       time.Duration
	Rooms     RoomLister
	Logger    *slog.Logger
}

type participantMetadata struct {
	CategoryID *int `json:"category_id"`
	TopicID    *int `json:"topic_id"`
}

func (h TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "student"
	}
	categoryID := intParam(r, "category_id")
	topicID := intParam(r, "topic_id")

	room := r.URL.Query().Get("room")
	if room == "" {
		room = h.generateRoomName(r.Context(), categoryID, topicID)
	}

	metadata, err := json.Marshal(participantMetadata{CategoryID: categoryID, TopicID: topicID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build metadata")
		return
	}

	token, err := auth.NewAccessToken(h.APIKey, h.APISecret).
		SetIdentity(name).
		SetName(name).
		SetMetadata(string(metadata)).
		SetVideoGrant(&auth.VideoGrant{RoomJoin: true, Room: room}).
		SetValidFor(h.TTL).
		ToJWT()
	if err != nil {
		h.logger().Error("sign join token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	h.logger().Info("issued join token", "room", room, "participant", name)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(token))
}

// generateRoomName mints room-chinese-<category>-<topic>-<uuid8>, avoiding
// names already live on the room service. The uuid suffix makes collisions
// vanishingly rare; a handful of attempts is plenty.
func (h TokenHandler) generateRoomName(ctx context.Context, categoryID, topicID *int) string {
	existing := make(map[string]struct{})
	if h.Rooms != nil {
		resp, err := h.Rooms.ListRooms(ctx, &livekit.ListRoomsRequest{})
		if err != nil {
			h.logger().Warn("list rooms for name check", "error", err)
		} else {
			for _, room := range resp.Rooms {
				existing[room.Name] = struct{}{}
			}
		}
	}

	var name string
	for attempt := 0; attempt < 5; attempt++ {
		name = fmt.Sprintf("room-chinese-%s-%s-%s",
			idLabel(categoryID), idLabel(topicID), uuid.NewString()[:8])
		if _, taken := existing[name]; !taken {
			return name
		}
	}
	return name
}

func idLabel(id *int) string {
	if id == nil {
		return "general"
	}
	return strconv.Itoa(*id)
}

func intParam(r *http.Request, key string) *int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

func (h TokenHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
