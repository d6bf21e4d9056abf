package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/domtes/chemmazz/internal/game"
)

type createRoomRequest struct {
	Name       string `json:"name"`
	MinimumBet int    `json:"minimumBet,omitempty"`
}

type roomInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateRoomHandler creates a new table. The creator still needs to open
// the room socket to actually sit down and become its owner.
func CreateRoomHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := authenticateRequest(r); err != nil {
			http.Error(w, "not logged in", http.StatusUnauthorized)
			return
		}

		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request payload", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}

		cfg := game.DefaultConfig()
		if req.MinimumBet > 0 {
			cfg.MinimumBet = req.MinimumBet
		}
		room := s.CreateRoom(req.Name, cfg)
		s.Logger.Infof("room %q created (%s)", room.Name, room.ID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(roomInfo{ID: room.ID.String(), Name: room.Name})
	}
}

// ListRoomsHandler returns the live tables.
func ListRoomsHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := authenticateRequest(r); err != nil {
			http.Error(w, "not logged in", http.StatusUnauthorized)
			return
		}

		rooms := s.Rooms.List()
		out := make([]roomInfo, 0, len(rooms))
		for _, room := range rooms {
			out = append(out, roomInfo{ID: room.ID.String(), Name: room.Name})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}
