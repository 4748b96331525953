package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/farukkamcici/ibb-transport-sub001/internal/favorites"
)

type addFavoriteRequest struct {
	LineCode    string `json:"lineCode" validate:"required"`
	StationID   int    `json:"stationId" validate:"gt=0"`
	StationName string `json:"stationName" validate:"required"`
}

type favoritesResponse struct {
	Favorites []favorites.Favorite `json:"favorites"`
	Count     int                  `json:"count"`
}

// handleListFavorites handles GET /api/favorites
func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := s.favs.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list favorites", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}
	if favs == nil {
		favs = []favorites.Favorite{}
	}

	writeJSON(w, http.StatusOK, favoritesResponse{Favorites: favs, Count: len(favs)})
}

// handleAddFavorite handles POST /api/favorites
func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	var req addFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid favorite", map[string]interface{}{
			"validation": err.Error(),
		})
		return
	}

	fav := favorites.Favorite{
		LineCode:    req.LineCode,
		StationID:   req.StationID,
		StationName: req.StationName,
		AddedAt:     time.Now().UTC(),
	}
	if err := s.favs.Add(r.Context(), fav); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save favorite", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusCreated, fav)
}

// handleRemoveFavorite handles DELETE /api/favorites/{lineCode}/{stationID}
func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	lineCode := chi.URLParam(r, "lineCode")
	stationID, err := strconv.Atoi(chi.URLParam(r, "stationID"))
	if err != nil || stationID <= 0 {
		writeError(w, http.StatusBadRequest, "stationID must be a positive integer", nil)
		return
	}

	if err := s.favs.Remove(r.Context(), lineCode, stationID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete favorite", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
