package server

import (
	"errors"
	"net/http"
	"strconv"

	"gojam/core/library"
	"gojam/logger"

	"github.com/gorilla/mux"
)

// LibraryHandler serves the authenticated user's recognized tracks, most
// recent first. ?favorites=1 narrows to favorites only.
func (h *APIHandler) LibraryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	favoritesOnly := r.URL.Query().Get("favorites") == "1"
	entries, err := h.reconciler.List(r.Context(), userID, favoritesOnly)
	if err != nil {
		logger.Error("Library listing failed", logger.Int64("userId", userID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	var distinct int64
	if err == nil && user != nil {
		distinct = user.DistinctTracks
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries":        entries,
		"distinctTracks": distinct,
	})
}

// FavoriteToggleHandler flips the favorite flag on one of the user's
// recognition records.
func (h *APIHandler) FavoriteToggleHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	recordID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid record ID")
		return
	}

	favorite, err := h.reconciler.ToggleFavorite(r.Context(), userID, recordID)
	if err != nil {
		if errors.Is(err, library.ErrNotOwned) {
			writeError(w, http.StatusForbidden, "Record does not belong to you")
			return
		}
		logger.Error("Favorite toggle failed", logger.Int64("recordId", recordID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"isFavorite": favorite})
}

// DeleteRecognitionHandler removes one of the user's recognition records.
func (h *APIHandler) DeleteRecognitionHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	recordID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid record ID")
		return
	}

	if err := h.reconciler.Delete(r.Context(), userID, recordID); err != nil {
		if errors.Is(err, library.ErrNotOwned) {
			writeError(w, http.StatusForbidden, "Record does not belong to you")
			return
		}
		logger.Error("Recognition delete failed", logger.Int64("recordId", recordID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}
