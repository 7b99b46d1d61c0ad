package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"gojam/config"
	"gojam/core/catalog"
	"gojam/core/library"
	"gojam/core/shazam"
	"gojam/logger"
	"gojam/repository"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// APIHandler handles all API requests.
type APIHandler struct {
	pipeline   *catalog.Pipeline
	reconciler *library.Reconciler
	trackRepo  repository.TrackRepository
	artistRepo repository.ArtistRepository
	userRepo   repository.UserRepository
	cfg        *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	pipeline *catalog.Pipeline,
	reconciler *library.Reconciler,
	trackRepo repository.TrackRepository,
	artistRepo repository.ArtistRepository,
	userRepo repository.UserRepository,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		pipeline:   pipeline,
		reconciler: reconciler,
		trackRepo:  trackRepo,
		artistRepo: artistRepo,
		userRepo:   userRepo,
		cfg:        cfg,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// RecognizeHandler accepts an uploaded audio sample and runs it through the
// recognition pipeline. Works for anonymous users too; only authenticated
// requests get a library entry.
func (h *APIHandler) RecognizeHandler(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No sample file provided")
		return
	}
	defer file.Close()

	// Unique name so two users recognizing at once never collide.
	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = ".mp3"
	}
	if err := os.MkdirAll(h.cfg.SampleUploadDir, 0755); err != nil {
		logger.Error("Failed to create sample dir", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	samplePath := filepath.Join(h.cfg.SampleUploadDir, uuid.NewString()+ext)
	dst, err := os.Create(samplePath)
	if err != nil {
		logger.Error("Failed to create sample file", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(samplePath)
		writeError(w, http.StatusInternalServerError, "Failed to store sample")
		return
	}
	dst.Close()
	defer os.Remove(samplePath)

	userID, _ := GetUserIDFromContext(r.Context())

	result, err := h.pipeline.IngestRecognition(r.Context(), userID, samplePath)
	if err != nil {
		if errors.Is(err, shazam.ErrNotRecognized) {
			writeJSON(w, http.StatusOK, map[string]interface{}{"recognized": false})
			return
		}
		if errors.Is(err, shazam.ErrServiceUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "Recognition service unavailable, try again later")
			return
		}
		logger.Error("Recognition ingestion failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recognized": true,
		"result":     result,
	})
}

// ChartsHandler serves a country chart, folding its entries into the catalog.
func (h *APIHandler) ChartsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	country := vars["country"]
	if country == "" {
		country = shazam.WorldChart
	}
	genre := r.URL.Query().Get("genre")

	if !shazam.ValidCountry(country) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown country code %q", country))
		return
	}
	if !shazam.ValidGenre(country, genre) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Genre %q not available for %q", genre, country))
		return
	}

	entries, err := h.pipeline.IngestChart(r.Context(), country, genre)
	if err != nil {
		if errors.Is(err, shazam.ErrServiceUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "Chart service unavailable")
			return
		}
		logger.Error("Chart ingestion failed", logger.String("country", country), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"country": shazam.Countries[country],
		"genre":   genre,
		"entries": entries,
	})
}

// RelatedHandler serves tracks similar to the one identified by track key.
func (h *APIHandler) RelatedHandler(w http.ResponseWriter, r *http.Request) {
	trackKey := mux.Vars(r)["trackKey"]
	if trackKey == "" {
		writeError(w, http.StatusBadRequest, "Track key is required")
		return
	}

	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}

	entries, err := h.pipeline.IngestRelated(r.Context(), trackKey, limit, offset)
	if err != nil {
		if errors.Is(err, shazam.ErrServiceUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "Related-tracks service unavailable")
			return
		}
		logger.Error("Related ingestion failed", logger.String("trackKey", trackKey), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// ArtistHandler ingests and serves an artist page. When the external service
// is down it degrades to whatever the catalog already knows about the artist.
func (h *APIHandler) ArtistHandler(w http.ResponseWriter, r *http.Request) {
	shazamID, err := strconv.ParseInt(mux.Vars(r)["shazamId"], 10, 64)
	if err != nil || shazamID == 0 {
		writeError(w, http.StatusBadRequest, "Invalid artist ID")
		return
	}

	result, err := h.pipeline.IngestArtist(r.Context(), shazamID)
	if err != nil {
		if errors.Is(err, shazam.ErrServiceUnavailable) {
			h.serveStoredArtist(w, shazamID)
			return
		}
		logger.Error("Artist ingestion failed", logger.Int64("shazamId", shazamID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// serveStoredArtist is the degraded artist page: catalog data only.
func (h *APIHandler) serveStoredArtist(w http.ResponseWriter, shazamID int64) {
	artist, err := h.artistRepo.GetArtistByShazamID(shazamID)
	if err != nil || artist == nil {
		writeError(w, http.StatusServiceUnavailable, "Artist service unavailable")
		return
	}
	tracks, err := h.trackRepo.GetTracksByArtistShazamID(shazamID)
	if err != nil {
		tracks = nil
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"artist":   artist,
		"tracks":   tracks,
		"degraded": true,
	})
}

// TrackInfoHandler serves one catalogued track.
func (h *APIHandler) TrackInfoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		// id 0 is the ghost placeholder; there is nothing to show.
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}

	track, err := h.trackRepo.GetTrackByID(id)
	if err != nil {
		logger.Error("Track lookup failed", logger.Int64("trackId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"track": track})
}

// ArtistInfoHandler serves one catalogued artist with aggregate stats.
func (h *APIHandler) ArtistInfoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusNotFound, "Artist not found")
		return
	}

	stats, err := h.artistRepo.GetArtistStats(id)
	if err != nil {
		logger.Error("Artist stats lookup failed", logger.Int64("artistId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if stats == nil {
		writeError(w, http.StatusNotFound, "Artist not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"artist": stats})
}

// TopArtistHandler serves the most recognized artist on the platform.
func (h *APIHandler) TopArtistHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.artistRepo.MostPopularArtist()
	if err != nil {
		logger.Error("Top artist lookup failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if stats == nil {
		writeError(w, http.StatusNotFound, "No artists catalogued yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"artist": stats})
}
