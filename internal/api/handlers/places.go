package handlers

import (
	"navigation-session-service/internal/api/dto"
	"navigation-session-service/internal/platform/obs"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// PlaceSelection records a place picked from search results. The choice
// is logged only; it does not feed any map session.
func PlaceSelection(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.PlaceSelectionRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	req.PlaceID = strings.TrimSpace(req.PlaceID)
	req.Name = strings.TrimSpace(req.Name)
	if req.PlaceID == "" && req.Name == "" {
		writeError(w, r, http.StatusBadRequest, "place_id or name is required")
		return
	}

	obs.Logger(r.Context()).Info("place selected",
		zap.String("place_id", req.PlaceID),
		zap.String("name", req.Name),
	)
	writeJSON(w, r, http.StatusAccepted, dto.PlaceSelectionResponse{Status: "accepted"})
}
