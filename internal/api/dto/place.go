package dto

type PlaceSelectionRequest struct {
	PlaceID string `json:"place_id"`
	Name    string `json:"name"`
}

type PlaceSelectionResponse struct {
	Status string `json:"status"`
}
