package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/traybill/traybill/internal/billing"
	"github.com/traybill/traybill/internal/pipeline"
)

// BillLine is one priced line in the analyze response, pairing the billing
// data with the region thumbnail.
type BillLine struct {
	ID       int    `json:"id"`
	Item     string `json:"item"`
	Price    int64  `json:"price"`
	Calories int    `json:"calories"`
	Image    string `json:"image,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

// AnalyzeResponse is the successful analysis payload.
type AnalyzeResponse struct {
	Success       bool                    `json:"success"`
	DetectedItems []pipeline.DetectedItem `json:"detected_items"`
	BillDetails   []BillLine              `json:"bill_details"`
	TotalCost     int64                   `json:"total_cost"`
	TotalCalories int                     `json:"total_calories"`
	ItemsCount    int                     `json:"items_count"`
}

// newAnalyzeResponse joins bill lines with their item thumbnails by index.
func newAnalyzeResponse(res *pipeline.Result) AnalyzeResponse {
	lines := make([]BillLine, 0, len(res.Bill.Items))
	for i, li := range res.Bill.Items {
		line := BillLine{
			ID:       li.Index,
			Item:     li.Label,
			Price:    li.Price,
			Calories: li.Calories,
			Fallback: li.Fallback,
		}
		if i < len(res.Items) {
			line.Image = res.Items[i].Thumbnail
		}
		lines = append(lines, line)
	}
	return AnalyzeResponse{
		Success:       true,
		DetectedItems: res.Items,
		BillDetails:   lines,
		TotalCost:     res.Bill.TotalCost,
		TotalCalories: res.Bill.TotalCalories,
		ItemsCount:    len(lines),
	}
}

// FoodInfoEntry describes one menu item for the browsing endpoint.
type FoodInfoEntry struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Calories int    `json:"calories"`
	Category string `json:"category"`
}

// FoodInfoResponse lists the full menu.
type FoodInfoResponse struct {
	Success  bool            `json:"success"`
	FoodInfo []FoodInfoEntry `json:"food_info"`
}

// EntryView is the old/new item summary in correction responses.
type EntryView struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Calories int    `json:"calories"`
}

// UpdateFoodItemRequest is the correction request body. ItemIndex is a
// pointer to distinguish a missing field from index zero.
type UpdateFoodItemRequest struct {
	ItemIndex   *int          `json:"itemIndex"`
	NewFoodItem string        `json:"newFoodItem"`
	BillData    *billing.Bill `json:"billData,omitempty"`
}

// UpdateFoodItemResponse is the correction response.
type UpdateFoodItemResponse struct {
	Success     bool          `json:"success"`
	UpdatedBill *billing.Bill `json:"updated_bill,omitempty"`
	OldItem     *EntryView    `json:"old_item,omitempty"`
	NewItem     EntryView     `json:"new_item"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type errorResponse struct {
	Error          string `json:"error"`
	ItemsFound     *int   `json:"items_found,omitempty"`
	ItemsProcessed *int   `json:"items_processed,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
