package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/traybill/traybill/internal/catalog"
	"github.com/traybill/traybill/internal/pipeline"
	"github.com/traybill/traybill/internal/utils"
	"github.com/traybill/traybill/internal/version"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: version.Info()})
}

// handleAnalyze accepts a tray photo as a multipart "image" file or a
// base64-encoded "imageData" form field, runs the analysis pipeline, and
// returns the detected items with a priced bill.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())

	img, size, err := s.readImage(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("image exceeds the %d MB upload limit", s.config.MaxUploadMB))
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	uploadSizeBytes.Observe(float64(size))

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(s.config.TimeoutSec)*time.Second)
	defer cancel()

	start := time.Now()
	res, err := s.analyzer.Analyze(ctx, img)
	if err != nil {
		recordAnalyzeOutcome("error", time.Since(start).Seconds(), -1)
		slog.Error("analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to analyze image")
		return
	}

	switch res.State {
	case pipeline.StateEmpty:
		recordAnalyzeOutcome("empty", time.Since(start).Seconds(), 0)
		zero := 0
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:      "no dishes detected in the image, please try another photo",
			ItemsFound: &zero,
		})
	case pipeline.StateFailed:
		recordAnalyzeOutcome("failed", time.Since(start).Seconds(), 0)
		zero := 0
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:          "could not process any detected dish, please try a clearer photo",
			ItemsProcessed: &zero,
		})
	default:
		recordAnalyzeOutcome("done", time.Since(start).Seconds(), len(res.Items))
		for _, li := range res.Bill.Items {
			if li.Fallback {
				fallbackLinesTotal.Inc()
			}
		}
		writeJSON(w, http.StatusOK, newAnalyzeResponse(res))
	}
}

// readImage extracts the uploaded image from either request form. Returns
// the decoded image and the raw payload size.
func (s *Server) readImage(r *http.Request) (image.Image, int, error) {
	file, _, err := r.FormFile("image")
	if err == nil {
		defer func() { _ = file.Close() }()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, 0, err
		}
		img, err := utils.DecodeImage(data)
		if err != nil {
			return nil, 0, fmt.Errorf("could not read the image file, please try another one")
		}
		return img, len(data), nil
	}
	if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		return nil, 0, err
	}

	encoded := r.FormValue("imageData")
	if encoded == "" {
		return nil, 0, fmt.Errorf("no image provided")
	}
	// Strip a data URL prefix like "data:image/jpeg;base64,".
	if strings.Contains(encoded, "data:image") {
		if idx := strings.Index(encoded, ","); idx >= 0 {
			encoded = encoded[idx+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid base64 image data")
		}
	}
	img, err := utils.DecodeImage(data)
	if err != nil {
		return nil, 0, fmt.Errorf("could not decode the image data, please try another photo")
	}
	return img, len(data), nil
}

// handleUpdateFoodItem corrects one bill line to a different menu item and
// reprices the bill. Unknown items are rejected with 404 so the client can
// keep the original label.
func (s *Server) handleUpdateFoodItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req UpdateFoodItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemIndex == nil || strings.TrimSpace(req.NewFoodItem) == "" {
		writeError(w, http.StatusBadRequest, "itemIndex and newFoodItem are required")
		return
	}

	entry, ok := s.biller.Lookup(req.NewFoodItem)
	if !ok {
		writeError(w, http.StatusNotFound,
			fmt.Sprintf("item %q not found in menu", req.NewFoodItem))
		return
	}

	resp := UpdateFoodItemResponse{
		Success: true,
		NewItem: EntryView{Name: req.NewFoodItem, Price: entry.Price, Calories: entry.Calories},
	}

	if req.BillData != nil && len(req.BillData.Items) > 0 {
		idx := *req.ItemIndex
		if idx < 0 || idx >= len(req.BillData.Items) {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("itemIndex %d outside bill with %d items", idx, len(req.BillData.Items)))
			return
		}
		old := req.BillData.Items[idx]
		updated, err := s.biller.Correct(*req.BillData, idx, req.NewFoodItem)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		resp.UpdatedBill = &updated
		resp.OldItem = &EntryView{Name: old.Label, Price: old.Price, Calories: old.Calories}

		slog.Info("bill line corrected",
			"index", idx, "from", old.Label, "to", req.NewFoodItem)
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleFoodInfo lists the menu with derived categories.
func (s *Server) handleFoodInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries := s.catalog.Entries()
	info := make([]FoodInfoEntry, 0, len(entries))
	for _, e := range entries {
		info = append(info, FoodInfoEntry{
			Name:     e.Label,
			Price:    e.Price,
			Calories: e.Calories,
			Category: catalog.CategoryOf(e.Label),
		})
	}
	writeJSON(w, http.StatusOK, FoodInfoResponse{Success: true, FoodInfo: info})
}
