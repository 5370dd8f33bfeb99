package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/traybill/traybill/internal/billing"
	"github.com/traybill/traybill/internal/utils"
)

// State describes the outcome of a tray analysis.
type State string

const (
	// StateDone means at least one dish was detected, labeled, and priced.
	StateDone State = "done"
	// StateEmpty means no dish regions were found in the image.
	StateEmpty State = "empty"
	// StateFailed means regions were found but none produced a usable label.
	StateFailed State = "failed"
)

// DetectedItem is one dish shown to the customer: where it was found, what
// the models called it, and a crop thumbnail for the review UI.
type DetectedItem struct {
	ID          int     `json:"id"`
	CoarseLabel string  `json:"coarse_label"`
	Label       string  `json:"label"`
	Confidence  float64 `json:"confidence"`
	Thumbnail   string  `json:"image,omitempty"`
}

// Result is the complete outcome of analyzing one tray image.
type Result struct {
	State  State          `json:"state"`
	Items  []DetectedItem `json:"items"`
	Bill   billing.Bill   `json:"bill"`
	Reason string         `json:"reason,omitempty"`
}

// Analyze runs the full detect-classify-price flow over a tray photo.
//
// Oversized images are downscaled before detection. A photo with no dishes
// yields StateEmpty; a photo where every region fails to produce a label
// yields StateFailed. Classifier errors on individual regions degrade to the
// coarse detection label instead of failing the request.
func (p *Pipeline) Analyze(ctx context.Context, img image.Image) (*Result, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	working := utils.ResizeToFit(img, p.config.Localizer.MaxImageSize)

	regions, err := p.Localizer.Localize(ctx, working)
	if err != nil {
		return nil, fmt.Errorf("dish detection failed: %w", err)
	}
	if len(regions) == 0 {
		slog.Info("no dishes detected", "duration_ms", time.Since(start).Milliseconds())
		return &Result{State: StateEmpty, Reason: "no dishes detected in image"}, nil
	}

	outcomes := p.classifyRegions(ctx, working, regions)

	items := make([]DetectedItem, 0, len(outcomes))
	labels := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.err != nil {
			slog.Warn("skipping region", "index", o.index, "error", o.err)
			continue
		}
		item := o.item
		item.ID = len(items)
		items = append(items, item)
		labels = append(labels, item.Label)
	}

	if len(items) == 0 {
		return &Result{
			State:  StateFailed,
			Reason: fmt.Sprintf("all %d detected regions failed processing", len(regions)),
		}, nil
	}

	bill := p.Biller.Calculate(labels)

	slog.Info("tray analyzed",
		"regions", len(regions),
		"items", len(items),
		"total_cost", bill.TotalCost,
		"duration_ms", time.Since(start).Milliseconds())

	return &Result{State: StateDone, Items: items, Bill: bill}, nil
}
