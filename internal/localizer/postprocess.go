package localizer

import (
	"fmt"
	"image"
	"math"
	"sort"

	ort "github.com/yalue/onnxruntime_go"
)

// decodeParams carries the letterbox mapping needed to project detections
// back into original image coordinates.
type decodeParams struct {
	scale  float64
	padX   int
	padY   int
	bounds image.Rectangle
	config Config
}

type candidate struct {
	box   image.Rectangle
	score float64
}

// decodeDetections parses the raw detection output with layout
// [1, 4+numClasses, numAnchors]: rows 0-3 are center-x, center-y, width,
// height in input coordinates, the remaining rows are per-class scores.
// Only the target class above the confidence threshold survives; boxes are
// unmapped from letterbox space, clipped, deduplicated with NMS, and empty
// boxes dropped.
func decodeDetections(data []float32, shape ort.Shape, p decodeParams) ([]Region, error) {
	if len(shape) != 3 || shape[0] != 1 {
		return nil, fmt.Errorf("unexpected detection output shape %v", shape)
	}
	attrs := int(shape[1])
	anchors := int(shape[2])
	if attrs < 5 {
		return nil, fmt.Errorf("detection output has %d attributes, need at least 5", attrs)
	}
	if len(data) < attrs*anchors {
		return nil, fmt.Errorf("detection output truncated: %d values for shape %v", len(data), shape)
	}

	numClasses := attrs - 4
	if p.config.TargetClassID >= numClasses {
		return nil, fmt.Errorf("target class %d outside model's %d classes",
			p.config.TargetClassID, numClasses)
	}

	at := func(attr, anchor int) float32 { return data[attr*anchors+anchor] }

	var cands []candidate
	for a := 0; a < anchors; a++ {
		bestClass, bestScore := 0, float32(0)
		for c := 0; c < numClasses; c++ {
			if s := at(4+c, a); s > bestScore {
				bestClass, bestScore = c, s
			}
		}
		if bestClass != p.config.TargetClassID || bestScore < p.config.ConfThreshold {
			continue
		}

		cx, cy := float64(at(0, a)), float64(at(1, a))
		w, h := float64(at(2, a)), float64(at(3, a))

		// Undo letterbox: remove padding, then rescale.
		x0 := (cx - w/2 - float64(p.padX)) / p.scale
		y0 := (cy - h/2 - float64(p.padY)) / p.scale
		x1 := (cx + w/2 - float64(p.padX)) / p.scale
		y1 := (cy + h/2 - float64(p.padY)) / p.scale

		box := image.Rect(
			int(math.Floor(x0)), int(math.Floor(y0)),
			int(math.Ceil(x1)), int(math.Ceil(y1)),
		).Intersect(p.bounds)
		if box.Empty() {
			continue
		}
		cands = append(cands, candidate{box: box, score: float64(bestScore)})
	}

	kept := suppressOverlaps(cands, float64(p.config.IoUThreshold))

	regions := make([]Region, 0, len(kept))
	for _, c := range kept {
		regions = append(regions, Region{
			Box:         c.box,
			CoarseLabel: p.config.CoarseLabel,
			Confidence:  c.score,
		})
	}
	return regions, nil
}

// suppressOverlaps applies greedy non-maximum suppression, keeping the
// highest-scoring box of each overlapping cluster. The result is ordered by
// descending confidence.
func suppressOverlaps(cands []candidate, iouThreshold float64) []candidate {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })

	kept := make([]candidate, 0, len(cands))
	for _, c := range cands {
		overlaps := false
		for _, k := range kept {
			if iou(c.box, k.box) > iouThreshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}
	return kept
}

func iou(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}
