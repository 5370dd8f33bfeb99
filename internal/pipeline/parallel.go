package pipeline

import (
	"context"
	"image"
	"log/slog"
	"runtime"
	"sync"

	"github.com/traybill/traybill/internal/localizer"
	"github.com/traybill/traybill/internal/utils"
)

type regionJob struct {
	index  int
	region localizer.Region
}

type regionOutcome struct {
	index int
	item  DetectedItem
	err   error
}

// classifyRegions fans detected regions out to a worker pool, classifies and
// thumbnails each crop, and returns outcomes in the original region order.
func (p *Pipeline) classifyRegions(ctx context.Context, img image.Image, regions []localizer.Region) []regionOutcome {
	workers := p.config.MaxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(regions) {
		workers = len(regions)
	}

	jobs := make(chan regionJob, len(regions))
	results := make(chan regionOutcome, len(regions))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				select {
				case <-ctx.Done():
					results <- regionOutcome{index: job.index, err: ctx.Err()}
					continue
				default:
				}
				results <- p.processRegion(img, job)
			}
		}()
	}

	for i, r := range regions {
		jobs <- regionJob{index: i, region: r}
	}
	close(jobs)

	wg.Wait()
	close(results)

	byIndex := make(map[int]regionOutcome, len(regions))
	for o := range results {
		byIndex[o.index] = o
	}
	ordered := make([]regionOutcome, 0, len(regions))
	for i := range regions {
		ordered = append(ordered, byIndex[i])
	}
	return ordered
}

// processRegion crops one region, refines its label, and renders the review
// thumbnail. A classifier error is not fatal: the coarse detection label
// stands in for the refined one.
func (p *Pipeline) processRegion(img image.Image, job regionJob) regionOutcome {
	crop, err := utils.CropRect(img, job.region.Box)
	if err != nil {
		return regionOutcome{index: job.index, err: err}
	}

	refined := ""
	confidence := job.region.Confidence
	if res, err := p.Classifier.Classify(crop); err != nil {
		slog.Debug("classifier abstained, keeping coarse label",
			"index", job.index, "error", err)
	} else {
		refined = res.Label
		confidence = res.Confidence
	}

	thumbnail, err := utils.Thumbnail(img, job.region.Box, p.config.ThumbnailMaxSide)
	if err != nil {
		return regionOutcome{index: job.index, err: err}
	}

	return regionOutcome{
		index: job.index,
		item: DetectedItem{
			CoarseLabel: job.region.CoarseLabel,
			Label:       ReconcileLabel(job.region.CoarseLabel, refined),
			Confidence:  confidence,
			Thumbnail:   thumbnail,
		},
	}
}
