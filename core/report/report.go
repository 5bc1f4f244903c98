// Package report renders the dry-run preview of a classified diff.
//
// The counts and categorization come straight from the classifier and
// are reproducible bit-for-bit; only the styling here is cosmetic.
package report

import (
	"fmt"

	"playprice/core/diff"
	"playprice/core/ui"
)

// exampleCap bounds the per-category listings; the remainder is
// summarized by count.
const exampleCap = 5

// Renderer writes a diff preview to a ui.Writer.
type Renderer struct {
	w *ui.Writer
}

// NewRenderer creates a report renderer.
func NewRenderer(w *ui.Writer) *Renderer {
	return &Renderer{w: w}
}

// Render prints the counts summary and capped per-category listings.
func (r *Renderer) Render(result *diff.Result) {
	counts := result.Counts()

	r.w.Header("Summary")
	r.w.Println("  New regions:          %d", counts.New)
	r.w.Println("  Price changes:        %d", counts.PriceChanged)
	r.w.Println("  Availability changes: %d", counts.AvailabilityChanged)
	r.w.Println("  No changes:           %d", counts.Unchanged)
	r.w.Println("  Total regions:        %d", counts.Total)

	r.renderNew(result.New)
	r.renderPriceChanges(result.PriceChanged)
	r.renderAvailabilityChanges(result.AvailabilityChanged)

	if counts.Unchanged > 0 {
		r.w.Println("")
		r.w.Println("%d regions remain unchanged", counts.Unchanged)
	}
}

func (r *Renderer) renderNew(entries []*diff.Entry) {
	if len(entries) == 0 {
		return
	}

	r.w.Header(fmt.Sprintf("New regions (%d)", len(entries)))
	for i, e := range entries {
		if i == exampleCap {
			r.w.Println("  ... and %d more", len(entries)-exampleCap)
			break
		}
		line := fmt.Sprintf("  %-4s %s", e.RegionCode, r.w.Color(ui.Green, e.New.Price.String()))
		if e.New.NewSubscriberAvailability != "" {
			line += "  " + r.w.Color(ui.Dim, e.New.NewSubscriberAvailability)
		}
		r.w.Println("%s", line)
	}
}

func (r *Renderer) renderPriceChanges(entries []*diff.Entry) {
	if len(entries) == 0 {
		return
	}

	r.w.Header(fmt.Sprintf("Price changes (%d)", len(entries)))
	for i, e := range entries {
		if i == exampleCap {
			r.w.Println("  ... and %d more", len(entries)-exampleCap)
			break
		}
		r.w.Println("  %-4s %s → %s%s",
			e.RegionCode,
			e.Old.Price.String(),
			r.w.Color(ui.Yellow, e.New.Price.String()),
			directionMark(e.Direction))
	}
}

func (r *Renderer) renderAvailabilityChanges(entries []*diff.Entry) {
	if len(entries) == 0 {
		return
	}

	r.w.Header(fmt.Sprintf("Availability changes (%d)", len(entries)))
	for i, e := range entries {
		if i == exampleCap {
			r.w.Println("  ... and %d more", len(entries)-exampleCap)
			break
		}
		oldAvailability := e.Old.NewSubscriberAvailability
		if oldAvailability == "" {
			oldAvailability = "not set"
		}
		r.w.Println("  %-4s %s  %s → %s",
			e.RegionCode,
			e.New.Price.String(),
			oldAvailability,
			r.w.Color(ui.Cyan, e.New.NewSubscriberAvailability))
	}
}

func directionMark(d diff.Direction) string {
	switch d {
	case diff.DirectionIncrease:
		return "  (increase)"
	case diff.DirectionDecrease:
		return "  (decrease)"
	case diff.DirectionCurrencyOnly:
		return "  (currency only)"
	default:
		return ""
	}
}
