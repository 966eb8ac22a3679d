// Package estimate converts the pixel area of a target region into square
// meters using the nearest detected object of known size as a scale reference.
//
// The estimator is pure: it performs no I/O, keeps no state between calls and
// may be used from many goroutines at once as long as its References are
// read-only (catalog.Catalog is).
//
// Distances are measured in pixel space, after scaling normalized centres by
// the image dimensions, so that non-square images do not skew the choice of
// reference. The nearest qualifying detection wins; on an exact tie the one
// that appears first in the input is used.
package estimate

import (
	"fmt"
	"math"

	"github.com/ironsheep/panel-area-mcp/internal/catalog"
)

// References is the lookup surface the estimator needs from a catalog.
type References interface {
	AverageArea(id catalog.ClassID) (float64, bool)
	DefaultArea(setting catalog.Setting, category catalog.Category) (float64, error)
}

// Method records which branch produced an estimate.
type Method string

const (
	MethodReference Method = "reference"
	MethodDefault   Method = "default"
)

// DegenerateScaleError reports a reference that cannot yield a usable
// pixel-to-area scale: non-positive catalog area, non-positive pixel area or a
// non-finite result.
type DegenerateScaleError struct {
	Label       catalog.ClassID
	PixelArea   float64
	AverageArea float64
}

func (e *DegenerateScaleError) Error() string {
	return fmt.Sprintf("degenerate scale from reference class %d: pixel area %v, average area %v m²",
		e.Label, e.PixelArea, e.AverageArea)
}

// Reference describes the detection chosen as scale reference.
type Reference struct {
	// Index is the position of the detection in the input slice.
	Index                int             `json:"index"`
	Label                catalog.ClassID `json:"label"`
	DistancePixels       float64         `json:"distance_pixels"`
	PixelArea            float64         `json:"pixel_area"`
	AverageAreaM2        float64         `json:"average_area_m2"`
	PixelsPerSquareMeter float64         `json:"pixels_per_square_meter"`
}

// Result is an area estimate together with how it was obtained.
type Result struct {
	AreaM2          float64    `json:"area_m2"`
	Method          Method     `json:"method"`
	TargetPixelArea float64    `json:"target_pixel_area"`
	Reference       *Reference `json:"reference,omitempty"`
}

// Estimator estimates real-world areas against a set of References.
type Estimator struct {
	refs References
}

// New returns an Estimator backed by refs.
func New(refs References) *Estimator {
	return &Estimator{refs: refs}
}

// EstimateFromReferences estimates the target area in m² from the nearest
// usable detection. ok is false when no detection has a known average area.
func (e *Estimator) EstimateFromReferences(target PixelBox, detections []Detection, dims ImageDimensions) (area float64, ok bool, err error) {
	res, err := e.fromReferences(target, detections, dims)
	if err != nil || res == nil {
		return 0, false, err
	}
	return res.AreaM2, true, nil
}

// EstimateWithDefault estimates the target area, falling back to the
// catalog's default for setting and category when no reference is usable.
// A *catalog.ConfigurationError from that lookup is returned as is.
func (e *Estimator) EstimateWithDefault(target PixelBox, dims ImageDimensions, setting catalog.Setting, category catalog.Category, detections []Detection) (float64, error) {
	res, err := e.Estimate(target, dims, setting, category, detections)
	if err != nil {
		return 0, err
	}
	return res.AreaM2, nil
}

// Estimate is EstimateWithDefault with provenance. The default-table value is
// flat: it does not depend on the target's pixel size.
func (e *Estimator) Estimate(target PixelBox, dims ImageDimensions, setting catalog.Setting, category catalog.Category, detections []Detection) (*Result, error) {
	res, err := e.fromReferences(target, detections, dims)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}

	area, err := e.refs.DefaultArea(setting, category)
	if err != nil {
		return nil, err
	}
	return &Result{
		AreaM2:          round2(area),
		Method:          MethodDefault,
		TargetPixelArea: target.Normalize(dims).PixelArea(dims),
	}, nil
}

// fromReferences returns nil, nil when no detection qualifies.
func (e *Estimator) fromReferences(target PixelBox, detections []Detection, dims ImageDimensions) (*Result, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}

	tx, ty := target.Center()

	best := -1
	bestDist := math.Inf(1)
	var bestArea float64
	for i, det := range detections {
		avg, known := e.refs.AverageArea(det.Label)
		if !known {
			continue
		}
		ox, oy := det.BBox.PixelCenter(dims)
		// Strict comparison keeps the first of equally distant detections.
		if d := distance(tx, ty, ox, oy); d < bestDist {
			best, bestDist, bestArea = i, d, avg
		}
	}
	if best < 0 {
		return nil, nil
	}

	ref := detections[best]
	refPixelArea := ref.BBox.PixelArea(dims)
	if bestArea <= 0 || ref.BBox.Width <= 0 || ref.BBox.Height <= 0 || refPixelArea <= 0 {
		return nil, &DegenerateScaleError{Label: ref.Label, PixelArea: refPixelArea, AverageArea: bestArea}
	}
	scale := refPixelArea / bestArea
	if math.IsInf(scale, 0) || math.IsNaN(scale) || scale <= 0 {
		return nil, &DegenerateScaleError{Label: ref.Label, PixelArea: refPixelArea, AverageArea: bestArea}
	}

	targetPixelArea := target.Normalize(dims).PixelArea(dims)

	return &Result{
		AreaM2:          round2(targetPixelArea / scale),
		Method:          MethodReference,
		TargetPixelArea: targetPixelArea,
		Reference: &Reference{
			Index:                best,
			Label:                ref.Label,
			DistancePixels:       bestDist,
			PixelArea:            refPixelArea,
			AverageAreaM2:        bestArea,
			PixelsPerSquareMeter: scale,
		},
	}, nil
}
