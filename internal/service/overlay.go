package service

import (
	"context"
	"fmt"

	"github.com/ironsheep/panel-area-mcp/internal/estimate"
	"github.com/ironsheep/panel-area-mcp/internal/imaging"
)

// AnnotateResponse pairs an estimate with its rendered overlay.
type AnnotateResponse struct {
	Estimate *Response               `json:"estimate"`
	Overlay  *imaging.AnnotateResult `json:"overlay"`
}

// Annotate runs the estimate for req and draws it over the photo: the target
// outlined with its area, every detection in its class colour and the chosen
// reference emphasised. dim darkens the photo outside the target.
//
// Nothing is recorded in history; the estimate is the same one Estimate
// would return.
func (s *Service) Annotate(ctx context.Context, req Request, dim float64) (*AnnotateResponse, error) {
	if req.ImagePath == "" {
		return nil, &InvalidRequestError{Msg: "path is required to render an overlay"}
	}
	img, err := s.cache.Load(req.ImagePath)
	if err != nil {
		return nil, err
	}

	p, resp, err := s.run(req)
	if err != nil {
		s.observeError(err)
		return nil, err
	}

	chosen := -1
	if resp.Reference != nil {
		chosen = resp.Reference.Index
	}

	objects := make([]imaging.Box, len(p.detections))
	for i, d := range p.detections {
		pb := d.BBox.PixelBox(p.dims)
		label := ""
		if _, known := s.catalog.AverageArea(d.Label); known {
			label = s.catalog.ClassName(d.Label)
		}
		objects[i] = imaging.Box{X1: pb.X1, Y1: pb.Y1, X2: pb.X2, Y2: pb.Y2, Label: label, Class: int(d.Label)}
	}

	t := req.Target
	overlay, err := imaging.Annotate(img, imaging.AnnotateOptions{
		Target:  imaging.Box{X1: t.X1, Y1: t.Y1, X2: t.X2, Y2: t.Y2, Label: targetLabel(resp)},
		Objects: objects,
		Chosen:  chosen,
		Dim:     dim,
	})
	if err != nil {
		return nil, err
	}
	s.log.DebugContext(ctx, "overlay rendered", "path", req.ImagePath, "objects", len(objects), "chosen", chosen)

	return &AnnotateResponse{Estimate: resp, Overlay: overlay}, nil
}

func targetLabel(resp *Response) string {
	if resp.Method == estimate.MethodDefault {
		return fmt.Sprintf("%.2f m2 (default %s/%s)", resp.AreaM2, resp.Setting, resp.Category)
	}
	return fmt.Sprintf("%.2f m2", resp.AreaM2)
}

// Crop cuts the target region out of the photo at path.
func (s *Service) Crop(path string, x1, y1, x2, y2 float64, padding int, scale float64) (*imaging.CropResult, error) {
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	if scale == 0 {
		scale = 1.0
	}
	return imaging.CropRegion(img, x1, y1, x2, y2, padding, scale)
}
