// Package service wires the area estimator to its inputs and outputs: image
// files, detector output, the overlay renderer, history and metrics. Both the
// MCP server and the one-shot CLI go through it.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mdobak/go-xerrors"

	"github.com/ironsheep/panel-area-mcp/internal/catalog"
	"github.com/ironsheep/panel-area-mcp/internal/estimate"
	"github.com/ironsheep/panel-area-mcp/internal/history"
	"github.com/ironsheep/panel-area-mcp/internal/imaging"
	"github.com/ironsheep/panel-area-mcp/internal/logger"
	"github.com/ironsheep/panel-area-mcp/internal/metrics"
)

// ErrHistoryDisabled is returned by History when no store is configured.
var ErrHistoryDisabled = errors.New("estimate history is not enabled (set AREA_MCP_HISTORY_DB)")

// InvalidRequestError reports malformed input from the caller.
type InvalidRequestError struct {
	Msg string
}

func (e *InvalidRequestError) Error() string { return "invalid request: " + e.Msg }

// Options configures a Service. Only Catalog is required in practice; nil
// History and Metrics disable those features.
type Options struct {
	Catalog      *catalog.Catalog
	Cache        *imaging.ImageCache
	History      *history.Store
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	HistoryLimit int
}

// Service runs estimates and their side effects.
type Service struct {
	catalog      *catalog.Catalog
	estimator    *estimate.Estimator
	cache        *imaging.ImageCache
	history      *history.Store
	metrics      *metrics.Metrics
	log          *slog.Logger
	historyLimit int
}

// New builds a Service, filling unset options with defaults.
func New(opts Options) *Service {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Cache == nil {
		opts.Cache = imaging.NewImageCache()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}
	return &Service{
		catalog:      opts.Catalog,
		estimator:    estimate.New(opts.Catalog),
		cache:        opts.Cache,
		history:      opts.History,
		metrics:      opts.Metrics,
		log:          opts.Logger,
		historyLimit: opts.HistoryLimit,
	}
}

// Cache exposes the image cache shared with the server.
func (s *Service) Cache() *imaging.ImageCache {
	return s.cache
}

// DetectionInput is one detector record: a class id and a centre/size box.
// The box is in fractions of the image unless the request sets PixelUnits.
type DetectionInput struct {
	Label catalog.ClassID `json:"label"`
	BBox  []float64       `json:"bbox"` // center_x, center_y, width, height
}

// Request describes one estimate.
type Request struct {
	// ImagePath is optional when Width and Height are given.
	ImagePath string `json:"path,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`

	Target estimate.PixelBox `json:"target"`

	Detections     []DetectionInput `json:"detections,omitempty"`
	DetectionsPath string           `json:"detections_path,omitempty"`
	PixelUnits     bool             `json:"pixel_units,omitempty"`

	Category string `json:"category"`
	Setting  string `json:"setting"`
}

// ReferenceInfo is the detection used for scale, with its class name.
type ReferenceInfo struct {
	estimate.Reference
	Name string                 `json:"name"`
	BBox estimate.NormalizedBox `json:"bbox"`
}

// Response is the outcome of an estimate.
type Response struct {
	AreaM2          float64                  `json:"area_m2"`
	Method          estimate.Method          `json:"method"`
	Category        catalog.Category         `json:"category"`
	Setting         catalog.Setting          `json:"setting"`
	Image           estimate.ImageDimensions `json:"image"`
	TargetPixelArea float64                  `json:"target_pixel_area"`
	Detections      int                      `json:"detections"`
	Reference       *ReferenceInfo           `json:"reference,omitempty"`
	HistoryID       int64                    `json:"history_id,omitempty"`
}

type prepared struct {
	req        Request
	setting    catalog.Setting
	category   catalog.Category
	dims       estimate.ImageDimensions
	detections []estimate.Detection
}

// Estimate resolves the request inputs, runs the estimator and records the
// outcome. Typed errors from the estimator (*catalog.ConfigurationError,
// *estimate.DegenerateScaleError) are returned unwrapped.
func (s *Service) Estimate(ctx context.Context, req Request) (*Response, error) {
	p, resp, err := s.run(req)
	if err != nil {
		s.observeError(err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObserveEstimate(string(resp.Method), resp.AreaM2)
	}
	s.record(ctx, p, resp)

	s.log.Debug("area estimated",
		slog.Float64("area_m2", resp.AreaM2),
		slog.String("method", string(resp.Method)),
		slog.String("category", string(p.category)),
		slog.String("setting", string(p.setting)),
		slog.Int("detections", len(p.detections)))
	return resp, nil
}

func (s *Service) run(req Request) (*prepared, *Response, error) {
	p, err := s.prepare(req)
	if err != nil {
		return nil, nil, err
	}

	res, err := s.estimator.Estimate(req.Target, p.dims, p.setting, p.category, p.detections)
	if err != nil {
		return p, nil, err
	}

	resp := &Response{
		AreaM2:          res.AreaM2,
		Method:          res.Method,
		Category:        p.category,
		Setting:         p.setting,
		Image:           p.dims,
		TargetPixelArea: res.TargetPixelArea,
		Detections:      len(p.detections),
	}
	if res.Reference != nil {
		resp.Reference = &ReferenceInfo{
			Reference: *res.Reference,
			Name:      s.catalog.ClassName(res.Reference.Label),
			BBox:      p.detections[res.Reference.Index].BBox,
		}
	}
	return p, resp, nil
}

func (s *Service) prepare(req Request) (*prepared, error) {
	setting, err := catalog.ParseSetting(req.Setting)
	if err != nil {
		return nil, err
	}
	category, err := catalog.ParseCategory(req.Category)
	if err != nil {
		return nil, err
	}

	dims, err := s.dimensions(req)
	if err != nil {
		return nil, err
	}

	inputs := req.Detections
	if req.DetectionsPath != "" {
		fromFile, err := LoadDetections(req.DetectionsPath)
		if err != nil {
			return nil, err
		}
		inputs = append(append([]DetectionInput{}, inputs...), fromFile...)
	}
	if err := validateDetections(inputs); err != nil {
		return nil, err
	}

	return &prepared{
		req:        req,
		setting:    setting,
		category:   category,
		dims:       dims,
		detections: toDetections(inputs, req.PixelUnits, dims),
	}, nil
}

func (s *Service) dimensions(req Request) (estimate.ImageDimensions, error) {
	if req.Width > 0 && req.Height > 0 {
		return estimate.ImageDimensions{Width: req.Width, Height: req.Height}, nil
	}
	if req.ImagePath == "" {
		return estimate.ImageDimensions{}, &InvalidRequestError{Msg: "either path or width and height are required"}
	}
	d, err := s.cache.Dimensions(req.ImagePath)
	if err != nil {
		return estimate.ImageDimensions{}, err
	}
	return estimate.ImageDimensions{Width: d.Width, Height: d.Height}, nil
}

func toDetections(inputs []DetectionInput, pixelUnits bool, dims estimate.ImageDimensions) []estimate.Detection {
	out := make([]estimate.Detection, len(inputs))
	for i, in := range inputs {
		if pixelUnits {
			out[i] = estimate.FromPixelXYWH(in.Label, in.BBox[0], in.BBox[1], in.BBox[2], in.BBox[3], dims)
			continue
		}
		out[i] = estimate.Detection{
			Label: in.Label,
			BBox: estimate.NormalizedBox{
				CenterX: in.BBox[0],
				CenterY: in.BBox[1],
				Width:   in.BBox[2],
				Height:  in.BBox[3],
			},
		}
	}
	return out
}

func validateDetections(inputs []DetectionInput) error {
	for i, in := range inputs {
		if len(in.BBox) != 4 {
			return &InvalidRequestError{Msg: fmt.Sprintf("detection %d: bbox needs 4 values [center_x, center_y, width, height], got %d", i, len(in.BBox))}
		}
	}
	return nil
}

// LoadDetections reads a JSON array of detector records from path.
func LoadDetections(path string) ([]DetectionInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read detections: %w", err)
	}
	var dets []DetectionInput
	if err := json.Unmarshal(data, &dets); err != nil {
		return nil, &InvalidRequestError{Msg: fmt.Sprintf("detections file %s: %v", path, err)}
	}
	return dets, nil
}

func (s *Service) record(ctx context.Context, p *prepared, resp *Response) {
	if s.history == nil {
		return
	}

	e := &history.Entry{
		ImagePath: p.req.ImagePath,
		Category:  string(p.category),
		Setting:   string(p.setting),
		X1:        p.req.Target.X1,
		Y1:        p.req.Target.Y1,
		X2:        p.req.Target.X2,
		Y2:        p.req.Target.Y2,
		Method:    string(resp.Method),
		AreaM2:    resp.AreaM2,
	}
	if resp.Reference != nil {
		label := int(resp.Reference.Label)
		e.ReferenceLabel = &label
	}

	id, err := s.history.Record(ctx, e)
	if err != nil {
		// The estimate itself succeeded; losing the history row is not fatal.
		s.log.WarnContext(ctx, "failed to record estimate", slog.Any("error", xerrors.New(err)))
		return
	}
	resp.HistoryID = id
}

func (s *Service) observeError(err error) {
	if s.metrics == nil {
		return
	}
	var (
		cfgErr     *catalog.ConfigurationError
		degenerate *estimate.DegenerateScaleError
		invalid    *InvalidRequestError
	)
	switch {
	case errors.As(err, &cfgErr):
		s.metrics.ObserveError(metrics.KindConfiguration)
	case errors.As(err, &degenerate):
		s.metrics.ObserveError(metrics.KindDegenerate)
	case errors.As(err, &invalid):
		s.metrics.ObserveError(metrics.KindInvalidRequest)
	default:
		s.metrics.ObserveError(metrics.KindInternal)
	}
}

// DefaultArea looks up the flat fallback area for a setting and category.
func (s *Service) DefaultArea(setting, category string) (float64, error) {
	st, err := catalog.ParseSetting(setting)
	if err != nil {
		return 0, err
	}
	c, err := catalog.ParseCategory(category)
	if err != nil {
		return 0, err
	}
	return s.catalog.DefaultArea(st, c)
}

// Classes lists the reference object classes.
func (s *Service) Classes() []catalog.Reference {
	return s.catalog.Classes()
}

// History returns recent estimates, newest first. limit <= 0 uses the
// configured default.
func (s *Service) History(ctx context.Context, limit int) ([]history.Entry, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = s.historyLimit
	}
	return s.history.Recent(ctx, limit)
}
