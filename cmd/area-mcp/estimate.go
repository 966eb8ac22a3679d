package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/mdobak/go-xerrors"

	"github.com/ironsheep/panel-area-mcp/internal/config"
	"github.com/ironsheep/panel-area-mcp/internal/estimate"
	"github.com/ironsheep/panel-area-mcp/internal/service"
)

// runEstimate handles the estimate subcommand and returns the exit code.
func runEstimate(ctx context.Context, cfg *config.Config, log *slog.Logger, args []string) int {
	req, asJSON, err := parseEstimateFlags(args, os.Stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	svc, cleanup, err := buildService(ctx, cfg, log, false)
	defer cleanup()
	if err != nil {
		log.Error("failed to start", slog.Any("error", xerrors.New(err)))
		return 1
	}

	resp, err := svc.Estimate(ctx, *req)
	if err != nil {
		log.Error("estimate failed", slog.Any("error", xerrors.New(err)))
		fmt.Fprintf(os.Stderr, "estimate failed: %v\n", err)
		return 1
	}

	if err := printEstimate(os.Stdout, resp, asJSON); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func parseEstimateFlags(args []string, errOut io.Writer) (*service.Request, bool, error) {
	fs := flag.NewFlagSet("estimate", flag.ContinueOnError)
	fs.SetOutput(errOut)

	image := fs.String("image", "", "Path to the photo (provides the image size)")
	box := fs.String("box", "", "Target corners in pixels: x1,y1,x2,y2")
	size := fs.String("size", "", "Image size W,H when -image is not given")
	detections := fs.String("detections", "", "JSON file of detections")
	pixelUnits := fs.Bool("pixel-units", false, "Detection boxes are in pixels instead of fractions")
	setting := fs.String("setting", "indoor", "Venue setting (indoor or outdoor)")
	category := fs.String("category", "", "Venue category (Bar, Beverage, Cantonese, HairSalon, Hotpot, Japanese, Store, Szechuan)")
	asJSON := fs.Bool("json", false, "Print the full result as JSON")

	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}

	corners, err := parseFloats(*box, 4)
	if err != nil {
		return nil, false, fmt.Errorf("-box: %w", err)
	}

	req := &service.Request{
		ImagePath:      *image,
		Target:         estimate.PixelBox{X1: corners[0], Y1: corners[1], X2: corners[2], Y2: corners[3]},
		DetectionsPath: *detections,
		PixelUnits:     *pixelUnits,
		Setting:        *setting,
		Category:       *category,
	}

	if *size != "" {
		wh, err := parseFloats(*size, 2)
		if err != nil {
			return nil, false, fmt.Errorf("-size: %w", err)
		}
		req.Width, req.Height = int(wh[0]), int(wh[1])
	}
	if req.ImagePath == "" && req.Width == 0 {
		return nil, false, fmt.Errorf("either -image or -size is required")
	}

	return req, *asJSON, nil
}

// parseFloats splits a comma separated list of exactly n numbers.
func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated numbers, got %q", n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		out[i] = v
	}
	return out, nil
}

func printEstimate(w io.Writer, resp *service.Response, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if _, err := fmt.Fprintf(w, "Calculated area: %.2f sq meters\n", resp.AreaM2); err != nil {
		return err
	}
	if resp.Reference != nil {
		_, err := fmt.Fprintf(w, "Reference: %s (class %d), %.1f px from target\n",
			resp.Reference.Name, resp.Reference.Label, resp.Reference.DistancePixels)
		return err
	}
	_, err := fmt.Fprintf(w, "No reference object; default for %s %s\n", resp.Setting, resp.Category)
	return err
}
