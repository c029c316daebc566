// Package server handles HTTP requests and middleware.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/woozymasta/geotoolbox/internal/nominatim"
	"github.com/woozymasta/geotoolbox/internal/osm"
	"github.com/woozymasta/geotoolbox/internal/processor"
	"github.com/woozymasta/geotoolbox/internal/render"
	"github.com/woozymasta/geotoolbox/internal/ukgeog"

	"github.com/rs/zerolog/log"
)

const (
	minPreviewSize = 64
	maxPreviewSize = 2048
	maxBatchSize   = 100
)

// HandleIndex serves the main HTML application.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	etag := s.IndexETag

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleBoundary serves the boundary hulls of a location as GeoJSON, or the
// raw boundary nodes when nodes=true.
func (s *ServerContext) HandleBoundary(w http.ResponseWriter, r *http.Request) {
	b, ok := s.lookupBoundary(w, r)
	if !ok {
		return
	}

	fc := b.FeatureCollection()
	if nodes, _ := strconv.ParseBool(r.URL.Query().Get("nodes")); nodes {
		fc = b.NodeCollection()
	}

	w.Header().Set("Content-Type", "application/geo+json")
	_ = json.NewEncoder(w).Encode(fc)
}

// HandleBoundaryPreview renders the boundary hulls of a location as WebP.
func (s *ServerContext) HandleBoundaryPreview(w http.ResponseWriter, r *http.Request) {
	size := s.Config.Preview.Size
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < minPreviewSize || n > maxPreviewSize {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("size must be between %d and %d", minPreviewSize, maxPreviewSize))
			return
		}
		size = n
	}

	b, ok := s.lookupBoundary(w, r)
	if !ok {
		return
	}

	layer := render.BoundaryStyle
	layer.Polygons = render.HullPolygons(b.Hulls())

	var buf bytes.Buffer
	err := render.Preview(&buf, []render.Layer{layer}, render.Options{
		Size:    size,
		Padding: size / 32,
		Quality: s.Config.Preview.Quality,
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(buf.Bytes())
}

// HandleUKGeography serves the geographies intersecting a single location.
func (s *ServerContext) HandleUKGeography(w http.ResponseWriter, r *http.Request) {
	if s.Resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "uk geography dataset is not configured")
		return
	}

	location := strings.TrimSpace(r.URL.Query().Get("location"))
	if location == "" {
		writeError(w, http.StatusBadRequest, "location is required")
		return
	}

	out, err := ukgeog.ParseOutput(r.URL.Query().Get("output"))
	if err != nil {
		s.fail(w, err)
		return
	}

	rows, err := s.Resolver.ConvertStringToUKGeog(r.Context(), location, out)
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"location": location,
		"output":   out,
		"rows":     rows,
	})
}

type batchRequest struct {
	Output    string   `json:"output"`
	Locations []string `json:"locations"`
}

// HandleUKGeographyBatch resolves a list of locations in one request.
func (s *ServerContext) HandleUKGeographyBatch(w http.ResponseWriter, r *http.Request) {
	if s.Resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "uk geography dataset is not configured")
		return
	}

	var req batchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Locations) == 0 || len(req.Locations) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("locations must hold 1 to %d entries", maxBatchSize))
		return
	}

	out, err := ukgeog.ParseOutput(req.Output)
	if err != nil {
		s.fail(w, err)
		return
	}

	res, err := s.Resolver.ConvertListToUKGeog(r.Context(), req.Locations, out)
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// HandleGeocode resolves free text to a point.
func (s *ServerContext) HandleGeocode(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	rec, err := processor.GeocodeOne(r.Context(), s.Geocoder, q, r.URL.Query().Get("suffix"))
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"location_name": rec.LocationName,
		"long":          rec.Long,
		"lat":           rec.Lat,
		"wkt":           rec.WKT,
		"address_exact": rec.AddressExact,
	})
}

// HandleReverse resolves a coordinate to an address.
func (s *ServerContext) HandleReverse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rec, err := processor.ReverseOne(r.Context(), s.Geocoder, q.Get("location"), q.Get("lat"), q.Get("lon"))
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"location":       rec.Location,
		"lat":            rec.Lat,
		"long":           rec.Long,
		"output_address": rec.OutputAddress,
	})
}

func (s *ServerContext) lookupBoundary(w http.ResponseWriter, r *http.Request) (*osm.Boundary, bool) {
	q := r.URL.Query()
	country := strings.TrimSpace(q.Get("country"))
	location := strings.TrimSpace(q.Get("location"))
	if country == "" || location == "" {
		writeError(w, http.StatusBadRequest, "country and location are required")
		return nil, false
	}

	b, err := osm.ConvertStringToBoundary(r.Context(), s.Overpass, country, location, s.Config.GeohashPrecision)
	if err != nil {
		s.fail(w, err)
		return nil, false
	}

	return b, true
}

// fail maps domain errors onto status codes.
func (s *ServerContext) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, osm.ErrNoBoundary), errors.Is(err, nominatim.ErrNotFound), errors.Is(err, render.ErrNothingToDraw):
		status = http.StatusNotFound
	case errors.Is(err, ukgeog.ErrInvalidOutput), errors.Is(err, nominatim.ErrInvalidCoordinate):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, osm.ErrUpstreamStatus), errors.Is(err, osm.ErrUpstream),
		errors.Is(err, nominatim.ErrUpstreamStatus), errors.Is(err, nominatim.ErrUpstream),
		errors.As(err, new(*url.Error)):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("Request failed")
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
