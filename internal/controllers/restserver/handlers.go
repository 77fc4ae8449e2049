package restserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/jpkabala96/geeSSEBI/internal/charts"
	"github.com/jpkabala96/geeSSEBI/internal/constants"
	"github.com/jpkabala96/geeSSEBI/internal/geo"
	"github.com/jpkabala96/geeSSEBI/internal/jobs"
	"github.com/jpkabala96/geeSSEBI/internal/sensor"
	"github.com/jpkabala96/geeSSEBI/internal/ssebi"
	"github.com/jpkabala96/geeSSEBI/pkg/responseformat"
)

const (
	maxRequestBytes = 8 << 20
	maxBins         = 1000

	kindBadRequest = "bad_request"
	kindNotFound   = "not_found"
	kindNotReady   = "not_ready"
	kindShutdown   = "unavailable"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// StatusForKind maps a run error kind to the HTTP status reported for it
func StatusForKind(kind string) int {
	switch kind {
	case ssebi.KindEmptyRegion, ssebi.KindDegenerateRegression:
		return http.StatusUnprocessableEntity
	case ssebi.KindNoSceneFound, ssebi.KindForcingUnavailable:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// GetStatus reports the version, the supported sensors and the run counters
func (h *Handlers) GetStatus(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, StatusResponse{
		Version: constants.Version,
		Sensors: sensor.Supported(),
		Runs:    h.controller.runs.Stats(),
	}, nil)
}

// SubmitRun validates a run request and queues it
func (h *Handlers) SubmitRun(w http.ResponseWriter, req *http.Request) {
	var rr RunRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rr); err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, kindBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	sr, err := h.controller.parseRunRequest(rr)
	if err != nil {
		status, kind := http.StatusBadRequest, kindBadRequest
		if errors.Is(err, ssebi.ErrEmptyRegion) {
			status, kind = StatusForKind(ssebi.KindEmptyRegion), ssebi.KindEmptyRegion
		}
		h.formatter.WriteError(w, req, status, kind, err.Error())
		return
	}

	run, err := h.controller.runs.Submit(sr)
	if err != nil {
		if errors.Is(err, ssebi.ErrEmptyRegion) {
			h.formatter.WriteError(w, req, StatusForKind(ssebi.KindEmptyRegion), ssebi.KindEmptyRegion, err.Error())
			return
		}
		h.controller.logger.Errorf("error submitting run: %v", err)
		h.formatter.WriteError(w, req, http.StatusServiceUnavailable, kindShutdown, err.Error())
		return
	}

	h.formatter.WriteStatus(w, req, http.StatusAccepted, newRunStatus(run), map[string]string{
		"Location": "/api/runs/" + run.ID,
	})
}

func (c *Controller) parseRunRequest(rr RunRequest) (ssebi.Request, error) {
	var sr ssebi.Request

	if _, err := sensor.Lookup(rr.Sensor); err != nil {
		return sr, err
	}
	start, err := time.Parse(dateLayout, rr.Start)
	if err != nil {
		return sr, fmt.Errorf("invalid start date %q: expected YYYY-MM-DD", rr.Start)
	}
	end, err := time.Parse(dateLayout, rr.End)
	if err != nil {
		return sr, fmt.Errorf("invalid end date %q: expected YYYY-MM-DD", rr.End)
	}
	if !end.After(start) {
		return sr, fmt.Errorf("end date %s is not after start date %s", rr.End, rr.Start)
	}
	if len(rr.Region) == 0 {
		return sr, fmt.Errorf("region is required: %w", ssebi.ErrEmptyRegion)
	}
	region, err := geo.ParseGeoJSON(rr.Region)
	if err != nil {
		return sr, err
	}

	params := c.defaults
	if rr.RT != nil {
		params.RadiationThreshold = *rr.RT
	}
	if rr.MT != nil {
		params.MoistureThreshold = *rr.MT
	}
	if rr.CRS != "" {
		params.CRS = rr.CRS
	}
	if rr.Scale != 0 {
		params.Scale = rr.Scale
	}
	if params.RadiationThreshold < 0 || params.MoistureThreshold < 0 || params.Scale < 0 {
		return sr, fmt.Errorf("thresholds and scale must not be negative")
	}
	if _, err := geo.ProjString(params.CRS); err != nil {
		return sr, err
	}

	return ssebi.Request{
		Sensor: rr.Sensor,
		Start:  start,
		End:    end,
		Region: region,
		Params: params,
	}, nil
}

// ListRuns returns every retained run, oldest first
func (h *Handlers) ListRuns(w http.ResponseWriter, req *http.Request) {
	runs := h.controller.runs.List()
	out := make([]RunStatus, 0, len(runs))
	for _, r := range runs {
		out = append(out, newRunStatus(r))
	}
	h.formatter.WriteResponse(w, req, out, nil)
}

// GetRun returns the status of one run. A failed run is reported with the
// HTTP status of its error kind.
func (h *Handlers) GetRun(w http.ResponseWriter, req *http.Request) {
	run, ok := h.lookup(w, req)
	if !ok {
		return
	}
	status := http.StatusOK
	if run.Status == jobs.StatusFailed {
		status = StatusForKind(run.ErrorKind())
	}
	h.formatter.WriteStatus(w, req, status, newRunStatus(run), nil)
}

// GetScatter returns the albedo/LST scatter of a finished run together with
// the dry and wet edge temperatures of the sampled pixels
func (h *Handlers) GetScatter(w http.ResponseWriter, req *http.Request) {
	res, ok := h.finished(w, req)
	if !ok {
		return
	}

	q := req.URL.Query()
	n, err := intParam(q.Get("n"), charts.DefaultSamples)
	if err != nil || n <= 0 {
		h.formatter.WriteError(w, req, http.StatusBadRequest, kindBadRequest, "n must be a positive integer")
		return
	}
	seed, err := strconv.ParseUint(orDefault(q.Get("seed"), strconv.Itoa(charts.DefaultSeed)), 10, 64)
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, kindBadRequest, "seed must be a non-negative integer")
		return
	}

	points, err := charts.Scatter(res.Scene, res.Low, res.High, n, seed)
	if err != nil {
		h.controller.logger.Errorf("error sampling scatter: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, ssebi.KindInternal, err.Error())
		return
	}

	h.formatter.WriteResponse(w, req, ScatterResponse{Low: res.Low, High: res.High, Points: points}, nil)
}

// ScatterResponse is the body of GET /api/runs/{id}/scatter
type ScatterResponse struct {
	Low    ssebi.Line     `json:"low"`
	High   ssebi.Line     `json:"high"`
	Points []charts.Point `json:"points"`
}

// GetHistogram returns the histogram of an output band, ET_daily by default
func (h *Handlers) GetHistogram(w http.ResponseWriter, req *http.Request) {
	res, ok := h.finished(w, req)
	if !ok {
		return
	}

	q := req.URL.Query()
	band := orDefault(q.Get("band"), ssebi.BandETDaily)
	if !slices.Contains(res.Output.BandNames(), band) {
		h.formatter.WriteError(w, req, http.StatusBadRequest, kindBadRequest, fmt.Sprintf("unknown output band %q", band))
		return
	}
	bins, err := intParam(q.Get("bins"), charts.DefaultBins)
	if err != nil || bins <= 0 || bins > maxBins {
		h.formatter.WriteError(w, req, http.StatusBadRequest, kindBadRequest, fmt.Sprintf("bins must be between 1 and %d", maxBins))
		return
	}

	hist, err := charts.NewHistogram(res.Output, band, bins)
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusUnprocessableEntity, kindBadRequest, err.Error())
		return
	}
	h.formatter.WriteResponse(w, req, hist, nil)
}

func (h *Handlers) lookup(w http.ResponseWriter, req *http.Request) (jobs.Run, bool) {
	id := mux.Vars(req)["id"]
	run, err := h.controller.runs.Get(id)
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusNotFound, kindNotFound, err.Error())
		return jobs.Run{}, false
	}
	return run, true
}

// finished returns the result of a done run, writing the response itself
// when the run is unknown, failed or still in progress
func (h *Handlers) finished(w http.ResponseWriter, req *http.Request) (*ssebi.Result, bool) {
	run, ok := h.lookup(w, req)
	if !ok {
		return nil, false
	}
	switch run.Status {
	case jobs.StatusDone:
		return run.Result, true
	case jobs.StatusFailed:
		h.formatter.WriteStatus(w, req, StatusForKind(run.ErrorKind()), newRunStatus(run), nil)
	default:
		h.formatter.WriteError(w, req, http.StatusConflict, kindNotReady, fmt.Sprintf("run %s is %s", run.ID, run.Status))
	}
	return nil, false
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
