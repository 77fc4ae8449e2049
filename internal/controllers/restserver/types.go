package restserver

import (
	"encoding/json"
	"time"

	"github.com/jpkabala96/geeSSEBI/internal/jobs"
	"github.com/jpkabala96/geeSSEBI/internal/ssebi"
)

// dateLayout is the format of the start and end fields.
const dateLayout = "2006-01-02"

// RunRequest is the body of POST /api/runs. Thresholds, CRS and scale fall
// back to the configured model defaults when omitted.
type RunRequest struct {
	Sensor string          `json:"sensor"`
	Start  string          `json:"start"`
	End    string          `json:"end"`
	Region json.RawMessage `json:"region"`
	RT     *float64        `json:"rt,omitempty"`
	MT     *float64        `json:"mt,omitempty"`
	CRS    string          `json:"crs,omitempty"`
	Scale  float64         `json:"scale,omitempty"`
}

// RunStatus is the public view of a run
type RunStatus struct {
	ID        string       `json:"id"`
	Status    jobs.Status  `json:"status"`
	Sensor    string       `json:"sensor"`
	Start     string       `json:"start"`
	End       string       `json:"end"`
	Params    ssebi.Params `json:"params"`
	Submitted time.Time    `json:"submitted"`
	Started   *time.Time   `json:"started,omitempty"`
	Finished  *time.Time   `json:"finished,omitempty"`
	Error     *RunError    `json:"error,omitempty"`
	Result    *RunResult   `json:"result,omitempty"`
}

// RunError describes a failed run
type RunError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// RunResult summarises a finished run
type RunResult struct {
	Scene          string             `json:"scene"`
	Acquired       time.Time          `json:"acquired"`
	CRS            string             `json:"crs"`
	Cols           int                `json:"cols"`
	Rows           int                `json:"rows"`
	ValidPixels    int                `json:"validPixels"`
	Bands          []string           `json:"bands"`
	Low            ssebi.Line         `json:"low"`
	High           ssebi.Line         `json:"high"`
	Classes        []ssebi.EdgeSample `json:"classes"`
	SolarElevation float64            `json:"solarElevation"`
}

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	Version string     `json:"version"`
	Sensors []string   `json:"sensors"`
	Runs    jobs.Stats `json:"runs"`
}

func newRunStatus(r jobs.Run) RunStatus {
	rs := RunStatus{
		ID:        r.ID,
		Status:    r.Status,
		Sensor:    r.Request.Sensor,
		Start:     r.Request.Start.Format(dateLayout),
		End:       r.Request.End.Format(dateLayout),
		Params:    r.Request.Params,
		Submitted: r.Submitted,
	}
	if !r.Started.IsZero() {
		rs.Started = &r.Started
	}
	if !r.Finished.IsZero() {
		rs.Finished = &r.Finished
	}
	if r.Err != nil {
		rs.Error = &RunError{Kind: r.ErrorKind(), Message: r.Err.Error()}
	}
	if res := r.Result; res != nil && res.Model != nil && res.Output != nil {
		rs.Result = &RunResult{
			Scene:          res.Output.ID,
			Acquired:       res.Output.Acquired,
			CRS:            res.Output.Grid.CRS,
			Cols:           res.Output.Grid.Cols,
			Rows:           res.Output.Grid.Rows,
			ValidPixels:    res.Output.ValidCount(),
			Bands:          res.Output.BandNames(),
			Low:            res.Low,
			High:           res.High,
			Classes:        res.Samples,
			SolarElevation: res.Sun.ElevationDeg,
		}
	}
	return rs
}
