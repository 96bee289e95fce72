package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rewired-gh/covidsynth/internal/models"
	"github.com/rewired-gh/covidsynth/internal/query"
)

type handler struct {
	engine *query.Engine
}

type metricJSON struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type pointJSON struct {
	Date    string  `json:"date"`
	Country string  `json:"country"`
	Value   float64 `json:"value"`
}

type seriesJSON struct {
	Metric string      `json:"metric"`
	Label  string      `json:"label"`
	Start  string      `json:"start"`
	End    string      `json:"end"`
	Points []pointJSON `json:"points"`
}

type boundsJSON struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

func (h *handler) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *handler) metrics(c *gin.Context) {
	out := make([]metricJSON, 0, len(models.Metrics()))
	for _, m := range models.Metrics() {
		out = append(out, metricJSON{ID: string(m), Label: m.Label()})
	}
	respondOK(c, out)
}

func (h *handler) continents(c *gin.Context) {
	continents, err := h.engine.Continents()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "store_error", err)
		return
	}
	respondOK(c, continents)
}

func (h *handler) countries(c *gin.Context) {
	countries, err := h.engine.FilterCountries(c.QueryArray("continent"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "store_error", err)
		return
	}
	respondOK(c, countries)
}

func (h *handler) bounds(c *gin.Context) {
	lo, hi, err := h.engine.DateBounds()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "store_error", err)
		return
	}
	respondOK(c, boundsJSON{Start: formatDate(lo), End: formatDate(hi)})
}

func (h *handler) series(c *gin.Context) {
	h.pointsEndpoint(c, h.engine.FetchSeries)
}

func (h *handler) latest(c *gin.Context) {
	h.pointsEndpoint(c, h.engine.Latest)
}

type pointsFunc func(metric string, countries []string, start, end time.Time) ([]models.SeriesPoint, error)

func (h *handler) pointsEndpoint(c *gin.Context, fetch pointsFunc) {
	metric := c.Query("metric")
	start, end, ok := h.dateRange(c)
	if !ok {
		return
	}

	points, err := fetch(metric, c.QueryArray("country"), start, end)
	if err != nil {
		if errors.Is(err, models.ErrInvalidMetric) {
			respondError(c, http.StatusBadRequest, "invalid_metric", err)
			return
		}
		respondError(c, http.StatusInternalServerError, "store_error", err)
		return
	}

	out := seriesJSON{
		Metric: metric,
		Label:  models.Metric(metric).Label(),
		Start:  formatDate(start),
		End:    formatDate(end),
		Points: make([]pointJSON, 0, len(points)),
	}
	for _, p := range points {
		out.Points = append(out.Points, pointJSON{Date: formatDate(p.Date), Country: p.Country, Value: p.Value})
	}
	respondOK(c, out)
}

func (h *handler) summary(c *gin.Context) {
	summaries, err := h.engine.SummarizeCountries(c.QueryArray("country"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "store_error", err)
		return
	}
	out := make(map[string]models.CountrySummary, len(summaries))
	for _, s := range summaries {
		out[s.Country] = s
	}
	respondOK(c, out)
}

func (h *handler) overview(c *gin.Context) {
	o, err := h.engine.Overview(c.QueryArray("country"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "store_error", err)
		return
	}
	respondOK(c, o)
}

func (h *handler) vaccination(c *gin.Context) {
	rates, err := h.engine.VaccinationRates(c.QueryArray("country"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "store_error", err)
		return
	}
	respondOK(c, rates)
}

// dateRange parses start and end, defaulting each to the stored bounds.
func (h *handler) dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	lo, hi, err := h.engine.DateBounds()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "store_error", err)
		return time.Time{}, time.Time{}, false
	}

	start, err := parseDate(c.Query("start"), lo)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_date", err)
		return time.Time{}, time.Time{}, false
	}
	end, err := parseDate(c.Query("end"), hi)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_date", err)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func parseDate(raw string, def time.Time) (time.Time, error) {
	if raw == "" {
		return def, nil
	}
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD", raw)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}
