package controller

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"roadpulse-server/internal/apperr"
	"roadpulse-server/internal/modules/traffic/service"
	"roadpulse-server/internal/modules/traffic/types"
	"roadpulse-server/internal/utils"
)

type TrafficController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type trafficControllerImpl struct {
	service *service.Service
	now     func() time.Time
}

func NewTrafficController(svc *service.Service) TrafficController {
	return &trafficControllerImpl{service: svc, now: time.Now}
}

func (c *trafficControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/stations/{id}/summary", c.handleSummary)
	mux.HandleFunc("GET /api/stations/{id}/day", c.handleDay)
}

func (c *trafficControllerImpl) handleSummary(w http.ResponseWriter, r *http.Request) {
	stationID, err := parseStationID(r)
	if err != nil {
		writeFailure(w, err)
		return
	}

	result, err := c.service.MonthlySummary(stationID, c.now())
	if err != nil {
		writeFailure(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

func (c *trafficControllerImpl) handleDay(w http.ResponseWriter, r *http.Request) {
	stationID, err := parseStationID(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		writeFailure(w, apperr.Validation("missing 'date' parameter"))
		return
	}

	records, err := c.service.DayRecords(stationID, date)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if records == nil {
		records = []types.SensorRecord{}
	}
	utils.WriteJSON(w, http.StatusOK, records)
}

func parseStationID(r *http.Request) (int, error) {
	s := r.PathValue("id")
	if s == "" {
		return 0, apperr.Validation("missing 'stationId' parameter")
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid 'stationId' %q (expected positive integer)", s)
	}
	return id, nil
}

// writeFailure maps the error taxonomy to HTTP statuses: validation errors
// are the caller's fault, everything else is internal.
func writeFailure(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	switch kind {
	case apperr.KindValidation:
		utils.WriteError(w, http.StatusBadRequest, string(kind), err.Error())
	case apperr.KindConfiguration, apperr.KindStoreQuery:
		slog.Error("request failed", "kind", string(kind), "error", err)
		utils.WriteError(w, http.StatusInternalServerError, string(kind), err.Error())
	default:
		slog.Error("request failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
