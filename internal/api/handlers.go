package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"solar-sizer/internal/catalog"
	"solar-sizer/internal/sizing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// calculateRequest carries raw numbers; range validation belongs to the
// engine so that a bad value is reported the same way from every entry
// point.
type calculateRequest struct {
	DailyEnergyWh    float64 `json:"daily_energy_wh"`
	PeakPowerW       float64 `json:"peak_power_w"`
	AutonomyDays     int     `json:"autonomy_days"`
	IrradiationKWhM2 float64 `json:"irradiation_kwh_m2"`
	BusVoltageV      float64 `json:"bus_voltage_v"`
	Location         string  `json:"location"`
	CableRunM        float64 `json:"cable_run_m"`
	Strategy         string  `json:"strategy"`
}

func (r *calculateRequest) toInput() sizing.Input {
	return sizing.Input{
		DailyEnergyWh:    decimal.NewFromFloat(r.DailyEnergyWh),
		PeakPowerW:       decimal.NewFromFloat(r.PeakPowerW),
		AutonomyDays:     r.AutonomyDays,
		IrradiationKWhM2: decimal.NewFromFloat(r.IrradiationKWhM2),
		BusVoltageV:      decimal.NewFromFloat(r.BusVoltageV),
		Location:         r.Location,
		CableRunM:        decimal.NewFromFloat(r.CableRunM),
		Strategy:         sizing.Strategy(r.Strategy),
	}
}

// calculateHandler runs one sizing and persists the input/result pair.
func (s *Server) calculateHandler(c *gin.Context) {
	var req calculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", err.Error()))
		return
	}

	params, err := s.store.EffectiveParameters()
	if err != nil {
		log.Printf("Failed to load parameters: %v", err)
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL_ERROR", "could not load system parameters"))
		return
	}

	result, err := s.engine.Size(req.toInput(), sizing.NewParameters(
		params.GlobalEfficiency,
		params.SafetyCoefficient,
		params.DepthOfDischarge,
		params.InverterCoefficient,
		params.MaxOversize,
		params.CurrentSafetyMargin,
	))
	if err != nil {
		s.renderSizingError(c, err)
		return
	}

	input := &catalog.InputRecord{
		DailyEnergyWh:    req.DailyEnergyWh,
		PeakPowerW:       req.PeakPowerW,
		AutonomyDays:     req.AutonomyDays,
		IrradiationKWhM2: req.IrradiationKWhM2,
		BusVoltageV:      req.BusVoltageV,
		Location:         req.Location,
		CableRunM:        req.CableRunM,
		Strategy:         req.Strategy,
	}
	record := recordFromResult(result, params)

	if err := s.store.SaveCalculation(input, record); err != nil {
		log.Printf("Failed to save calculation: %v", err)
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL_ERROR", "could not persist calculation"))
		return
	}
	record.Input = *input

	if s.publisher != nil {
		if err := s.publisher.PublishSizingCompleted(record); err != nil {
			log.Printf("Failed to publish sizing event: %v", err)
		}
	}

	c.JSON(http.StatusCreated, record)
}

// renderSizingError maps the engine's error taxonomy onto HTTP statuses.
// All three domain kinds are client-visible 400s; no-candidate failures
// are logged distinctly because they mean the catalog, not the request,
// needs fixing.
func (s *Server) renderSizingError(c *gin.Context, err error) {
	switch {
	case sizing.IsInvalidInput(err):
		c.JSON(http.StatusBadRequest, errorBody("INVALID_INPUT", err.Error()))
	case sizing.IsNoCandidate(err):
		log.Printf("Catalog gap: %v", err)
		c.JSON(http.StatusBadRequest, errorBody("NO_CANDIDATE", err.Error()))
	case sizing.IsIncompatible(err):
		c.JSON(http.StatusBadRequest, errorBody("INCOMPATIBLE_CONFIGURATION", err.Error()))
	default:
		log.Printf("Sizing failed: %v", err)
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL_ERROR", "sizing failed"))
	}
}

func recordFromResult(r *sizing.Result, params *catalog.Parameters) *catalog.SizingRecord {
	f := func(d decimal.Decimal) float64 {
		v, _ := d.Float64()
		return v
	}
	itemRef := func(ch sizing.Choice) (*uint, *catalog.Item) {
		item := ch.Item
		return &item.ID, &item
	}

	record := &catalog.SizingRecord{
		CalculatedAt: time.Now().UTC(),
		ParametersID: params.ID,

		PVDemandW:       f(r.PVDemandW.Round(1)),
		PVInstalledW:    f(r.PVInstalledW.Round(1)),
		PanelCount:      r.Panel.Count,
		PVTopology:      r.PVTopology.String(),
		BatteryDemandAh: f(r.BatteryDemandAh.Round(1)),
		BatteryBankAh:   f(r.BatteryBankAh.Round(1)),
		BatteryCount:    r.Battery.Count,
		BatteryTopology: r.BatteryTopology.String(),
		AnnualEnergyWh:  f(r.AnnualEnergyWh),
		CableLengthM:    f(r.CableLengthM.Round(2)),
		TotalCost:       f(r.TotalCost),
		Currency:        r.Currency,
	}
	record.PanelID, record.Panel = itemRef(r.Panel)
	record.BatteryID, record.Battery = itemRef(r.Battery)
	record.ControllerID, record.Controller = itemRef(r.Controller)
	record.InverterID, record.Inverter = itemRef(r.Inverter)
	record.CableID, record.Cable = itemRef(r.Cable)
	return record
}

func (s *Server) listSizingsHandler(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	records, err := s.store.ListRecords(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL_ERROR", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"sizings": records, "count": len(records)})
}

func (s *Server) getSizingHandler(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", "invalid id"))
		return
	}
	record, err := s.store.GetRecord(id)
	if err == catalog.ErrNotFound {
		c.JSON(http.StatusNotFound, errorBody("NOT_FOUND", "sizing not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL_ERROR", err.Error()))
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) listItemsHandler(c *gin.Context) {
	cat := catalog.Category(c.Query("category"))
	if cat != "" && !catalog.Known(cat) {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", "unknown category"))
		return
	}
	items, err := s.store.ListItems(cat)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL_ERROR", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (s *Server) createItemHandler(c *gin.Context) {
	var item catalog.Item
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", err.Error()))
		return
	}
	if err := s.store.CreateItem(&item); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_ITEM", err.Error()))
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) getItemHandler(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", "invalid id"))
		return
	}
	item, err := s.store.GetItem(id)
	if err == catalog.ErrNotFound {
		c.JSON(http.StatusNotFound, errorBody("NOT_FOUND", "item not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL_ERROR", err.Error()))
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) updateItemHandler(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", "invalid id"))
		return
	}
	existing, err := s.store.GetItem(id)
	if err == catalog.ErrNotFound {
		c.JSON(http.StatusNotFound, errorBody("NOT_FOUND", "item not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL_ERROR", err.Error()))
		return
	}

	var update catalog.Item
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", err.Error()))
		return
	}
	update.Model = existing.Model
	if err := s.store.UpdateItem(&update); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_ITEM", err.Error()))
		return
	}
	c.JSON(http.StatusOK, update)
}

func (s *Server) deleteItemHandler(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", "invalid id"))
		return
	}
	if err := s.store.DeleteItem(id); err != nil {
		if err == catalog.ErrNotFound {
			c.JSON(http.StatusNotFound, errorBody("NOT_FOUND", "item not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL_ERROR", err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getParametersHandler(c *gin.Context) {
	params, err := s.store.EffectiveParameters()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL_ERROR", err.Error()))
		return
	}
	c.JSON(http.StatusOK, params)
}

func (s *Server) updateParametersHandler(c *gin.Context) {
	var update catalog.Parameters
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", err.Error()))
		return
	}
	params, err := s.store.UpdateParameters(&update)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_PARAMETERS", err.Error()))
		return
	}
	c.JSON(http.StatusOK, params)
}

func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}

func errorBody(code, message string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": message}}
}
