// simservice-emulator serves a canned version of the simulation service
// API for developing the dashboard without the real service. Results are
// synthetic but structurally faithful: baselines carry KPIs and costs,
// scenario runs carry a full timeline, and interventions perturb the
// numbers deterministically.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/gridswap/swapdash/internal/types"
)

type emulator struct {
	mu        sync.Mutex
	project   types.Project
	stations  []types.Station
	scenarios map[string]types.Scenario
	latency   time.Duration
	failRate  float64
	rng       *rand.Rand
}

func main() {
	listenAddr := flag.String("listen", "127.0.0.1:9000", "Listen address")
	latencyMS := flag.Int("latency", 250, "Simulated run latency in milliseconds")
	failRate := flag.Float64("fail-rate", 0.0, "Probability that a scenario run reports failure (0.0-1.0)")
	seed := flag.Int64("seed", 42, "Random seed for synthetic data")
	flag.Parse()

	e := &emulator{
		project: types.Project{
			ID:            "proj-blr-01",
			Name:          "Bengaluru Pilot",
			Description:   "25-station battery swap network",
			BaselineValid: true,
		},
		scenarios: make(map[string]types.Scenario),
		latency:   time.Duration(*latencyMS) * time.Millisecond,
		failRate:  *failRate,
		rng:       rand.New(rand.NewSource(*seed)),
	}
	e.stations = syntheticStations(e.rng)
	baseline := e.runKPIs(nil)
	e.project.BaselineKPIs = &baseline

	router := mux.NewRouter()
	router.HandleFunc("/projects", e.listProjects).Methods("GET")
	router.HandleFunc("/projects/{id}", e.getProject).Methods("GET")
	router.HandleFunc("/projects/{id}/baseline/run", e.runBaseline).Methods("POST")
	router.HandleFunc("/projects/{id}/stations", e.listStations).Methods("GET")
	router.HandleFunc("/projects/{id}/stations", e.createStation).Methods("POST")
	router.HandleFunc("/projects/{id}/stations/{sid}", e.updateStation).Methods("PATCH")
	router.HandleFunc("/projects/{id}/stations/{sid}", e.deleteStation).Methods("DELETE")
	router.HandleFunc("/projects/{id}/scenarios", e.createScenario).Methods("POST")
	router.HandleFunc("/projects/{id}/scenarios/{sid}/run", e.runScenario).Methods("POST")
	router.HandleFunc("/simulation/optimize", e.optimize).Methods("POST")
	router.HandleFunc("/auth/login", e.login).Methods("POST")
	router.HandleFunc("/auth/logout", e.logout).Methods("POST")

	log.Printf("simservice-emulator listening on %s (latency %v, fail rate %.2f)",
		*listenAddr, e.latency, e.failRate)
	log.Fatal(http.ListenAndServe(*listenAddr, router))
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (e *emulator) listProjects(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	writeJSON(w, http.StatusOK, []types.Project{e.project})
}

func (e *emulator) getProject(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if mux.Vars(r)["id"] != e.project.ID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "project not found"})
		return
	}
	writeJSON(w, http.StatusOK, e.project)
}

func (e *emulator) runBaseline(w http.ResponseWriter, r *http.Request) {
	time.Sleep(e.latency)
	e.mu.Lock()
	defer e.mu.Unlock()

	kpis := e.runKPIs(nil)
	e.project.BaselineKPIs = &kpis
	e.project.BaselineValid = true

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "completed",
		"baseline_kpis": kpis,
		"costs":         e.runCosts(kpis),
	})
}

func (e *emulator) listStations(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	writeJSON(w, http.StatusOK, e.stations)
}

func (e *emulator) createStation(w http.ResponseWriter, r *http.Request) {
	var station types.Station
	if err := json.NewDecoder(r.Body).Decode(&station); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	station.ID = uuid.New().String()
	station.Active = true
	e.stations = append(e.stations, station)
	writeJSON(w, http.StatusCreated, station)
}

func (e *emulator) updateStation(w http.ResponseWriter, r *http.Request) {
	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	sid := mux.Vars(r)["sid"]
	for i := range e.stations {
		if e.stations[i].ID != sid && e.stations[i].StationID != sid {
			continue
		}
		if v, ok := fields["chargers"].(float64); ok {
			e.stations[i].Chargers = int(v)
		}
		if v, ok := fields["bays"].(float64); ok {
			e.stations[i].Bays = int(v)
		}
		if v, ok := fields["inventory_cap"].(float64); ok {
			e.stations[i].InventoryCap = int(v)
		}
		if v, ok := fields["name"].(string); ok {
			e.stations[i].Name = v
		}
		writeJSON(w, http.StatusOK, e.stations[i])
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "station not found"})
}

func (e *emulator) deleteStation(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sid := mux.Vars(r)["sid"]
	for i := range e.stations {
		if e.stations[i].ID == sid || e.stations[i].StationID == sid {
			e.stations = append(e.stations[:i], e.stations[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "station not found"})
}

func (e *emulator) createScenario(w http.ResponseWriter, r *http.Request) {
	var sc types.Scenario
	if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	sc.ID = uuid.New().String()
	sc.ProjectID = e.project.ID
	sc.Status = types.ScenarioDraft
	sc.CreatedAt = time.Now().UTC()
	e.scenarios[sc.ID] = sc
	writeJSON(w, http.StatusCreated, sc)
}

func (e *emulator) runScenario(w http.ResponseWriter, r *http.Request) {
	time.Sleep(e.latency)
	e.mu.Lock()
	defer e.mu.Unlock()

	sid := mux.Vars(r)["sid"]
	sc, ok := e.scenarios[sid]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "scenario not found"})
		return
	}

	if e.rng.Float64() < e.failRate {
		writeJSON(w, http.StatusOK, types.SimulationResult{
			ScenarioID: sid,
			Status:     "failed",
			Error:      "simulation diverged: demand exceeded network capacity",
		})
		return
	}

	kpis := e.runKPIs(sc.Interventions)
	hours := sc.DurationHours
	if hours <= 0 {
		hours = 24
	}
	writeJSON(w, http.StatusOK, types.SimulationResult{
		ScenarioID: sid,
		Status:     "completed",
		KPIs:       &kpis,
		Costs:      costPtr(e.runCosts(kpis)),
		Timeline:   e.syntheticTimeline(hours),
	})
}

func (e *emulator) optimize(w http.ResponseWriter, r *http.Request) {
	var baseline types.KPISummary
	if err := json.NewDecoder(r.Body).Decode(&baseline); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var suggestions []types.OptimizationSuggestion
	for _, s := range baseline.Stations {
		if s.LostSwapsPct > 5.0 || s.ChargerUtilization > 0.7 {
			suggestions = append(suggestions, types.OptimizationSuggestion{
				StationID:   s.StationID,
				Type:        "add_chargers",
				Description: fmt.Sprintf("%s is congested; add charging capacity", s.StationID),
				Priority:    "high",
				ActionPayload: map[string]interface{}{
					"station_id":   s.StationID,
					"add_chargers": 2,
				},
			})
		}
		if s.ChargerUtilization < 0.1 && s.TotalArrivals > 0 {
			suggestions = append(suggestions, types.OptimizationSuggestion{
				StationID:   s.StationID,
				Type:        "remove_chargers",
				Description: fmt.Sprintf("%s is underutilized; reduce charging capacity", s.StationID),
				Priority:    "low",
				ActionPayload: map[string]interface{}{
					"station_id":      s.StationID,
					"remove_chargers": 1,
				},
			})
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

func (e *emulator) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  uuid.New().String(),
		"refresh_token": uuid.New().String(),
		"user_id":       uuid.New().String(),
		"role":          "planner",
	})
}

func (e *emulator) logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// runKPIs synthesizes a KPI summary. Interventions shift the city numbers:
// demand multipliers raise wait and losses, added chargers lower them.
func (e *emulator) runKPIs(interventions []types.Intervention) types.KPISummary {
	demand := 1.0
	capacity := 1.0
	for _, iv := range interventions {
		switch iv.Kind {
		case types.InterventionWeatherDemand, types.InterventionEventDemand:
			if m, ok := iv.Params["multiplier"].(float64); ok && m > 0 {
				demand *= m
			}
		case types.InterventionModifyStation, types.InterventionAddStation:
			capacity *= 1.1
		case types.InterventionRemoveStation:
			capacity *= 0.9
		}
	}
	pressure := demand / capacity

	summary := types.KPISummary{
		City: types.CityKPI{
			AvgWaitTime:        round2(4.2 * pressure),
			LostSwapsPct:       round2(2.8 * pressure),
			ChargerUtilization: round2(clamp(0.58*pressure, 0, 1)),
			IdleInventoryPct:   round2(18.0 / pressure),
			Throughput:         round2(142.0 * math.Min(demand, capacity*1.2)),
			CostProxy:          round2(11250 * pressure),
		},
	}

	for _, st := range e.stations {
		if !st.Active {
			continue
		}
		tierLoad := map[types.StationTier]float64{
			types.TierHigh: 1.4, types.TierMedium: 1.0, types.TierLow: 0.6,
		}[st.Tier]
		if tierLoad == 0 {
			tierLoad = 1.0
		}
		arrivals := int(40 * tierLoad * demand)
		lostPct := clamp(2.8*pressure*tierLoad-1.0, 0, 100)
		summary.Stations = append(summary.Stations, types.StationKPI{
			StationID:          st.StationID,
			Tier:               string(st.Tier),
			TotalArrivals:      arrivals,
			SuccessfulSwaps:    arrivals - int(float64(arrivals)*lostPct/100),
			LostSwaps:          int(float64(arrivals) * lostPct / 100),
			LostSwapsPct:       round2(lostPct),
			AvgWaitTime:        round2(4.2 * pressure * tierLoad),
			ChargerUtilization: round2(clamp(0.58*pressure*tierLoad, 0, 1)),
		})
	}

	summary.City.TotalArrivals = 0
	summary.City.TotalLost = 0
	for _, s := range summary.Stations {
		summary.City.TotalArrivals += s.TotalArrivals
		summary.City.TotalLost += s.LostSwaps
	}
	return summary
}

func (e *emulator) runCosts(kpis types.KPISummary) types.CostBreakdown {
	chargers := 0
	bays := 0
	inventory := 0
	for _, st := range e.stations {
		chargers += st.Chargers
		bays += st.Bays
		inventory += st.InventoryCap
	}
	capital := types.CapitalCosts{
		Chargers:  float64(chargers) * 250000,
		Bays:      float64(bays) * 150000,
		Inventory: float64(inventory) * 18000,
	}
	capital.Total = capital.Chargers + capital.Bays + capital.Inventory

	swaps := float64(kpis.City.TotalArrivals - kpis.City.TotalLost)
	operational := types.OperationalCosts{
		SwapOperations: swaps * 15,
		Electricity:    swaps * 42,
		Labor:          float64(len(e.stations)) * 2400,
		Maintenance:    float64(chargers) * 120,
		Replenishment:  float64(inventory) * 8,
	}
	operational.Total = operational.SwapOperations + operational.Electricity +
		operational.Labor + operational.Maintenance + operational.Replenishment

	revenue := swaps * 180
	lostRevenue := float64(kpis.City.TotalLost) * 180

	return types.CostBreakdown{
		Capital:     capital,
		Operational: operational,
		Opportunity: types.OpportunityCosts{LostRevenue: lostRevenue},
		Revenue:     types.RevenueSummary{Total: revenue},
		Summary: types.CostSummary{
			NetOperationalProfit: revenue - operational.Total,
			TotalCost:            capital.Total + operational.Total + lostRevenue,
		},
	}
}

// syntheticTimeline builds one frame per simulated hour with a morning and
// evening demand peak.
func (e *emulator) syntheticTimeline(hours int) []types.TimelineFrame {
	frames := make([]types.TimelineFrame, 0, hours)
	completed := make(map[string]int)
	lost := make(map[string]int)

	for h := 0; h < hours; h++ {
		peak := 1.0 + 0.8*math.Exp(-sq(float64(h)-9)/8) + 0.9*math.Exp(-sq(float64(h)-19)/8)
		frame := types.TimelineFrame{TimestampMin: float64(h * 60)}
		for _, st := range e.stations {
			if !st.Active {
				continue
			}
			arrivals := int(peak * float64(2+e.rng.Intn(4)))
			queue := 0
			if peak > 1.5 {
				queue = e.rng.Intn(4)
			}
			completed[st.StationID] += arrivals - queue/2
			if queue > 2 {
				lost[st.StationID]++
			}
			frame.Stations = append(frame.Stations, types.StationSnapshot{
				StationID:          st.StationID,
				QueueLength:        queue,
				BatteriesAvailable: maxInt(st.InventoryCap-queue-e.rng.Intn(3), 0),
				ChargersInUse:      minInt(int(peak*float64(st.Chargers)/1.6), st.Chargers),
				SwapsCompleted:     completed[st.StationID],
				SwapsLost:          lost[st.StationID],
			})
		}
		frames = append(frames, frame)
	}
	return frames
}

func syntheticStations(rng *rand.Rand) []types.Station {
	tiers := []types.StationTier{types.TierHigh, types.TierMedium, types.TierMedium, types.TierLow}
	stations := make([]types.Station, 0, 25)
	for i := 1; i <= 25; i++ {
		tier := tiers[i%len(tiers)]
		chargers := map[types.StationTier]int{
			types.TierHigh: 8, types.TierMedium: 5, types.TierLow: 3,
		}[tier]
		stations = append(stations, types.Station{
			ID:           uuid.New().String(),
			StationID:    fmt.Sprintf("STATION_%02d", i),
			Name:         fmt.Sprintf("Station %02d", i),
			Latitude:     12.9716 + (rng.Float64()-0.5)*0.18,
			Longitude:    77.5946 + (rng.Float64()-0.5)*0.18,
			Chargers:     chargers,
			InventoryCap: chargers * 3,
			Bays:         2,
			Tier:         tier,
			Active:       true,
			IsBaseline:   true,
		})
	}
	return stations
}

func costPtr(c types.CostBreakdown) *types.CostBreakdown { return &c }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

func sq(v float64) float64 { return v * v }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
