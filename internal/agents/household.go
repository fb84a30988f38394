package agents

import (
	"macrosim.com/internal/entity"
	"macrosim.com/internal/sim"
	"macrosim.com/pkg/xerr"
)

// HouseholdSector aggregates all households at a location. It receives every
// wage payment made there and spends a fixed fraction of its free cash on
// consumption each day, bidding slightly over the last traded price so the
// order fills immediately and never rests.
type HouseholdSector struct {
	sim.Agent
	CommodityID entity.ID

	// SpendFraction of free money consumed per day.
	SpendFraction float64
	// FallbackPrice anchors the bid before the market has ever traded.
	FallbackPrice int64
}

// NewHouseholdSector builds the household sector for a location.
func NewHouseholdSector(locationID, commodityID entity.ID, money, fallbackPrice int64) *HouseholdSector {
	return &HouseholdSector{
		Agent:         *sim.NewAgent("household_sector", locationID, money),
		CommodityID:   commodityID,
		SpendFraction: 0.8,
		FallbackPrice: fallbackPrice,
	}
}

// RegisterEvents schedules the daily consumption purchase.
func (h *HouseholdSector) RegisterEvents(s *sim.Simulation) []sim.ScheduledEvent {
	buy := sim.NewActionEvent(entity.None, h.eventConsumption, 0, 1)
	buy.AddRequest(s.MustDataRequest("Price", sim.DataMarketPrice, map[string]interface{}{
		"commodity": h.CommodityID,
		"fallback":  h.FallbackPrice,
	}))
	return []sim.ScheduledEvent{
		{Event: buy, WindowLo: 0.3, WindowHi: 0.7},
	}
}

func (h *HouseholdSector) eventConsumption(s *sim.Simulation, ev *sim.Event) error {
	price, ok := h.ActionScratch().Value("Price").(int64)
	if !ok || price <= 0 {
		return xerr.Newf(xerr.RequestParamsError, "bad market price for household at location %d", h.LocationID)
	}
	budget := int64(h.SpendFraction * float64(h.Account.FreeMoney()))
	bid := (price * 11) / 10
	amount := budget / bid
	if amount == 0 {
		return nil
	}
	h.ActionScratch().AddAction(sim.PlaceDiscardBuy{
		CommodityID: h.CommodityID,
		Price:       bid,
		Amount:      amount,
	})
	return nil
}
