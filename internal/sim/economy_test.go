package sim

import (
	"testing"

	"macrosim.com/internal/ledger"
	"macrosim.com/internal/matching"
)

// newWorldFixture builds one location, one commodity and a market, plus a
// funded buyer and a seller holding inventory.
func newWorldFixture(t *testing.T) (*Simulation, *Market, *Agent, *Agent) {
	t.Helper()
	s := New(TimeModeSim)
	locID := s.AddLocation(NewLocation("station"))
	comID := s.AddCommodity(NewCommodity("food", 15))
	buyer := NewAgent("buyer", locID, 10000)
	if _, err := s.AddAgent(buyer); err != nil {
		t.Fatalf("add buyer: %v", err)
	}
	seller := NewAgent("seller", locID, 0)
	if _, err := s.AddAgent(seller); err != nil {
		t.Fatalf("add seller: %v", err)
	}
	if err := s.GenerateMarkets(); err != nil {
		t.Fatalf("markets: %v", err)
	}
	m, err := s.MarketFor(locID, comID)
	if err != nil {
		t.Fatalf("market: %v", err)
	}
	lot := seller.Inventory.Lot(int64(comID))
	if err := lot.Add(100, 200); err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return s, m, buyer, seller
}

func TestMarketTradeMovesMoneyAndInventory(t *testing.T) {
	s, m, buyer, seller := newWorldFixture(t)
	comID := m.CommodityID

	ask, err := matching.NewOrder(s.OrderIDs(), matching.Sell, 10, 40, int64(seller.EntityID()))
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if err := m.Book.Submit(ask); err != nil {
		t.Fatalf("submit ask: %v", err)
	}
	if got := seller.Inventory.Lot(int64(comID)).Reserved; got != 40 {
		t.Fatalf("pledged units = %d, want 40", got)
	}

	// Bid 12 for 10 units: reservation is made at the limit, the fill
	// settles at the resting price 10, and the leftover reservation for
	// unfilled units stays at the limit price.
	bid, err := matching.NewOrder(s.OrderIDs(), matching.Buy, 12, 25, int64(buyer.EntityID()))
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	if err := m.Book.Submit(bid); err != nil {
		t.Fatalf("submit bid: %v", err)
	}

	// 25 units filled at 10 = 250 spent; 0 units remain unfilled.
	if buyer.Account.Money != 10000-250 {
		t.Fatalf("buyer money = %d, want 9750", buyer.Account.Money)
	}
	if buyer.Account.ReserveOrders != 0 {
		t.Fatalf("buyer order reserve = %d, want 0", buyer.Account.ReserveOrders)
	}
	blot := buyer.Inventory.Lot(int64(comID))
	if blot.Amount != 25 || blot.Cost != 250 {
		t.Fatalf("buyer lot = %d units at %d, want 25 at 250", blot.Amount, blot.Cost)
	}
	if seller.Account.Money != 250 {
		t.Fatalf("seller money = %d, want 250", seller.Account.Money)
	}
	slot := seller.Inventory.Lot(int64(comID))
	if slot.Amount != 75 || slot.Reserved != 15 {
		t.Fatalf("seller lot = %d units, %d pledged, want 75/15", slot.Amount, slot.Reserved)
	}
	if total := s.TotalMoney(); total != 0 {
		t.Fatalf("trade created or destroyed money: %d", total)
	}
	if _, err := s.MarketFor(m.LocationID, 999); err == nil {
		t.Fatalf("unknown market lookup must fail")
	}
}

func TestRestingBidHoldsReservation(t *testing.T) {
	s, m, buyer, _ := newWorldFixture(t)
	bid, err := matching.NewOrder(s.OrderIDs(), matching.Buy, 12, 25, int64(buyer.EntityID()))
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	if err := m.Book.Submit(bid); err != nil {
		t.Fatalf("submit bid: %v", err)
	}
	if buyer.Account.ReserveOrders != 12*25 {
		t.Fatalf("order reserve = %d, want 300", buyer.Account.ReserveOrders)
	}
	if err := m.Book.Remove(bid.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if buyer.Account.ReserveOrders != 0 || buyer.Account.Money != 10000 {
		t.Fatalf("cancel leaked: reserve=%d money=%d", buyer.Account.ReserveOrders, buyer.Account.Money)
	}
}

func TestInsufficientFundsRejectsBidBeforeMatching(t *testing.T) {
	s, m, buyer, _ := newWorldFixture(t)
	bid, err := matching.NewOrder(s.OrderIDs(), matching.Buy, 1000, 100, int64(buyer.EntityID()))
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	if err := m.Book.Submit(bid); err == nil {
		t.Fatalf("bid beyond balance must fail")
	}
	if buyer.Account.ReserveOrders != 0 || m.Book.Buys().Len() != 0 {
		t.Fatalf("failed bid left state behind")
	}
}

func TestPayWagesRoutesToHousehold(t *testing.T) {
	s := New(TimeModeSim)
	locID := s.AddLocation(NewLocation("station"))
	employer := NewAgent("employer", locID, 5000)
	employer.IsEmployer = true
	empID, _ := s.AddAgent(employer)
	household := NewAgent("household", locID, 0)
	hhID, _ := s.AddAgent(household)
	s.SetHousehold(locID, hhID)

	if err := employer.Account.ChangeReserve(600, ledger.ReserveWages); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	s.ScheduleDecisionOnce(empID, func(s *Simulation, ev *Event) error {
		employer.ActionScratch().AddAction(PayWages{Payment: 1000})
		return nil
	}, 0, nil)
	if _, err := s.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if household.Account.Money != 1000 {
		t.Fatalf("household received %d, want 1000", household.Account.Money)
	}
	if employer.Account.Money != 4000 || employer.Account.ReserveWages != 0 {
		t.Fatalf("employer money=%d wages reserve=%d, want 4000/0", employer.Account.Money, employer.Account.ReserveWages)
	}
}

func TestProduceFromLabourBooksOutputAtCost(t *testing.T) {
	s := New(TimeModeSim)
	locID := s.AddLocation(NewLocation("station"))
	comID := s.AddCommodity(NewCommodity("food", 15))
	worker := NewAgent("factory", locID, 0)
	id, _ := s.AddAgent(worker)
	s.ScheduleDecisionOnce(id, func(s *Simulation, ev *Event) error {
		worker.ActionScratch().AddAction(ProduceFromLabour{CommodityID: comID, Workers: 10, Payment: 1200})
		return nil
	}, 0, nil)
	if _, err := s.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	lot := worker.Inventory.Lot(int64(comID))
	if lot.Amount != 150 || lot.Cost != 1200 {
		t.Fatalf("lot = %d units at %d, want 150 at 1200", lot.Amount, lot.Cost)
	}
}

func TestDelegatedAccountBooksAgainstDelegate(t *testing.T) {
	s := New(TimeModeSim)
	locID := s.AddLocation(NewLocation("station"))
	arm := NewAgent("public_arm", locID, 0)
	arm.DelegateAccountTo(s.GovernmentID)
	if _, err := s.AddAgent(arm); err != nil {
		t.Fatalf("add: %v", err)
	}
	acct, err := s.AccountFor(arm)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	gov, _ := s.AgentByID(s.GovernmentID)
	if acct != &gov.Account {
		t.Fatalf("delegation did not resolve to the government account")
	}
}
