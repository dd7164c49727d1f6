// File: internal/infra/mockapi/store.go
package mockapi

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"car-deal-negotiator/internal/domain/model"
)

// session is the simulator's working record for one negotiation.
type session struct {
	model.NegotiationSession
	AskingPrice float64
	CurrentAsk  float64
	Strategy    string
}

// Store holds all mock-backend state in memory. Everything is discarded on
// process exit; that is the point of a stand-in backend.
type Store struct {
	mu            sync.Mutex
	entropy       *ulid.MonotonicEntropy
	sessions      map[string]*session
	vehicles      []model.Vehicle
	deals         map[string]model.Deal
	favorites     map[string]model.Favorite
	savedSearches map[string]model.SavedSearch
	evaluations   map[string]model.DealEvaluation
}

func NewStore() *Store {
	s := &Store{
		entropy:       ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		sessions:      make(map[string]*session),
		deals:         make(map[string]model.Deal),
		favorites:     make(map[string]model.Favorite),
		savedSearches: make(map[string]model.SavedSearch),
		evaluations:   make(map[string]model.DealEvaluation),
	}
	s.seed()
	return s
}

// newULID must be called with s.mu held.
func (s *Store) newULID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// seed loads a small inventory so search and deal lookups work out of the
// box.
func (s *Store) seed() {
	s.vehicles = []model.Vehicle{
		{ID: "veh-001", Make: "Toyota", Model: "Camry", Year: 2022, Price: 26500, Mileage: 18000},
		{ID: "veh-002", Make: "Toyota", Model: "Corolla", Year: 2021, Price: 21900, Mileage: 27000},
		{ID: "veh-003", Make: "Honda", Model: "Civic", Year: 2023, Price: 24800, Mileage: 9000},
		{ID: "veh-004", Make: "Honda", Model: "Accord", Year: 2020, Price: 25400, Mileage: 41000},
		{ID: "veh-005", Make: "Mazda", Model: "CX-5", Year: 2022, Price: 28900, Mileage: 22000},
		{ID: "veh-006", Make: "Subaru", Model: "Outback", Year: 2021, Price: 27300, Mileage: 33000},
	}
	now := time.Now()
	for i, v := range s.vehicles {
		d := model.Deal{
			ID:          "deal-00" + string(rune('1'+i)),
			VehicleID:   v.ID,
			AskingPrice: v.Price,
			DealerName:  "Sunrise Auto",
			Status:      "open",
			CreatedAt:   now,
		}
		s.deals[d.ID] = d
	}
}

func (s *Store) dealAskingPrice(dealID string) float64 {
	if d, ok := s.deals[dealID]; ok {
		return d.AskingPrice
	}
	return defaultAskingPrice
}

const defaultAskingPrice = 25000
