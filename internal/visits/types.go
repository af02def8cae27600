package visits

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cbc-energia/fieldops-backend/pkg/enums"
)

// GeoLocation is a raw coordinate pair captured at record creation.
type GeoLocation struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// Gamification captures the points awarded for a classified prospection.
type Gamification struct {
	Points      int                   `json:"points"`
	Temperature enums.LeadTemperature `json:"temperature"`
}

// VisitRecord is one logged field event. Records are immutable once
// appended; the sole later mutation is the sync engine flipping
// SyncStatus from PENDING to SYNCED.
type VisitRecord struct {
	ID         string            `json:"id"`
	Type       enums.VisitType   `json:"type"`
	Status     enums.VisitStatus `json:"status"`
	Role       enums.Role        `json:"role"`
	UserID     string            `json:"userId"`
	UserName   string            `json:"userName"`
	Timestamp  time.Time         `json:"timestamp"`
	Location   GeoLocation       `json:"location"`
	Notes      string            `json:"notes"`
	Photos     []string          `json:"photos"`
	Metadata   Metadata          `json:"metadata"`
	SyncStatus enums.SyncStatus  `json:"syncStatus"`

	Gamification *Gamification `json:"gamification,omitempty"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewRecordID returns a time-sortable identifier. Monotonic entropy keeps
// IDs collision-free even when records are created within the same
// millisecond.
func NewRecordID(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}
