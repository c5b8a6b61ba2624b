package routing

import (
	"sort"
	"time"

	"github.com/customeros/mailgate/internal/enum"
	"github.com/customeros/mailgate/internal/models"
)

type CompiledRoute struct {
	ID            uint64
	DomainID      *uint64
	Pattern       string
	DKIMRequired  bool
	TLSRequired   bool
	SpamThreshold *float64
	CreatedAt     time.Time
	Destination   Destination

	match matcher
}

func (r CompiledRoute) Action() enum.RouteAction {
	return r.Destination.Action()
}

type SkippedRoute struct {
	ID     uint64
	Reason string
}

// Compile validates tenant routes and returns them in evaluation order:
// priority ascending, then newest created_at, then highest id.
// tenantDomainIDs holds the ids of the tenant's own domains; routes pointing elsewhere are skipped.
func Compile(routes []models.Route, tenantDomainIDs map[uint64]bool) ([]CompiledRoute, []SkippedRoute) {
	compiled := make([]CompiledRoute, 0, len(routes))
	var skipped []SkippedRoute

	for _, route := range routes {
		if !route.Action.IsValid() {
			skipped = append(skipped, SkippedRoute{ID: route.ID, Reason: "unknown action " + string(route.Action)})
			continue
		}
		if route.DomainID != nil && !tenantDomainIDs[*route.DomainID] {
			skipped = append(skipped, SkippedRoute{ID: route.ID, Reason: "domain does not belong to tenant"})
			continue
		}
		destination, err := DecodeDestination(route.Action, route.Destination)
		if err != nil {
			skipped = append(skipped, SkippedRoute{ID: route.ID, Reason: "invalid destination: " + err.Error()})
			continue
		}
		compiled = append(compiled, CompiledRoute{
			ID:            route.ID,
			DomainID:      route.DomainID,
			Pattern:       route.Pattern,
			DKIMRequired:  route.DKIMRequired,
			TLSRequired:   route.TLSRequired,
			SpamThreshold: route.SpamThreshold,
			CreatedAt:     route.CreatedAt,
			Destination:   destination,
			match:         compilePattern(route.Pattern),
		})
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		a, b := compiled[i], compiled[j]
		if a.Destination.Priority() != b.Destination.Priority() {
			return a.Destination.Priority() < b.Destination.Priority()
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	return compiled, skipped
}
