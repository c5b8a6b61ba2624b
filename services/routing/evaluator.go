package routing

import (
	"github.com/customeros/mailgate/internal/enum"
	"github.com/customeros/mailgate/internal/utils"
)

// RoutingContext is built once per ingestion and never shared across requests.
type RoutingContext struct {
	TenantID   uint64
	DomainID   uint64
	Recipients []string
	Sender     string
	Headers    map[string]string
	SpamScore  *float64
	DKIM       enum.AuthVerdict
	TLS        *bool
}

type Decision struct {
	ShouldStore     bool
	NotifyTargets   []string
	ForwardTargets  []string
	MatchedRouteIDs []uint64
	StoppedBy       *uint64
}

// Evaluate walks routes in the given order. Store and forward accumulate; stop ends evaluation.
func Evaluate(rc RoutingContext, routes []CompiledRoute) Decision {
	decision := Decision{
		NotifyTargets:   []string{},
		ForwardTargets:  []string{},
		MatchedRouteIDs: []uint64{},
	}

	for _, route := range routes {
		if !route.Matches(&rc) {
			continue
		}
		decision.MatchedRouteIDs = append(decision.MatchedRouteIDs, route.ID)

		switch destination := route.Destination.(type) {
		case StoreDestination:
			decision.ShouldStore = true
			decision.NotifyTargets = utils.UniqueFold(decision.NotifyTargets, destination.Notify...)
		case ForwardDestination:
			decision.ForwardTargets = utils.UniqueFold(decision.ForwardTargets, destination.Forward...)
		case StopDestination:
			id := route.ID
			decision.StoppedBy = &id
			return decision
		}
	}
	return decision
}

// Matches applies the domain, DKIM, TLS and spam constraints before the pattern.
func (r CompiledRoute) Matches(rc *RoutingContext) bool {
	if r.DomainID != nil && *r.DomainID != rc.DomainID {
		return false
	}
	if r.DKIMRequired && rc.DKIM != enum.AuthVerdictPass {
		return false
	}
	if r.TLSRequired && (rc.TLS == nil || !*rc.TLS) {
		return false
	}
	if r.SpamThreshold != nil && (rc.SpamScore == nil || *rc.SpamScore > *r.SpamThreshold) {
		return false
	}
	if r.match == nil {
		return compilePattern(r.Pattern)(rc)
	}
	return r.match(rc)
}
