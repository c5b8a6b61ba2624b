package routing

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/customeros/mailgate/internal/enum"
	"github.com/customeros/mailgate/internal/models"
)

const (
	destinationKeyNotify   = "notify"
	destinationKeyForward  = "forward"
	destinationKeyPriority = "priority"
)

// Destination is the action-specific part of a route. Exactly one variant exists per action.
type Destination interface {
	Action() enum.RouteAction
	Priority() int
}

type StoreDestination struct {
	Notify []string
	Order  int
}

func (d StoreDestination) Action() enum.RouteAction { return enum.RouteActionStore }
func (d StoreDestination) Priority() int { return d.Order }

type ForwardDestination struct {
	Forward []string
	Order   int
}

func (d ForwardDestination) Action() enum.RouteAction { return enum.RouteActionForward }
func (d ForwardDestination) Priority() int { return d.Order }

type StopDestination struct {
	Order int
}

func (d StopDestination) Action() enum.RouteAction { return enum.RouteActionStop }
func (d StopDestination) Priority() int { return d.Order }

// DecodeDestination validates the stored bag against the route action.
func DecodeDestination(action enum.RouteAction, raw models.JSONMap) (Destination, error) {
	priority, err := decodePriority(raw[destinationKeyPriority])
	if err != nil {
		return nil, err
	}

	switch action {
	case enum.RouteActionStore:
		notify, err := decodeTargets(raw[destinationKeyNotify])
		if err != nil {
			return nil, errors.Wrap(err, destinationKeyNotify)
		}
		return StoreDestination{Notify: notify, Order: priority}, nil
	case enum.RouteActionForward:
		forward, err := decodeTargets(raw[destinationKeyForward])
		if err != nil {
			return nil, errors.Wrap(err, destinationKeyForward)
		}
		return ForwardDestination{Forward: forward, Order: priority}, nil
	case enum.RouteActionStop:
		return StopDestination{Order: priority}, nil
	default:
		return nil, errors.Errorf("unknown action %q", action)
	}
}

func decodePriority(value interface{}) (int, error) {
	var f float64
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, errors.Errorf("priority %q is not numeric", v.String())
		}
		f = parsed
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, errors.Errorf("priority %q is not numeric", v)
		}
		f = parsed
	default:
		return 0, errors.Errorf("priority has unsupported type %T", value)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, errors.Errorf("priority %v is not an integer", f)
	}
	return int(f), nil
}

// decodeTargets accepts a list of strings or a single comma-separated string.
func decodeTargets(value interface{}) ([]string, error) {
	var targets []string
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case string:
		targets = strings.Split(v, ",")
	case []string:
		targets = v
	case []interface{}:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.Errorf("target has unsupported type %T", item)
			}
			targets = append(targets, s)
		}
	default:
		return nil, errors.Errorf("targets have unsupported type %T", value)
	}

	cleaned := make([]string, 0, len(targets))
	for _, target := range targets {
		if target = strings.TrimSpace(target); target != "" {
			cleaned = append(cleaned, target)
		}
	}
	return cleaned, nil
}
