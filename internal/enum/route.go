package enum

type RouteAction string

const (
	RouteActionStore   RouteAction = "store"
	RouteActionForward RouteAction = "forward"
	RouteActionStop    RouteAction = "stop"
)

func (a RouteAction) String() string {
	return string(a)
}

func (a RouteAction) IsValid() bool {
	switch a {
	case RouteActionStore, RouteActionForward, RouteActionStop:
		return true
	default:
		return false
	}
}
