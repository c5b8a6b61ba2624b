package enum

type HandoffKind string

const (
	HandoffNotify  HandoffKind = "notify"
	HandoffForward HandoffKind = "forward"
)

func (k HandoffKind) String() string {
	return string(k)
}
