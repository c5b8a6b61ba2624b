package interfaces

import (
	"context"

	"github.com/customeros/mailgate/dto"
)

type DeliveryDispatcher interface {
	Dispatch(ctx context.Context, handoff dto.Handoff) error
	Close() error
}
