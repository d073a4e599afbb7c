package wizard

import (
	"fmt"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

var ErrStepNotReached = fmt.Errorf("complete the previous checkout step first: %w", inErrors.ErrCheckoutNotReady)
