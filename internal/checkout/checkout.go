package checkout

import (
	"errors"

	"github.com/aecioaam/sistema-de-pedidos/internal/domain"
)

// Checkout steps. Submitted is not a fifth step; it is an orthogonal
// terminal flag on the state.
const (
	StepBrowsing = 1
	StepCart     = 2
	StepCustomer = 3
	StepSummary  = 4
)

var (
	ErrCartEmpty         = errors.New("cart is empty")
	ErrMissingName       = errors.New("customer name is required")
	ErrMissingHood       = errors.New("neighborhood is required for delivery")
	ErrAlreadySubmitted  = errors.New("order already submitted")
	ErrNotAtSummary      = errors.New("finalize is only available at the summary step")
	ErrNoForwardFromLast = errors.New("summary step has no forward navigation")
)

// State is the whole serializable checkout wizard state. It is owned by
// one customer session for the lifetime of one order and replaced
// wholesale on every transition.
type State struct {
	Cart      Cart                `json:"cart"`
	Step      int                 `json:"step"`
	Submitted bool                `json:"submitted"`
	Details   domain.OrderDetails `json:"details"`
}

// NewState is the initial state on load: step 1, empty cart, delivery
// with pix payment.
func NewState() *State {
	return &State{
		Cart:    Cart{},
		Step:    StepBrowsing,
		Details: domain.DefaultOrderDetails(),
	}
}

// CanAdvance reports whether forward navigation from the current step is
// allowed, and why not. Step 2 has no gate; step 4's forward action is
// Finalize, not a step increment.
func (s *State) CanAdvance() error {
	if s.Submitted {
		return ErrAlreadySubmitted
	}
	switch s.Step {
	case StepBrowsing:
		if len(s.Cart) == 0 {
			return ErrCartEmpty
		}
	case StepCustomer:
		if s.Details.CustomerName == "" {
			return ErrMissingName
		}
		if s.Details.Type == domain.DeliveryEntrega && s.Details.NeighborhoodID == nil {
			return ErrMissingHood
		}
	case StepSummary:
		return ErrNoForwardFromLast
	}
	return nil
}

// Advance moves one step forward when the gate allows it.
func (s *State) Advance() error {
	if err := s.CanAdvance(); err != nil {
		return err
	}
	s.Step++
	return nil
}

// Back moves one step backward. Backward navigation within the wizard
// is never gated, but a submitted session only leaves through Reset.
func (s *State) Back() error {
	if s.Submitted {
		return ErrAlreadySubmitted
	}
	if s.Step > StepBrowsing {
		s.Step--
	}
	return nil
}

// MarkSubmitted enters the terminal submitted state. Only Reset leaves it.
func (s *State) MarkSubmitted() error {
	if s.Step != StepSummary {
		return ErrNotAtSummary
	}
	s.Submitted = true
	return nil
}

// Reset starts a fresh cycle: empty cart, step 1, default details,
// submitted flag cleared.
func (s *State) Reset() {
	s.Cart = Cart{}
	s.Step = StepBrowsing
	s.Submitted = false
	s.Details = domain.DefaultOrderDetails()
}
