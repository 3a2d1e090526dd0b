package order

// Status represents the status of an order
type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusPaid      Status = "PAID"
	StatusShipped   Status = "SHIPPED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusPaid, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for COMPLETED and CANCELLED
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusCreated:
		return target == StatusPaid || target == StatusCancelled
	case StatusPaid:
		return target == StatusShipped || target == StatusCancelled
	case StatusShipped:
		return target == StatusCompleted
	case StatusCompleted, StatusCancelled:
		return false // Terminal states
	}
	return false
}

// Actor identifies who is requesting an order status transition
type Actor string

const (
	ActorBuyer  Actor = "buyer"
	ActorSeller Actor = "seller"
	ActorAdmin  Actor = "admin"
	// ActorSystem covers internal paths such as the payment confirmation
	// callback that marks an order PAID.
	ActorSystem Actor = "system"
)

// CanActorTransition checks that the actor is allowed to perform the
// transition. The state machine itself is checked by CanTransitionTo;
// this adds the authorization dimension on top of it.
func CanActorTransition(from, to Status, actor Actor) bool {
	if !from.CanTransitionTo(to) {
		return false
	}
	if from == StatusCreated && to == StatusPaid {
		// Only payment confirmation marks an order paid. Admins
		// included: there is no manual path to PAID.
		return actor == ActorSystem
	}
	if actor == ActorAdmin || actor == ActorSystem {
		return true
	}

	switch {
	case from == StatusCreated && to == StatusCancelled:
		return actor == ActorBuyer || actor == ActorSeller
	case from == StatusPaid && to == StatusCancelled:
		return actor == ActorSeller
	case from == StatusPaid && to == StatusShipped:
		return actor == ActorSeller
	case from == StatusShipped && to == StatusCompleted:
		return actor == ActorSeller
	}
	return false
}
