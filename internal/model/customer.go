package model

// CustomerStatus is the lifecycle state of a transport request.
type CustomerStatus string

const (
	// CustomerWaiting - request not yet picked by any car
	CustomerWaiting CustomerStatus = "waiting"
	// CustomerAssigned - request is riding in (or claimed by) a car
	CustomerAssigned CustomerStatus = "assigned"
	// CustomerDelivered - request reached its destination
	CustomerDelivered CustomerStatus = "delivered"
)

// CustomerState is the server view of one transport request.
type CustomerState struct {
	Origin      int            `json:"origin"`
	Destination int            `json:"destination"`
	Status      CustomerStatus `json:"status"`
	CarID       *CarID         `json:"car_id,omitempty"`
}

// Waiting reports whether the request still needs a pickup.
func (c CustomerState) Waiting() bool {
	return c.Status == CustomerWaiting
}

// AssignedTo reports whether the request is assigned to car id.
func (c CustomerState) AssignedTo(id CarID) bool {
	return c.Status == CustomerAssigned && c.CarID != nil && *c.CarID == id
}
