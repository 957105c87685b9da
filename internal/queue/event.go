// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationChangedEvent is published when somebody other than the
// reservation owner creates, modifies or cancels a reservation. It
// carries enough information for downstream consumers to notify the
// owner without querying the primary database.
type ReservationChangedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	ResourceID    uint64 `json:"resource_id"`
	ResourceName  string `json:"resource_name"`
	UnitName      string `json:"unit_name"`
	Begin         string `json:"begin"`
	End           string `json:"end"`
	State         string `json:"state"`
	Action        string `json:"action"`
	OwnerEmail    string `json:"owner_email"`
	OwnerName     string `json:"owner_name"`
	ActorEmail    string `json:"actor_email"`
	OccurredAt    string `json:"occurred_at"`
}
