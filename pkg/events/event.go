package events

import (
	"encoding/json"
	"fmt"
)

// Kind identifies a domain event. The set is closed: payload shapes are
// fixed per kind and unknown names are rejected at the boundary.
type Kind int

const (
	KindProductCreated Kind = iota
	KindProductUpdated
	KindProductDeleted
	KindImportCompleted
)

var kindNames = map[Kind]string{
	KindProductCreated:  "product.created",
	KindProductUpdated:  "product.updated",
	KindProductDeleted:  "product.deleted",
	KindImportCompleted: "product.import.completed",
}

func (k Kind) Name() string {
	return kindNames[k]
}

// ParseKind maps an event name to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event kind: %s", name)
}

// ProductPayload is carried by product.created, product.updated and
// product.deleted.
type ProductPayload struct {
	ID   string `json:"id"`
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

// ImportCompletedPayload is carried by product.import.completed.
type ImportCompletedPayload struct {
	JobID     string `json:"job_id"`
	TotalRows int    `json:"total_rows"`
}

// Event is a domain event with its JSON-serializable payload.
type Event struct {
	Kind    Kind
	Payload any
}

// OrderingKey is the identity events of one subject are sequenced by on
// ordered transports: the job id for import events, the product id
// otherwise. Empty for payloads with no subject.
func (ev Event) OrderingKey() string {
	switch p := ev.Payload.(type) {
	case ImportCompletedPayload:
		return p.JobID
	case ProductPayload:
		return p.ID
	}
	return ""
}

// Envelope is the wire form delivered to webhook subscribers and mirrored
// to external brokers.
type Envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// MarshalEnvelope renders the {event, payload} wire form of an event.
func MarshalEnvelope(ev Event) ([]byte, error) {
	return json.Marshal(Envelope{Event: ev.Kind.Name(), Payload: ev.Payload})
}
