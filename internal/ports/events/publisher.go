package events

import (
	"context"
	"time"
)

// Event es un hecho de dominio publicado hacia afuera (p.ej. pet.created).
type Event struct {
	Type        string         `json:"type"`
	AggregateID string         `json:"aggregate_id"`
	ActorID     string         `json:"actor_id"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Payload     map[string]any `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop descarta los eventos; es el default cuando no hay broker configurado.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
