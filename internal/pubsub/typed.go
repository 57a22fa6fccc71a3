package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Event[T] binds a topic name to its payload type for type-safe publishing.
type Event[T any] struct {
	name        string
	description string
}

// EventInfo describes a declared event for documentation and the CLI.
type EventInfo struct {
	Name          string   `json:"name"`
	Module        string   `json:"module"`
	Description   string   `json:"description"`
	TypeName      string   `json:"type_name"`
	PayloadFields []string `json:"payload_fields"`
}

var catalog sync.Map // name -> EventInfo

// NewEvent declares a typed event and records it in the package catalog.
// Events are declared at package level, so a duplicate name is a wiring defect and panics.
func NewEvent[T any](name, description string) Event[T] {
	var zero T
	t := reflect.TypeOf(zero)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	info := EventInfo{
		Name:        name,
		Description: description,
	}
	if module, _, ok := strings.Cut(name, "."); ok {
		info.Module = module
	}
	if t != nil {
		info.TypeName = t.Name()
		if t.Kind() == reflect.Struct {
			for i := 0; i < t.NumField(); i++ {
				tag := t.Field(i).Tag.Get("json")
				if tag == "" || tag == "-" {
					continue
				}
				field, _, _ := strings.Cut(tag, ",")
				info.PayloadFields = append(info.PayloadFields, field)
			}
		}
	}

	if _, loaded := catalog.LoadOrStore(name, info); loaded {
		panic(fmt.Sprintf("pubsub: event already declared: %s", name))
	}

	return Event[T]{name: name, description: description}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.name
}

// Description returns the human-readable description.
func (e Event[T]) Description() string {
	return e.description
}

// Catalog lists every declared event sorted by name.
func Catalog() []EventInfo {
	var events []EventInfo
	catalog.Range(func(_, value any) bool {
		events = append(events, value.(EventInfo))
		return true
	})
	sort.Slice(events, func(i, j int) bool { return events[i].Name < events[j].Name })
	return events
}

// Publish encodes payload as JSON and sends it on the event's topic.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], source string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event.Name(), err)
	}

	return p.Publish(ctx, Message{
		Topic:   event.Name(),
		Source:  source,
		Payload: data,
	})
}

// Decode unmarshals a message payload into the event's payload type.
func Decode[T any](event Event[T], msg Message) (T, error) {
	var payload T
	if msg.Topic != "" && msg.Topic != event.Name() {
		return payload, fmt.Errorf("decode %s: unexpected topic %q", event.Name(), msg.Topic)
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload: %w", event.Name(), err)
	}
	return payload, nil
}

// Subscribe registers a typed handler for event on sub.
func Subscribe[T any](ctx context.Context, sub Subscriber, event Event[T], handler func(ctx context.Context, payload T) error) error {
	return sub.Subscribe(ctx, event.Name(), func(ctx context.Context, msg Message) error {
		payload, err := Decode(event, msg)
		if err != nil {
			return err
		}
		return handler(ctx, payload)
	})
}
