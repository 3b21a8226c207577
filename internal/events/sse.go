package events

import "github.com/kelindar/event"

// SubscribeToChannel bridges callback subscriptions to a channel for SSE
// handlers that select over a single channel. Events are dropped when ch is
// full so a slow client never stalls publishers.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	if bus == nil {
		return func() {}
	}
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
