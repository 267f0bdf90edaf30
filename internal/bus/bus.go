package bus

import (
	"log"
	"sync"
)

// MessageBus decouples channels from the responder. Channels push user
// messages into Inbound; replies written to Outbound are dispatched to the
// subscriber registered for the target channel name.
type MessageBus struct {
	Inbound  chan InboundMessage
	Outbound chan OutboundMessage

	mu          sync.RWMutex
	subscribers map[string]func(OutboundMessage)
	stopOnce    sync.Once
	done        chan struct{}
}

func NewMessageBus(bufSize int) *MessageBus {
	b := &MessageBus{
		Inbound:     make(chan InboundMessage, bufSize),
		Outbound:    make(chan OutboundMessage, bufSize),
		subscribers: make(map[string]func(OutboundMessage)),
		done:        make(chan struct{}),
	}
	go b.dispatch()
	return b
}

func (b *MessageBus) SubscribeOutbound(channel string, fn func(OutboundMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[channel] = fn
}

func (b *MessageBus) dispatch() {
	for {
		select {
		case msg := <-b.Outbound:
			b.mu.RLock()
			fn := b.subscribers[msg.Channel]
			b.mu.RUnlock()
			if fn == nil {
				log.Printf("[bus] no subscriber for channel %q, dropping message", msg.Channel)
				continue
			}
			fn(msg)
		case <-b.done:
			return
		}
	}
}

func (b *MessageBus) Close() {
	b.stopOnce.Do(func() { close(b.done) })
}
