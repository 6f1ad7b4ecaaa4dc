package gateway

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

const maxStreamBackoff = 30 * time.Second

// QuoteStream yields raw quote payloads for a symbol until ctx is done.
type QuoteStream interface {
	Stream(ctx context.Context, symbol string) (<-chan []byte, error)
}

type hubOp int

const (
	opRegister hubOp = iota
	opUnregister
	opSubscribe
	opUnsubscribe
)

// clientEvent travels on one channel so a client's events apply in order.
type clientEvent struct {
	op     hubOp
	client *Client
	symbol string
}

type quoteMessage struct {
	symbol string
	data   []byte
}

// Hub fans quote updates out to websocket clients. All maps are owned by
// the Run goroutine; one stream runs per symbol with at least one subscriber.
type Hub struct {
	clients       map[*Client]bool
	subs          map[string]map[*Client]bool
	streamCancels map[string]context.CancelFunc

	events    chan clientEvent
	broadcast chan quoteMessage
	snapshot  chan chan []string

	quotes    QuoteStream
	retryBase time.Duration
	logger    *slog.Logger
}

func NewHub(quotes QuoteStream, logger *slog.Logger) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subs:          make(map[string]map[*Client]bool),
		streamCancels: make(map[string]context.CancelFunc),
		events:        make(chan clientEvent, 256),
		broadcast:     make(chan quoteMessage, 256),
		snapshot:      make(chan chan []string),
		quotes:        quotes,
		retryBase:     time.Second,
		logger:        logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.events:
			h.apply(ctx, ev)
		case msg := <-h.broadcast:
			h.fanOut(msg)
		case reply := <-h.snapshot:
			symbols := make([]string, 0, len(h.subs))
			for sym := range h.subs {
				symbols = append(symbols, sym)
			}
			sort.Strings(symbols)
			reply <- symbols
		}
	}
}

func (h *Hub) apply(ctx context.Context, ev clientEvent) {
	switch ev.op {
	case opRegister:
		h.clients[ev.client] = true
	case opUnregister:
		if _, ok := h.clients[ev.client]; !ok {
			return
		}
		delete(h.clients, ev.client)
		for sym := range h.subs {
			h.drop(sym, ev.client)
		}
		close(ev.client.send)
	case opSubscribe:
		if _, ok := h.clients[ev.client]; !ok {
			return
		}
		if _, ok := h.subs[ev.symbol]; !ok {
			h.subs[ev.symbol] = make(map[*Client]bool)
			streamCtx, cancel := context.WithCancel(ctx)
			h.streamCancels[ev.symbol] = cancel
			go h.pump(streamCtx, ev.symbol)
		}
		h.subs[ev.symbol][ev.client] = true
	case opUnsubscribe:
		h.drop(ev.symbol, ev.client)
	}
}

// Symbols lists the symbols with at least one subscriber, sorted.
func (h *Hub) Symbols(ctx context.Context) []string {
	reply := make(chan []string, 1)
	select {
	case h.snapshot <- reply:
	case <-ctx.Done():
		return nil
	}
	select {
	case symbols := <-reply:
		return symbols
	case <-ctx.Done():
		return nil
	}
}

func (h *Hub) drop(symbol string, client *Client) {
	clients, ok := h.subs[symbol]
	if !ok {
		return
	}
	delete(clients, client)
	if len(clients) > 0 {
		return
	}
	if cancel, ok := h.streamCancels[symbol]; ok {
		cancel()
		delete(h.streamCancels, symbol)
	}
	delete(h.subs, symbol)
}

// pump forwards a symbol's stream until ctx is done, resubscribing after a
// failed or closed stream. Failures back off up to maxStreamBackoff.
func (h *Hub) pump(ctx context.Context, symbol string) {
	wait := h.retryBase
	for {
		stream, err := h.quotes.Stream(ctx, symbol)
		if err != nil {
			h.logger.Error("quote stream failed", "symbol", symbol, "err", err, "retrying_in", wait)
		} else {
			h.forward(ctx, symbol, stream)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		if err != nil {
			wait *= 2
			if wait > maxStreamBackoff {
				wait = maxStreamBackoff
			}
		} else {
			wait = h.retryBase
		}
	}
}

func (h *Hub) forward(ctx context.Context, symbol string, stream <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-stream:
			if !ok {
				return
			}
			select {
			case h.broadcast <- quoteMessage{symbol: symbol, data: data}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// fanOut skips clients whose send buffer is full.
func (h *Hub) fanOut(msg quoteMessage) {
	for client := range h.subs[msg.symbol] {
		select {
		case client.send <- msg.data:
		default:
		}
	}
}
