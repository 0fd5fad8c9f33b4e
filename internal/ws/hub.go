package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/splax/teamboard/internal/domain"
)

// AllMembers is the topic that receives events for every member.
const AllMembers = "*"

// peerQueueSize bounds how far a subscriber may fall behind before it is dropped.
const peerQueueSize = 16

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Hub manages stream subscriptions by topic. A topic is a member id or AllMembers.
// Delivery happens on one goroutine per subscriber, so a stalled client never
// holds up publishers or other subscribers.
type Hub struct {
	peers     map[string]map[Subscriber]*peer
	register  chan subscription
	unreg     chan subscription
	broadcast chan message
	count     chan chan int
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// message couples payload with the topics it is delivered to.
type message struct {
	topics  []string
	payload []byte
}

// subscription defines register/unregister requests.
type subscription struct {
	topic  string
	client Subscriber
}

// peer is the hub's side of one subscription.
type peer struct {
	sub   Subscriber
	queue chan []byte
	quit  chan struct{}
}

// NewHub creates an initialized Hub and starts its dispatch loop.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		peers:     make(map[string]map[Subscriber]*peer),
		register:  make(chan subscription),
		unreg:     make(chan subscription),
		broadcast: make(chan message, 64),
		count:     make(chan chan int),
		done:      make(chan struct{}),
		logger:    logger,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			h.add(sub.topic, sub.client)
		case sub := <-h.unreg:
			h.remove(sub.topic, sub.client)
		case msg := <-h.broadcast:
			h.fanOut(msg)
		case reply := <-h.count:
			total := 0
			for _, peers := range h.peers {
				total += len(peers)
			}
			reply <- total
		case <-h.done:
			for _, peers := range h.peers {
				for _, p := range peers {
					close(p.quit)
				}
			}
			h.peers = make(map[string]map[Subscriber]*peer)
			return
		}
	}
}

func (h *Hub) add(topic string, client Subscriber) {
	peers, ok := h.peers[topic]
	if !ok {
		peers = make(map[Subscriber]*peer)
		h.peers[topic] = peers
	}
	if old, ok := peers[client]; ok {
		close(old.quit)
	}
	p := &peer{sub: client, queue: make(chan []byte, peerQueueSize), quit: make(chan struct{})}
	peers[client] = p
	go h.pump(topic, p)
}

// fanOut queues payload for every peer of msg's topics without blocking.
// A peer whose queue is full is dropped.
func (h *Hub) fanOut(msg message) {
	for _, topic := range msg.topics {
		for client, p := range h.peers[topic] {
			select {
			case p.queue <- msg.payload:
			default:
				h.logger.Warn("event subscriber lagging, dropping", "topic", topic)
				h.remove(topic, client)
			}
		}
	}
}

func (h *Hub) remove(topic string, client Subscriber) {
	peers, ok := h.peers[topic]
	if !ok {
		return
	}
	if p, ok := peers[client]; ok {
		close(p.quit)
		delete(peers, client)
	}
	if len(peers) == 0 {
		delete(h.peers, topic)
	}
}

// pump delivers queued payloads to one subscriber and closes it on exit.
func (h *Hub) pump(topic string, p *peer) {
	defer p.sub.Close()
	for {
		select {
		case <-p.quit:
			return
		case payload := <-p.queue:
			if err := p.sub.Send(payload); err != nil {
				h.Unregister(topic, p.sub)
				return
			}
		}
	}
}

// Register adds a client to a topic stream.
func (h *Hub) Register(topic string, client Subscriber) {
	select {
	case h.register <- subscription{topic: topic, client: client}:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes a client.
func (h *Hub) Unregister(topic string, client Subscriber) {
	select {
	case h.unreg <- subscription{topic: topic, client: client}:
	case <-h.done:
	}
}

// Broadcast queues payload for every client of the given topics.
func (h *Hub) Broadcast(payload []byte, topics ...string) {
	select {
	case h.broadcast <- message{topics: topics, payload: payload}:
	case <-h.done:
	}
}

// Subscribers reports the number of registered clients across all topics.
func (h *Hub) Subscribers() int {
	select {
	case <-h.done:
		return 0
	default:
	}
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Publish encodes a member event and fans it out to the member's topic and AllMembers.
func (h *Hub) Publish(event domain.MemberEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("encode member event failed", "member_id", event.MemberID, "error", err)
		return
	}
	if event.MemberID == AllMembers {
		h.Broadcast(payload, AllMembers)
		return
	}
	h.Broadcast(payload, event.MemberID, AllMembers)
}

// Close stops the dispatch loop and closes every client.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}
