package http

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"quizhost-service/internal/domain"
)

type feedMessage struct {
	Type    string            `json:"type"`
	Payload domain.ScoreEntry `json:"payload"`
}

// ScoreFeed pushes saved score entries to connected admin dashboards.
// It implements the score listener hook on the attempt service; a slow
// subscriber drops messages rather than blocking the save path.
type ScoreFeed struct {
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[chan feedMessage]struct{}
}

func NewScoreFeed() *ScoreFeed {
	return &ScoreFeed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subscribers: make(map[chan feedMessage]struct{}),
	}
}

// ScoreSaved fans the entry out to every subscriber.
func (f *ScoreFeed) ScoreSaved(entry domain.ScoreEntry) {
	msg := feedMessage{Type: "scoreSaved", Payload: entry}
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

// SubscriberCount reports connected dashboards.
func (f *ScoreFeed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

func (f *ScoreFeed) subscribe() chan feedMessage {
	ch := make(chan feedMessage, 16)
	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

func (f *ScoreFeed) unsubscribe(ch chan feedMessage) {
	f.mu.Lock()
	delete(f.subscribers, ch)
	f.mu.Unlock()
}

// ServeWS upgrades the connection and streams saved scores until the
// client disconnects.
func (f *ScoreFeed) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("score feed: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates := f.subscribe()
	defer f.unsubscribe(updates)

	writerDone := make(chan struct{})
	readerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-updates:
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			case <-readerDone:
				return
			}
		}
	}()

	// Drain the connection so close frames and pings are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(readerDone)
	<-writerDone
}
