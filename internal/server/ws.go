package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ayusman/marionette/internal/log"
	"github.com/ayusman/marionette/internal/rig"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type viewer struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (v *viewer) send(msg []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return v.conn.WriteMessage(websocket.TextMessage, msg)
}

// PoseFeed broadcasts rig poses to websocket viewers. A pose is only sent
// when it differs in tick from the last one sent.
type PoseFeed struct {
	source   func() rig.Pose
	interval time.Duration

	mu      sync.RWMutex
	viewers map[string]*viewer

	done      chan struct{}
	closeOnce sync.Once
}

// NewPoseFeed starts broadcasting source() every interval.
func NewPoseFeed(source func() rig.Pose, interval time.Duration) *PoseFeed {
	f := &PoseFeed{
		source:   source,
		interval: interval,
		viewers:  make(map[string]*viewer),
		done:     make(chan struct{}),
	}
	go f.broadcast()
	return f
}

// ServeHTTP handles WebSocket upgrade requests.
func (f *PoseFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade", "error", err)
		return
	}

	v := &viewer{id: uuid.NewString(), conn: conn}
	f.mu.Lock()
	f.viewers[v.id] = v
	f.mu.Unlock()
	log.Info("viewer connected", "viewer", v.id, "remote", r.RemoteAddr)

	defer func() {
		f.mu.Lock()
		delete(f.viewers, v.id)
		f.mu.Unlock()
		conn.Close()
		log.Info("viewer disconnected", "viewer", v.id)
	}()

	// Send the current pose right away so a new viewer is not blank.
	if msg, err := json.Marshal(f.source()); err == nil {
		if err := v.send(msg); err != nil {
			return
		}
	}

	// Reads only detect the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Viewers returns the number of connected viewers.
func (f *PoseFeed) Viewers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.viewers)
}

// Close stops broadcasting and disconnects every viewer.
func (f *PoseFeed) Close() {
	f.closeOnce.Do(func() {
		close(f.done)
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, v := range f.viewers {
			v.mu.Lock()
			v.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			v.mu.Unlock()
			v.conn.Close()
		}
	})
}

func (f *PoseFeed) broadcast() {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	var (
		lastSeq uint64
		sent    bool
	)
	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
		}

		f.mu.RLock()
		viewers := make([]*viewer, 0, len(f.viewers))
		for _, v := range f.viewers {
			viewers = append(viewers, v)
		}
		f.mu.RUnlock()
		if len(viewers) == 0 {
			continue
		}

		pose := f.source()
		if sent && pose.Seq == lastSeq {
			continue
		}
		lastSeq, sent = pose.Seq, true

		msg, err := json.Marshal(pose)
		if err != nil {
			log.Error("encode pose", "error", err)
			continue
		}
		for _, v := range viewers {
			if err := v.send(msg); err != nil {
				log.Debug("pose write", "viewer", v.id, "error", err)
				v.conn.Close()
			}
		}
	}
}
