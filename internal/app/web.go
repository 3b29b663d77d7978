// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/accel_decoder/internal/analysis"
	"github.com/relabs-tech/accel_decoder/internal/config"
	"github.com/relabs-tech/accel_decoder/internal/imu"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// clientBuffer is the number of samples queued per websocket client before
// it is considered too slow and dropped.
const clientBuffer = 64

// feed holds every sample seen so far and fans new ones out to websocket
// clients.
type feed struct {
	mu      sync.RWMutex
	series  imu.Series
	clients map[chan imu.Sample]struct{}

	xMin, xMax uint64
}

func newFeed(xMin, xMax uint64) *feed {
	return &feed{
		clients: make(map[chan imu.Sample]struct{}),
		xMin:    xMin,
		xMax:    xMax,
	}
}

// add stores s and fans it out, unless its Time is not newer than the
// last stored sample. That drops the broker's retained copy and a producer
// replaying the log the feed was seeded from. It reports whether s was kept.
func (f *feed) add(s imu.Sample) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n := f.series.Len(); n > 0 && s.Time <= f.series.At(n-1).Time {
		return false
	}
	f.series.Append(s)
	for ch := range f.clients {
		select {
		case ch <- s:
		default:
			// slow client
			delete(f.clients, ch)
			close(ch)
		}
	}
	return true
}

func (f *feed) subscribe() chan imu.Sample {
	ch := make(chan imu.Sample, clientBuffer)
	f.mu.Lock()
	f.clients[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

func (f *feed) unsubscribe(ch chan imu.Sample) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[ch]; ok {
		delete(f.clients, ch)
		close(ch)
	}
}

func (f *feed) clientCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// columnResponse is the two-column table a plotter draws: time against
// one axis field.
type columnResponse struct {
	Axis  string  `json:"axis"`
	Min   uint64  `json:"min"`
	Max   uint64  `json:"max"`
	Time  []int64 `json:"time"`
	Value []int64 `json:"value"`
}

type statsResponse struct {
	Axis  string           `json:"axis"`
	Min   uint64           `json:"min"`
	Max   uint64           `json:"max"`
	Stats analysis.Summary `json:"stats"`
}

func (f *feed) handler() http.Handler {
	mux := http.NewServeMux()

	// JSON API endpoint: one axis over a time window
	mux.HandleFunc("GET /api/samples", func(w http.ResponseWriter, r *http.Request) {
		axis, lo, hi, ok := f.windowQuery(w, r)
		if !ok {
			return
		}

		f.mu.RLock()
		win := f.series.Window(lo, hi)
		f.mu.RUnlock()

		writeJSON(w, columnResponse{
			Axis:  axis.String(),
			Min:   lo,
			Max:   hi,
			Time:  win.Column(imu.ColTime),
			Value: win.Column(axis),
		})
	})

	// JSON API endpoint: statistics of one axis over a time window
	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		axis, lo, hi, ok := f.windowQuery(w, r)
		if !ok {
			return
		}

		f.mu.RLock()
		values := f.series.Window(lo, hi).Column(axis)
		f.mu.RUnlock()

		writeJSON(w, statsResponse{
			Axis:  axis.String(),
			Min:   lo,
			Max:   hi,
			Stats: analysis.Summarize(values),
		})
	})

	// JSON API endpoint: latest sample
	mux.HandleFunc("GET /api/latest", func(w http.ResponseWriter, r *http.Request) {
		f.mu.RLock()
		n := f.series.Len()
		var last imu.Sample
		if n > 0 {
			last = f.series.At(n - 1)
		}
		f.mu.RUnlock()

		if n == 0 {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, last)
	})

	mux.HandleFunc("/ws", f.serveWS)
	return mux
}

// serveWS pushes every new sample to the client as a JSON message.
func (f *feed) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := f.subscribe()
	defer f.unsubscribe(ch)

	// reader: only needed to notice the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("web: websocket read error: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case s, ok := <-ch:
			if !ok {
				log.Println("web: dropping slow websocket client")
				return
			}
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(s); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		}
	}
}

// windowQuery parses axis, min and max, falling back to x_l and the feed's
// default window. On a bad query it writes a 400 and returns ok=false.
func (f *feed) windowQuery(w http.ResponseWriter, r *http.Request) (axis imu.Column, lo, hi uint64, ok bool) {
	q := r.URL.Query()

	axis = imu.ColXL
	if v := q.Get("axis"); v != "" {
		c, err := imu.ParseColumn(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return 0, 0, 0, false
		}
		axis = c
	}
	lo, err := queryUint(q.Get("min"), f.xMin)
	if err != nil {
		http.Error(w, "invalid min: "+err.Error(), http.StatusBadRequest)
		return 0, 0, 0, false
	}
	hi, err = queryUint(q.Get("max"), f.xMax)
	if err != nil {
		http.Error(w, "invalid max: "+err.Error(), http.StatusBadRequest)
		return 0, 0, 0, false
	}
	if lo > hi {
		http.Error(w, "min must not exceed max", http.StatusBadRequest)
		return 0, 0, 0, false
	}
	return axis, lo, hi, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func queryUint(v string, def uint64) (uint64, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseUint(v, 10, 64)
}

// RunWeb serves decoded samples to plotting clients. It seeds the feed from
// cfg.InputPath when that file exists, then follows cfg.TopicSamples.
func RunWeb(ctx context.Context, cfg *config.Config) error {
	f := newFeed(cfg.PlotXMin, cfg.PlotXMax)

	// 1) Seed from the raw log, if any
	if _, err := os.Stat(cfg.InputPath); err == nil {
		ser, err := LoadSeries(cfg.InputPath)
		if err != nil {
			return fmt.Errorf("web: %w", err)
		}
		kept := 0
		for s := range ser.All() {
			if f.add(s) {
				kept++
			}
		}
		log.Printf("web: seeded %d of %d samples from %s", kept, ser.Len(), cfg.InputPath)
	}

	// 2) Connect to MQTT broker and follow the sample topic
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(disconnectQuiesceMS)
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicSamples, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s imu.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("web: MQTT payload unmarshal error: %v", err)
			return
		}
		f.add(s)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to MQTT topic %s", cfg.TopicSamples)

	// 3) HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           f.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("web: listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Println("web: shut down")
	return nil
}
