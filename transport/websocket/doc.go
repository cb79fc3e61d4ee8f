// Package websocket provides the live run feed of the rover simulator.
//
// Architecture:
//
// A central Hub owns every connection. Each client subscribes to one topic:
// a scenario ID, or "*" for every run. The hub goroutine alone touches the
// subscription map; broadcasts are queued on a buffered channel and dropped
// when the queue is full, so publishers never block.
//
// Message Protocol:
//
// Outgoing messages are JSON documents, one per frame:
//
//	{"topic": "crowded", "event": "run_completed", "run": {...}}
//
// Runs simulated from raw lines have an empty topic and only reach "*"
// subscribers. Incoming client messages are ignored.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("scenario"))
//	})
//
//	hub.BroadcastRun(run)
package websocket
