// Package main runs a demo client: it starts an async optimization, follows
// the progress stream over WebSocket, and fetches the stored result.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/gorilla/websocket"
)

type runEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	body := []byte(`{
		"workOrders": [
			{"id": "wo-1", "coordinates": {"lng": -118.25, "lat": 34.05}, "priority": "high", "estimatedDurationMinutes": 45, "timeWindowStart": "09:00", "timeWindowEnd": "12:00"},
			{"id": "wo-2", "coordinates": {"lng": -118.30, "lat": 34.10}, "priority": "medium", "estimatedDurationMinutes": 30},
			{"id": "wo-3", "coordinates": {"lng": -118.20, "lat": 34.00}, "priority": "emergency", "estimatedDurationMinutes": 60, "requiredSkills": ["hvac"]}
		],
		"technicians": [
			{"id": "tech-1", "homeBaseCoordinates": {"lng": -118.24, "lat": 34.06}, "skills": ["hvac", "electrical"], "maxDailyHours": 8, "maxDailyDistanceMiles": 200, "hourlyCost": 45},
			{"id": "tech-2", "homeBaseCoordinates": {"lng": -118.28, "lat": 34.08}, "skills": ["plumbing"], "maxDailyHours": 8, "maxDailyDistanceMiles": 200, "hourlyCost": 40}
		],
		"config": {"algorithm": "all", "maxTimeSeconds": 10}
	}`)

	resp, err := http.Post(base+"/v1/optimize?async=true", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatal(err)
	}
	var ack struct {
		RunID string `json:"runId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		log.Fatal(err)
	}
	_ = resp.Body.Close()
	if ack.RunID == "" {
		log.Fatal("no runId in response")
	}
	log.Printf("Run ID: %s", ack.RunID)

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/runs/" + ack.RunID + "/stream"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	for {
		var evt runEvent
		if err := c.ReadJSON(&evt); err != nil {
			log.Printf("read: %v", err)
			break
		}
		data, _ := json.Marshal(evt.Data)
		log.Printf("WS <- %s: %s", evt.Type, data)
		if evt.Type == "run.completed" || evt.Type == "run.failed" {
			break
		}
	}

	got, err := http.Get(base + "/v1/runs/" + ack.RunID)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = got.Body.Close() }()
	out, _ := io.ReadAll(got.Body)
	log.Printf("Result: %s", out)
}
