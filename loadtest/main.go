package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const password = "password123"

type tokenResponse struct {
	Token string `json:"token"`
}

type event struct {
	Event string `json:"event"`
}

type stats struct {
	sent     atomic.Int64
	received atomic.Int64
	failed   atomic.Int64
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base url")
	pairs := flag.Int("pairs", 50, "number of user pairs")
	msgs := flag.Int("msgs", 20, "messages sent by each user")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	log.Info("Starting load test", "users", *pairs*2, "messagesPerUser", *msgs)

	var (
		wg    sync.WaitGroup
		st    stats
		start = time.Now()
	)
	// User i_a talks to user i_b.
	for i := 0; i < *pairs; i++ {
		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			runPair(log, *baseURL, pairID, *msgs, &st)
		}(i)
	}
	wg.Wait()

	log.Info("Load test complete",
		"elapsed", time.Since(start).String(),
		"sent", st.sent.Load(), "received", st.received.Load(), "failed", st.failed.Load())
}

func runPair(log *slog.Logger, baseURL string, pairID, msgs int, st *stats) {
	userA := fmt.Sprintf("u_%d_a", pairID)
	userB := fmt.Sprintf("u_%d_b", pairID)

	tokenA := authenticate(log, baseURL, userA)
	tokenB := authenticate(log, baseURL, userB)
	if tokenA == "" || tokenB == "" {
		st.failed.Add(1)
		return
	}

	connA, err := dial(baseURL, tokenA)
	if err != nil {
		log.Warn("Websocket connect failed", "username", userA, "error", err)
		st.failed.Add(1)
		return
	}
	defer connA.Close()
	connB, err := dial(baseURL, tokenB)
	if err != nil {
		log.Warn("Websocket connect failed", "username", userB, "error", err)
		st.failed.Add(1)
		return
	}
	defer connB.Close()

	var wg sync.WaitGroup
	wg.Add(4)
	go listen(&wg, connA, msgs, st)
	go listen(&wg, connB, msgs, st)
	go spam(&wg, log, baseURL, userA, userB, msgs, st)
	go spam(&wg, log, baseURL, userB, userA, msgs, st)
	wg.Wait()
}

// authenticate registers username, or logs in when it already exists.
func authenticate(log *slog.Logger, baseURL, username string) string {
	resp, err := postJSON(baseURL+"/api/users/register", map[string]string{
		"username": username, "fullname": "Load " + username, "password": password,
	})
	if err == nil && resp.StatusCode == http.StatusCreated {
		return decodeToken(resp)
	}
	if resp != nil {
		resp.Body.Close()
	}

	resp, err = postJSON(baseURL+"/api/users/login", map[string]string{"username": username, "password": password})
	if err != nil {
		log.Warn("Login failed", "username", username, "error", err)
		return ""
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		log.Warn("Login refused", "username", username, "status", resp.StatusCode)
		return ""
	}
	return decodeToken(resp)
}

func decodeToken(resp *http.Response) string {
	defer resp.Body.Close()
	var data tokenResponse
	_ = json.NewDecoder(resp.Body).Decode(&data)
	return data.Token
}

func dial(baseURL, token string) (*websocket.Conn, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	return conn, err
}

// listen counts newMessage events until msgs arrived or the socket goes quiet.
func listen(wg *sync.WaitGroup, conn *websocket.Conn, msgs int, st *stats) {
	defer wg.Done()
	got := 0
	for got < msgs {
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		var ev event
		if err := conn.ReadJSON(&ev); err != nil {
			return
		}
		if ev.Event == "newMessage" {
			got++
			st.received.Add(1)
		}
	}
}

func spam(wg *sync.WaitGroup, log *slog.Logger, baseURL, sender, receiver string, msgs int, st *stats) {
	defer wg.Done()
	for i := 0; i < msgs; i++ {
		resp, err := postJSON(baseURL+"/api/conversations/messages", map[string]string{
			"senderUsername":   sender,
			"receiverUsername": receiver,
			"content":          fmt.Sprintf("LoadTest Msg %d from %s", i, sender),
		})
		if err != nil {
			log.Warn("Send failed", "username", sender, "error", err)
			st.failed.Add(1)
			return
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			st.failed.Add(1)
			continue
		}
		st.sent.Add(1)
		time.Sleep(10 * time.Millisecond)
	}
}

func postJSON(endpoint string, data any) (*http.Response, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return http.Post(endpoint, "application/json", bytes.NewBuffer(body))
}
