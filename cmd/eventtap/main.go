// Package main provides a probe that mints a ws key over the signed API and
// tails the live event stream.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parley/internal/auth"

	"github.com/gorilla/websocket"
)

func main() {
	host := flag.String("host", "localhost:8081", "API server host")
	secret := flag.String("secret", "sso-secret-change-in-production", "Shared signing secret")
	conversation := flag.Uint("conversation", 1, "Conversation ID to subscribe to")
	flag.Parse()

	log.Printf("🔑 Requesting ws key for conversation %d", *conversation)
	key, err := mintWsKey(*host, *secret, uint(*conversation))
	if err != nil {
		log.Fatalf("❌ Key request failed: %v", err)
	}

	wsURL := url.URL{
		Scheme:   "ws",
		Host:     *host,
		Path:     fmt.Sprintf("/ws/events/%d", *conversation),
		RawQuery: "key=" + url.QueryEscape(key),
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		log.Fatalf("❌ Connection failed: %v", err)
	}
	defer conn.Close()
	log.Printf("✅ Connected, tailing events (Ctrl-C to stop)")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				log.Printf("read error: %v", err)
				return
			}
			log.Printf("event: %s", payload)
		}
	}()

	select {
	case <-interrupt:
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		<-done
	case <-done:
	}
}

// mintWsKey calls the signed key endpoint the way a service client would.
func mintWsKey(host, secret string, conversationID uint) (string, error) {
	params := map[string]string{
		"conversation_id": fmt.Sprintf("%d", conversationID),
	}
	signed := auth.SignRequest(secret, params)

	query := url.Values{}
	for _, field := range []string{"ts", "nonce", "uid_hash", "sig"} {
		query.Set(field, signed[field])
	}

	body, err := json.Marshal(map[string]interface{}{"conversation_id": conversationID})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("http://%s/api/keys/ws/generate?%s", host, query.Encode())
	resp, err := http.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var envelope struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			Key string `json:"key"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", err
	}
	if envelope.Code != 0 {
		return "", fmt.Errorf("server rejected request: %d %s", envelope.Code, envelope.Message)
	}
	return envelope.Data.Key, nil
}
