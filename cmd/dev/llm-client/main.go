package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

const (
	uri   = "http://localhost:11434"
	model = "llama3"
)

var defaultClient = &http.Client{
	Transport: &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 15 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	},
}

func main() {
	ctx := context.Background()

	base, err := url.ParseRequestURI(uri)
	if err != nil {
		log.Fatal(err)
	}
	client := api.NewClient(base, defaultClient)

	if err := chat(ctx, client, model); err != nil {
		log.Fatal(err)
	}
}

// sends a small conversation to the model and prints the streamed reply
func chat(ctx context.Context, client *api.Client, model string) error {
	req := &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{Role: "system", Content: "You are a helpful career assistant for a job board."},
			{Role: "user", Content: "How should I prepare for a backend engineering interview?"},
		},
	}

	respFunc := func(resp api.ChatResponse) error {
		fmt.Print(resp.Message.Content)
		return nil
	}

	return client.Chat(ctx, req, respFunc)
}
