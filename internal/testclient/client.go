package testclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/puzzlemap/internal/server"
)

// TestClient is a websocket connection to a running map service
type TestClient struct {
	Name      string
	address   string
	conn      *websocket.Conn
	responses []server.Response
	mu        sync.Mutex
	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
	refs      uint64
}

// NewTestClient connects to the service at address (host:port)
func NewTestClient(name string, address string) (*TestClient, error) {
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+address+"/ws", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	client := &TestClient{
		Name:      name,
		address:   address,
		conn:      conn,
		responses: make([]server.Response, 0),
		done:      make(chan struct{}),
	}

	go client.readMessages()

	return client, nil
}

// readMessages continuously reads responses from the service
func (c *TestClient) readMessages() {
	for {
		select {
		case <-c.done:
			return
		default:
			var resp server.Response
			if err := c.conn.ReadJSON(&resp); err != nil {
				return
			}
			c.mu.Lock()
			c.responses = append(c.responses, resp)
			c.mu.Unlock()
		}
	}
}

// nextRef returns a ref unique to this client
func (c *TestClient) nextRef() string {
	return fmt.Sprintf("%s-%d", c.Name, atomic.AddUint64(&c.refs, 1))
}

// Send sends a request as-is
func (c *TestClient) Send(req server.Request) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(req)
}

// SendRaw sends a raw text message
func (c *TestClient) SendRaw(message string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, []byte(message))
}

// Request sends req with a fresh ref and waits for the matching response
func (c *TestClient) Request(req server.Request, timeout time.Duration) (server.Response, error) {
	req.Ref = c.nextRef()
	if err := c.Send(req); err != nil {
		return server.Response{}, err
	}
	resp, ok := c.WaitForRef(req.Ref, timeout)
	if !ok {
		return server.Response{}, fmt.Errorf("no response to %s request within %s", req.Type, timeout)
	}
	return resp, nil
}

// Generate asks for a map. A nil seed lets the service choose one.
func (c *TestClient) Generate(width, height, difficulty int, seed *int64, save bool) (server.Response, error) {
	return c.Request(server.Request{
		Type:       server.RequestGenerate,
		Width:      width,
		Height:     height,
		Difficulty: difficulty,
		Seed:       seed,
		Save:       save,
	}, 10*time.Second)
}

// Load asks for a stored map
func (c *TestClient) Load(id string) (server.Response, error) {
	return c.Request(server.Request{Type: server.RequestLoad, ID: id}, 5*time.Second)
}

// GetResponses returns all responses received so far
func (c *TestClient) GetResponses() []server.Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]server.Response, len(c.responses))
	copy(result, c.responses)
	return result
}

// ClearResponses clears the response buffer
func (c *TestClient) ClearResponses() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = make([]server.Response, 0)
}

// WaitForRef waits for the response carrying ref (with timeout)
func (c *TestClient) WaitForRef(ref string, timeout time.Duration) (server.Response, bool) {
	return c.waitFor(func(r server.Response) bool { return r.Ref == ref }, timeout)
}

// WaitForCode waits for an error response with the given code (with timeout)
func (c *TestClient) WaitForCode(code string, timeout time.Duration) (server.Response, bool) {
	return c.waitFor(func(r server.Response) bool { return r.Code == code }, timeout)
}

func (c *TestClient) waitFor(match func(server.Response) bool, timeout time.Duration) (server.Response, bool) {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		for _, resp := range c.GetResponses() {
			if match(resp) {
				return resp, true
			}
		}
		time.Sleep(20 * time.Millisecond)
	}

	return server.Response{}, false
}

// GetJSON fetches an HTTP path from the same service and decodes the body into v.
// It returns the status code; v is left untouched for non-200 responses.
func (c *TestClient) GetJSON(path string, v any) (int, error) {
	httpClient := &http.Client{Timeout: 5 * time.Second}
	resp, err := httpClient.Get("http://" + c.address + path)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

// Close closes the client connection. Safe to call more than once.
func (c *TestClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// PrintResponses prints all responses (for debugging)
func (c *TestClient) PrintResponses() {
	fmt.Printf("\n=== Responses for %s ===\n", c.Name)
	for i, resp := range c.GetResponses() {
		summary := resp.Type
		if resp.Code != "" {
			summary += " " + resp.Code + ": " + resp.Error
		} else if resp.Map != nil {
			summary += fmt.Sprintf(" %dx%d seed=%d", resp.Map.Width, resp.Map.Height, resp.Seed)
		}
		fmt.Printf("[%d] %s %s\n", i, resp.Ref, strings.TrimSpace(summary))
	}
	fmt.Println("======================")
}
