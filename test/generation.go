package test

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/puzzlemap/internal/doodad"
	"github.com/lawnchairsociety/puzzlemap/internal/server"
	"github.com/lawnchairsociety/puzzlemap/internal/testclient"
)

// =============================================================================
// Group 1: Connection & Generation
// =============================================================================

// TestBasicConnection tests that a client can open a websocket
func TestBasicConnection(serverAddr string) TestResult {
	const testName = "Basic Connection"

	name := uniqueName("conn")
	logAction(testName, fmt.Sprintf("Connecting as '%s'...", name))
	client, err := testclient.NewTestClient(name, serverAddr)
	if err != nil {
		return fail(testName, "Failed to connect: %v", err)
	}
	defer client.Close()

	return pass(testName, "Connected successfully")
}

// TestHealthEndpoint tests GET /health
func TestHealthEndpoint(serverAddr string) TestResult {
	const testName = "Health Endpoint"

	client, err := testclient.NewTestClient(uniqueName("health"), serverAddr)
	if err != nil {
		return fail(testName, "Connection failed: %v", err)
	}
	defer client.Close()

	var body map[string]any
	status, err := client.GetJSON("/health", &body)
	logResult(testName, status == 200, fmt.Sprintf("GET /health returned %d", status))
	if err != nil || status != 200 {
		return fail(testName, "GET /health = %d, %v", status, err)
	}
	if body["status"] != "ok" {
		return fail(testName, "Unexpected health body: %v", body)
	}

	return pass(testName, "Service healthy, uptime %v", body["uptime"])
}

// TestGenerateMap tests a full-size generation request
func TestGenerateMap(serverAddr string) TestResult {
	const testName = "Generate Map"

	client, err := testclient.NewTestClient(uniqueName("gen"), serverAddr)
	if err != nil {
		return fail(testName, "Connection failed: %v", err)
	}
	defer client.Close()

	logAction(testName, "Requesting 50x25 map at difficulty 2")
	resp, err := client.Generate(50, 25, 2, nil, false)
	if err != nil {
		return fail(testName, "Request failed: %v", err)
	}
	if resp.Type != server.ResponseMap {
		return fail(testName, "Expected map, got %s %s: %s", resp.Type, resp.Code, resp.Error)
	}

	m := resp.Map
	logResult(testName, m.Width == 50, fmt.Sprintf("Map is %dx%d", m.Width, m.Height))
	if m.Width != 50 || m.Height > 25 || m.Height < 1 {
		return fail(testName, "Unexpected dimensions %dx%d", m.Width, m.Height)
	}
	if len(m.Tiles) != m.Width*m.Height || len(m.Overlays) != len(m.Tiles) {
		return fail(testName, "Got %d tiles and %d overlays for %dx%d", len(m.Tiles), len(m.Overlays), m.Width, m.Height)
	}

	ids := make(map[int]bool)
	for _, t := range m.Tiles {
		ids[t] = true
	}
	if len(ids) > 2 {
		return fail(testName, "Terrain uses %d tile ids, want at most 2", len(ids))
	}
	doodads := 0
	for _, o := range m.Overlays {
		if o < doodad.None {
			return fail(testName, "Invalid overlay id %d", o)
		}
		if o != doodad.None {
			doodads++
		}
	}

	return pass(testName, "Generated %dx%d map (seed %d, %d doodad tiles)", m.Width, m.Height, resp.Seed, doodads)
}

// TestGenerateDefaults tests that an empty generate request uses the configured size
func TestGenerateDefaults(serverAddr string) TestResult {
	const testName = "Generate Defaults"

	client, err := testclient.NewTestClient(uniqueName("defaults"), serverAddr)
	if err != nil {
		return fail(testName, "Connection failed: %v", err)
	}
	defer client.Close()

	resp, err := client.Generate(0, 0, 0, nil, false)
	if err != nil {
		return fail(testName, "Request failed: %v", err)
	}
	if resp.Type != server.ResponseMap {
		return fail(testName, "Expected map, got %s %s: %s", resp.Type, resp.Code, resp.Error)
	}

	return pass(testName, "Default map is %dx%d, difficulty %d", resp.Map.Width, resp.Map.Height, resp.Map.Difficulty)
}

// TestSeedReproducible tests that the same seed yields the same map
func TestSeedReproducible(serverAddr string) TestResult {
	const testName = "Seed Reproducible"

	client, err := testclient.NewTestClient(uniqueName("seed"), serverAddr)
	if err != nil {
		return fail(testName, "Connection failed: %v", err)
	}
	defer client.Close()

	seed := int64(20240601)
	logAction(testName, fmt.Sprintf("Generating twice with seed %d", seed))
	first, err := client.Generate(30, 15, 3, &seed, false)
	if err != nil {
		return fail(testName, "First request failed: %v", err)
	}
	second, err := client.Generate(30, 15, 3, &seed, false)
	if err != nil {
		return fail(testName, "Second request failed: %v", err)
	}
	if first.Map == nil || second.Map == nil {
		return fail(testName, "Expected two maps, got %s and %s", first.Type, second.Type)
	}

	if len(first.Map.Tiles) != len(second.Map.Tiles) {
		return fail(testName, "Tile counts differ: %d vs %d", len(first.Map.Tiles), len(second.Map.Tiles))
	}
	for i := range first.Map.Tiles {
		if first.Map.Tiles[i] != second.Map.Tiles[i] || first.Map.Overlays[i] != second.Map.Overlays[i] {
			return fail(testName, "Maps differ at index %d", i)
		}
	}

	return pass(testName, "Seed %d produced identical %dx%d maps", seed, first.Map.Width, first.Map.Height)
}

// TestConcurrentClients tests several clients generating at once
func TestConcurrentClients(serverAddr string) TestResult {
	const testName = "Concurrent Clients"
	const numClients = 5

	var wg sync.WaitGroup
	var mu sync.Mutex
	maps, busy, limited := 0, 0, 0
	var errs []string

	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			client, err := testclient.NewTestClient(uniqueName("multi"), serverAddr)
			if err != nil {
				mu.Lock()
				// Refused handshakes are the per-IP connection limit at work
				if errors.Is(err, websocket.ErrBadHandshake) {
					limited++
				} else {
					errs = append(errs, err.Error())
				}
				mu.Unlock()
				return
			}
			defer client.Close()

			resp, err := client.Generate(40, 20, 4, nil, false)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				errs = append(errs, err.Error())
			case resp.Type == server.ResponseMap:
				maps++
			case resp.Code == server.CodeBusy:
				busy++
			default:
				errs = append(errs, resp.Code+": "+resp.Error)
			}
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		return fail(testName, "%d clients failed: %v", len(errs), errs)
	}
	if maps == 0 {
		return fail(testName, "No client received a map (%d busy)", busy)
	}

	return pass(testName, "%d maps generated, %d busy, %d connections refused", maps, busy, limited)
}

// =============================================================================
// Group 2: Rejected Requests
// =============================================================================

func expectError(serverAddr, testName string, req server.Request, code string) TestResult {
	client, err := testclient.NewTestClient(uniqueName("reject"), serverAddr)
	if err != nil {
		return fail(testName, "Connection failed: %v", err)
	}
	defer client.Close()

	resp, err := client.Request(req, 5*time.Second)
	if err != nil {
		return fail(testName, "Request failed: %v", err)
	}
	logResult(testName, resp.Code == code, fmt.Sprintf("Got %s %s", resp.Type, resp.Code))
	if resp.Type != server.ResponseError || resp.Code != code {
		return fail(testName, "Expected %s error, got %s %s", code, resp.Type, resp.Code)
	}

	return pass(testName, "Rejected with %s: %s", code, resp.Error)
}

// TestInvalidSize tests a width that is not a whole number of pieces
func TestInvalidSize(serverAddr string) TestResult {
	return expectError(serverAddr, "Invalid Size",
		server.Request{Type: server.RequestGenerate, Width: 12, Height: 10, Difficulty: 1},
		server.CodeInvalidMap)
}

// TestInvalidDifficulty tests a difficulty outside 1..4
func TestInvalidDifficulty(serverAddr string) TestResult {
	return expectError(serverAddr, "Invalid Difficulty",
		server.Request{Type: server.RequestGenerate, Width: 20, Height: 10, Difficulty: 7},
		server.CodeInvalidMap)
}

// TestUnknownRequest tests an unsupported request type
func TestUnknownRequest(serverAddr string) TestResult {
	return expectError(serverAddr, "Unknown Request",
		server.Request{Type: "teleport"},
		server.CodeBadRequest)
}

// TestMalformedRequest tests that bad JSON is answered and the connection survives
func TestMalformedRequest(serverAddr string) TestResult {
	const testName = "Malformed Request"

	client, err := testclient.NewTestClient(uniqueName("malformed"), serverAddr)
	if err != nil {
		return fail(testName, "Connection failed: %v", err)
	}
	defer client.Close()

	logAction(testName, "Sending invalid JSON")
	if err := client.SendRaw("{this is not json"); err != nil {
		return fail(testName, "Send failed: %v", err)
	}
	if _, ok := client.WaitForCode(server.CodeBadRequest, 2*time.Second); !ok {
		return fail(testName, "No bad_request response to malformed JSON")
	}

	resp, err := client.Generate(20, 10, 1, nil, false)
	if err != nil || resp.Type != server.ResponseMap {
		return fail(testName, "Connection unusable after malformed request: %v %s", err, resp.Code)
	}

	return pass(testName, "Malformed request rejected, connection still usable")
}
