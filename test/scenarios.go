// Package test holds smoke scenarios run against a live map service by cmd/testrunner.
package test

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// clientCounter numbers test clients within a single run
var clientCounter uint64

// uniqueName returns base with a run-unique numeric suffix. Test client names
// prefix request refs, so two clients never share a ref.
func uniqueName(base string) string {
	return fmt.Sprintf("%s%d", base, atomic.AddUint64(&clientCounter, 1))
}

// Verbose controls whether detailed logging is shown during tests
var Verbose = false

// TestResult represents the result of a test
type TestResult struct {
	Name     string
	Passed   bool
	Message  string
	Duration time.Duration
}

func pass(name, format string, args ...any) TestResult {
	return TestResult{Name: name, Passed: true, Message: fmt.Sprintf(format, args...)}
}

func fail(name, format string, args ...any) TestResult {
	return TestResult{Name: name, Passed: false, Message: fmt.Sprintf(format, args...)}
}

// logAction logs a test action when verbose mode is enabled
func logAction(testName, action string) {
	if Verbose {
		fmt.Printf("  [%s] %s\n", testName, action)
	}
}

// logResult logs an expected vs actual result when verbose mode is enabled
func logResult(testName string, success bool, detail string) {
	if Verbose {
		status := "OK"
		if !success {
			status = "FAIL"
		}
		fmt.Printf("  [%s] %s: %s\n", testName, status, detail)
	}
}

// testEntry holds a test function and its name
type testEntry struct {
	Name string
	Func func(string) TestResult
}

// getAllTests returns all test entries in order
func getAllTests() []testEntry {
	return []testEntry{
		// Group 1: Connection & Generation
		{"Basic Connection", TestBasicConnection},
		{"Health Endpoint", TestHealthEndpoint},
		{"Generate Map", TestGenerateMap},
		{"Generate Defaults", TestGenerateDefaults},
		{"Seed Reproducible", TestSeedReproducible},
		{"Concurrent Clients", TestConcurrentClients},

		// Group 2: Rejected Requests
		{"Invalid Size", TestInvalidSize},
		{"Invalid Difficulty", TestInvalidDifficulty},
		{"Unknown Request", TestUnknownRequest},
		{"Malformed Request", TestMalformedRequest},

		// Group 3: Storage
		{"Save And Load", TestSaveAndLoad},
		{"Save Deduplicates", TestSaveDeduplicates},
		{"Load Missing", TestLoadMissing},
		{"List Maps", TestListMaps},
	}
}

// run executes one scenario and records how long it took
func (t testEntry) run(serverAddr string) TestResult {
	start := time.Now()
	result := t.Func(serverAddr)
	result.Duration = time.Since(start)
	return result
}

// RunAllTests runs every scenario in order
func RunAllTests(serverAddr string) []TestResult {
	return RunFilteredTests(serverAddr, "")
}

// GetTestNames returns the names of all available tests
func GetTestNames() []string {
	tests := getAllTests()
	names := make([]string, len(tests))
	for i, t := range tests {
		names[i] = t.Name
	}
	return names
}

// RunFilteredTests runs only tests whose names contain the filter string (case-insensitive)
func RunFilteredTests(serverAddr string, filter string) []TestResult {
	var results []TestResult
	filter = strings.ToLower(filter)
	for _, t := range getAllTests() {
		if strings.Contains(strings.ToLower(t.Name), filter) {
			results = append(results, t.run(serverAddr))
		}
	}
	return results
}

// PrintResults prints one line per scenario, failures last, then a summary
func PrintResults(results []TestResult) {
	var failed []TestResult
	var elapsed time.Duration

	fmt.Println("Map Service Smoke Test Results")
	fmt.Println(strings.Repeat("=", 60))
	for _, r := range results {
		elapsed += r.Duration
		if !r.Passed {
			failed = append(failed, r)
			continue
		}
		fmt.Printf("[PASS] %-20s %6s  %s\n", r.Name, r.Duration.Round(time.Millisecond), r.Message)
	}
	for _, r := range failed {
		fmt.Printf("[FAIL] %-20s %6s  %s\n", r.Name, r.Duration.Round(time.Millisecond), r.Message)
	}

	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Total: %d | Passed: %d | Failed: %d | Time: %s\n",
		len(results), len(results)-len(failed), len(failed), elapsed.Round(time.Millisecond))
}
