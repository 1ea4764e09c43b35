package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

var baseURL = "http://localhost:8080"

func main() {
	if v := os.Getenv("E2E_BASE_URL"); v != "" {
		baseURL = v
	}
	// Wait for server to start
	time.Sleep(2 * time.Second)

	// 1. Health Check
	call("GET", "/health", nil, 200)

	// 2. Record Acquisition
	holdingID := call("POST", "/holdings", map[string]string{
		"symbol":     "AAPL",
		"quantity":   "10",
		"cost_basis": "150",
		"platform":   "e2e-test",
	}, 201)["holding_id"].(string)
	fmt.Printf("Created Holding ID: %s\n", holdingID)

	// 3. Invalid acquisition is rejected
	call("POST", "/holdings", map[string]string{"symbol": "TSLA", "quantity": "0", "cost_basis": "800"}, 400)

	// 4. Watch for a target price
	alertID := call("POST", "/alerts", map[string]string{
		"holding_id":   holdingID,
		"target_price": "180",
	}, 201)["alert_id"].(string)

	// 5. Push a quote that reaches the target
	res := call("POST", "/holdings/"+holdingID+"/quote", map[string]string{"price": "180"}, 200)
	if fired, _ := res["fired"].([]interface{}); len(fired) != 1 {
		log.Fatalf("Expected one fired alert, got %v", res["fired"])
	}

	// 6. A zero quote is rejected
	call("POST", "/holdings/"+holdingID+"/quote", map[string]string{"price": "0"}, 400)

	// 7. Summary reflects the quote
	sum := call("GET", "/summary", nil, 200)
	if sum["overall_return"] != "20.00%" {
		log.Fatalf("Expected 20.00%% return, got %v", sum["overall_return"])
	}

	// 8. Alert stays fired
	call("POST", "/alerts/"+alertID+"/evaluate", nil, 200)
	call("GET", "/alerts", nil, 200)

	// 9. Provider refresh
	call("POST", "/refresh", nil, 200)
	call("GET", "/holdings/"+holdingID, nil, 200)

	fmt.Println("ALL TESTS PASSED")
}

func call(method, path string, body interface{}, expectedStatus int) map[string]interface{} {
	fmt.Printf("Testing %s %s...\n", method, path)
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, baseURL+path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != expectedStatus {
		log.Fatalf("Expected status %d, got %d. Body: %s", expectedStatus, resp.StatusCode, string(respBody))
	}
	fmt.Printf("Response: %s\n", string(respBody))

	var res map[string]interface{}
	_ = json.Unmarshal(respBody, &res)
	return res
}
