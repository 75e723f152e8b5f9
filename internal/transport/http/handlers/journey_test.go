package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"bhatta/internal/app/server"
	"bhatta/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		DatabaseURL:       dbURL,
		JWTSecret:         "test-secret",
		TokenTTL:          time.Hour,
		FrontendDir:       "frontend/dist",
		Environment:       "test",
		SeedAdminEmail:    "admin@test.local",
		SeedAdminPassword: "ChangeMe123!",
		SeedOpeningStock:  10000,
		CORSOrigins:       []string{"*"},
		RunMigrations:     true,
		RunSeed:           true,
		MaxBodyBytes:      1048576,
	}
}

func TestSettlementAndSalesJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	client := ts.Client()
	token := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	// Worker, attendance, advance, settlement.
	workerID := createWorker(t, client, ts.URL, token)

	weekStart := "2026-02-02"
	days := []string{"2026-02-02", "2026-02-03", "2026-02-04"}
	for _, day := range days {
		postJSON(t, client, ts.URL+"/api/v1/attendance", token, map[string]any{
			"workerId":  workerID,
			"date":      day,
			"isPresent": true,
		})
	}
	// Marking the same day again must overwrite, not duplicate.
	postJSON(t, client, ts.URL+"/api/v1/attendance", token, map[string]any{
		"workerId":  workerID,
		"date":      days[0],
		"isPresent": true,
	})

	postJSON(t, client, ts.URL+"/api/v1/payroll/advances", token, map[string]any{
		"workerId": workerID,
		"amount":   "500",
		"reason":   "festival",
	})

	settlement := postJSON(t, client, ts.URL+"/api/v1/payroll/settlements", token, map[string]any{
		"workerId":   workerID,
		"weekStart":  weekStart,
		"weekEnd":    "2026-02-08",
		"paidAmount": "400",
	})
	var payment map[string]any
	if err := json.Unmarshal(settlement.Data, &payment); err != nil {
		t.Fatalf("failed to decode settlement: %v", err)
	}
	// 3 days at 450 = 1350 gross; 400 paid, 500 advance consumed, 450 owed.
	if got := payment["grossAmount"]; fmt.Sprint(got) != "1350" {
		t.Fatalf("gross = %v, want 1350", got)
	}
	if got := payment["balanceAmount"]; fmt.Sprint(got) != "450" {
		t.Fatalf("balance = %v, want 450", got)
	}
	if got := payment["daysWorked"]; fmt.Sprint(got) != "3" {
		t.Fatalf("days worked = %v, want 3 (attendance re-mark must not duplicate)", got)
	}

	var workerBalance string
	if err := app.DB.QueryRow(context.Background(), "SELECT balance::text FROM workers WHERE id = $1", workerID).Scan(&workerBalance); err != nil {
		t.Fatalf("failed to load worker balance: %v", err)
	}
	// -500 from the advance, +450 from the settlement.
	if workerBalance != "-50.00" {
		t.Fatalf("worker balance = %s, want -50.00", workerBalance)
	}

	// Customer, order, delivery, inventory deduction.
	customerID := createCustomer(t, client, ts.URL, token)

	var stockBefore int
	if err := app.DB.QueryRow(context.Background(), "SELECT current_stock FROM inventory LIMIT 1").Scan(&stockBefore); err != nil {
		t.Fatalf("failed to load stock: %v", err)
	}

	order := postJSON(t, client, ts.URL+"/api/v1/sales-orders", token, map[string]any{
		"customerId":   customerID,
		"quantity":     1000,
		"ratePerBrick": "8.50",
		"vehicleType":  "truck",
		"driverName":   "Hired Driver",
	})
	var orderPayload map[string]any
	if err := json.Unmarshal(order.Data, &orderPayload); err != nil {
		t.Fatalf("failed to decode order: %v", err)
	}
	orderID, _ := orderPayload["id"].(string)
	if orderID == "" {
		t.Fatal("expected order id")
	}
	if got := orderPayload["totalAmount"]; fmt.Sprint(got) != "8500" {
		t.Fatalf("total = %v, want 8500", got)
	}

	postJSON(t, client, ts.URL+"/api/v1/sales-orders/"+orderID+"/status", token, map[string]any{"status": "delivered"})

	var stockAfter int
	if err := app.DB.QueryRow(context.Background(), "SELECT current_stock FROM inventory LIMIT 1").Scan(&stockAfter); err != nil {
		t.Fatalf("failed to load stock: %v", err)
	}
	if stockAfter != stockBefore-1000 {
		t.Fatalf("stock = %d, want %d", stockAfter, stockBefore-1000)
	}

	// Delivered orders cannot be delivered or cancelled again.
	postJSONStatus(t, client, ts.URL+"/api/v1/sales-orders/"+orderID+"/status", token,
		map[string]any{"status": "delivered"}, http.StatusConflict)
	postJSONStatus(t, client, ts.URL+"/api/v1/sales-orders/"+orderID+"/status", token,
		map[string]any{"status": "cancelled"}, http.StatusConflict)

	postJSON(t, client, ts.URL+"/api/v1/sales-orders/"+orderID+"/status", token, map[string]any{"status": "invoiced"})
}

func TestSettlementRejectsOverAdvance(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	client := ts.Client()
	token := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	workerID := createWorker(t, client, ts.URL, token)

	postJSON(t, client, ts.URL+"/api/v1/attendance", token, map[string]any{
		"workerId":  workerID,
		"date":      "2026-03-02",
		"isPresent": true,
	})

	postJSONStatus(t, client, ts.URL+"/api/v1/payroll/settlements", token, map[string]any{
		"workerId":           workerID,
		"weekStart":          "2026-03-02",
		"weekEnd":            "2026-03-08",
		"paidAmount":         "0",
		"advanceApplyAmount": "100",
	}, http.StatusBadRequest)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	app, err := server.New(context.Background(), testConfig(dbURL))
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/workers", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

func createWorker(t *testing.T, client *http.Client, baseURL, token string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/workers", token, map[string]any{
		"name":      fmt.Sprintf("Journey Worker %d", time.Now().UnixNano()),
		"type":      "rojdaar",
		"dailyWage": "450",
		"joinDate":  "2026-01-01",
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode worker response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatal("expected worker id")
	}
	return id
}

func createCustomer(t *testing.T, client *http.Client, baseURL, token string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/customers", token, map[string]any{
		"name":         fmt.Sprintf("Journey Customer %d", time.Now().UnixNano()),
		"ratePerBrick": "8.50",
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode customer response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatal("expected customer id")
	}
	return id
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(http.MethodPost, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	return env
}

func postJSONStatus(t *testing.T, client *http.Client, url, token string, body any, want int) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(raw))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, string(respBody))
	}
}
