package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestLogger_WritesFieldsAndComponent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	logger := New("orders-service")
	logger.Info("Order placed", Fields{"order_id": 7, "items": 2})

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("Failed to parse log line: %v (%s)", err, buf.String())
	}

	if line["msg"] != "Order placed" {
		t.Errorf("Expected msg 'Order placed', got %v", line["msg"])
	}
	if line["component"] != "orders-service" {
		t.Errorf("Expected component 'orders-service', got %v", line["component"])
	}
	if line["order_id"] != float64(7) {
		t.Errorf("Expected order_id 7, got %v", line["order_id"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	defer SetLevel("info")

	logger := New("cache")

	SetLevel("info")
	logger.Debug("Cache miss")
	if buf.Len() != 0 {
		t.Errorf("Expected debug line to be dropped at info level, got %s", buf.String())
	}

	SetLevel("debug")
	logger.Debug("Cache miss")
	if !strings.Contains(buf.String(), "Cache miss") {
		t.Errorf("Expected debug line at debug level, got %s", buf.String())
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	New("orders-service").With("cache").Warn("Cache unavailable")

	if !strings.Contains(buf.String(), `"component":"orders-service.cache"`) {
		t.Errorf("Expected nested component name, got %s", buf.String())
	}
}
