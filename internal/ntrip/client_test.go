package ntrip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://example.com", "user", "pass")

	if client.URL != "http://example.com" {
		t.Errorf("Expected URL http://example.com, got %s", client.URL)
	}
	if client.Username != "user" {
		t.Errorf("Expected username user, got %s", client.Username)
	}
	if client.httpClient == nil {
		t.Error("httpClient should be initialized")
	}
}

func TestGetSourcetable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("Expected GET request, got %s", r.Method)
		}
		username, password, ok := r.BasicAuth()
		if !ok || username != "user" || password != "pass" {
			t.Error("Expected basic authentication with user/pass")
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("SOURCETABLE 200 OK\r\n" +
			"STR;MOUNT1;Server 1;RTCM 3;1005,1077,1087,1097,1127;2;GPS+GLO+GAL+BDS;SNIP;CHN;31.22;121.46;1;1;SNIP;none;B;N;0;\r\n" +
			"STR;MOUNT2;Server 2;RTCM 3;1005,1077,1087,1097,1127;2;GPS+GLO+GAL+BDS;SNIP;CHN;31.22;121.46;1;1;SNIP;none;B;N;0;\r\n" +
			"ENDSOURCETABLE\r\n"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "pass")

	sourcetable, err := client.GetSourcetable(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(sourcetable.Mounts) != 2 {
		t.Fatalf("Expected 2 mounts, got %d", len(sourcetable.Mounts))
	}
	if sourcetable.Mounts[0].Name != "MOUNT1" {
		t.Errorf("Expected mount name MOUNT1, got %s", sourcetable.Mounts[0].Name)
	}
	if sourcetable.Mounts[1].Format != "RTCM 3" {
		t.Errorf("Expected format 'RTCM 3', got %s", sourcetable.Mounts[1].Format)
	}
}

func TestGetSourcetableError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "pass")

	_, err := client.GetSourcetable(context.Background())
	if err == nil {
		t.Error("Expected error, got nil")
	}
}
