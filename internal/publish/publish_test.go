package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/careflow/pkg/monitor"
)

type fakeSetter struct {
	key   string
	value []byte
	ttl   time.Duration
	err   error
}

func (f *fakeSetter) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.key = key
	f.value, _ = value.([]byte)
	f.ttl = expiration
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	return redis.NewStatusResult("OK", nil)
}

func TestPublish(t *testing.T) {
	mon := monitor.New(monitor.DefaultConfig())
	mon.RecordCall("GET", "/caregivers", 200, 50*time.Millisecond)
	mon.RecordError(monitor.TypeNetworkError, errors.New("connection refused"))

	rdb := &fakeSetter{}
	p := New(rdb, "care:dash", time.Minute)
	if err := p.Publish(context.Background(), mon.Dashboard()); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	if rdb.key != "care:dash" {
		t.Errorf("key = %q", rdb.key)
	}
	if rdb.ttl != time.Minute {
		t.Errorf("ttl = %v", rdb.ttl)
	}

	var got monitor.Dashboard
	if err := json.Unmarshal(rdb.value, &got); err != nil {
		t.Fatalf("stored value is not JSON: %v", err)
	}
	if got.API.TotalRequests != 1 {
		t.Errorf("TotalRequests = %d, want 1", got.API.TotalRequests)
	}
	if got.Errors.Total != 1 {
		t.Errorf("Errors.Total = %d, want 1", got.Errors.Total)
	}
}

func TestPublish_RedisError(t *testing.T) {
	rdb := &fakeSetter{err: errors.New("READONLY")}
	p := New(rdb, "", time.Minute)

	err := p.Publish(context.Background(), monitor.Dashboard{})
	if err == nil {
		t.Fatal("Publish() should fail when SET fails")
	}
	if !errors.Is(err, rdb.err) {
		t.Errorf("error should wrap the redis error: %v", err)
	}
	if p.Key() != DefaultKey {
		t.Errorf("Key() = %q, want %q", p.Key(), DefaultKey)
	}
}

func TestConnect(t *testing.T) {
	tests := []struct {
		addr    string
		want    string
		wantErr bool
	}{
		{"localhost:6379", "localhost:6379", false},
		{"redis://cache.internal:6380/2", "cache.internal:6380", false},
		{"redis://%zz", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			rdb, err := Connect(tt.addr)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Connect() should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("Connect() error: %v", err)
			}
			defer rdb.Close()
			if rdb.Options().Addr != tt.want {
				t.Errorf("Addr = %q, want %q", rdb.Options().Addr, tt.want)
			}
		})
	}
}
