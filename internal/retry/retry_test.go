package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", WithStatus(errors.New("slow down"), http.StatusTooManyRequests), true},
		{"server error", WithStatus(errors.New("boom"), http.StatusBadGateway), true},
		{"bad request", WithStatus(errors.New("bad key"), http.StatusBadRequest), false},
		{"grpc exhausted", status.Error(codes.ResourceExhausted, "quota"), true},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), true},
		{"grpc invalid", status.Error(codes.InvalidArgument, "bad vector"), false},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("json decode failed"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDelay_Capped(t *testing.T) {
	p := Policy{BaseDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second}
	if p.Delay(0) != 200*time.Millisecond {
		t.Errorf("attempt 0 got %v", p.Delay(0))
	}
	if p.Delay(1) != 400*time.Millisecond {
		t.Errorf("attempt 1 got %v", p.Delay(1))
	}
	if p.Delay(10) != 5*time.Second {
		t.Errorf("attempt 10 should be capped, got %v", p.Delay(10))
	}
	if p.Delay(64) != 5*time.Second {
		t.Errorf("huge attempt should be capped, got %v", p.Delay(64))
	}
}

func TestDo(t *testing.T) {
	transient := WithStatus(errors.New("busy"), http.StatusServiceUnavailable)
	permanent := errors.New("invalid schema")

	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantErr   bool
	}{
		{"first try", nil, 1, false},
		{"recovers", []error{transient, transient}, 3, false},
		{"gives up", []error{transient, transient, transient, transient}, 3, true},
		{"permanent stops", []error{permanent}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got, err := Do(context.Background(), fastPolicy(), nil, "test", func(ctx context.Context) (int, error) {
				calls++
				if calls <= len(tt.failures) {
					return 0, tt.failures[calls-1]
				}
				return 42, nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls got %d, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err got %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != 42 {
				t.Errorf("result got %d", got)
			}
		})
	}
}

func TestDo_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: time.Second}
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := Do(ctx, p, nil, "test", func(ctx context.Context) (string, error) {
		calls++
		return "", WithStatus(errors.New("busy"), http.StatusTooManyRequests)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single call before cancel, got %d", calls)
	}
}
