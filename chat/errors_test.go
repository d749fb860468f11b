package chat

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifySendError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want SendClass
	}{
		{"sentinel", fmt.Errorf("reply: %w", ErrPermissionDenied), SendClassPermissionDenied},
		{"forbidden text", errors.New("HTTP 403 Forbidden"), SendClassPermissionDenied},
		{"missing permissions", errors.New("Missing Permissions"), SendClassPermissionDenied},
		{"port containing 403", errors.New("dial tcp 10.0.0.7:4030: connection refused"), SendClassTransport},
		{"address containing 403", errors.New("write tcp 192.0.2.1:6697->10.4.0.3:403: broken pipe"), SendClassTransport},
		{"network", errors.New("write tcp: broken pipe"), SendClassTransport},
		{"not connected", ErrNotConnected, SendClassTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := ClassifySendError("alpha", tt.err)
			if se == nil {
				t.Fatal("expected a SendError")
			}
			if se.Class != tt.want {
				t.Errorf("class = %s, want %s", se.Class, tt.want)
			}
			if !errors.Is(se, tt.err) {
				t.Error("SendError should unwrap to the original error")
			}
			wantSentinel := ErrTransport
			if tt.want == SendClassPermissionDenied {
				wantSentinel = ErrPermissionDenied
			}
			if !errors.Is(se, wantSentinel) {
				t.Errorf("errors.Is(%v, %v) = false", se, wantSentinel)
			}
		})
	}
}

func TestClassifySendErrorPassthrough(t *testing.T) {
	if ClassifySendError("alpha", nil) != nil {
		t.Fatal("nil error should classify to nil")
	}
	orig := &SendError{Class: SendClassPermissionDenied, Channel: "beta", Err: errors.New("x")}
	if got := ClassifySendError("alpha", fmt.Errorf("wrapped: %w", orig)); got != orig {
		t.Fatalf("existing SendError should be returned as is, got %+v", got)
	}
}

func TestClassifyNotice(t *testing.T) {
	tests := []struct {
		msgID      string
		wantClass  SendClass
		wantFailed bool
	}{
		{"msg_banned", SendClassPermissionDenied, true},
		{"msg_timedout", SendClassPermissionDenied, true},
		{"MSG_SUBSONLY", SendClassPermissionDenied, true},
		{"no_permission", SendClassPermissionDenied, true},
		{"msg_ratelimit", SendClassTransport, true},
		{"msg_duplicate", SendClassTransport, true},
		{"host_on", SendClassTransport, false},
		{"", SendClassTransport, false},
	}
	for _, tt := range tests {
		t.Run(tt.msgID, func(t *testing.T) {
			class, failed := ClassifyNotice(tt.msgID)
			if failed != tt.wantFailed || class != tt.wantClass {
				t.Errorf("ClassifyNotice(%q) = (%s, %v), want (%s, %v)", tt.msgID, class, failed, tt.wantClass, tt.wantFailed)
			}
		})
	}
}

func TestSendClassString(t *testing.T) {
	if SendClassPermissionDenied.String() != "permission_denied" || SendClassTransport.String() != "transport_error" {
		t.Fatal("unexpected class labels")
	}
}
