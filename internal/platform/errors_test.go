package platform

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "classified error",
			err:  &Error{Kind: KindRateLimited, Op: "publish"},
			want: KindRateLimited,
		},
		{
			name: "wrapped classified error",
			err:  fmt.Errorf("publish post: %w", &Error{Kind: KindPermissionDenied, Op: "publish"}),
			want: KindPermissionDenied,
		},
		{
			name: "deadline exceeded",
			err:  context.DeadlineExceeded,
			want: KindTimeout,
		},
		{
			name: "wrapped deadline",
			err:  fmt.Errorf("call: %w", context.DeadlineExceeded),
			want: KindTimeout,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: KindOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{429, KindRateLimited},
		{401, KindUnauthorized},
		{403, KindPermissionDenied},
		{408, KindTimeout},
		{504, KindTimeout},
		{500, KindOther},
		{400, KindOther},
	}

	for _, tt := range tests {
		err := classifyStatus("publish", tt.status, []byte("body"))
		if err.Kind != tt.want {
			t.Errorf("status %d classified as %v, want %v", tt.status, err.Kind, tt.want)
		}
		if err.StatusCode != tt.status {
			t.Errorf("status %d not preserved, got %d", tt.status, err.StatusCode)
		}
	}
}

func TestKindTransient(t *testing.T) {
	transient := []Kind{KindRateLimited, KindTimeout}
	terminal := []Kind{KindUnauthorized, KindPermissionDenied, KindOther}

	for _, k := range transient {
		if !k.Transient() {
			t.Errorf("%v should be transient", k)
		}
	}
	for _, k := range terminal {
		if k.Transient() {
			t.Errorf("%v should not be transient", k)
		}
	}
}

func TestErrorMessage_Truncated(t *testing.T) {
	long := make([]byte, 2048)
	for i := range long {
		long[i] = 'x'
	}
	err := classifyStatus("publish", 500, long)
	if len(err.Message) > 512 {
		t.Errorf("message not truncated, got %d bytes", len(err.Message))
	}
}
