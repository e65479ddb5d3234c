package social

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OpenMSCP/mscp-sdk/internal/testutil"
)

func TestCanonicalPostPayload(t *testing.T) {
	author := testutil.ByteAddress(1)

	tests := []struct {
		name    string
		ts      int64
		content string
		want    string
	}{
		{
			name:    "plain",
			ts:      1000,
			content: "hello",
			want:    `{"type":"post","author":"4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi","ts":1000,"content":"hello"}`,
		},
		{
			name:    "empty content",
			ts:      0,
			content: "",
			want:    `{"type":"post","author":"4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi","ts":0,"content":""}`,
		},
		{
			name:    "negative ts",
			ts:      -7,
			content: "x",
			want:    `{"type":"post","author":"4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi","ts":-7,"content":"x"}`,
		},
		{
			name:    "quotes are not escaped",
			ts:      1000,
			content: `a"b\c`,
			want:    `{"type":"post","author":"4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi","ts":1000,"content":"a"b\c"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(CanonicalPostPayload(author, tt.ts, tt.content)))
		})
	}
}

func TestPostContentFromPayload(t *testing.T) {
	author := testutil.ByteAddress(2)

	for _, content := range []string{"hello", "", `tricky","content":"x`} {
		got, ok := postContentFromPayload(CanonicalPostPayload(author, 5, content), author, 5)
		assert.True(t, ok)
		assert.Equal(t, content, got)
	}

	_, ok := postContentFromPayload(CanonicalPostPayload(author, 6, "hello"), author, 5)
	assert.False(t, ok, "timestamp must match")
	_, ok = postContentFromPayload([]byte(`{"type":"post"}`), author, 5)
	assert.False(t, ok)
}
