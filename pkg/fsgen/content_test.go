package fsgen_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/fsgen/pkg/fsgen"
)

func TestIsDeferred(t *testing.T) {
	tests := []struct {
		name    string
		content fsgen.Content
		want    bool
	}{
		{"text", fsgen.Text("a"), false},
		{"bytes", fsgen.Bytes("a"), false},
		{"directory", fsgen.Directory{}, false},
		{"stream", fsgen.Stream{Reader: strings.NewReader("a")}, false},
		{"pending", fsgen.Resolved(fsgen.Text("a")), true},
		{"producer", fsgen.ContentProducer(func(done func(fsgen.Content, error)) {}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fsgen.IsDeferred(tt.content))
		})
	}
}

func TestDefer_SettlesOnceAndKeepsOutcome(t *testing.T) {
	pending := fsgen.Defer(func() (fsgen.Content, error) {
		return fsgen.Text("later"), nil
	})

	for i := 0; i < 3; i++ {
		c, err := pending.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, fsgen.Text("later"), c)
	}
}

func TestNewPendingContent_FirstSettleWins(t *testing.T) {
	pending, settle := fsgen.NewPendingContent()
	settle(fsgen.Text("first"), nil)
	settle(fsgen.Text("second"), errors.New("ignored"))

	c, err := pending.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fsgen.Text("first"), c)
}

func TestPendingContent_WaitHonorsContext(t *testing.T) {
	pending, _ := fsgen.NewPendingContent()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pending.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPendingFrom(t *testing.T) {
	tests := []struct {
		name    string
		feed    func(chan fsgen.Result[fsgen.Content])
		want    fsgen.Content
		wantErr error
	}{
		{
			name: "value",
			feed: func(ch chan fsgen.Result[fsgen.Content]) { ch <- fsgen.Result[fsgen.Content]{Value: fsgen.Text("v")} },
			want: fsgen.Text("v"),
		},
		{
			name:    "closed without value",
			feed:    func(ch chan fsgen.Result[fsgen.Content]) { close(ch) },
			wantErr: fsgen.ErrNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := make(chan fsgen.Result[fsgen.Content], 1)
			pending := fsgen.PendingFrom(ch)
			tt.feed(ch)

			for i := 0; i < 2; i++ {
				c, err := pending.Wait(context.Background())
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
					continue
				}
				require.NoError(t, err)
				assert.Equal(t, tt.want, c)
			}
		})
	}
}

func TestRejected(t *testing.T) {
	c, err := fsgen.Rejected(errors.New("nope")).Wait(context.Background())
	assert.EqualError(t, err, "nope")
	assert.Nil(t, c)
}

func TestPendingContent_ZeroValue(t *testing.T) {
	_, err := fsgen.PendingContent{}.Wait(context.Background())
	assert.ErrorIs(t, err, fsgen.ErrNoContent)
}

func TestDeferPath(t *testing.T) {
	pending := fsgen.DeferPath(func() (fsgen.CopySource, error) {
		return fsgen.SourcePath("/src"), nil
	})
	for i := 0; i < 2; i++ {
		src, err := pending.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, fsgen.SourcePath("/src"), src)
	}
}

func TestPendingPathFrom(t *testing.T) {
	ch := make(chan fsgen.Result[fsgen.CopySource])
	close(ch)
	_, err := fsgen.PendingPathFrom(ch).Wait(context.Background())
	assert.ErrorIs(t, err, fsgen.ErrNoContent)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "text", fsgen.KindOf(fsgen.Text("")))
	assert.Equal(t, "bytes", fsgen.KindOf(fsgen.Bytes(nil)))
	assert.Equal(t, "directory", fsgen.KindOf(fsgen.Directory{}))
	assert.Equal(t, "stream", fsgen.KindOf(fsgen.Stream{}))
	assert.Equal(t, "none", fsgen.KindOf(nil))
}
