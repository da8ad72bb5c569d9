package gateway

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPendingResolveDeliversPayload(t *testing.T) {
	p := newPendingReplies()
	ch := p.add("corr-1")

	require.True(t, p.resolve("corr-1", []byte("reply")))
	require.Equal(t, []byte("reply"), <-ch)
}

func TestPendingResolveUnknownID(t *testing.T) {
	p := newPendingReplies()
	require.False(t, p.resolve("nobody-waiting", []byte("reply")))
}

func TestPendingResolveAfterDrop(t *testing.T) {
	p := newPendingReplies()
	p.add("corr-1")
	p.drop("corr-1")

	require.False(t, p.resolve("corr-1", []byte("late reply")))
}

func TestPendingResolveOnlyOnce(t *testing.T) {
	p := newPendingReplies()
	ch := p.add("corr-1")

	require.True(t, p.resolve("corr-1", []byte("first")))
	require.False(t, p.resolve("corr-1", []byte("second")))
	require.Equal(t, []byte("first"), <-ch)
}

func TestPendingConcurrentRequests(t *testing.T) {
	p := newPendingReplies()
	const n = 100

	ids := make([]string, n)
	chans := make([]chan []byte, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("corr-%d", i)
		chans[i] = p.add(ids[i])
	}

	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			require.True(t, p.resolve(ids[i], []byte(ids[i])))
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.Equal(t, []byte(ids[i]), <-chans[i], "reply routed to the wrong caller")
	}
}
