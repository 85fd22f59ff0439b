package watch

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/tasksheet/pkg/journal"
	"github.com/harrisonrobin/tasksheet/pkg/trigger"
)

type recorder struct {
	mu      sync.Mutex
	origins []trigger.Origin
	journal *journal.Journal
	rewrite bool
}

func (r *recorder) handle(_ context.Context, path string, origin trigger.Origin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.origins = append(r.origins, origin)
	if r.rewrite && origin == trigger.Human {
		if err := os.WriteFile(path, []byte("sorted by automation"), 0600); err != nil {
			return err
		}
		return r.journal.Record(path)
	}
	return nil
}

func (r *recorder) seen() []trigger.Origin {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]trigger.Origin(nil), r.origins...)
}

func setup(t *testing.T, rec *recorder) (*Watcher, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("initial"), 0600))
	j, err := journal.Open(filepath.Join(dir, "journal.json"))
	require.NoError(t, err)
	rec.journal = j
	w := New(path, j, rec.handle, log.New(&bytes.Buffer{}, "", 0))
	w.Settle = 20 * time.Millisecond
	return w, path
}

func TestChangedDistinguishesOwnWrites(t *testing.T) {
	rec := &recorder{rewrite: true}
	w, path := setup(t, rec)
	ctx := context.Background()

	// a person edits the file, the handler rewrites it
	require.NoError(t, os.WriteFile(path, []byte("edited by a person"), 0600))
	w.Changed(ctx)

	// the rewrite itself shows up as a change and must be recognized
	w.Changed(ctx)

	assert.Equal(t, []trigger.Origin{trigger.Human, trigger.Automation}, rec.seen())

	self, err := w.journal.SelfWritten(path)
	require.NoError(t, err)
	assert.True(t, self)
}

func TestChangedMissingFile(t *testing.T) {
	rec := &recorder{}
	w, path := setup(t, rec)
	require.NoError(t, os.Remove(path))

	w.Changed(context.Background())
	assert.Empty(t, rec.seen())
}

func TestRunFiresOnWrite(t *testing.T) {
	rec := &recorder{}
	w, path := setup(t, rec)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("edited"), 0600))

	require.Eventually(t, func() bool { return len(rec.seen()) > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, trigger.Human, rec.seen()[0])

	// unrelated files in the directory are ignored
	before := len(rec.seen())
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.txt"), []byte("x"), 0600))
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, rec.seen(), before)

	cancel()
	require.NoError(t, <-done)
}
