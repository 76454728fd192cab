package feedback

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)

	require.NoError(t, sink.Report(Entry{Case: "qa-1", Key: "accuracy", Score: 0.8}))
	require.Contains(t, buf.String(), "qa-1 accuracy=0.800")
}

func TestJSONLSink_AppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.jsonl")

	sink, err := NewJSONLSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Report(Entry{Case: "qa-1", Key: "accuracy", Score: 0.8}))
	require.NoError(t, sink.Report(Entry{Case: "qa-1", Key: "composite", Score: 0.74}))
	require.NoError(t, sink.Close())

	// Reopening appends rather than truncating.
	sink, err = NewJSONLSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Report(Entry{Case: "qa-2", Key: "boundary", Score: 1}))
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, entries, 3)
	require.Equal(t, Entry{Case: "qa-1", Key: "accuracy", Score: 0.8}, entries[0])
	require.Equal(t, Entry{Case: "qa-2", Key: "boundary", Score: 1}, entries[2])
}

func TestMemorySink_Concurrent(t *testing.T) {
	sink := &MemorySink{}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sink.Report(Entry{Case: "qa-1", Key: "accuracy", Score: 0.5})
		}()
	}
	wg.Wait()

	require.Len(t, sink.Entries, 20)
	require.Len(t, sink.ByKey("qa-1", "accuracy"), 20)
	require.Empty(t, sink.ByKey("qa-1", "composite"))
}
