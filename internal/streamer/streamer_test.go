package streamer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLargeFile(t *testing.T) {
	assert.False(t, IsLargeFile(1024))
	assert.True(t, IsLargeFile(LargeFileThreshold+1))
}

func TestCreateChunkedStream(t *testing.T) {
	data := make([]byte, 10)
	for i := range data {
		data[i] = byte(i)
	}
	chunks := CreateChunkedStream(data, 3)
	require.Len(t, chunks, 4)
	assert.Len(t, chunks[0], 3)
	assert.Len(t, chunks[3], 1)
	assert.True(t, ValidateChunkIntegrity(chunks, data))
}

func TestValidateChunkIntegrityDetectsMismatch(t *testing.T) {
	data := []byte("hello world")
	chunks := CreateChunkedStream(data, 4)
	chunks[0][0] = 'X'
	assert.False(t, ValidateChunkIntegrity(chunks, data))
}

func TestStreamProcessAbortsOnProcessorError(t *testing.T) {
	value := map[string]string{"a": "this is a reasonably sized payload for chunking in the test"}
	boom := errors.New("boom")
	calls := 0

	result := StreamProcess(value, func(chunk []byte, index int) error {
		calls++
		return boom
	}, Options{ChunkSize: 8})

	require.Error(t, result.Err)
	assert.Equal(t, 0, result.ChunksProcessed)
	assert.Equal(t, 1, calls)
}

func TestStreamProcessCompletesAndReportsProgress(t *testing.T) {
	value := map[string]string{"a": "0123456789012345678901234567890123456789"}
	var progressCalls int

	result := StreamProcess(value, func(chunk []byte, index int) error {
		return nil
	}, Options{
		ChunkSize: 8,
		Progress: func(current, total int, percentage float64, remaining time.Duration) {
			progressCalls++
		},
	})

	require.NoError(t, result.Err)
	assert.Equal(t, result.TotalChunks, result.ChunksProcessed)
	assert.Equal(t, result.TotalChunks, progressCalls)
}

func TestEstimateTimeScalesWithSize(t *testing.T) {
	small := EstimateTime(1024)
	large := EstimateTime(100 * DefaultChunkSize)
	assert.True(t, large > small)
}
