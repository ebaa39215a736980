package javap

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daimatz/gojavap/pkg/classfile"
	"github.com/daimatz/gojavap/pkg/classfile/classfiletest"
)

var errMissing = errors.New("class not found")

func loaderFor(t *testing.T, classes ...string) LoadFunc {
	t.Helper()
	data := make(map[string][]byte)
	for _, name := range classes {
		b := classfiletest.New(name, "java/lang/Object")
		b.Field(classfile.AccPublic, "x", "I")
		data[name] = b.Bytes()
	}
	return func(name string) (*classfile.ClassFile, error) {
		b, ok := data[name]
		if !ok {
			return nil, fmt.Errorf("%s: %w", name, errMissing)
		}
		return classfile.Decode(b)
	}
}

func TestBatchKeepsInputOrder(t *testing.T) {
	names := []string{"A", "B", "Missing", "C", "D"}
	results := Batch(context.Background(), names, loaderFor(t, "A", "B", "C", "D"), Options{}, 3)
	require.Len(t, results, len(names))

	for i, r := range results {
		assert.Equal(t, names[i], r.Name)
		if r.Name == "Missing" {
			assert.ErrorIs(t, r.Err, errMissing)
			assert.Nil(t, r.Output)
			continue
		}
		require.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprintf("public class %s {\n    public int x;\n}\n\n", r.Name), string(r.Output))
		assert.NotNil(t, r.Class)
	}
}

func TestBatchTree(t *testing.T) {
	results := Batch(context.Background(), []string{"A"}, loaderFor(t, "A"), Options{Tree: true}, 1)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Contains(t, string(results[0].Output), "A (version 50.0)")
}

func TestBatchLimitsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	load := loaderFor(t, "A", "B", "C", "D", "E", "F")
	slow := func(name string) (*classfile.ClassFile, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return load(name)
	}

	results := Batch(context.Background(), []string{"A", "B", "C", "D", "E", "F"}, slow, Options{}, 2)
	for _, r := range results {
		require.NoError(t, r.Err)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	load := func(name string) (*classfile.ClassFile, error) {
		calls.Add(1)
		return nil, errMissing
	}
	results := Batch(ctx, []string{"A", "B"}, load, Options{}, 0)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Zero(t, calls.Load())
}
