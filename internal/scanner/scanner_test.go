package scanner

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticketforge/ticketforge/internal/entity"
	"github.com/ticketforge/ticketforge/pkg/qr"
)

type fakeFrameSource struct {
	mu        sync.Mutex
	opened    bool
	closed    int
	openErr   error
	frameErr  error
	torchErr  error
	torchOn   bool
	torchSets int
}

func (f *fakeFrameSource) Open(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = true
	return nil
}

func (f *fakeFrameSource) Frame(_ context.Context) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frameErr != nil {
		return nil, f.frameErr
	}
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func (f *fakeFrameSource) SetTorch(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.torchErr != nil {
		return f.torchErr
	}
	f.torchOn = on
	f.torchSets++
	return nil
}

func (f *fakeFrameSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = false
	f.closed++
	return nil
}

func (f *fakeFrameSource) isOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

type fakeVerifier struct {
	mu       sync.Mutex
	payloads []string
	result   *entity.VerificationResult
	err      error
	delay    time.Duration
}

func (v *fakeVerifier) VerifyScan(ctx context.Context, _ string, payload string) (*entity.VerificationResult, error) {
	v.mu.Lock()
	v.payloads = append(v.payloads, payload)
	delay := v.delay
	v.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
	}
	return v.result, v.err
}

// decodeAfter returns a decoder that reports no code for the first n
// frames, then yields the payload.
func decodeAfter(n int, payload string) Decoder {
	var mu sync.Mutex
	count := 0
	return func(image.Image) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		count++
		if count <= n {
			return "", qr.ErrNoCode
		}
		return payload, nil
	}
}

func waitForState(t *testing.T, s *Scanner, want State) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if s.State() == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("scanner never reached state %q, stuck in %q", want, s.State())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestScannerDecodesAndVerifies(t *testing.T) {
	source := &fakeFrameSource{}
	verifier := &fakeVerifier{
		result: &entity.VerificationResult{Status: entity.VerificationVerified, TicketID: "tk-1"},
	}

	s := New(source, verifier, "op-1",
		WithDecoder(decodeAfter(3, "signed-payload")),
		WithFrameInterval(time.Millisecond))

	require.NoError(t, s.Start(context.Background()))
	waitForState(t, s, StateResult)

	outcome := s.Outcome()
	require.NotNil(t, outcome)
	require.NoError(t, outcome.Err)
	assert.Equal(t, entity.VerificationVerified, outcome.Result.Status)
	assert.Equal(t, []string{"signed-payload"}, verifier.payloads)
	assert.False(t, source.isOpen(), "camera must be released once a result is in")
}

func TestScannerCameraReleasedOnEveryExit(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T, source *fakeFrameSource) *Scanner
	}{
		{
			name: "stop while scanning",
			run: func(t *testing.T, source *fakeFrameSource) *Scanner {
				s := New(source, &fakeVerifier{}, "op-1",
					WithDecoder(func(image.Image) (string, error) { return "", qr.ErrNoCode }),
					WithFrameInterval(time.Millisecond))
				require.NoError(t, s.Start(context.Background()))
				waitForState(t, s, StateScanning)
				s.Stop()
				return s
			},
		},
		{
			name: "stop while verifying",
			run: func(t *testing.T, source *fakeFrameSource) *Scanner {
				verifier := &fakeVerifier{delay: time.Minute}
				s := New(source, verifier, "op-1",
					WithDecoder(decodeAfter(0, "payload")),
					WithFrameInterval(time.Millisecond))
				require.NoError(t, s.Start(context.Background()))
				waitForState(t, s, StateVerifying)
				s.Stop()
				return s
			},
		},
		{
			name: "frame source failure",
			run: func(t *testing.T, source *fakeFrameSource) *Scanner {
				source.frameErr = entity.ErrSystemError
				s := New(source, &fakeVerifier{}, "op-1",
					WithFrameInterval(time.Millisecond))
				require.NoError(t, s.Start(context.Background()))
				waitForState(t, s, StateResult)
				return s
			},
		},
		{
			name: "context cancelled",
			run: func(t *testing.T, source *fakeFrameSource) *Scanner {
				ctx, cancel := context.WithCancel(context.Background())
				s := New(source, &fakeVerifier{}, "op-1",
					WithDecoder(func(image.Image) (string, error) { return "", qr.ErrNoCode }),
					WithFrameInterval(time.Millisecond))
				require.NoError(t, s.Start(ctx))
				waitForState(t, s, StateScanning)
				cancel()
				waitForState(t, s, StateStopped)
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeFrameSource{}
			s := tt.run(t, source)

			// Whatever path ended the cycle, the camera is no longer held.
			deadline := time.After(2 * time.Second)
			for source.isOpen() {
				select {
				case <-deadline:
					t.Fatal("camera still held after scanner exit")
				case <-time.After(5 * time.Millisecond):
				}
			}
			s.Stop() // idempotent
			assert.False(t, source.isOpen())
		})
	}
}

func TestScannerOpenFailureReturnsToIdle(t *testing.T) {
	source := &fakeFrameSource{openErr: ErrPermissionDenied}
	s := New(source, &fakeVerifier{}, "op-1")

	err := s.Start(context.Background())
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, StateIdle, s.State())
	assert.False(t, source.isOpen())
}

func TestScannerScanAnother(t *testing.T) {
	source := &fakeFrameSource{}
	verifier := &fakeVerifier{
		result: &entity.VerificationResult{Status: entity.VerificationVerified},
	}
	s := New(source, verifier, "op-1",
		WithDecoder(decodeAfter(0, "payload")),
		WithFrameInterval(time.Millisecond))

	require.NoError(t, s.Start(context.Background()))
	waitForState(t, s, StateResult)

	// A second cycle from the result screen.
	require.NoError(t, s.Start(context.Background()))
	waitForState(t, s, StateResult)

	assert.Len(t, verifier.payloads, 2)
	assert.False(t, source.isOpen())
}

func TestScannerTorch(t *testing.T) {
	t.Run("torch while scanning", func(t *testing.T) {
		source := &fakeFrameSource{}
		s := New(source, &fakeVerifier{}, "op-1",
			WithDecoder(func(image.Image) (string, error) { return "", qr.ErrNoCode }),
			WithFrameInterval(time.Millisecond))
		require.NoError(t, s.Start(context.Background()))
		waitForState(t, s, StateScanning)
		defer s.Stop()

		require.NoError(t, s.ToggleTorch(true))
		assert.True(t, source.torchOn)
		require.NoError(t, s.ToggleTorch(false))
		assert.False(t, source.torchOn)
	})

	t.Run("torch unsupported by device", func(t *testing.T) {
		source := &fakeFrameSource{torchErr: ErrTorchUnsupported}
		s := New(source, &fakeVerifier{}, "op-1",
			WithDecoder(func(image.Image) (string, error) { return "", qr.ErrNoCode }),
			WithFrameInterval(time.Millisecond))
		require.NoError(t, s.Start(context.Background()))
		waitForState(t, s, StateScanning)
		defer s.Stop()

		assert.ErrorIs(t, s.ToggleTorch(true), ErrTorchUnsupported)
	})

	t.Run("torch without active stream", func(t *testing.T) {
		s := New(&fakeFrameSource{}, &fakeVerifier{}, "op-1")
		assert.ErrorIs(t, s.ToggleTorch(true), ErrNotScanning)
	})
}
