// Package scanner drives the QR capture flow: acquire a camera stream,
// sample frames until a payload decodes, hand the payload to verification
// and surface the outcome. The camera is released on every exit path.
package scanner

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ticketforge/ticketforge/internal/entity"
	"github.com/ticketforge/ticketforge/pkg/qr"
)

type State string

const (
	StateIdle             State = "idle"
	StateRequestingCamera State = "requesting_camera"
	StateScanning         State = "scanning"
	StateVerifying        State = "verifying"
	StateResult           State = "result"
	StateStopped          State = "stopped"
)

// Capability errors reported when the camera cannot be acquired or driven.
var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrNoCamera         = errors.New("no camera available")
	ErrUnsupported      = errors.New("camera capture unsupported")
	ErrTorchUnsupported = errors.New("torch unsupported by active camera")
	ErrNotScanning      = errors.New("scanner is not active")
)

// FrameSource abstracts the capture device. Open acquires the stream,
// Frame samples the current picture, Close releases the device. Close must
// be safe to call more than once.
type FrameSource interface {
	Open(ctx context.Context) error
	Frame(ctx context.Context) (image.Image, error)
	SetTorch(on bool) error
	Close() error
}

// Decoder extracts a payload from a frame. qr.ErrNoCode means "keep
// sampling".
type Decoder func(image.Image) (string, error)

// Verifier is the slice of the verification service the scanner needs.
type Verifier interface {
	VerifyScan(ctx context.Context, operatorID, payload string) (*entity.VerificationResult, error)
}

// Outcome is what a completed scan cycle produced: a verification result,
// or the error that ended the cycle.
type Outcome struct {
	Result *entity.VerificationResult
	Err    error
}

const defaultFrameInterval = 100 * time.Millisecond

type Scanner struct {
	source        FrameSource
	decoder       Decoder
	verifier      Verifier
	operatorID    string
	frameInterval time.Duration

	mu         sync.Mutex
	state      State
	streamOpen bool
	outcome    *Outcome
	cancel     context.CancelFunc
	done       chan struct{}
}

type Option func(*Scanner)

// WithDecoder overrides the default QR decoder.
func WithDecoder(d Decoder) Option {
	return func(s *Scanner) { s.decoder = d }
}

// WithFrameInterval overrides the sampling cadence.
func WithFrameInterval(d time.Duration) Option {
	return func(s *Scanner) { s.frameInterval = d }
}

func New(source FrameSource, verifier Verifier, operatorID string, opts ...Option) *Scanner {
	s := &Scanner{
		source:        source,
		decoder:       qr.DecodeFrame,
		verifier:      verifier,
		operatorID:    operatorID,
		frameInterval: defaultFrameInterval,
		state:         StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scanner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Outcome returns the result of the last completed cycle, nil before the
// first cycle finishes.
func (s *Scanner) Outcome() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Start acquires the camera and begins the sampling loop. Valid from Idle,
// Result ("scan another") and Stopped.
func (s *Scanner) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateIdle, StateResult, StateStopped:
	default:
		s.mu.Unlock()
		return ErrNotScanning
	}
	s.state = StateRequestingCamera
	s.outcome = nil
	s.mu.Unlock()

	if err := s.source.Open(ctx); err != nil {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.streamOpen = true
	s.state = StateScanning
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go s.run(loopCtx, done)
	return nil
}

// run is the cooperative frame-polling loop: one goroutine, one frame per
// tick, no decode means keep scanning.
func (s *Scanner) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	// The camera must not outlive the loop, whichever way it ends.
	defer s.releaseStream()

	ticker := time.NewTicker(s.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			if s.state != StateStopped {
				s.state = StateStopped
			}
			s.mu.Unlock()
			return
		case <-ticker.C:
			frame, err := s.source.Frame(ctx)
			if err != nil {
				s.finish(&Outcome{Err: err})
				return
			}

			payload, err := s.decoder(frame)
			if err != nil {
				continue // no code in this frame
			}

			s.mu.Lock()
			s.state = StateVerifying
			s.mu.Unlock()
			ticker.Stop()

			result, err := s.verifier.VerifyScan(ctx, s.operatorID, payload)
			if ctx.Err() != nil {
				// Torn down mid-verification; discard the late result.
				s.mu.Lock()
				s.state = StateStopped
				s.mu.Unlock()
				return
			}
			s.finish(&Outcome{Result: result, Err: err})
			return
		}
	}
}

func (s *Scanner) finish(outcome *Outcome) {
	s.mu.Lock()
	s.outcome = outcome
	s.state = StateResult
	s.mu.Unlock()
	s.releaseStream()
}

func (s *Scanner) releaseStream() {
	s.mu.Lock()
	open := s.streamOpen
	s.streamOpen = false
	s.mu.Unlock()

	if open {
		if err := s.source.Close(); err != nil {
			logrus.Warnf("Failed to release camera stream: %v", err)
		}
	}
}

// Stop tears the scanner down from any state: the loop halts, the camera
// is released, late verification results are discarded.
func (s *Scanner) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.state = StateStopped
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	s.releaseStream()
}

// ToggleTorch flips the illumination track while the stream is held.
func (s *Scanner) ToggleTorch(on bool) error {
	s.mu.Lock()
	held := s.streamOpen
	s.mu.Unlock()

	if !held {
		return ErrNotScanning
	}
	return s.source.SetTorch(on)
}
