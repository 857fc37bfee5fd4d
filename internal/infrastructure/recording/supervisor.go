package recording

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"
	"github.com/Shockvaluemedia/directfanz-project-sub008/pkg/retry"

	"go.uber.org/zap"
)

// Config controls the external recorder process and artifact upload.
type Config struct {
	Command        string
	Args           []string
	WorkDir        string
	StopWait       time.Duration
	UploadAttempts int
}

// FailureHandler is invoked when a recorder process dies on its own.
// Failures are soft: the handler must never take the stream down.
type FailureHandler func(ctx context.Context, sessionID domain.SessionID, cause error)

type recorderProc struct {
	sessionID  domain.SessionID
	outputPath string
	cmd        *exec.Cmd

	// watch is the sole caller of cmd.Wait. It records the exit error and
	// closes done; everyone else waits on done.
	done    chan struct{}
	exitErr error

	mu       sync.Mutex
	stopping bool
}

// Supervisor runs one external recorder process per recorded session and
// uploads the finished artifact on Finalize.
type Supervisor struct {
	store     ports.ArtifactStore
	cfg       Config
	onFailure FailureHandler

	mu    sync.Mutex
	procs map[domain.SessionID]*recorderProc

	logger *zap.SugaredLogger
}

func NewSupervisor(store ports.ArtifactStore, cfg Config, logger *zap.SugaredLogger) *Supervisor {
	if cfg.Command == "" {
		cfg.Command = "ffmpeg"
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	if cfg.StopWait <= 0 {
		cfg.StopWait = 10 * time.Second
	}
	if cfg.UploadAttempts <= 0 {
		cfg.UploadAttempts = 3
	}
	return &Supervisor{
		store:  store,
		cfg:    cfg,
		procs:  make(map[domain.SessionID]*recorderProc),
		logger: logger,
	}
}

// SetFailureHandler wires the crash callback. Must be called before Start.
func (s *Supervisor) SetFailureHandler(h FailureHandler) {
	s.onFailure = h
}

// Start spawns the recorder process for the session. The command template may
// reference {session_id}, {ingest_key} and {output}.
func (s *Supervisor) Start(ctx context.Context, session *domain.StreamSession) error {
	dir := filepath.Join(s.cfg.WorkDir, "recordings")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("%w: create recording dir: %v", domain.ErrRecordingFailure, err)
	}
	outputPath := filepath.Join(dir, string(session.ID)+".mp4")

	args := make([]string, 0, len(s.cfg.Args))
	for _, arg := range s.cfg.Args {
		arg = strings.ReplaceAll(arg, "{session_id}", string(session.ID))
		arg = strings.ReplaceAll(arg, "{ingest_key}", session.Settings.IngestKey)
		arg = strings.ReplaceAll(arg, "{output}", outputPath)
		args = append(args, arg)
	}

	cmd := exec.Command(s.cfg.Command, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start recorder: %v", domain.ErrRecordingFailure, err)
	}

	proc := &recorderProc{
		sessionID:  session.ID,
		outputPath: outputPath,
		cmd:        cmd,
		done:       make(chan struct{}),
	}

	s.mu.Lock()
	if _, exists := s.procs[session.ID]; exists {
		s.mu.Unlock()
		_ = cmd.Process.Kill()
		return fmt.Errorf("%w: recorder already running for %s", domain.ErrRecordingFailure, session.ID)
	}
	s.procs[session.ID] = proc
	s.mu.Unlock()

	s.logger.Infow("recorder started",
		"session_id", session.ID, "command", s.cfg.Command, "output", outputPath)

	go s.watch(proc)
	return nil
}

// watch reports unexpected recorder exits to the failure handler.
func (s *Supervisor) watch(proc *recorderProc) {
	err := proc.cmd.Wait()
	proc.exitErr = err
	close(proc.done)

	proc.mu.Lock()
	stopping := proc.stopping
	proc.mu.Unlock()
	if stopping {
		return
	}

	s.mu.Lock()
	delete(s.procs, proc.sessionID)
	s.mu.Unlock()

	cause := fmt.Errorf("%w: recorder exited: %v", domain.ErrRecordingFailure, err)
	s.logger.Warnw("recorder process died", "session_id", proc.sessionID, "error", err)
	if s.onFailure != nil {
		s.onFailure(context.Background(), proc.sessionID, cause)
	}
}

// Stop terminates the recorder, waiting a bounded interval before force kill,
// and returns the local artifact path.
func (s *Supervisor) Stop(ctx context.Context, sessionID domain.SessionID) (string, error) {
	s.mu.Lock()
	proc, ok := s.procs[sessionID]
	if ok {
		delete(s.procs, sessionID)
	}
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: no active recorder for %s", domain.ErrRecordingFailure, sessionID)
	}

	proc.mu.Lock()
	proc.stopping = true
	proc.mu.Unlock()

	if proc.cmd.Process != nil {
		_ = proc.cmd.Process.Signal(os.Interrupt)
		select {
		case <-proc.done:
		case <-time.After(s.cfg.StopWait):
			s.logger.Warnw("recorder did not exit in time, killing", "session_id", sessionID)
			_ = proc.cmd.Process.Kill()
			<-proc.done
		}
	}

	s.logger.Infow("recorder stopped",
		"session_id", sessionID, "output", proc.outputPath, "exit", proc.exitErr)
	return proc.outputPath, nil
}

// Finalize uploads the artifact with bounded retries and removes the local
// file on success.
func (s *Supervisor) Finalize(ctx context.Context, sessionID domain.SessionID, localPath string) (string, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: stat artifact: %v", domain.ErrUploadFailure, err)
	}

	key := fmt.Sprintf("recordings/%s.mp4", sessionID)
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = s.cfg.UploadAttempts

	var url string
	err = retry.Do(ctx, retryCfg, func(ctx context.Context) error {
		f, err := os.Open(localPath)
		if err != nil {
			return err
		}
		defer f.Close()

		uploaded, err := s.store.UploadArtifact(ctx, key, f, info.Size())
		if err != nil {
			return err
		}
		url = uploaded
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUploadFailure, err)
	}

	if err := os.Remove(localPath); err != nil {
		s.logger.Warnw("failed to remove local artifact", "path", localPath, "error", err)
	}

	s.logger.Infow("recording finalized", "session_id", sessionID, "url", url, "bytes", info.Size())
	return url, nil
}
