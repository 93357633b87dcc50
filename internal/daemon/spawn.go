package daemon

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"

	"github.com/google/uuid"
)

// Spawner starts user commands detached from the compositor. It never
// waits for them beyond reaping.
type Spawner struct {
	env    []string
	logger *slog.Logger
}

// NewSpawner returns a spawner that adds extraEnv to the inherited
// environment, e.g. the display socket for clients.
func NewSpawner(extraEnv []string, logger *slog.Logger) *Spawner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Spawner{env: extraEnv, logger: logger}
}

// Spawn starts argv in its own session with stdio detached.
func (s *Spawner) Spawn(argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("spawn: empty command")
	}
	id := uuid.NewString()

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), s.env...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		s.logger.Warn("spawn failed", "spawn_id", id, "command", argv[0], "error", err)
		return fmt.Errorf("spawn %s: %w", argv[0], err)
	}
	s.logger.Info("spawned", "spawn_id", id, "command", argv[0], "pid", cmd.Process.Pid)

	go func() {
		err := cmd.Wait()
		s.logger.Debug("spawned process exited", "spawn_id", id, "command", argv[0], "error", err)
	}()
	return nil
}
