package agent

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"driver-link/internal/general/config"
	"driver-link/internal/general/logger"
	"driver-link/internal/general/statestore"
	"driver-link/internal/general/wake"
	"driver-link/internal/ports"
)

type statusOutput struct {
	Running    bool                `json:"running"`
	Online     bool                `json:"online"`
	OrderID    int64               `json:"order_id,omitempty"`
	Checkpoint string              `json:"checkpoint,omitempty"`
	HasToken   bool                `json:"has_token"`
	Indicator  *ports.StatusReport `json:"indicator,omitempty"`
}

// RunStatus prints the persisted flags and the running agent's indicator as JSON.
func RunStatus(ctx context.Context, configPath string, w io.Writer) error {
	log := logger.NewWithWriter("driver-link-status", os.Stderr)
	log.SetDebug(false)

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return err
	}
	store, err := statestore.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	flags, err := store.Load(ctx)
	if err != nil {
		return err
	}
	checkpoint, err := store.Checkpoint(ctx)
	if err != nil {
		return err
	}
	running, err := wake.Running(cfg.Supervisor.DataDir)
	if err != nil {
		return err
	}

	out := statusOutput{
		Running:    running,
		Online:     flags.IsOnline,
		OrderID:    flags.CurrentOrderID,
		Checkpoint: checkpoint,
		HasToken:   flags.SessionToken != "",
	}
	if report, ok, err := wake.NewStatusFile(cfg.Supervisor.DataDir).Read(); err == nil && ok && running {
		out.Indicator = &report
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
