package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/zefparis/pub/pipeline"
	"github.com/zefparis/pub/smartlinks"
	"github.com/zefparis/pub/tasks"
)

// NicheRunner runs discovery and one pipeline batch for a niche.
type NicheRunner interface {
	RunNiche(ctx context.Context, niche string, limit int) (pipeline.Summary, error)
}

// Handlers holds the task handlers' dependencies.
type Handlers struct {
	Pipeline     NicheRunner
	Contacts     smartlinks.ContactSyncer
	Log          *logrus.Logger
	DefaultLimit int
}

// Register wires every handler into p.
func (h *Handlers) Register(p *Processor) {
	p.Register(tasks.QueuePipelineRun, h.HandlePipelineRun)
	p.Register(tasks.QueueContactSync, h.HandleContactSync)
}

// HandlePipelineRun processes tasks from QueuePipelineRun.
func (h *Handlers) HandlePipelineRun(ctx context.Context, payload string) error {
	var task tasks.PipelineRunPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}
	niche := strings.TrimSpace(task.Niche)
	if niche == "" {
		return fmt.Errorf("pipeline run: empty niche")
	}
	limit := task.Limit
	if limit <= 0 {
		limit = h.DefaultLimit
	}

	sum, err := h.Pipeline.RunNiche(ctx, niche, limit)
	if err != nil {
		return err
	}
	h.Log.WithFields(logrus.Fields{
		"niche":  niche,
		"posted": sum.Posted,
		"failed": sum.Failed,
	}).Info("Pipeline task complete")
	return nil
}

// HandleContactSync processes tasks from QueueContactSync.
func (h *Handlers) HandleContactSync(ctx context.Context, payload string) error {
	var task tasks.ContactSyncPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}
	if strings.TrimSpace(task.Email) == "" {
		return nil
	}
	// sync failures are logged here and never retried
	if err := h.Contacts.AddContact(ctx, task.Email); err != nil {
		h.Log.WithError(err).WithField("email", task.Email).Warn("Contact sync failed")
	}
	return nil
}
