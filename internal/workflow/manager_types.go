package workflow

import (
	"conveyor/internal/queue"
	"conveyor/internal/stage"
)

// StageSet bundles the concrete workflow handlers the manager orchestrates.
type StageSet struct {
	Transcriber stage.Handler
	Generator   stage.Handler
	Validator   stage.Handler
	Renderer    stage.Handler
	Publisher   stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status

	// Audit reason recorded when an external-service failure makes the
	// item terminal at this stage.
	exhaustedReason string
}

// ConfigureStages registers the concrete stage handlers the workflow will
// run, in pipeline order. Omitted handlers leave a gap: items parked at
// that stage's start status stay put until a handler is configured.
func (m *Manager) ConfigureStages(set StageSet) {
	var stages []pipelineStage
	if set.Transcriber != nil {
		stages = append(stages, pipelineStage{
			name:             "transcriber",
			handler:          set.Transcriber,
			startStatus:      queue.StatusIngested,
			processingStatus: queue.StatusTranscribing,
			doneStatus:       queue.StatusTranscribed,
			exhaustedReason:  queue.ReasonTranscriptionExhausted,
		})
	}
	if set.Generator != nil {
		stages = append(stages, pipelineStage{
			name:             "generator",
			handler:          set.Generator,
			startStatus:      queue.StatusTranscribed,
			processingStatus: queue.StatusGenerating,
			doneStatus:       queue.StatusGenerated,
			exhaustedReason:  queue.ReasonGenerationFailedAll,
		})
	}
	if set.Validator != nil {
		stages = append(stages, pipelineStage{
			name:             "validator",
			handler:          set.Validator,
			startStatus:      queue.StatusGenerated,
			processingStatus: queue.StatusValidating,
			doneStatus:       queue.StatusValidated,
		})
	}
	if set.Renderer != nil {
		stages = append(stages, pipelineStage{
			name:             "renderer",
			handler:          set.Renderer,
			startStatus:      queue.StatusValidated,
			processingStatus: queue.StatusRendering,
			doneStatus:       queue.StatusRendered,
		})
	}
	if set.Publisher != nil {
		stages = append(stages, pipelineStage{
			name:             "publisher",
			handler:          set.Publisher,
			startStatus:      queue.StatusRendered,
			processingStatus: queue.StatusPublishing,
			doneStatus:       queue.StatusPublished,
			exhaustedReason:  queue.ReasonPublishFailedAll,
		})
	}

	rollbacks := make(map[queue.Status]queue.Status, len(stages))
	for _, stg := range stages {
		rollbacks[stg.processingStatus] = stg.startStatus
	}

	m.mu.Lock()
	m.stages = stages
	m.rollbacks = rollbacks
	m.mu.Unlock()
}

func (m *Manager) stageTable() []pipelineStage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stages
}
