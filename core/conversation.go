package orchestration

import (
	"context"

	"github.com/deltamod3/aida-voice-agent/core/audio"
	"github.com/deltamod3/aida-voice-agent/core/commands"
	"github.com/deltamod3/aida-voice-agent/core/events"
	"github.com/deltamod3/aida-voice-agent/core/realtime"
	"github.com/deltamod3/aida-voice-agent/core/transcript"
	"github.com/deltamod3/aida-voice-agent/internal/metrics"
	"github.com/deltamod3/aida-voice-agent/internal/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// handleFragment folds a fragment into the transcript. Commands are only
// looked for in utterances that were just finalized.
func (o *Orchestrator) handleFragment(ctx context.Context, fragment transcript.Fragment) {
	finalized := o.transcript.Apply(fragment)
	if finalized == nil {
		o.emitUpdate()
		return
	}

	metrics.FinalizedUtterancesTotal.WithLabelValues("participant").Inc()
	o.emit(utteranceFinalized{utterance: *finalized})

	command, ok := o.detector.Detect(finalized.Text)
	if !ok {
		o.emitUpdate()
		return
	}

	metrics.CommandsTotal.WithLabelValues(command.String()).Inc()
	logger.Info("command detected", "command", command.String(), "speaker", finalized.SpeakerName())
	o.lastCommand.Store(int32(command))
	o.emit(commandDetected{command: command, utterance: *finalized})
	o.emitUpdate()

	switch command {
	case commands.Connect:
		o.connect(ctx, events.SourceVoice)
	case commands.Disconnect:
		o.disconnect(ctx, "disconnect requested by "+string(events.SourceVoice))
	}
}

// handleConversationUpdated plays agent audio as it streams in and adds the
// agent's finished items to the transcript.
func (o *Orchestrator) handleConversationUpdated(ctx context.Context, event events.ConversationUpdated) {
	if o.State() != Unmuted {
		return
	}

	item := event.Item
	if event.Delta != nil && len(event.Delta.Audio) > 0 {
		if err := o.audioOutput.Add16BitPCM(event.Delta.Audio, item.ID); err != nil {
			logger.Warn("failed to queue agent audio", "item_id", item.ID, "error", err)
		}
	}

	if item.Status != realtime.ItemStatusCompleted || len(item.Formatted.Audio) == 0 {
		return
	} else if _, ok := o.announcedItems[item.ID]; ok {
		return
	}
	o.announcedItems[item.ID] = struct{}{}

	_, span := tracer.Start(ctx, "finalize agent item")
	defer span.End()
	span.SetAttributes(attribute.String("realtime.item_id", item.ID), attribute.Int("realtime.samples", len(item.Formatted.Audio)))

	wav, err := audio.EncodeWAV(item.Formatted.Audio, o.sampleRate, o.sampleRate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("failed to encode agent audio", "item_id", item.ID, "error", err)
	} else {
		o.emit(agentAudioReady{itemID: item.ID, wav: wav})
	}

	if item.Formatted.Transcript == "" {
		return
	}

	logger.Info("agent said", "item_id", item.ID, "transcript", item.Formatted.Transcript)
	utterance := transcript.Utterance{Speaker: utils.Ptr(o.agentSpeaker), Text: item.Formatted.Transcript}
	o.transcript.Append(utterance)
	metrics.FinalizedUtterancesTotal.WithLabelValues("agent").Inc()
	o.emit(utteranceFinalized{utterance: utterance})
	o.emitUpdate()
}

// handleInterruption stops playback and truncates the interrupted response
// where the listener stopped hearing it.
func (o *Orchestrator) handleInterruption(ctx context.Context) {
	if o.State() != Unmuted {
		return
	}

	ctx, span := tracer.Start(ctx, "interrupt agent")
	defer span.End()
	metrics.SessionInterruptionsTotal.Inc()

	offset, ok := o.audioOutput.Interrupt()
	if !ok || offset.TrackID == "" {
		return
	}
	span.SetAttributes(attribute.String("realtime.item_id", offset.TrackID), attribute.Int("audio.offset", offset.Offset))

	metrics.SessionCancelledResponsesTotal.Inc()
	if err := o.session.CancelResponse(ctx, offset.TrackID, offset.Offset); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("failed to cancel interrupted response", "item_id", offset.TrackID, "error", err)
	}
}

func (o *Orchestrator) emitUpdate() {
	o.emit(projectionUpdated{update: o.Snapshot()})
}
