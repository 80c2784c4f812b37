package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	orchestration "github.com/deltamod3/aida-voice-agent/core"
	"github.com/deltamod3/aida-voice-agent/core/audio/miniaudio"
	"github.com/deltamod3/aida-voice-agent/core/audio/portaudio"
	"github.com/deltamod3/aida-voice-agent/core/commands"
	"github.com/deltamod3/aida-voice-agent/core/events"
	"github.com/deltamod3/aida-voice-agent/core/realtime"
	"github.com/deltamod3/aida-voice-agent/core/transcript"
	"github.com/deltamod3/aida-voice-agent/core/transcriptstream"
	"github.com/deltamod3/aida-voice-agent/core/transcriptview"
	"github.com/deltamod3/aida-voice-agent/internal/config"
	"github.com/deltamod3/aida-voice-agent/internal/publish"
	"github.com/deltamod3/aida-voice-agent/internal/server"
	"github.com/deltamod3/aida-voice-agent/internal/telemetry"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const (
	serviceName     = "aida-voice-agent"
	defaultLogFile  = "aida.log"
	shutdownTimeout = 10 * time.Second
)

var version = "dev"

var logger = otelslog.NewLogger("github.com/deltamod3/aida-voice-agent/cmd/aida")

func main() {
	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "Path to .env file (default: .env)")
	flag.StringVar(&overrides.TranscriptWSURL, "transcript-url", "", "Transcript websocket URL (overrides TRANSCRIPT_WS_URL)")
	flag.StringVar(&overrides.RealtimeRelayURL, "relay-url", "", "Realtime relay URL (overrides REALTIME_RELAY_URL)")
	flag.StringVar(&overrides.AudioBackend, "audio", "", "Audio backend: miniaudio or portaudio (overrides AUDIO_BACKEND)")
	flag.StringVar(&overrides.HTTPAddr, "listen", "", "HTTP listen address (overrides HTTP_ADDR)")
	flag.StringVar(&overrides.DisplayMode, "display", "", "Display mode: tui or log (overrides DISPLAY_MODE)")
	flag.BoolVar(&overrides.AutoConnect, "auto-connect", false, "Join the conversation on start (overrides AUTO_CONNECT)")
	flag.Parse()

	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logWriter, closeLog, err := openLogWriter(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	telemetryOptions := telemetry.Options{ServiceName: serviceName, LogWriter: logWriter}
	if cfg.TraceStdout {
		telemetryOptions.TraceWriter = logWriter
	}
	shutdownTelemetry, err := telemetry.Setup(ctx, telemetryOptions)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTelemetry(shutdownCtx)
	}()

	logger.Info("aida starting", "version", version, "audio_backend", cfg.AudioBackend, "display", cfg.DisplayMode)

	recorder, player, closeAudio, err := openAudio(cfg)
	if err != nil {
		return err
	}
	defer closeAudio()

	session := realtime.NewClient(cfg.RealtimeRelayURL,
		realtime.WithAPIKey(cfg.OpenAIAPIKey),
		realtime.WithSampleRate(cfg.SampleRate),
	)

	orchestrator := orchestration.NewOrchestrator(
		orchestration.WithRecorder(recorder),
		orchestration.WithPlayer(player),
		orchestration.WithSession(session),
		orchestration.WithDetector(newDetector(cfg)),
		orchestration.WithInstructions(cfg.AgentInstructions),
		orchestration.WithGreeting(cfg.AgentGreeting),
		orchestration.WithAgentSpeaker(cfg.AgentSpeaker),
		orchestration.WithSampleRate(cfg.SampleRate),
	)
	defer orchestrator.Close()

	publisher := publish.New(publish.Config{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
		Enabled: cfg.KafkaEnabled,
	})
	defer publisher.Close()

	recordings := server.NewRecordingStore(server.DefaultRecordingLimit)

	var view *transcriptview.Program
	if cfg.DisplayMode == config.DisplayTUI {
		view = transcriptview.NewProgram(orchestrator.Snapshot())
	}

	orchestrator.Orchestrate(ctx,
		orchestration.WithUpdateCallback(func(update orchestration.Update) {
			if view != nil {
				view.Send(update)
			}
		}),
		orchestration.WithUtteranceFinalizedCallback(func(utterance transcript.Utterance) {
			logger.Info("utterance finalized", "speaker", utterance.SpeakerName(), "text", utterance.Text)
			if err := publisher.PublishUtterance(ctx, utterance); err != nil {
				logger.Warn("failed to publish utterance", "error", err)
			}
		}),
		orchestration.WithCommandCallback(func(command commands.Command, utterance transcript.Utterance) {
			if err := publisher.PublishCommand(ctx, command, utterance); err != nil {
				logger.Warn("failed to publish command", "error", err)
			}
		}),
		orchestration.WithAgentAudioCallback(recordings.Put),
	)

	streamOptions := []transcriptstream.Option{transcriptstream.WithRetryInterval(cfg.ReconnectInterval)}
	if cfg.TranscriptFormat == config.TranscriptFormatDeepgram {
		streamOptions = append(streamOptions, transcriptstream.WithDecoder(transcript.DecodeDeepgram))
	}
	stream := transcriptstream.New(cfg.TranscriptWSURL, func(fragment transcript.Fragment) {
		publisher.ObserveFragment(fragment)
		orchestrator.HandleFragment(fragment)
	}, streamOptions...)
	defer stream.Close()

	if err := stream.Connect(ctx); err != nil {
		logger.Warn("transcript stream not connected yet, retrying in the background", "error", err)
	}

	if cfg.AutoConnect {
		orchestrator.Handle(events.NewConnectRequested(events.SourceStartup))
	}

	srv := server.New(cfg.HTTPAddr, orchestrator, stream, recordings)
	errCh := make(chan error, 2)
	go func() {
		errCh <- srv.Start()
	}()

	if view != nil {
		go func() {
			if err := view.Run(ctx); err != nil {
				errCh <- fmt.Errorf("display failed: %w", err)
				return
			}
			// quitting the display ends the process
			stop()
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("aida stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	stream.Close()
	orchestrator.Close()
	logger.Info("aida stopped")
	return nil
}

func newDetector(cfg *config.Config) *commands.Detector {
	var opts []commands.Option
	if len(cfg.WakePhrases) > 0 {
		opts = append(opts, commands.WithWakePhrases(cfg.WakePhrases...))
	}
	if len(cfg.MutePhrases) > 0 {
		opts = append(opts, commands.WithMutePhrases(cfg.MutePhrases...))
	}
	return commands.New(opts...)
}

func openAudio(cfg *config.Config) (orchestration.Recorder, orchestration.Player, func(), error) {
	switch cfg.AudioBackend {
	case config.AudioBackendPortaudio:
		client, err := portaudio.NewClient(cfg.SampleRate)
		if err != nil {
			return nil, nil, nil, err
		}
		return client.Recorder, client.Player, client.Close, nil
	default:
		client, err := miniaudio.NewClient(cfg.SampleRate)
		if err != nil {
			return nil, nil, nil, err
		}
		return client.Recorder, client.Player, client.Close, nil
	}
}

// openLogWriter keeps logs off the terminal while the display owns it.
func openLogWriter(cfg *config.Config) (io.Writer, func(), error) {
	path := cfg.LogFile
	if path == "" && cfg.DisplayMode == config.DisplayTUI {
		path = defaultLogFile
	}
	if path == "" {
		return os.Stderr, func() {}, nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}
