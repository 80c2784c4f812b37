package realtime

const (
	DefaultVoice       = "alloy"
	DefaultAudioFormat = "pcm16"

	TurnDetectionServerVAD = "server_vad"
)

type TurnDetection struct {
	Type string `json:"type"`
}

type InputAudioTranscription struct {
	Model string `json:"model"`
}

// SessionConfig is the subset of the remote session configuration the agent
// controls. Zero fields are left out of session.update.
type SessionConfig struct {
	Modalities              []string                 `json:"modalities,omitempty"`
	Instructions            string                   `json:"instructions,omitempty"`
	Voice                   string                   `json:"voice,omitempty"`
	InputAudioFormat        string                   `json:"input_audio_format,omitempty"`
	OutputAudioFormat       string                   `json:"output_audio_format,omitempty"`
	InputAudioTranscription *InputAudioTranscription `json:"input_audio_transcription,omitempty"`
	TurnDetection           *TurnDetection           `json:"turn_detection,omitempty"`
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Modalities:        []string{"text", "audio"},
		Voice:             DefaultVoice,
		InputAudioFormat:  DefaultAudioFormat,
		OutputAudioFormat: DefaultAudioFormat,
	}
}

// merge overrides the fields that are set in update.
func (s SessionConfig) merge(update SessionConfig) SessionConfig {
	if len(update.Modalities) > 0 {
		s.Modalities = update.Modalities
	}
	if update.Instructions != "" {
		s.Instructions = update.Instructions
	}
	if update.Voice != "" {
		s.Voice = update.Voice
	}
	if update.InputAudioFormat != "" {
		s.InputAudioFormat = update.InputAudioFormat
	}
	if update.OutputAudioFormat != "" {
		s.OutputAudioFormat = update.OutputAudioFormat
	}
	if update.InputAudioTranscription != nil {
		s.InputAudioTranscription = update.InputAudioTranscription
	}
	if update.TurnDetection != nil {
		s.TurnDetection = update.TurnDetection
	}
	return s
}

// ContentPart is one part of a user message.
type ContentPart struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Audio string `json:"audio,omitempty"`
}

func InputText(text string) ContentPart {
	return ContentPart{Type: "input_text", Text: text}
}
