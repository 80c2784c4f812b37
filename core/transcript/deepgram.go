package transcript

import (
	"encoding/json"
	"fmt"
	"strconv"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/deltamod3/aida-voice-agent/internal/utils"
)

// DecodeDeepgram decodes a Deepgram live transcription message. Only
// "Results" messages produce fragments, everything else yields
// ErrIgnoredMessage.
func DecodeDeepgram(payload []byte) (Fragment, error) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &parsedMsg); err != nil {
		return Fragment{}, fmt.Errorf("failed to unmarshal deepgram message: %w", err)
	}

	if api.TypeResponse(parsedMsg.Type) != api.TypeMessageResponse {
		return Fragment{}, ErrIgnoredMessage
	}

	var msgResp api.MessageResponse
	if err := json.Unmarshal(payload, &msgResp); err != nil {
		return Fragment{}, fmt.Errorf("failed to unmarshal deepgram results: %w", err)
	}

	fragment := Fragment{IsFinal: msgResp.IsFinal}
	if len(msgResp.Channel.Alternatives) == 0 {
		return fragment, nil
	}

	alternative := msgResp.Channel.Alternatives[0]
	fragment.Words = make([]Word, 0, len(alternative.Words))
	for _, word := range alternative.Words {
		text := word.PunctuatedWord
		if text == "" {
			text = word.Word
		}
		fragment.Words = append(fragment.Words, Word{
			Text:      text,
			StartTime: word.Start,
			EndTime:   word.End,
		})
	}

	if len(alternative.Words) > 0 && alternative.Words[0].Speaker != nil {
		speakerIndex := strconv.Itoa(*alternative.Words[0].Speaker)
		fragment.Speaker = utils.Ptr("Speaker " + speakerIndex)
		fragment.SpeakerID = utils.Ptr(speakerIndex)
	}

	return fragment, nil
}
