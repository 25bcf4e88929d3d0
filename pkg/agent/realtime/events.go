package realtime

import "encoding/json"

// Client frames.

// SessionConfig is the session.update payload: instructions, audio formats,
// input transcription, server-side turn detection and tool definitions.
type SessionConfig struct {
	Modalities              []string             `json:"modalities,omitempty"`
	Instructions            string               `json:"instructions,omitempty"`
	Voice                   string               `json:"voice,omitempty"`
	InputAudioFormat        string               `json:"input_audio_format,omitempty"`
	OutputAudioFormat       string               `json:"output_audio_format,omitempty"`
	InputAudioTranscription *TranscriptionConfig `json:"input_audio_transcription,omitempty"`
	TurnDetection           *TurnDetection       `json:"turn_detection,omitempty"`
	Tools                   []ToolDefinition     `json:"tools,omitempty"`
	ToolChoice              string               `json:"tool_choice,omitempty"`
}

type TranscriptionConfig struct {
	Model    string `json:"model"`
	Language string `json:"language,omitempty"`
}

// TurnDetection configures provider-side voice activity detection. The
// provider owns endpointing; these are the only knobs this repo turns.
type TurnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold,omitempty"`
	PrefixPaddingMS   int     `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMS int     `json:"silence_duration_ms,omitempty"`
}

type ToolDefinition struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type clientSessionUpdate struct {
	Type    string        `json:"type"`
	Session SessionConfig `json:"session"`
}

type clientAudioAppend struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

type clientResponseCreate struct {
	Type     string          `json:"type"`
	Response *responseConfig `json:"response,omitempty"`
}

type responseConfig struct {
	Instructions string `json:"instructions,omitempty"`
}

type clientItemCreate struct {
	Type string           `json:"type"`
	Item functionCallItem `json:"item"`
}

type functionCallItem struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

// Server frames.

type serverEnvelope struct {
	Type string `json:"type"`
}

type serverError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type serverTranscriptionCompleted struct {
	ItemID     string `json:"item_id"`
	Transcript string `json:"transcript"`
}

type serverAudioDelta struct {
	ResponseID string `json:"response_id"`
	Delta      string `json:"delta"`
}

type serverAudioTranscriptDone struct {
	ResponseID string `json:"response_id"`
	Transcript string `json:"transcript"`
}

type serverFunctionCallDone struct {
	ResponseID string `json:"response_id"`
	CallID     string `json:"call_id"`
	Name       string `json:"name"`
	Arguments  string `json:"arguments"`
}

func decodeServerFrame[T any](data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}
