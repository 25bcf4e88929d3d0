// Package audio bridges room audio to the realtime session and back: inbound
// opus RTP is decoded and forwarded as PCM16, assistant PCM deltas are
// re-encoded and published on a local track. All speech understanding and
// synthesis happens on the provider side; this is pure transport.
package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hraban/opus"
	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"

	"github.com/trumchinese/tutor-agent/pkg/agent/realtime"
)

const (
	roomSampleRate    = 48000
	sessionSampleRate = 24000
	playbackFrame     = 20 * time.Millisecond
	// 960 samples = 20ms of mono audio at 48kHz.
	playbackFrameSamples = roomSampleRate / 50
	// Opus frames decode to at most 120ms at 48kHz.
	maxDecodedSamples = 5760
)

// Bridge wires one participant's microphone into the session and the
// session's voice onto a published track.
type Bridge struct {
	session       *realtime.Session
	logger        *slog.Logger
	volume        float64
	agentIdentity string

	mu       sync.Mutex
	decoders map[string]*opus.Decoder
}

// NewBridge creates a bridge for one session. volume scales assistant
// playback in [0, 1].
func NewBridge(session *realtime.Session, agentIdentity string, volume float64, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		session:       session,
		logger:        logger,
		volume:        volume,
		agentIdentity: agentIdentity,
		decoders:      make(map[string]*opus.Decoder),
	}
}

// StudentMicrophone reports whether a published track carries student speech:
// microphone audio from anyone who is not the agent itself. Subscribing to
// the agent's own track would feed its voice back into the provider.
func StudentMicrophone(pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant, agentIdentity string) bool {
	if pub.Kind() != lksdk.TrackKindAudio {
		return false
	}
	if rp.Identity() == agentIdentity {
		return false
	}
	return pub.Source() == livekit.TrackSource_MICROPHONE
}

// HandleTrack consumes one subscribed audio track until it ends, forwarding
// decoded speech to the session. Run it on its own goroutine.
func (b *Bridge) HandleTrack(track *webrtc.TrackRemote, rp *lksdk.RemoteParticipant) {
	identity := rp.Identity()
	b.logger.Info("forwarding participant audio", "participant", identity)

	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			if errors.Is(err, io.EOF) {
				b.logger.Info("participant audio track ended", "participant", identity)
			} else {
				b.logger.Warn("read participant audio", "participant", identity, "error", err)
			}
			return
		}
		pcm := b.decodePacket(identity, pkt)
		if len(pcm) == 0 {
			continue
		}
		if err := b.session.SendAudio(pcm); err != nil {
			b.logger.Warn("forward audio to session", "error", err)
			return
		}
	}
}

// decodePacket decodes one opus RTP payload to 24kHz mono PCM16 bytes.
func (b *Bridge) decodePacket(identity string, pkt *rtp.Packet) []byte {
	if len(pkt.Payload) == 0 {
		return nil
	}

	b.mu.Lock()
	dec, ok := b.decoders[identity]
	if !ok {
		var err error
		dec, err = opus.NewDecoder(roomSampleRate, 1)
		if err != nil {
			b.mu.Unlock()
			b.logger.Warn("create opus decoder", "participant", identity, "error", err)
			return nil
		}
		b.decoders[identity] = dec
	}
	b.mu.Unlock()

	buf := make([]int16, maxDecodedSamples)
	n, err := dec.Decode(pkt.Payload, buf)
	if err != nil {
		b.logger.Warn("decode opus frame", "participant", identity, "error", err)
		return nil
	}
	if n == 0 {
		return nil
	}
	return int16ToPCMBytes(downsampleHalf(buf[:n]))
}

// Publish creates the agent's voice track on the room and starts streaming
// the session's audio deltas onto it. It returns once the track is
// published; playback runs until the session's audio channel closes.
func (b *Bridge) Publish(room *lksdk.Room) error {
	track, err := lksdk.NewLocalSampleTrack(webrtc.RTPCodecCapability{
		MimeType: webrtc.MimeTypeOpus,
	})
	if err != nil {
		return fmt.Errorf("create voice track: %w", err)
	}

	if _, err := room.LocalParticipant.PublishTrack(track, &lksdk.TrackPublicationOptions{
		Name:   "tutor-voice",
		Source: livekit.TrackSource_MICROPHONE,
	}); err != nil {
		return fmt.Errorf("publish voice track: %w", err)
	}

	enc, err := opus.NewEncoder(roomSampleRate, 1, opus.AppVoIP)
	if err != nil {
		return fmt.Errorf("create opus encoder: %w", err)
	}

	go b.playbackLoop(track, enc)
	return nil
}

func (b *Bridge) playbackLoop(track *lksdk.LocalSampleTrack, enc *opus.Encoder) {
	var pending []int16
	packet := make([]byte, 4000)

	for delta := range b.session.AudioOut() {
		samples := upsampleDouble(pcmBytesToInt16(delta))
		applyGain(samples, b.volume)
		pending = append(pending, samples...)

		for len(pending) >= playbackFrameSamples {
			frame := pending[:playbackFrameSamples]
			pending = pending[playbackFrameSamples:]

			n, err := enc.Encode(frame, packet)
			if err != nil {
				b.logger.Warn("encode voice frame", "error", err)
				continue
			}
			if err := track.WriteSample(media.Sample{
				Data:     append([]byte(nil), packet[:n]...),
				Duration: playbackFrame,
			}, nil); err != nil {
				b.logger.Warn("write voice sample", "error", err)
				return
			}
		}
	}
}
