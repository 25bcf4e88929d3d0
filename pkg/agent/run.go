// Package agent runs one tutoring session end to end: join the room, figure
// out what the student came to practice, hold the conversation through the
// realtime provider and leave a transcript behind.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"

	"github.com/trumchinese/tutor-agent/pkg/agent/audio"
	"github.com/trumchinese/tutor-agent/pkg/agent/catalog"
	"github.com/trumchinese/tutor-agent/pkg/agent/config"
	"github.com/trumchinese/tutor-agent/pkg/agent/prompt"
	"github.com/trumchinese/tutor-agent/pkg/agent/realtime"
	"github.com/trumchinese/tutor-agent/pkg/agent/topic"
	"github.com/trumchinese/tutor-agent/pkg/agent/transcript"
	"github.com/trumchinese/tutor-agent/pkg/agent/tutor"
)

// Job is one room's worth of work for the agent worker.
type Job struct {
	Config  config.Config
	Catalog *catalog.Catalog
	Logger  *slog.Logger
}

type subscribedTrack struct {
	track       *webrtc.TrackRemote
	participant *lksdk.RemoteParticipant
}

// Run joins the configured room, waits for the student, connects the realtime
// session and serves the conversation until the context is cancelled or the
// session ends. The transcript is written on the way out regardless of how
// the session terminated.
func (j *Job) Run(ctx context.Context) error {
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("room", j.Config.RoomName)

	// Track and participant events arrive on SDK goroutines before the
	// session exists; buffer them and drain once the bridge is up.
	participants := make(chan *lksdk.RemoteParticipant, 4)
	tracks := make(chan subscribedTrack, 8)

	room, err := j.connectRoom(participants, tracks, logger)
	if err != nil {
		// One bare retry covers transient signalling failures; a second
		// failure ends the job.
		logger.Warn("room connect failed, retrying once", "error", err)
		room, err = j.connectRoom(participants, tracks, logger)
		if err != nil {
			return fmt.Errorf("connect to room: %w", err)
		}
	}
	defer room.Disconnect()
	logger.Info("connected to room", "identity", j.Config.AgentIdentity)

	metadata := j.waitForStudent(ctx, room, participants, logger)

	resolver := topic.Resolver{Catalog: j.Catalog, Logger: logger}
	res := resolver.Resolve(metadata)
	tut := tutor.New(res.Topic)
	logger.Info("session topic", "topic", tut.TopicName())

	sess, err := realtime.Connect(ctx, realtime.Config{
		URL:                   j.Config.RealtimeURL,
		APIKey:                j.Config.OpenAIAPIKey,
		Model:                 j.Config.RealtimeModel,
		Voice:                 j.Config.Voice,
		Instructions:          prompt.Instructions(res.Topic),
		TranscriptionModel:    j.Config.TranscriptionModel,
		TranscriptionLanguage: j.Config.TranscriptionLanguage,
		TurnDetection: &realtime.TurnDetection{
			Type:              "server_vad",
			Threshold:         j.Config.VADActivationThreshold,
			PrefixPaddingMS:   int(j.Config.VADPrefixPadding / time.Millisecond),
			SilenceDurationMS: int(j.Config.VADSilenceDuration / time.Millisecond),
		},
		Tools:  tut.Tools(),
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("connect realtime session: %w", err)
	}
	defer j.saveTranscript(room.Name(), res, tut, sess, logger)
	defer sess.Close()

	bridge := audio.NewBridge(sess, j.Config.AgentIdentity, j.Config.PlaybackVolume, logger)
	if err := bridge.Publish(room); err != nil {
		return fmt.Errorf("publish agent voice: %w", err)
	}
	go consumeTracks(ctx, tracks, bridge)

	if err := sess.GenerateReply(prompt.Welcome(res.Topic)); err != nil {
		logger.Warn("send welcome turn", "error", err)
	}

	select {
	case <-ctx.Done():
		logger.Info("session stopping", "reason", ctx.Err())
		return nil
	case <-sess.Done():
		if err := sess.Err(); err != nil {
			return fmt.Errorf("realtime session ended: %w", err)
		}
		logger.Info("realtime session closed by provider")
		return nil
	}
}

func (j *Job) connectRoom(participants chan *lksdk.RemoteParticipant, tracks chan subscribedTrack, logger *slog.Logger) (*lksdk.Room, error) {
	identity := j.Config.AgentIdentity
	cb := &lksdk.RoomCallback{
		OnParticipantConnected: func(rp *lksdk.RemoteParticipant) {
			select {
			case participants <- rp:
			default:
			}
		},
		ParticipantCallback: lksdk.ParticipantCallback{
			OnTrackPublished: func(pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
				if !audio.StudentMicrophone(pub, rp, identity) {
					return
				}
				if err := pub.SetSubscribed(true); err != nil {
					logger.Warn("subscribe to microphone", "participant", rp.Identity(), "error", err)
				}
			},
			OnTrackSubscribed: func(track *webrtc.TrackRemote, pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
				if !audio.StudentMicrophone(pub, rp, identity) {
					return
				}
				select {
				case tracks <- subscribedTrack{track: track, participant: rp}:
				default:
					logger.Warn("dropping subscribed track, queue full", "participant", rp.Identity())
				}
			},
		},
	}

	room, err := lksdk.ConnectToRoom(j.Config.LiveKitURL, lksdk.ConnectInfo{
		APIKey:              j.Config.LiveKitAPIKey,
		APISecret:           j.Config.LiveKitAPISecret,
		RoomName:            j.Config.RoomName,
		ParticipantIdentity: identity,
		ParticipantName:     "Chinese Tutor",
	}, cb, lksdk.WithAutoSubscribe(false))
	if err != nil {
		return nil, err
	}

	// Tracks published before we joined never hit OnTrackPublished.
	for _, rp := range room.GetRemoteParticipants() {
		for _, pub := range rp.TrackPublications() {
			remote, ok := pub.(*lksdk.RemoteTrackPublication)
			if !ok || !audio.StudentMicrophone(remote, rp, identity) {
				continue
			}
			if err := remote.SetSubscribed(true); err != nil {
				logger.Warn("subscribe to microphone", "participant", rp.Identity(), "error", err)
			}
		}
	}
	return room, nil
}

// waitForStudent returns the first participant's metadata, or "" when nobody
// shows up in time. A missing student only degrades the session to the
// general topic; it never fails the job.
func (j *Job) waitForStudent(ctx context.Context, room *lksdk.Room, participants <-chan *lksdk.RemoteParticipant, logger *slog.Logger) string {
	if existing := room.GetRemoteParticipants(); len(existing) > 0 {
		return existing[0].Metadata()
	}

	timer := time.NewTimer(j.Config.ParticipantWaitTimeout)
	defer timer.Stop()

	select {
	case rp := <-participants:
		logger.Info("student joined", "participant", rp.Identity())
		return rp.Metadata()
	case <-timer.C:
		logger.Warn("no participant joined in time, continuing with general topic",
			"timeout", j.Config.ParticipantWaitTimeout)
		return ""
	case <-ctx.Done():
		return ""
	}
}

func consumeTracks(ctx context.Context, tracks <-chan subscribedTrack, bridge *audio.Bridge) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-tracks:
			go bridge.HandleTrack(ev.track, ev.participant)
		}
	}
}

// saveTranscript runs on the shutdown path. Failures are logged, never
// propagated: a lost transcript must not mask the session outcome.
func (j *Job) saveTranscript(roomName string, res topic.Resolution, tut *tutor.Tutor, sess *realtime.Session, logger *slog.Logger) {
	rec := transcript.BuildRecord(roomName, res, tut, sess.History(), time.Now())
	writer := &transcript.Writer{Dir: j.Config.RecordingsDir, Logger: logger}
	path, err := writer.Write(rec)
	if err != nil {
		logger.Error("write transcript", "error", err)
		return
	}
	logger.Info("transcript saved", "path", path, "turns", len(rec.ConversationHistory))
}
