package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gapless-controller/internal/catalog"
	"gapless-controller/internal/platform/metrics"
	"gapless-controller/internal/playback"
	"gapless-controller/internal/player"

	"github.com/google/uuid"
)

var (
	// ErrSongNotFound is returned when a create request names no existing song.
	ErrSongNotFound = errors.New("song not found")

	// ErrNoSongsForMedia is returned when a medium has no songs in the catalog.
	ErrNoSongsForMedia = errors.New("no songs for media")
)

// DefaultMediaDuration is the simulated length of a medium past its last
// song start when that song has no end.
const DefaultMediaDuration = time.Hour

// Options tunes the controllers created by the Service. Zero values select
// the playback defaults.
type Options struct {
	Clock           playback.Clock
	VolumeDebounce  time.Duration
	SkipCooldown    time.Duration
	PreviewInterval time.Duration
	MediaDuration   time.Duration
}

// Service owns the live sessions and keeps them fed with the catalog.
type Service struct {
	repo    Repository
	source  catalog.Source
	log     *slog.Logger
	metrics *metrics.Metrics
	opts    Options

	mu    sync.RWMutex
	songs []playback.Interval
}

// NewService returns a Service over repo. source may be nil for an empty
// catalog; m may be nil to disable metric recording.
func NewService(repo Repository, source catalog.Source, log *slog.Logger, m *metrics.Metrics, opts Options) *Service {
	if source == nil {
		source = catalog.Static(nil)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.Clock == nil {
		opts.Clock = playback.SystemClock{}
	}
	if opts.MediaDuration <= 0 {
		opts.MediaDuration = DefaultMediaDuration
	}
	return &Service{repo: repo, source: source, log: log, metrics: m, opts: opts}
}

// Refresh reloads the catalog from the source and pushes it to every session.
func (s *Service) Refresh(ctx context.Context) error {
	songs, err := s.source.Songs(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	s.ApplyCatalog(songs)
	return nil
}

// ApplyCatalog replaces the catalog and rebuilds every session's index.
func (s *Service) ApplyCatalog(songs []playback.Interval) {
	songs = catalog.Normalize(songs)

	s.mu.Lock()
	s.songs = songs
	s.mu.Unlock()

	for _, sess := range s.repo.List() {
		sess.Controller.SetCatalog(songs)
		if st := sess.Controller.State(); st.ActiveSong != nil {
			sess.Controller.SetNext(s.nextAfter(*st.ActiveSong))
		}
	}
	s.metrics.IncCatalogReloads()
	s.log.Info("catalog applied", slog.Int("songs", len(songs)))
}

func (s *Service) currentSongs() []playback.Interval {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.songs
}

// Songs lists the catalog, optionally restricted to one medium.
func (s *Service) Songs(mediaID string) []playback.Interval {
	return catalog.ForMedia(s.currentSongs(), mediaID)
}

// nextAfter returns the song following song in catalog order, or nil.
func (s *Service) nextAfter(song playback.Interval) *playback.Interval {
	songs := s.currentSongs()
	for i, iv := range songs {
		if iv.SameAs(song) && i+1 < len(songs) {
			next := songs[i+1]
			return &next
		}
	}
	return nil
}

// mediaDuration picks the simulated length of a medium: the last song end
// when every song has one, otherwise the default span past the last start.
func (s *Service) mediaDuration(ix *playback.Index) float64 {
	if ix.Len() == 0 {
		return s.opts.MediaDuration.Seconds()
	}
	if ix.AllHaveEnd {
		return ix.LastEnd
	}
	last := ix.Intervals[ix.Len()-1].Start + s.opts.MediaDuration.Seconds()
	return max(last, ix.LastEnd)
}

func (s *Service) pickSong(req CreateRequest) (playback.Interval, error) {
	songs := s.currentSongs()
	if req.MediaID != "" {
		ix := playback.BuildIndex(songs, req.MediaID)
		if ix.Len() == 0 {
			return playback.Interval{}, fmt.Errorf("%w: %s", ErrNoSongsForMedia, req.MediaID)
		}
		if req.SongIndex < 0 || req.SongIndex >= ix.Len() {
			return playback.Interval{}, fmt.Errorf("%w: %s #%d", ErrSongNotFound, req.MediaID, req.SongIndex)
		}
		return ix.Intervals[req.SongIndex], nil
	}
	if req.SongIndex < 0 || req.SongIndex >= len(songs) {
		return playback.Interval{}, fmt.Errorf("%w: #%d", ErrSongNotFound, req.SongIndex)
	}
	return songs[req.SongIndex], nil
}

// Create starts a session on the requested song: the song's medium is loaded
// into a fresh player parked at the song start.
func (s *Service) Create(req CreateRequest) (*Session, error) {
	song, err := s.pickSong(req)
	if err != nil {
		return nil, err
	}

	songs := s.currentSongs()
	p := player.NewSimulated(s.opts.Clock)
	p.Load(song.MediaID, s.mediaDuration(playback.BuildIndex(songs, song.MediaID)), song.Start)

	sess := &Session{
		ID:        SessionID(uuid.NewString()),
		Player:    p,
		Touch:     req.Touch,
		CreatedAt: s.opts.Clock.Now().UTC(),
	}
	ctrl, err := playback.NewController(playback.Options{
		Player:          p,
		OnSongChange:    s.songChangeHandler(sess),
		Clock:           s.opts.Clock,
		Logger:          s.log.With(slog.String("session_id", string(sess.ID))),
		Metrics:         s.metrics,
		Catalog:         songs,
		Active:          &song,
		Next:            s.nextAfter(song),
		Touch:           req.Touch,
		VolumeDebounce:  s.opts.VolumeDebounce,
		SkipCooldown:    s.opts.SkipCooldown,
		PreviewInterval: s.opts.PreviewInterval,
	})
	if err != nil {
		return nil, err
	}
	sess.Controller = ctrl

	if err := s.repo.Add(sess); err != nil {
		ctrl.Dispose()
		return nil, err
	}
	if req.Autoplay {
		if err := ctrl.TogglePlay(); err != nil {
			s.log.Warn("autoplay failed", slog.String("session_id", string(sess.ID)), slog.String("error", err.Error()))
		}
	}

	s.log.Info("session created",
		slog.String("session_id", string(sess.ID)),
		slog.String("media_id", song.MediaID),
		slog.String("title", song.Title))
	return sess, nil
}

// songChangeHandler is the host side of the song-change callback: it loads
// a different medium into the player when needed and refreshes the next song.
func (s *Service) songChangeHandler(sess *Session) playback.SongChangeFunc {
	return func(song playback.Interval, mediaID string, at float64) {
		if sess.Player.MediaID() != mediaID {
			tel := sess.Player.Telemetry()
			sess.Player.Load(mediaID, s.mediaDuration(playback.BuildIndex(s.currentSongs(), mediaID)), at)
			if tel.Playing {
				if err := sess.Player.Play(); err != nil {
					s.log.Warn("resume after media change failed", slog.String("error", err.Error()))
				}
			}
		}
		if sess.Controller != nil {
			sess.Controller.SetNext(s.nextAfter(song))
		}
		s.log.Debug("now playing",
			slog.String("session_id", string(sess.ID)),
			slog.String("media_id", mediaID),
			slog.String("title", song.Title),
			slog.Float64("at", at))
	}
}

// Get returns the session with the given ID.
func (s *Service) Get(id SessionID) (*Session, error) {
	sess, ok := s.repo.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// View returns the session's player telemetry and control surface.
func (s *Service) View(id SessionID) (View, error) {
	sess, err := s.Get(id)
	if err != nil {
		return View{}, err
	}
	return View{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt,
		Touch:     sess.Touch,
		Player:    sess.Player.Telemetry(),
		Controls:  sess.Controller.State(),
	}, nil
}

// Do runs one controller event on the session.
func (s *Service) Do(id SessionID, event func(*playback.Controller) error) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	return event(sess.Controller)
}

// Delete disposes the session's controller and forgets it.
func (s *Service) Delete(id SessionID) error {
	sess, ok := s.repo.Remove(id)
	if !ok {
		return ErrSessionNotFound
	}
	sess.Controller.Dispose()
	s.log.Info("session deleted", slog.String("session_id", string(id)))
	return nil
}

// ActiveSessionCount returns the number of live sessions.
func (s *Service) ActiveSessionCount() int {
	return s.repo.ActiveSessionCount()
}

// TickAll feeds one telemetry sample to every session.
func (s *Service) TickAll() {
	for _, sess := range s.repo.List() {
		if err := sess.Controller.Tick(); err != nil && !errors.Is(err, playback.ErrControllerDisposed) {
			s.log.Warn("tick failed", slog.String("session_id", string(sess.ID)), slog.String("error", err.Error()))
		}
	}
}

// Run ticks all sessions every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.TickAll()
		}
	}
}
