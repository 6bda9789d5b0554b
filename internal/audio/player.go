package audio

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// speakerRate is the rate the speaker runs at; sounds are resampled to it.
const speakerRate = beep.SampleRate(44100)

// burstGap is the minimum spacing between two plays of the same sound.
// A burst of toasts in one category produces a single chime.
const burstGap = 150 * time.Millisecond

type decodeFunc func(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

// decoders maps lowercase file extensions to beep decoders.
var decoders = map[string]decodeFunc{
	".wav": func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
		return wav.Decode(rc)
	},
	".ogg": vorbis.Decode,
	".mp3": mp3.Decode,
}

// SupportedFormats returns the sound file extensions the player decodes.
func SupportedFormats() []string {
	exts := make([]string, 0, len(decoders))
	for ext := range decoders {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Player decodes toast sounds once and plays them through the speaker.
type Player struct {
	mu     sync.Mutex
	logger *slog.Logger
	now    func() time.Time

	// Speaker operations, replaced in tests.
	initSpeaker  func(beep.SampleRate, int) error
	playStream   func(...beep.Streamer)
	closeSpeaker func()

	volume      float64 // 0.0 to 1.0
	initialized bool

	buffers  map[string]*beep.Buffer // Decoded sounds by expanded path
	lastPlay map[string]time.Time
}

// NewPlayer creates a new audio player. The speaker is opened lazily on
// the first decoded sound.
func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}

	return &Player{
		logger: logger,
		now:    time.Now,

		initSpeaker:  speaker.Init,
		playStream:   speaker.Play,
		closeSpeaker: speaker.Close,
		volume:       1.0,
		buffers:      make(map[string]*beep.Buffer),
		lastPlay:     make(map[string]time.Time),
	}
}

// SetVolume sets the playback volume, clamped to [0, 1].
func (p *Player) SetVolume(volume float64) {
	volume = max(0, min(1, volume))

	p.mu.Lock()
	p.volume = volume
	p.mu.Unlock()
	p.logger.Debug("volume set", "volume", volume)
}

// GetVolume returns the current volume.
func (p *Player) GetVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Play plays a sound file, decoding it on first use.
// Repeated plays of one file within burstGap are dropped.
func (p *Player) Play(path string) error {
	if path == "" {
		return nil
	}
	path = expandPath(path)

	buffer, err := p.buffer(path)
	if err != nil {
		p.logger.Warn("failed to load sound", "path", path, "error", err)
		return err
	}

	p.mu.Lock()
	now := p.now()
	if last, ok := p.lastPlay[path]; ok && now.Sub(last) < burstGap {
		p.mu.Unlock()
		p.logger.Debug("sound throttled", "path", path)
		return nil
	}
	p.lastPlay[path] = now
	volume := p.volume
	p.mu.Unlock()

	if volume == 0 {
		return nil
	}
	p.playStream(withVolume(resampled(buffer), volume))
	return nil
}

// Preload decodes a sound file into the cache ahead of its first toast.
func (p *Player) Preload(path string) error {
	if path == "" {
		return nil
	}
	path = expandPath(path)

	if _, err := p.buffer(path); err != nil {
		return err
	}
	p.logger.Debug("preloaded sound", "path", path)
	return nil
}

// buffer returns the decoded sound for path, loading it if needed.
func (p *Player) buffer(path string) (*beep.Buffer, error) {
	p.mu.Lock()
	buf, ok := p.buffers[path]
	p.mu.Unlock()
	if ok {
		return buf, nil
	}

	buf, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	if err := p.ensureSpeaker(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.buffers[path] = buf
	p.mu.Unlock()
	return buf, nil
}

// decodeFile reads a whole sound file into memory.
func decodeFile(path string) (*beep.Buffer, error) {
	decode, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("unsupported audio format %q (supported: %s)",
			filepath.Ext(path), strings.Join(SupportedFormats(), ", "))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}

	streamer, format, err := decode(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}
	defer func() { _ = streamer.Close() }()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	return buffer, nil
}

// ensureSpeaker opens the speaker once.
func (p *Player) ensureSpeaker() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}
	if err := p.initSpeaker(speakerRate, speakerRate.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}
	p.initialized = true
	p.logger.Debug("speaker initialized", "sample_rate", speakerRate)
	return nil
}

// resampled streams buffer at the speaker rate.
func resampled(buffer *beep.Buffer) beep.Streamer {
	var s beep.Streamer = buffer.Streamer(0, buffer.Len())
	if rate := buffer.Format().SampleRate; rate != speakerRate {
		s = beep.Resample(4, rate, speakerRate, s)
	}
	return s
}

// withVolume scales s unless volume is full.
func withVolume(s beep.Streamer, volume float64) beep.Streamer {
	if volume >= 1 {
		return s
	}
	return &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   volumeToGain(volume),
		Silent:   volume <= 0,
	}
}

// ClearCache drops every decoded sound.
func (p *Player) ClearCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.buffers)
	clear(p.lastPlay)
	p.logger.Debug("sound cache cleared")
}

// InvalidateCache drops one decoded sound so the next play rereads it.
func (p *Player) InvalidateCache(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.buffers, path)
}

// Cached reports whether path has a decoded sound in the cache.
func (p *Player) Cached(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.buffers[expandPath(path)]
	return ok
}

// Close stops all playback and releases the speaker.
func (p *Player) Close() {
	p.mu.Lock()
	if p.initialized {
		p.closeSpeaker()
		p.initialized = false
	}
	p.mu.Unlock()

	p.ClearCache()
	p.logger.Debug("audio player closed")
}

// volumeToGain converts a linear volume (0-1) to the base 2 exponent
// used by effects.Volume. 0.5 halves the amplitude.
func volumeToGain(volume float64) float64 {
	if volume <= 0 {
		return -10
	}
	return math.Log2(volume)
}
