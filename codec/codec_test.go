package codec_test

import (
	"errors"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/toybox/musicbox"
	"github.com/toybox/musicbox/codec"
)

// quantized velocities round-trip exactly, so DeepEqual works on whole songs
func vel(raw int) float64 { return float64(raw) / 15 }

func TestEncodeDecodeRoundTrip(t *testing.T) {
	song := musicbox.Song{
		Mode:       musicbox.ModeStudio,
		SpeedIndex: 3,
		BPM:        musicbox.SpeedBPM[3],
		Loop:       true,
		BeatCount:  48,
		KeyIndex:   11,
	}
	song.Tracks[musicbox.TrackMelody].SetNote(0, musicbox.Note{Pitch: 1, Duration: 4, Velocity: vel(12), Octave: 6})
	song.Tracks[musicbox.TrackMelody].SetNote(12, musicbox.Note{Pitch: 12, Duration: 8, Velocity: vel(1), Octave: 2})
	song.Tracks[musicbox.TrackMelody].SetNote(47, musicbox.Note{Pitch: 7, Duration: 1, Velocity: vel(15), Octave: 4})
	song.Tracks[musicbox.TrackBass].SetNote(8, musicbox.Note{Pitch: 5, Duration: 2, Velocity: vel(8), Octave: 3})
	song.Tracks[musicbox.TrackDrums].SetNote(0, musicbox.Note{Pitch: 1, Duration: 1, Velocity: vel(15)})
	song.Tracks[musicbox.TrackDrums].SetNote(15, musicbox.Note{Pitch: 7, Duration: 1, Velocity: vel(3)})
	decoded, err := codec.Decode(codec.Encode(song))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !reflect.DeepEqual(decoded, song) {
		t.Fatalf("round trip mismatch:\ngot  %#v\nwant %#v", decoded, song)
	}
}

func TestRoundTripQuantization(t *testing.T) {
	song := musicbox.New()
	song.Tracks[musicbox.TrackMelody].SetNote(0, musicbox.Note{Pitch: 1, Duration: 1, Velocity: 0.81, Octave: 5})
	decoded, err := codec.Decode(codec.Encode(song))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	n, ok := decoded.Tracks[musicbox.TrackMelody].Note(0)
	if !ok {
		t.Fatalf("note did not survive the round trip")
	}
	if math.Abs(n.Velocity-0.81) > 1.0/15 {
		t.Fatalf("velocity %v moved more than one quantization step from 0.81", n.Velocity)
	}
	if n.Octave != 5 {
		t.Fatalf("octave = %v, want 5 exactly", n.Octave)
	}
}

// Scenario: a 16-beat kid-mode C Major song with a single melody C.
func TestSingleMelodyNote(t *testing.T) {
	song := musicbox.New()
	song.Tracks[musicbox.TrackMelody].SetNote(0, musicbox.Note{Pitch: musicbox.PitchIndex("C"), Duration: 1, Velocity: 0.8, Octave: 5})
	decoded, err := codec.Decode(codec.Encode(song))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Mode != musicbox.ModeKid || decoded.BeatCount != 16 || decoded.KeyIndex != 0 {
		t.Fatalf("header mismatch: %+v", decoded)
	}
	n, ok := decoded.Tracks[musicbox.TrackMelody].Note(0)
	if !ok {
		t.Fatalf("melody note missing")
	}
	if musicbox.PitchNames[n.Pitch] != "C" || n.Duration != 1 || n.Octave != 5 {
		t.Fatalf("note = %+v", n)
	}
	if n.Velocity < 0.73 || n.Velocity > 0.87 {
		t.Fatalf("velocity = %v, want within [0.73, 0.87]", n.Velocity)
	}
	for beat := 1; beat < decoded.BeatCount; beat++ {
		if _, ok := decoded.Tracks[musicbox.TrackMelody].Note(beat); ok {
			t.Fatalf("unexpected melody note at beat %v", beat)
		}
	}
	for _, ti := range []int{musicbox.TrackBass, musicbox.TrackDrums} {
		if len(decoded.Tracks[ti].Notes) != 0 {
			t.Fatalf("track %v should be empty", ti+1)
		}
	}
}

// Scenario: a clap on the last beat of a 64-beat song; drums ignore any
// supplied duration.
func TestDrumOnLastBeat(t *testing.T) {
	song := musicbox.New()
	song.BeatCount = 64
	song.Tracks[musicbox.TrackDrums].SetNote(63, musicbox.Note{Pitch: musicbox.DrumIndex("clap"), Duration: 3, Velocity: 1})
	decoded, err := codec.Decode(codec.Encode(song))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.BeatCount != 64 {
		t.Fatalf("BeatCount = %v, want 64", decoded.BeatCount)
	}
	n, ok := decoded.Tracks[musicbox.TrackDrums].Note(63)
	if !ok {
		t.Fatalf("drum note missing")
	}
	if musicbox.DrumNames[n.Pitch] != "clap" || n.Duration != 1 {
		t.Fatalf("note = %+v, want a clap with duration 1", n)
	}
}

func TestEncodeAlphabetIsURLSafe(t *testing.T) {
	song := musicbox.New()
	song.Loop = true
	song.KeyIndex = 15
	// fill densely so every byte value shows up in the payload
	for beat := 0; beat < song.BeatCount; beat++ {
		song.Tracks[musicbox.TrackMelody].SetNote(beat, musicbox.Note{Pitch: 1 + beat%12, Duration: 1, Velocity: vel(beat % 16), Octave: 2 + beat%5})
		song.Tracks[musicbox.TrackDrums].SetNote(beat, musicbox.Note{Pitch: 1 + beat%7, Duration: 1, Velocity: vel(15 - beat%16)})
	}
	code := codec.Encode(song)
	if !regexp.MustCompile(`^v5_[A-Za-z0-9_-]+$`).MatchString(code) {
		t.Fatalf("share string contains characters outside the URL-safe alphabet: %q", code)
	}
}

// Cowbell sits one index past what the 3-bit drum field can carry; it has
// never survived the share format and still must not.
func TestCowbellDoesNotSurviveTheWire(t *testing.T) {
	song := musicbox.New()
	song.Tracks[musicbox.TrackDrums].SetNote(2, musicbox.Note{Pitch: musicbox.DrumIndex("cowbell"), Duration: 1, Velocity: 1})
	decoded, err := codec.Decode(codec.Encode(song))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if _, ok := decoded.Tracks[musicbox.TrackDrums].Note(2); ok {
		t.Fatalf("cowbell should encode as silence")
	}
}

func TestDecodeTruncated(t *testing.T) {
	song := musicbox.New()
	song.Tracks[musicbox.TrackMelody].SetNote(0, musicbox.Note{Pitch: 1, Duration: 1, Velocity: 1, Octave: 5})
	code := codec.Encode(song)
	// cut at multiples of four so the payload stays a decodable base64 length
	for cut := 0; cut < len(code)-len("v5_"); cut += 4 {
		truncated := code[:len("v5_")+cut]
		if _, err := codec.Decode(truncated); err != nil {
			t.Fatalf("truncated string %q should still decode: %v", truncated, err)
		}
	}
	decoded, err := codec.Decode("v5_AA")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.BeatCount != 16 {
		t.Fatalf("BeatCount = %v, want 16", decoded.BeatCount)
	}
	for ti := range decoded.Tracks {
		if len(decoded.Tracks[ti].Notes) != 0 {
			t.Fatalf("track %v should be empty", ti+1)
		}
	}
}

func TestDecodeUnknownVersion(t *testing.T) {
	if _, err := codec.Decode("v99_AAAA"); !errors.Is(err, codec.ErrUnknownVersion) {
		t.Fatalf("error = %v, want ErrUnknownVersion", err)
	}
	if _, err := codec.Decode("v99999999999999999999_AAAA"); err == nil {
		t.Fatalf("expected an error for an absurd version tag")
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, code := range []string{"v5_!!!", "v5_A+/A", "v5_AA=="} {
		if _, err := codec.Decode(code); !errors.Is(err, codec.ErrMalformed) {
			t.Fatalf("Decode(%q) error = %v, want ErrMalformed", code, err)
		}
	}
}

func TestSongURLRoundTrip(t *testing.T) {
	song := musicbox.New()
	song.Tracks[musicbox.TrackBass].SetNote(3, musicbox.Note{Pitch: 2, Duration: 2, Velocity: vel(10), Octave: 3})
	base, err := url.Parse("https://example.com/musicbox/?lang=en")
	if err != nil {
		t.Fatalf("url.Parse failed: %v", err)
	}
	u := codec.SongURL(base, song)
	if got := u.Query().Get("lang"); got != "en" {
		t.Fatalf("existing query parameters should survive, lang = %q", got)
	}
	if strings.ContainsAny(u.Query().Get(codec.QueryKey), "+/=") {
		t.Fatalf("share string in URL contains non-URL-safe characters: %q", u.String())
	}
	decoded, err := codec.SongFromURL(u)
	if err != nil {
		t.Fatalf("SongFromURL failed: %v", err)
	}
	if !reflect.DeepEqual(decoded, song) {
		t.Fatalf("URL round trip mismatch:\ngot  %#v\nwant %#v", decoded, song)
	}
	if _, err := codec.SongFromURL(base); !errors.Is(err, codec.ErrNoSong) {
		t.Fatalf("URL without the query key should return ErrNoSong, got %v", err)
	}
}
