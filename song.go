package musicbox

import (
	"errors"
	"fmt"
)

type (
	// Song is the complete state of one composition: the header fields
	// (mode, tempo, loop, length, key) and three parallel tracks of notes.
	// A Song is a plain value; the codec builds one fresh on every decode
	// and reads one on every encode, so it carries no live UI state.
	Song struct {
		Mode       Mode
		SpeedIndex int  // index into SpeedBPM
		BPM        int  `yaml:",omitempty"` // studio-mode override, 40..200; not carried by the share format
		UseBPM     bool `yaml:",omitempty"`
		Loop       bool
		BeatCount  int // one of BeatCounts
		KeyIndex   int // index into KeyNames
		Tracks     [NumTracks]Track
	}

	// Track is a sparse sequence of notes keyed by the beat they attack on.
	// At most one note attacks per beat; a note's coverage on the timeline is
	// [beat, beat+duration).
	Track struct {
		Notes map[int]Note `yaml:",flow,omitempty"`
	}

	// Note is a single note event. Pitch indexes PitchNames on the piano
	// tracks and DrumNames on the drum track; index 0 is the empty symbol and
	// is never stored in a Track. Drum notes always have Duration 1 and no
	// Octave.
	Note struct {
		Pitch    int
		Duration int
		Velocity float64
		Octave   int `yaml:",omitempty"`
	}
)

// Track indices within Song.Tracks.
const (
	TrackMelody = iota // high piano
	TrackBass          // low piano
	TrackDrums
	NumTracks
)

const (
	MinDuration = 1
	MaxDuration = 8
	MinOctave   = 2
	MaxOctave   = 6
	MinBPM      = 40
	MaxBPM      = 200
)

// DefaultOctaves are the octaves notes land on when the user (or an old share
// string) never chose one, per track. The drum track has no octave.
var DefaultOctaves = [NumTracks]int{5, 3, 0}

// New returns an empty 16-beat kid-mode song in C Major.
func New() Song {
	return Song{Mode: ModeKid, BeatCount: BeatCounts[0], BPM: SpeedBPM[0]}
}

// Note returns the note attacking at the given beat, if any.
func (t *Track) Note(beat int) (Note, bool) {
	n, ok := t.Notes[beat]
	return n, ok
}

// SetNote stores a note at the given beat, replacing any previous note there.
// A note with the empty pitch clears the beat instead.
func (t *Track) SetNote(beat int, n Note) {
	if n.Pitch == 0 {
		t.ClearNote(beat)
		return
	}
	if t.Notes == nil {
		t.Notes = make(map[int]Note)
	}
	t.Notes[beat] = n
}

// ClearNote removes the note attacking at the given beat, if any.
func (t *Track) ClearNote(beat int) {
	delete(t.Notes, beat)
}

// Copy makes a deep copy of a Track.
func (t *Track) Copy() Track {
	if t.Notes == nil {
		return Track{}
	}
	notes := make(map[int]Note, len(t.Notes))
	for beat, n := range t.Notes {
		notes[beat] = n
	}
	return Track{Notes: notes}
}

// Copy makes a deep copy of a Song.
func (s *Song) Copy() Song {
	ret := *s
	for i := range s.Tracks {
		ret.Tracks[i] = s.Tracks[i].Copy()
	}
	return ret
}

// EffectiveBPM returns the tempo the song plays at: the studio-mode BPM
// override when set, otherwise the preset for SpeedIndex.
func (s *Song) EffectiveBPM() int {
	if s.UseBPM && s.Mode.Config().AllowBPM && s.BPM > 0 {
		return s.BPM
	}
	if s.SpeedIndex < 0 || s.SpeedIndex >= len(SpeedBPM) {
		return SpeedBPM[0]
	}
	return SpeedBPM[s.SpeedIndex]
}

// Validate checks if the Song looks like a valid song: known beat count, all
// indices within their tables, every note within the timeline and its field
// ranges, and no overlapping notes within a track. The codec does not call
// this; it is for callers that accept songs from outside the editor.
func (s *Song) Validate() error {
	if s.Mode < ModeKid || s.Mode > ModeStudio {
		return errors.New("unknown mode")
	}
	if s.SpeedIndex < 0 || s.SpeedIndex >= len(SpeedBPM) {
		return errors.New("speed index out of range")
	}
	if s.UseBPM && (s.BPM < MinBPM || s.BPM > MaxBPM) {
		return fmt.Errorf("BPM should be %v..%v", MinBPM, MaxBPM)
	}
	if BeatCountIndex(s.BeatCount) < 0 {
		return fmt.Errorf("beat count %v is not one of %v", s.BeatCount, BeatCounts)
	}
	if s.KeyIndex < 0 || s.KeyIndex >= len(KeyNames) {
		return errors.New("key index out of range")
	}
	for ti := range s.Tracks {
		covered := make(map[int]bool)
		for beat, n := range s.Tracks[ti].Notes {
			if beat < 0 || beat >= s.BeatCount {
				return fmt.Errorf("track %v has a note outside the timeline at beat %v", ti+1, beat)
			}
			if err := n.validate(ti); err != nil {
				return fmt.Errorf("track %v beat %v: %w", ti+1, beat, err)
			}
			for b := beat; b < beat+n.Duration; b++ {
				if covered[b] {
					return fmt.Errorf("track %v has overlapping notes at beat %v", ti+1, b)
				}
				covered[b] = true
			}
		}
	}
	return nil
}

func (n Note) validate(track int) error {
	names := PitchNames
	if track == TrackDrums {
		names = DrumNames
	}
	if n.Pitch < 1 || n.Pitch >= len(names) {
		return errors.New("pitch out of range")
	}
	if track == TrackDrums {
		if n.Duration != 1 {
			return errors.New("drum notes always have duration 1")
		}
	} else {
		if n.Duration < MinDuration || n.Duration > MaxDuration {
			return fmt.Errorf("duration should be %v..%v", MinDuration, MaxDuration)
		}
		if n.Octave < MinOctave || n.Octave > MaxOctave {
			return fmt.Errorf("octave should be %v..%v", MinOctave, MaxOctave)
		}
	}
	if n.Velocity < 0 || n.Velocity > 1 {
		return errors.New("velocity should be 0..1")
	}
	return nil
}
