package codec

import (
	"github.com/toybox/musicbox"
)

// Decoders for formats 1 through 4. Every format ever shipped keeps its
// decoder forever: a share URL from any old build must keep loading. Each
// decoder fills in the full current field set, stating the defaults for
// fields its format never carried in one place.

// legacyBeatCounts is the v1/v2 length table. The wire payload of those
// formats holds exactly this many beats of note slots.
var legacyBeatCounts = [4]int{8, 16, 24, 32}

// legacyBeatCountMap lifts each v1/v2 length into the current BeatCounts
// domain: the smallest current length that fits every wire beat, so nothing
// already on the timeline is dropped.
var legacyBeatCountMap = [4]int{16, 16, 32, 32}

// decodeV1 reads the original format: header speed(2) loop(1) length(2),
// then per beat melody pitch(4), bass pitch(3), drums pitch(3).
//
// v1 defaults: mode kid, key C Major, duration 1, velocity 1, octave 5 on
// melody and 3 on bass.
func decodeV1(data []byte) musicbox.Song {
	r := &bitReader{data: data}
	song := musicbox.Song{Mode: musicbox.ModeKid}
	song.SpeedIndex = r.readBits(2)
	song.Loop = r.readBits(1) == 1
	lengthIndex := r.readBits(2)
	song.BeatCount = legacyBeatCountMap[lengthIndex]
	song.BPM = song.EffectiveBPM()
	for beat := 0; beat < legacyBeatCounts[lengthIndex]; beat++ {
		if pitch := r.readBits(4); pitch >= 1 && pitch < len(musicbox.PitchNames) {
			song.Tracks[musicbox.TrackMelody].SetNote(beat, musicbox.Note{
				Pitch: pitch, Duration: 1, Velocity: 1, Octave: musicbox.DefaultOctaves[musicbox.TrackMelody],
			})
		}
		if pitch := r.readBits(3); pitch >= 1 && pitch < len(musicbox.PitchNames) {
			song.Tracks[musicbox.TrackBass].SetNote(beat, musicbox.Note{
				Pitch: pitch, Duration: 1, Velocity: 1, Octave: musicbox.DefaultOctaves[musicbox.TrackBass],
			})
		}
		if pitch := r.readBits(3); pitch >= 1 && pitch < len(musicbox.DrumNames) {
			song.Tracks[musicbox.TrackDrums].SetNote(beat, musicbox.Note{
				Pitch: pitch, Duration: 1, Velocity: 1,
			})
		}
	}
	return song
}

// decodeV2 reads the second format, which added a duration(3) field after
// the melody and bass pitches. The header and all defaults match v1.
func decodeV2(data []byte) musicbox.Song {
	r := &bitReader{data: data}
	song := musicbox.Song{Mode: musicbox.ModeKid}
	song.SpeedIndex = r.readBits(2)
	song.Loop = r.readBits(1) == 1
	lengthIndex := r.readBits(2)
	song.BeatCount = legacyBeatCountMap[lengthIndex]
	song.BPM = song.EffectiveBPM()
	for beat := 0; beat < legacyBeatCounts[lengthIndex]; beat++ {
		readLegacyPianoSlot(r, &song.Tracks[musicbox.TrackMelody], beat, 4, musicbox.DefaultOctaves[musicbox.TrackMelody])
		readLegacyPianoSlot(r, &song.Tracks[musicbox.TrackBass], beat, 3, musicbox.DefaultOctaves[musicbox.TrackBass])
		readDrumSlot(r, &song.Tracks[musicbox.TrackDrums], beat, false)
	}
	return song
}

// decodeV3 reads the third format: key(4) joins the header, the bass pitch
// widens to 4 bits, and the length table becomes the current one.
//
// v3 defaults: mode kid, velocity 1, octave 5 on melody and 3 on bass.
func decodeV3(data []byte) musicbox.Song {
	r := &bitReader{data: data}
	song := musicbox.Song{Mode: musicbox.ModeKid}
	song.SpeedIndex = r.readBits(2)
	song.Loop = r.readBits(1) == 1
	song.BeatCount = musicbox.BeatCounts[r.readBits(2)]
	song.KeyIndex = r.readBits(4)
	song.BPM = song.EffectiveBPM()
	for beat := 0; beat < song.BeatCount; beat++ {
		readLegacyPianoSlot(r, &song.Tracks[musicbox.TrackMelody], beat, 4, musicbox.DefaultOctaves[musicbox.TrackMelody])
		readLegacyPianoSlot(r, &song.Tracks[musicbox.TrackBass], beat, 4, musicbox.DefaultOctaves[musicbox.TrackBass])
		readDrumSlot(r, &song.Tracks[musicbox.TrackDrums], beat, false)
	}
	return song
}

// decodeV4 reads the fourth format: mode(2) joins the header and every track
// gains a velocity(4) field.
//
// v4 defaults: octave 5 on melody and 3 on bass.
func decodeV4(data []byte) musicbox.Song {
	r := &bitReader{data: data}
	song := musicbox.Song{}
	song.Mode = readMode(r)
	song.SpeedIndex = r.readBits(2)
	song.Loop = r.readBits(1) == 1
	song.BeatCount = musicbox.BeatCounts[r.readBits(2)]
	song.KeyIndex = r.readBits(4)
	song.BPM = song.EffectiveBPM()
	for beat := 0; beat < song.BeatCount; beat++ {
		readPianoSlot(r, &song.Tracks[musicbox.TrackMelody], beat, true, false, musicbox.DefaultOctaves[musicbox.TrackMelody])
		readPianoSlot(r, &song.Tracks[musicbox.TrackBass], beat, true, false, musicbox.DefaultOctaves[musicbox.TrackBass])
		readDrumSlot(r, &song.Tracks[musicbox.TrackDrums], beat, true)
	}
	return song
}

// readLegacyPianoSlot reads a v2/v3 piano slot: a pitch of the given width
// followed by duration(3), with no velocity or octave on the wire.
func readLegacyPianoSlot(r *bitReader, t *musicbox.Track, beat, pitchBits, defaultOctave int) {
	pitch := r.readBits(pitchBits)
	duration := r.readBits(3) + 1
	if pitch < 1 || pitch >= len(musicbox.PitchNames) {
		return
	}
	t.SetNote(beat, musicbox.Note{Pitch: pitch, Duration: duration, Velocity: 1, Octave: defaultOctave})
}
