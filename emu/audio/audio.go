// Package audio plays the buzzer while the sound timer is running.
package audio

import (
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/pkg/errors"
)

const (
	// SampleRate is the speaker rate; sampled files are resampled to it.
	SampleRate beep.SampleRate = 44100
	// Frequency of the generated tone, in Hz.
	Frequency = 440
	volume    = 0.25
)

// Beeper is a looping sound that is paused whenever the sound timer is 0.
type Beeper struct {
	ctrl   *beep.Ctrl
	closer func() error
}

// Tone returns an endless square wave at freq Hz.
func Tone(sr beep.SampleRate, freq int) beep.Streamer {
	period := sr.N(time.Second) / freq
	if period < 2 {
		period = 2
	}
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := volume
			if pos >= period/2 {
				v = -volume
			}
			samples[i][0], samples[i][1] = v, v
			pos = (pos + 1) % period
		}
		return len(samples), true
	})
}

// New initialises the speaker and starts a paused beeper. If path is
// empty a square tone is used, otherwise the mp3 file at path is looped.
func New(path string) (*Beeper, error) {
	source := Tone(SampleRate, Frequency)
	closer := func() error { return nil }
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "open beep sound")
		}
		stream, format, err := mp3.Decode(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "decode %s", path)
		}
		source = beep.Resample(4, format.SampleRate, SampleRate, beep.Loop(-1, stream))
		closer = stream.Close
	}

	if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
		closer()
		return nil, errors.Wrap(err, "init speaker")
	}

	b := &Beeper{
		ctrl:   &beep.Ctrl{Streamer: source, Paused: true},
		closer: closer,
	}
	speaker.Play(b.ctrl)
	return b, nil
}

// Update starts or stops the sound.
func (b *Beeper) Update(active bool) {
	speaker.Lock()
	b.ctrl.Paused = !active
	speaker.Unlock()
}

// Close silences the beeper and releases the sound file.
func (b *Beeper) Close() error {
	b.Update(false)
	return b.closer()
}
