package audio

import (
	"os"
	"os/exec"
	"runtime"
	"strconv"
)

// player is one stdin PCM sink probed by DetectBackend
type player struct {
	typ  BackendType
	bin  string
	args func(rate, channels string) []string
}

// players in probe order, first found wins
var players = []player{
	{BackendPulse, "pacat", func(r, ch string) []string {
		return []string{"--raw", "--format=s16le", "--rate=" + r, "--channels=" + ch, "--latency-msec=50", "--playback"}
	}},
	{BackendPipeWire, "pw-cat", func(r, ch string) []string {
		return []string{"--playback", "--format=s16", "--rate=" + r, "--channels=" + ch, "--latency=50ms", "-"}
	}},
	{BackendALSA, "aplay", func(r, ch string) []string {
		return []string{"-t", "raw", "-f", "S16_LE", "-r", r, "-c", ch, "-q"}
	}},
	{BackendSoX, "play", func(r, ch string) []string {
		return []string{"-t", "raw", "-e", "signed", "-b", "16", "-c", ch, "-r", r, "-", "-d", "-q"}
	}},
	{BackendFFplay, "ffplay", func(r, ch string) []string {
		return []string{"-nodisp", "-autoexit", "-f", "s16le", "-ac", ch, "-ar", r,
			"-probesize", "32", "-analyzeduration", "0", "-i", "pipe:0", "-loglevel", "quiet"}
	}},
}

const ossDevice = "/dev/dsp"

// DetectBackend searches PATH for a player accepting raw s16le PCM on stdin
// FreeBSD falls back to writing the OSS device directly
func DetectBackend(rate, channels int) (*BackendConfig, error) {
	return detectBackend(exec.LookPath, ossAvailable, rate, channels)
}

func ossAvailable() bool {
	if runtime.GOOS != "freebsd" {
		return false
	}
	_, err := os.Stat(ossDevice)
	return err == nil
}

func detectBackend(lookPath func(string) (string, error), oss func() bool, rate, channels int) (*BackendConfig, error) {
	r, ch := strconv.Itoa(rate), strconv.Itoa(channels)
	for _, p := range players {
		path, err := lookPath(p.bin)
		if err != nil {
			continue
		}
		return &BackendConfig{
			Type: p.typ,
			Name: p.typ.String(),
			Path: path,
			Args: p.args(r, ch),
		}, nil
	}
	if oss() {
		return &BackendConfig{Type: BackendOSS, Name: BackendOSS.String(), Path: ossDevice}, nil
	}
	return nil, ErrNoAudioBackend
}
