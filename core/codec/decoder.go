package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/FocuswithJustin/dansk/core/errors"
	"github.com/FocuswithJustin/dansk/core/tokenize"
	"github.com/FocuswithJustin/dansk/core/transcode"
)

// State is the phase of a decode session.
type State uint8

const (
	// Accumulating buffers chunks without producing output.
	Accumulating State = iota
	// ReadyToFinalize holds the complete input while the pipeline runs.
	ReadyToFinalize
	// Done means the session has produced its output or failed.
	Done
)

func (s State) String() string {
	switch s {
	case Accumulating:
		return "accumulating"
	case ReadyToFinalize:
		return "ready-to-finalize"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// IncrementalDecoder is the streaming side of a codec.
type IncrementalDecoder interface {
	// Decode feeds chunk. Until final is set nothing is emitted.
	Decode(chunk []byte, final bool) (string, int, error)
	// Reset discards buffered input and starts a fresh session.
	Reset()
}

// Options configures a Decoder.
type Options struct {
	// SkipLeadingLine drops the first physical line, normally the coding
	// declaration, before translating.
	SkipLeadingLine bool
	// Filename is used in error messages.
	Filename string
	// Pipeline overrides the default Danish pipeline.
	Pipeline *transcode.Pipeline
}

// Decoder buffers source until the final chunk arrives and then translates
// the whole buffer at once. The tokenizer cannot run on a prefix, since an
// open bracket or string on the last line of a chunk is only an error if
// the input really ends there.
//
// A Decoder is not safe for concurrent use; give each session its own.
type Decoder struct {
	opts  Options
	buf   []byte
	state State
	stats transcode.Stats
}

// NewDecoder returns a Decoder in the Accumulating state.
func NewDecoder(opts Options) *Decoder {
	if opts.Pipeline == nil {
		opts.Pipeline = transcode.Default
	}
	return &Decoder{opts: opts}
}

// Decode appends chunk to the session buffer. With final unset it returns
// ("", 0, nil). With final set it translates the entire buffer and returns
// the text and the number of bytes consumed, which is the buffer length.
// A failed translation returns no text, discards the buffer and ends the
// session. Calling Decode after the session ended starts a new one.
func (d *Decoder) Decode(chunk []byte, final bool) (string, int, error) {
	if d.state == Done {
		d.Reset()
	}
	d.buf = append(d.buf, chunk...)
	if !final {
		return "", 0, nil
	}

	d.state = ReadyToFinalize
	consumed := len(d.buf)
	text, stats, err := d.translate(d.buf)
	d.buf = nil
	d.state = Done
	if err != nil {
		return "", 0, err
	}
	d.stats = stats
	return text, consumed, nil
}

func (d *Decoder) translate(src []byte) (string, transcode.Stats, error) {
	src, hadBOM := tokenize.StripBOM(src)
	if d.opts.SkipLeadingLine {
		src = skipLine(src)
	}
	text, stats, err := d.opts.Pipeline.Translate(d.opts.Filename, src)
	if err != nil {
		return "", transcode.Stats{}, err
	}
	if hadBOM {
		text = "\ufeff" + text
	}
	return text, stats, nil
}

// Reset discards buffered input and returns to Accumulating.
func (d *Decoder) Reset() {
	d.buf = nil
	d.state = Accumulating
	d.stats = transcode.Stats{}
}

// State reports the current phase of the session.
func (d *Decoder) State() State { return d.state }

// Buffered reports how many bytes are waiting for the final chunk.
func (d *Decoder) Buffered() int { return len(d.buf) }

// Stats describes the last successful translation.
func (d *Decoder) Stats() transcode.Stats { return d.stats }

// ReadAll feeds r to d in chunks and finalizes at EOF.
func ReadAll(d IncrementalDecoder, r io.Reader) (string, int, error) {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, _, derr := d.Decode(buf[:n], false); derr != nil {
				return "", 0, derr
			}
		}
		if err == io.EOF {
			return d.Decode(nil, true)
		}
		if err != nil {
			d.Reset()
			return "", 0, errors.NewIO("read", "", err)
		}
	}
}

// skipLine drops everything up to and including the first line feed.
func skipLine(src []byte) []byte {
	if i := bytes.IndexByte(src, '\n'); i >= 0 {
		return src[i+1:]
	}
	return nil
}
