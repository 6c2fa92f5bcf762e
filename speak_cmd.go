package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dgnsrekt/speakeasy/internal/audio"
	"github.com/dgnsrekt/speakeasy/internal/protocol"
	"github.com/dgnsrekt/speakeasy/internal/transport"
	"github.com/dgnsrekt/speakeasy/internal/tts"
)

var errNoRelay = errors.New("no relay connection")

var (
	speakCmd = &cobra.Command{
		Use:   "speak [TEXT...]",
		Short: "Synthesize text through the relay and play it",
		Long: paragraph(fmt.Sprintf("\n%s the given text, text piped on stdin, or each line typed at the prompt. "+
			"A new line interrupts whatever is playing; type /stop to go quiet.", keyword("Speak"))),
		Example: paragraph("speakeasy speak \"Hello there\"\necho 'Build finished' | speakeasy speak\nspeakeasy speak"),
		RunE:    runSpeak,
	}

	playCmd = &cobra.Command{
		Use:     "play URL...",
		Short:   "Play prerecorded audio files or URLs",
		Long:    paragraph(fmt.Sprintf("\n%s WAV or MP3 assets from http(s) URLs, file:// URLs or local paths, one after another.", keyword("Play"))),
		Example: paragraph("speakeasy play ~/sounds/chime.wav\nspeakeasy play https://example.com/done.mp3"),
		Args:    cobra.MinimumNArgs(1),
		RunE:    runPlay,
	}
)

// playback wires a coordinator to an optional relay connection and
// funnels responses and state changes into one goroutine.
type playback struct {
	coord     *tts.Coordinator
	conn      *transport.Conn
	responses chan protocol.TTSResponse
	changes   chan tts.StateChange
	quit      chan struct{}
	out       io.Writer
}

func newPlayback(ctx context.Context, withRelay bool) (*playback, error) {
	p := &playback{
		responses: make(chan protocol.TTSResponse, 16),
		changes:   make(chan tts.StateChange, 64),
		quit:      make(chan struct{}),
		out:       os.Stderr,
	}

	var sender tts.Sender = tts.SenderFunc(func(protocol.TTSRequest) error { return errNoRelay })
	if withRelay {
		conn, err := transport.Dial(ctx, cfg.Client.Endpoint, func(msg protocol.TTSResponse) {
			select {
			case p.responses <- msg:
			case <-p.quit:
			}
		})
		if err != nil {
			return nil, err
		}
		p.conn = conn
		sender = conn
	}

	kind, err := audio.ParseEngineKind(cfg.Playback.Engine)
	if err != nil {
		return nil, err
	}
	engineOpts := cfg.Playback.EngineOptions()

	p.coord = tts.NewCoordinator(sender,
		tts.WithEngineFactory(func() (audio.Engine, error) { return audio.NewEngine(kind, engineOpts) }),
		tts.WithRequestTimeout(cfg.Playback.RequestTimeout),
		tts.WithErrorRevertDelay(cfg.Playback.ErrorRevertDelay),
		tts.WithObserver(func(change tts.StateChange) {
			select {
			case p.changes <- change:
			case <-p.quit:
			}
		}),
	)

	return p, nil
}

func (p *playback) connDone() <-chan struct{} {
	if p.conn == nil {
		return nil
	}
	return p.conn.Done()
}

func (p *playback) connErr() error {
	if err := p.conn.Err(); err != nil {
		return fmt.Errorf("relay connection lost: %w", err)
	}
	return errors.New("relay closed the connection")
}

func (p *playback) report(change tts.StateChange) {
	line := stateBadge(change.To)
	if change.To == tts.StateError {
		if err := p.coord.LastError(); err != nil {
			line += " " + faint(err.Error())
		}
	}
	fmt.Fprintln(p.out, line)
}

// await pumps events until the current utterance finishes or fails.
func (p *playback) await(ctx context.Context) error {
	for {
		select {
		case msg := <-p.responses:
			p.coord.HandleResponse(msg)
		case change := <-p.changes:
			p.report(change)
			switch {
			case change.From == tts.StatePlaying && change.To == tts.StateIdle:
				return nil
			case change.To == tts.StateError:
				return p.coord.LastError()
			}
		case <-p.connDone():
			return p.connErr()
		case <-ctx.Done():
			p.coord.Stop()
			return ctx.Err()
		}
	}
}

// interactive speaks each line read from in until EOF.
func (p *playback) interactive(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-p.quit:
				return
			}
		}
	}()

	fmt.Fprintln(p.out, faint("Type a line to speak it. /stop silences, /stats shows cache use, Ctrl+D exits."))

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch text := strings.TrimSpace(line); text {
			case "":
			case "/stop":
				p.coord.Stop()
			case "/stats":
				p.printStats()
			default:
				p.coord.Speak(text)
			}
		case msg := <-p.responses:
			p.coord.HandleResponse(msg)
		case change := <-p.changes:
			p.report(change)
		case <-p.connDone():
			return p.connErr()
		case <-ctx.Done():
			return nil
		}
	}
}

func (p *playback) printStats() {
	st := p.coord.Stats()
	fmt.Fprintf(p.out, "%s speech %s (%s), assets %s (%s)\n",
		keyword("cache"),
		st.Text, humanize.Bytes(uint64(st.Text.Size)),
		st.URL, humanize.Bytes(uint64(st.URL.Size)))
}

func (p *playback) Close() error {
	close(p.quit)
	err := p.coord.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func runSpeak(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := newPlayback(ctx, true)
	if err != nil {
		return err
	}
	defer p.Close() //nolint:errcheck

	text := strings.Join(args, " ")
	stdinIsTerminal := term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec

	switch {
	case strings.TrimSpace(text) != "":
	case stdinIsTerminal:
		return p.interactive(ctx, os.Stdin)
	default:
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("unable to read from stdin: %w", err)
		}
		text = string(b)
	}

	if strings.TrimSpace(text) == "" {
		return errors.New("nothing to speak")
	}

	log.Debug("Speaking", "chars", len(text))
	p.coord.Speak(text)
	return p.await(ctx)
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := newPlayback(ctx, false)
	if err != nil {
		return err
	}
	defer p.Close() //nolint:errcheck

	for _, location := range args {
		if location == "" {
			continue
		}
		p.coord.PlayPrerecordedAudio(ctx, location)
		if err := p.await(ctx); err != nil {
			return err
		}
	}

	if verbose {
		p.printStats()
	}
	return nil
}
