package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/speakeasy/internal/config"
	"github.com/dgnsrekt/speakeasy/internal/relay"
	"github.com/dgnsrekt/speakeasy/internal/synth"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the synthesis relay",
	Long: paragraph(fmt.Sprintf("\n%s a websocket relay that answers TTS requests using Hume, "+
		"or a local tone generator for offline use. Voice and rate limits reload when the config file changes.", keyword("Serve"))),
	Example: paragraph("speakeasy serve\nspeakeasy serve --provider tone --addr :9000"),
	Args:    cobra.NoArgs,
	RunE:    runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "address to listen on")
	serveCmd.Flags().String("provider", "", "synthesis provider: hume or tone")
	serveCmd.Flags().String("voice", "", "voice name or id passed to the provider")

	_ = viper.BindPFlag("relay.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("relay.provider", serveCmd.Flags().Lookup("provider"))
	_ = viper.BindPFlag("relay.voice", serveCmd.Flags().Lookup("voice"))
}

func newSynthesizer(rc config.RelayConfig) (synth.Synthesizer, error) {
	switch rc.Provider {
	case config.ProviderTone:
		return synth.NewToneSynthesizer(), nil
	case config.ProviderHume, "":
		opts := []synth.HumeOption{synth.WithLogger(log.Default().WithPrefix("hume"))}
		if rc.BaseURL != "" {
			opts = append(opts, synth.WithBaseURL(rc.BaseURL))
		}
		return synth.NewHumeClient(rc.APIKey, opts...)
	default:
		return nil, fmt.Errorf("unknown provider %q", rc.Provider)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc := cfg.Relay
	s, err := newSynthesizer(rc)
	if err != nil {
		return err
	}

	srv := relay.NewServer(s, relay.Options{
		Voice:          rc.Voice,
		RateLimit:      rc.RateLimit,
		Burst:          rc.Burst,
		RequestTimeout: rc.Timeout,
	})

	if viper.ConfigFileUsed() != "" {
		viper.OnConfigChange(func(e fsnotify.Event) {
			log.Info("Config file changed", "path", e.Name, "op", e.Op.String())
			c, err := config.Load(viper.GetViper())
			if err != nil {
				log.Warn("Ignoring invalid configuration", "err", err)
				return
			}
			if c.Relay.Provider != rc.Provider || c.Relay.Addr != rc.Addr {
				log.Warn("Provider and address changes need a restart")
			}
			srv.Reconfigure(c.Relay.Voice, c.Relay.RateLimit, c.Relay.Burst, c.Relay.Timeout)
		})
		viper.WatchConfig()
	}

	httpSrv := &http.Server{
		Addr:              rc.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("Relay listening", "addr", rc.Addr, "provider", rc.Provider)
		fmt.Fprintln(os.Stderr, paragraph(fmt.Sprintf("Relay listening on %s", keyword("ws://"+rc.Addr+"/ws"))))
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("relay stopped: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down relay")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("relay shutdown: %w", err)
	}
	return nil
}
