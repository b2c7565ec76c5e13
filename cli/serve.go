package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/maastricht-university/speech-emotion/logging"
	"github.com/maastricht-university/speech-emotion/orchestrator"
	"github.com/maastricht-university/speech-emotion/pipelineerr"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.logger(cmd)
			if addr == "" {
				addr = cfg.Server.Addr
			}

			analyzer, cleanup, err := ctx.newAnalyzer(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()

			srv := &http.Server{
				Addr:              addr,
				Handler:           NewHandler(analyzer, int64(cfg.Server.MaxUploadMB)<<20, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.WithField("addr", addr).Info("listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return pipelineerr.Wrap(pipelineerr.ErrIO, "serve", "listen", addr, err)
			case <-runCtx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			logger.Info("shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

type handler struct {
	analyzer  Analyzer
	maxUpload int64
	logger    logrus.FieldLogger
}

// NewHandler exposes POST /analyze and GET /healthz.
func NewHandler(analyzer Analyzer, maxUpload int64, logger logrus.FieldLogger) http.Handler {
	if maxUpload <= 0 {
		maxUpload = 50 << 20
	}
	h := &handler{analyzer: analyzer, maxUpload: maxUpload, logger: logging.Component(logger, "server")}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("POST /analyze", h.analyze)
	return mux
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, pipelineerr.Wrap(pipelineerr.ErrValidation, "serve", "parse form", "", err))
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		respondError(w, pipelineerr.Wrap(pipelineerr.ErrValidation, "serve", "upload", "no audio file uploaded", nil))
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(hdr.Filename))
	if err != nil {
		respondError(w, pipelineerr.Wrap(pipelineerr.ErrIO, "serve", "upload", "", err))
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	_, err = io.Copy(tmp, file)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		respondError(w, pipelineerr.Wrap(pipelineerr.ErrIO, "serve", "upload", "", err))
		return
	}

	patient := orchestrator.Patient{
		Name:   r.FormValue("patientName"),
		Age:    r.FormValue("patientAge"),
		Gender: r.FormValue("patientGender"),
	}
	log := h.logger.WithField("upload", hdr.Filename)
	res, err := h.analyzer.Run(r.Context(), tmpPath, patient)
	h.analyzer.Forget(tmpPath)
	if err != nil {
		log.WithError(err).Error("analysis failed")
		respondError(w, err)
		return
	}
	log.Info("analysis served")
	respond(w, http.StatusOK, res)
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, err error) {
	respond(w, pipelineerr.HTTPStatus(err), map[string]string{"error": err.Error()})
}
