package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jatin-wig/Brain-Tumor-Detection/internal/classify"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/config"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/handlers"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/logging"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/metrics"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/model"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 120 * time.Second
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Brain MRI tumor classification API",
	Long: `Serves the brain MRI classifier over HTTP. Upload a JPEG or PNG scan to
/predict/image and receive the predicted class, its confidence and display copy.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file (default $BTD_CONFIG)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return err
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	root, err := config.ProjectRoot()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg.ResolvePaths(root)

	log.Infof("Loading model from: %s", cfg.ModelPath)
	modelServer, err := model.Load(cfg.ModelPath, cfg.MetadataPath,
		model.WithSharedLibraryPath(cfg.OnnxRuntimeLib),
		model.WithIntraOpThreads(cfg.IntraOpThreads),
	)
	if err != nil {
		log.Fatalf("Failed to initialize model server: %v", err)
	}
	defer modelServer.Close()

	m := metrics.NewManager(metrics.WithRuntimeMetrics(true))
	svc, err := classify.New(modelServer, classify.WithMetrics(m))
	if err != nil {
		return err
	}

	handler := handlers.NewHandler(svc, m, cfg.MaxUploadBytes)
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: handler.Routes(handlers.RouterOptions{
			RateLimit:  cfg.RateLimit,
			RateWindow: cfg.RateWindow(),
		}),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server starting on %s", cfg.Addr)
		log.Infof("Classes: %v", svc.Labels().Names())
		log.Info("Endpoints:")
		for _, e := range handlers.Endpoints() {
			log.Info("  " + e)
		}
		log.Infof("Upload test: curl -X POST -F \"image=@scan.jpg\" http://localhost%s/predict/image", displayAddr(cfg.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
	log.Info("Server stopped")
	return nil
}

// displayAddr turns a listen address into the host part of a local URL.
func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return addr
	}
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i:]
	}
	return ":" + addr
}
