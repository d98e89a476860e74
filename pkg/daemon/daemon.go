package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/phmeter/pkg/config"
	"github.com/charlie0129/phmeter/pkg/events"
	"github.com/charlie0129/phmeter/pkg/frame"
)

var (
	conf             config.Config
	sseHub           = events.NewEventHub()
	results          = &resultStore{}
	sources          = newSourceManager(frame.Open)
	captureScheduler *Scheduler
)

// scheduleLead is how long before a scheduled capture subscribers are told
// about it.
const scheduleLead = 5 * time.Second

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/scale", getScale)
	router.POST("/classify", classify)
	router.POST("/measure", measure)
	router.POST("/capture", captureFrame)
	router.GET("/result", getResult)
	router.GET("/config", getConfig)
	router.PUT("/window-size", setWindowSize)
	router.PUT("/metric", setMetric)
	router.PUT("/source", setSource)
	router.GET("/schedule", getSchedule)
	router.PUT("/schedule", setSchedule)
	router.POST("/schedule/skip", skipSchedule)
	router.GET("/events", streamEvents)
	router.GET("/version", getVersion)

	return router
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	router := setupRoutes()

	var err error
	conf, err = config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	captureScheduler = NewScheduler(captureTask, sourceConfigured, onScheduleUpcoming, onScheduleError)
	captureScheduler.Lead = scheduleLead
	if err := applySchedule(); err != nil {
		logrus.Errorf("failed to apply schedule from config: %v", err)
	}
	captureScheduler.Start()

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			err := conf.Load()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")
			if err := applySchedule(); err != nil {
				logrus.Errorf("failed to apply reloaded schedule: %v", err)
			}
		}
	}()

	srv := &http.Server{
		Handler: router,
	}

	// A socket left behind by a crashed daemon would make Listen fail.
	if _, err := os.Stat(unixSocketPath); err == nil {
		logrus.Warnf("removing stale socket %s", unixSocketPath)
		if err := os.Remove(unixSocketPath); err != nil {
			logrus.Fatal(err)
		}
	}

	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("stopping scheduler")
	captureScheduler.Stop()

	logrus.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	logrus.Info("closing frame source")
	sources.Close()

	logrus.Info("exiting")
	return nil
}
