package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-account-service/internal/config"
	"github.com/jrsteele09/go-account-service/internal/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running server")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	logger.Init(c.GetLogLevel(), c.IsDev())
	displayAppname(c.GetAppName())

	ctx := context.Background()
	app, err := buildApp(ctx, c)
	if err != nil {
		return err
	}
	defer app.close()

	server := &http.Server{Addr: c.GetPort(), Handler: app.server}
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- listenAndServe(server)
	}()

	select {
	case err := <-serverErr:
		returnError = err
	case <-waitForStopSignal():
		returnError = shutdown(server)
	}

	drainNotifications(app.notifier, returnError)
	return returnError
}

type waiter interface {
	Wait()
}

// drainNotifications lets in-flight welcome and goodbye emails finish. After a
// failed shutdown handlers may still be starting dispatches, so it skips the wait.
func drainNotifications(n waiter, shutdownErr error) bool {
	if shutdownErr != nil {
		log.Warn().Err(shutdownErr).Msg("skipping notification drain")
		return false
	}
	n.Wait()
	return true
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
