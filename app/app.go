package app

import (
	"fmt"
	"os"

	"github.com/zmgnet/zmgd/infrastructure/config"
	"github.com/zmgnet/zmgd/infrastructure/logger"
	"github.com/zmgnet/zmgd/infrastructure/os/execenv"
	"github.com/zmgnet/zmgd/infrastructure/os/signal"
	"github.com/zmgnet/zmgd/infrastructure/os/winservice"
	"github.com/zmgnet/zmgd/util/panics"
	"github.com/zmgnet/zmgd/util/profiling"
	"github.com/zmgnet/zmgd/version"
)

var serviceDescription = &winservice.ServiceDescription{
	Name:        "zmgdsvc",
	DisplayName: "Zmgd Service",
	Description: "Validates blocks and transactions and maintains the chain state of the zmg network.",
}

type zmgdApp struct {
	cfg *config.Config
}

// StartApp starts the zmgd app, and blocks until it finishes running
func StartApp() error {
	execenv.Initialize()

	// Load configuration and parse command line. This function also
	// initializes logging and configures it accordingly.
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprint(os.Stderr, err)
		return err
	}
	defer logger.BackendLog.Close()
	defer panics.HandlePanic(log, "MAIN", nil)

	app := &zmgdApp{cfg: cfg}

	// Call serviceMain on Windows to handle running as a service. When
	// the return isService flag is true, exit now since we ran as a
	// service. Otherwise, just fall through to normal operation.
	isService, err := winservice.WinServiceMain(app.main, serviceDescription, cfg)
	if err != nil {
		return err
	}
	if isService {
		return nil
	}

	return app.main(nil)
}

func (app *zmgdApp) main(startedChan chan<- struct{}) error {
	// Get a channel that will be closed when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C) or from
	// another subsystem such as a storage failure.
	interrupt := signal.InterruptListener()
	defer log.Info("Shutdown complete")

	log.Infof("Version %s", version.Version())

	// Enable http profiling server if requested.
	if app.cfg.Profile != "" {
		profiling.Start(app.cfg.Profile, log)
	}

	db, err := openDB(app.cfg)
	if err != nil {
		log.Errorf("Loading database failed: %+v", err)
		return err
	}
	defer func() {
		log.Infof("Gracefully shutting down the database...")
		err := db.Close()
		if err != nil {
			log.Errorf("Failed to close the database: %s", err)
		}
	}()

	// Return now if an interrupt signal was triggered.
	if signal.InterruptRequested(interrupt) {
		return nil
	}

	componentManager, err := NewComponentManager(app.cfg, db)
	if err != nil {
		log.Errorf("Unable to start zmgd: %+v", err)
		return err
	}
	defer componentManager.Stop()

	componentManager.Start()

	if startedChan != nil {
		startedChan <- struct{}{}
	}

	// Wait until the interrupt signal is received from an OS signal or
	// shutdown is requested through one of the subsystems such as a
	// storage failure.
	<-interrupt
	return nil
}
