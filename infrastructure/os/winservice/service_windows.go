// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package winservice

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/winsvc/eventlog"
	"github.com/btcsuite/winsvc/mgr"
	"github.com/btcsuite/winsvc/svc"
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/infrastructure/config"
	"github.com/zmgnet/zmgd/infrastructure/os/signal"
	"github.com/zmgnet/zmgd/version"
)

const (
	controlTimeout      = 10 * time.Second
	controlPollInterval = 300 * time.Millisecond
)

func init() {
	WinServiceMain = serviceMain
}

func serviceMain(main MainFunc, description *ServiceDescription, cfg *config.Config) (bool, error) {
	service := &Service{main: main, description: description, cfg: cfg}

	if cfg.ServiceOptions != nil && cfg.ServiceOptions.ServiceCommand != "" {
		return true, service.performServiceCommand(cfg.ServiceOptions.ServiceCommand)
	}

	interactive, err := svc.IsAnInteractiveSession()
	if err != nil || interactive {
		return false, err
	}
	return true, service.Start()
}

// Service adapts a MainFunc to the svc.Handler interface.
type Service struct {
	main        MainFunc
	description *ServiceDescription
	cfg         *config.Config
	eventLog    *eventlog.Log
}

// Start hands control to the service control manager and blocks until the
// service stops.
func (s *Service) Start() error {
	eventLog, err := eventlog.Open(s.description.Name)
	if err != nil {
		return err
	}
	s.eventLog = eventLog
	defer eventLog.Close()

	err = svc.Run(s.description.Name, s)
	if err != nil {
		eventLog.Error(1, fmt.Sprintf("Service start failed: %s", err))
	}
	return err
}

// Execute implements svc.Handler.
func (s *Service) Execute(_ []string, requests <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	changes <- svc.Status{State: svc.StartPending}

	done := make(chan error, 1)
	started := make(chan struct{})
	spawn("Service.main", func() {
		done <- s.main(started)
	})

	changes <- svc.Status{State: svc.Running, Accepts: svc.AcceptStop | svc.AcceptShutdown}
	for {
		select {
		case request := <-requests:
			switch request.Cmd {
			case svc.Interrogate:
				changes <- request.CurrentStatus
			case svc.Stop, svc.Shutdown:
				changes <- svc.Status{State: svc.StopPending}
				signal.ShutdownRequestChannel <- struct{}{}
			default:
				s.eventLog.Error(1, fmt.Sprintf("Unexpected control request #%d.", request.Cmd))
			}

		case <-started:
			started = nil
			s.eventLog.Info(1, s.startupMessage())

		case err := <-done:
			if err != nil {
				s.eventLog.Error(1, err.Error())
			}
			changes <- svc.Status{State: svc.Stopped}
			return false, 0
		}
	}
}

func (s *Service) startupMessage() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "%s version %s\n", s.description.DisplayName, version.Version())
	fmt.Fprintf(&builder, "Network: %s\n", s.cfg.ActiveNetParams.Name)
	fmt.Fprintf(&builder, "Configuration file: %s\n", s.cfg.ConfigFile)
	fmt.Fprintf(&builder, "Data directory: %s\n", s.cfg.DataDir)
	return builder.String()
}

func (s *Service) performServiceCommand(command string) error {
	switch command {
	case "install":
		return s.install()
	case "remove":
		return s.withService(func(service *mgr.Service) error {
			return service.Delete()
		})
	case "start":
		return s.withService(func(service *mgr.Service) error {
			return errors.Wrap(service.Start(os.Args), "could not start service")
		})
	case "stop":
		return s.withService(func(service *mgr.Service) error {
			return s.awaitState(service, svc.Stop, svc.Stopped)
		})
	default:
		return errors.Errorf("invalid service command [%s]", command)
	}
}

// withService connects to the service manager and runs f on the installed
// service.
func (s *Service) withService(f func(service *mgr.Service) error) error {
	serviceManager, err := mgr.Connect()
	if err != nil {
		return err
	}
	defer serviceManager.Disconnect()

	service, err := serviceManager.OpenService(s.description.Name)
	if err != nil {
		return errors.Wrapf(err, "service %s is not accessible", s.description.Name)
	}
	defer service.Close()

	return f(service)
}

func (s *Service) install() error {
	// os.Args[0] may lack both the directory and the extension under cmd.exe.
	exePath, err := filepath.Abs(os.Args[0])
	if err != nil {
		return err
	}
	if filepath.Ext(exePath) == "" {
		exePath += ".exe"
	}

	serviceManager, err := mgr.Connect()
	if err != nil {
		return err
	}
	defer serviceManager.Disconnect()

	if existing, err := serviceManager.OpenService(s.description.Name); err == nil {
		existing.Close()
		return errors.Errorf("service %s already exists", s.description.Name)
	}

	service, err := serviceManager.CreateService(s.description.Name, exePath, mgr.Config{
		DisplayName: s.description.DisplayName,
		Description: s.description.Description,
	})
	if err != nil {
		return err
	}
	defer service.Close()

	// Event messages go through EventCreate.exe's message file, so no
	// custom catalog is registered.
	eventlog.Remove(s.description.Name)
	return eventlog.InstallAsEventCreate(s.description.Name, uint32(eventlog.Error|eventlog.Warning|eventlog.Info))
}

// awaitState sends command to service and polls until it reaches target.
func (s *Service) awaitState(service *mgr.Service, command svc.Cmd, target svc.State) error {
	status, err := service.Control(command)
	if err != nil {
		return errors.Wrapf(err, "could not send control=%d", command)
	}

	deadline := time.Now().Add(controlTimeout)
	for status.State != target {
		if time.Now().After(deadline) {
			return errors.Errorf("timeout waiting for service to go to state=%d", target)
		}
		time.Sleep(controlPollInterval)
		status, err = service.Query()
		if err != nil {
			return errors.Wrap(err, "could not retrieve service status")
		}
	}
	return nil
}
