package winservice

import "github.com/zmgnet/zmgd/infrastructure/config"

// ServiceDescription names the service in the Windows service control
// manager.
type ServiceDescription struct {
	Name        string
	DisplayName string
	Description string
}

// MainFunc runs the node until shutdown is requested. It closes or
// signals startedChan once the node is up.
type MainFunc func(startedChan chan<- struct{}) error

// WinServiceMain reports whether the process ran as a Windows service or
// performed a service command, in which case the caller should exit. It
// always returns false outside Windows.
var WinServiceMain = func(MainFunc, *ServiceDescription, *config.Config) (bool, error) { return false, nil }
