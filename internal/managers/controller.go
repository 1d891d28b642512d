package managers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gridswap/swapdash/internal/controllers/dashboard"
	"github.com/gridswap/swapdash/internal/controllers/management"
	"github.com/gridswap/swapdash/internal/simclient"
	"github.com/gridswap/swapdash/internal/storage"
	"github.com/gridswap/swapdash/internal/types"
	"github.com/gridswap/swapdash/pkg/config"
)

// ControllerManager interface for the controller manager
type ControllerManager interface {
	StartControllers() error
}

// Controller is an interface that provides standard methods for various controller backends
type Controller interface {
	StartController() error
}

// NewControllerManager creates a new controller manager
func NewControllerManager(ctx context.Context, wg *sync.WaitGroup, provider config.ConfigProvider,
	archiveChan chan<- types.RunRecord, archive storage.ArchiveReader, logger *zap.SugaredLogger) (ControllerManager, error) {

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %v", err)
	}

	cm := &controllerManager{
		ctx:         ctx,
		wg:          wg,
		provider:    provider,
		config:      cfgData,
		archiveChan: archiveChan,
		archive:     archive,
		logger:      logger,
		controllers: make([]Controller, 0),
	}

	for _, con := range cfgData.Controllers {
		controller, err := cm.createController(con)
		if err != nil {
			return nil, fmt.Errorf("error creating controller: %v", err)
		}
		cm.controllers = append(cm.controllers, controller)
	}

	return cm, nil
}

type controllerManager struct {
	ctx         context.Context
	wg          *sync.WaitGroup
	provider    config.ConfigProvider
	config      *config.ConfigData
	archiveChan chan<- types.RunRecord
	archive     storage.ArchiveReader
	logger      *zap.SugaredLogger
	controllers []Controller
}

func (c *controllerManager) StartControllers() error {
	c.logger.Info("Starting controller manager...")

	for _, controller := range c.controllers {
		err := controller.StartController()
		if err != nil {
			return fmt.Errorf("error starting controller: %v", err)
		}
	}

	c.logger.Infof("Started %d controllers successfully", len(c.controllers))
	return nil
}

// createController creates a controller based on the controller configuration
func (cm *controllerManager) createController(cc config.ControllerData) (Controller, error) {
	switch cc.Type {
	case "dashboard":
		client := cm.newSimClient()
		return dashboard.NewController(cm.ctx, cm.wg, cm.provider, cc.Dashboard, client, cm.archiveChan, cm.logger)
	case "management":
		return management.NewController(cm.ctx, cm.wg, cm.provider, cc.ManagementAPI, cm.archive, cm.logger)
	default:
		return nil, fmt.Errorf("unknown controller type: %s", cc.Type)
	}
}

// newSimClient builds a simulation service client from the configured
// connection settings.
func (cm *controllerManager) newSimClient() *simclient.Client {
	sim := cm.config.SimService
	timeout := simclient.DefaultTimeout
	if sim.TimeoutSeconds > 0 {
		timeout = time.Duration(sim.TimeoutSeconds) * time.Second
	}
	return simclient.New(sim.BaseURL, timeout, cm.logger)
}
