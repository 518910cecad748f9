package storage

import (
	"fmt"

	"docgateway/internal/config"
)

// Open builds the transient store selected by cfg.Transient.Backend.
func Open(cfg *config.AppConfig) (TransientStore, error) {
	switch cfg.Transient.Backend {
	case config.BackendDisk, "":
		return NewDisk(cfg.Transient.Directory)
	case config.BackendMinIO:
		return NewMinIO(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown transient backend %q", cfg.Transient.Backend)
	}
}
