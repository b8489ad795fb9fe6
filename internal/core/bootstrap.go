package core

import (
	"fmt"
	"path/filepath"
	"sort"

	"example.com/backstage/services/devicetype/internal/devicetype"
	"github.com/sirupsen/logrus"
)

// LoadDeviceTypes registers a service for every *.xml document in dir, in
// lexical file order. The first parse or registration failure aborts loading
// and is returned; types registered before it stay registered.
func LoadDeviceTypes(dir string, opts BuildOptions, gen *DeviceTypeGenerator, registry *ServiceRegistry, logger *logrus.Logger) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.xml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list device type documents: %w", err)
	}
	sort.Strings(paths)

	loaded := make([]string, 0, len(paths))
	for _, path := range paths {
		cfg, err := devicetype.LoadFile(path)
		if err != nil {
			return loaded, err
		}

		def := BuildDefinition(cfg, opts)
		svc, err := gen.PopulateDeviceManagementService(cfg.Name, def)
		if err != nil {
			return loaded, err
		}
		if err := registry.Register(svc); err != nil {
			return loaded, fmt.Errorf("%s: %w", path, err)
		}

		loaded = append(loaded, svc.Type())
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"device_type": svc.Type(),
				"family":      svc.Family(),
				"features":    len(def.Features),
				"file":        path,
			}).Info("Device type registered")
		}
	}

	return loaded, nil
}
