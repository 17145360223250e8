package handler

import (
	"github.com/johnwards/ciassoc/internal/config"
)

// Property names read from the configuration source, in extraction order.
const (
	PropRemoteHost = "remoteHost"
	PropRemotePort = "remotePort"
	PropTargetFDN  = "targetFdn"
)

// Properties lists the required properties in the order they are checked.
var Properties = []string{PropRemoteHost, PropRemotePort, PropTargetFDN}

// Configuration is the validated handler configuration.
type Configuration struct {
	RemoteHost string
	RemotePort string
	TargetFDN  string
}

// ExtractConfiguration reads the required properties from src. The first
// property that cannot be read or is empty fails extraction with a
// *ConfigurationError naming it.
func ExtractConfiguration(src config.Source) (Configuration, error) {
	if src == nil {
		return Configuration{}, &ConfigurationError{Err: config.ErrPropertyNotSet}
	}
	values := make(map[string]string, len(Properties))
	for _, name := range Properties {
		v, err := src.StringProperty(name)
		if err != nil {
			return Configuration{}, &ConfigurationError{Property: name, Err: err}
		}
		if v == "" {
			return Configuration{}, &ConfigurationError{Property: name, Err: ErrEmptyProperty}
		}
		values[name] = v
	}
	return Configuration{
		RemoteHost: values[PropRemoteHost],
		RemotePort: values[PropRemotePort],
		TargetFDN:  values[PropTargetFDN],
	}, nil
}
