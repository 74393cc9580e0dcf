package config

import (
	"os"
	"strconv"
	"strings"
)

// GRPCConfig is the listener for the gRPC health service. Reflection is on
// unless GRPC_REFLECTION parses as false.
type GRPCConfig struct {
	Addr       string
	Reflection bool
}

func LoadGRPC() GRPCConfig {
	cfg := GRPCConfig{
		Addr:       strings.TrimSpace(os.Getenv("GRPC_ADDR")),
		Reflection: true,
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9090"
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv("GRPC_REFLECTION"))); err == nil {
		cfg.Reflection = v
	}
	return cfg
}
