package server

import (
	"sort"

	"google.golang.org/grpc"
)

// Registrar attaches one domain service to a gRPC server.
type Registrar interface {
	Register(s grpc.ServiceRegistrar)
}

// registeredServices lists the service names a server exposes, sorted.
func registeredServices(srv *grpc.Server) []string {
	info := srv.GetServiceInfo()
	names := make([]string, 0, len(info))
	for name := range info {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
