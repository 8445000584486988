package server

import "github.com/autopeer-io/dispatch/pkg/options"

type Config struct {
	HttpOptions *options.HttpOptions
	GrpcOptions *options.GrpcOptions
}
