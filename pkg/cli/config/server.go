package config

import "github.com/urfave/cli/v3"

// Server holds server configuration
type Server struct {
	Addr        string
	MaxBodySize int64
	APISecret   string `masq:"secret"`
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("SERIALPORT_ADDR"),
		},
		&cli.IntFlag{
			Name:        "max-body-size",
			Usage:       "Maximum request body accepted by the write endpoint, in bytes",
			Value:       1 << 20,
			Destination: &c.MaxBodySize,
			Sources:     cli.EnvVars("SERIALPORT_MAX_BODY_SIZE"),
		},
		&cli.StringFlag{
			Name:        "api-secret",
			Usage:       "Require /api requests to carry an HMAC-SHA256 signature made with this secret",
			Destination: &c.APISecret,
			Sources:     cli.EnvVars("SERIALPORT_API_SECRET"),
		},
	}
}
