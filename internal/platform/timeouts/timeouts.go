// Package timeouts defines the timeout constants shared by initiative
// processes so the gRPC server, its clients and the spectator HTTP server
// agree on them.
package timeouts

import "time"

// GRPCDial caps the wait for a gRPC peer to report healthy.
const GRPCDial = 5 * time.Second

// GRPCRequest caps a single tool or seed call to the initiative service.
const GRPCRequest = 5 * time.Second

// ReadHeader limits how long the spectator server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight work on shutdown.
const Shutdown = 5 * time.Second

// StreamWrite bounds one spectator push frame.
const StreamWrite = 10 * time.Second
