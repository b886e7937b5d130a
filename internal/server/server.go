// Package server exposes a small TCP admin surface over the pool
// registry: stats, listing, resize and bulk despawn. It is a collaborator
// of the engine, not part of it; everything goes through the registry's
// public operations.
package server

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	anetserver "github.com/andrei-cloud/anet/server"
	"github.com/rs/zerolog/log"

	"github.com/andrei-cloud/go_pool/internal/logging"
	"github.com/andrei-cloud/go_pool/pkg/pool"
)

// logAdapter implements anet.Logger using zerolog.
type logAdapter struct{}

// Server wraps the anet TCP server and forwards admin commands to the
// pool registry.
type Server struct {
	address     string
	srv         *anetserver.Server
	registry    *pool.Registry
	activeConns int32
}

func (l logAdapter) Print(v ...any) {
	log.Info().Msg(fmt.Sprint(v...))
}

func (l logAdapter) Printf(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func (l logAdapter) Infof(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func (l logAdapter) Warnf(format string, v ...any) {
	log.Warn().Msgf(format, v...)
}

func (l logAdapter) Errorf(format string, v ...any) {
	log.Error().Msgf(format, v...)
}

// NewServer configures and returns the admin server instance.
func NewServer(address string, registry *pool.Registry) (*Server, error) {
	cfg := &anetserver.ServerConfig{
		MaxConns:        100,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     0 * time.Second, // disable idle connection closure.
		ShutdownTimeout: 5 * time.Second,
		Logger:          logAdapter{},
	}

	s := &Server{
		address:  address,
		registry: registry,
	}
	handler := anetserver.HandlerFunc(s.handle)
	srv, err := anetserver.NewServer(address, handler, cfg)
	if err != nil {
		return nil, fmt.Errorf("server setup failed: %w", err)
	}
	s.srv = srv

	return s, nil
}

// Start begins listening for admin connections.
func (s *Server) Start() error {
	log.Info().Str("address", s.address).Msg("admin server started")
	return s.srv.Start()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	return s.srv.Stop()
}

// incrementCode returns the response command code by incrementing the second character.
func (s *Server) incrementCode(cmd string) string {
	b := []byte(cmd)
	if len(b) < 2 {
		return cmd
	}
	if b[1] == 'Z' {
		b[1] = 'A'
	} else {
		b[1]++
	}

	return string(b)
}

// errorResponse constructs an error response with code 68.
func (s *Server) errorResponse(cmd string) []byte {
	return []byte(s.incrementCode(cmd) + "68")
}

// okResponse constructs a success response with code 00 and an optional payload.
func (s *Server) okResponse(cmd, payload string) []byte {
	return []byte(s.incrementCode(cmd) + "00" + payload)
}

// handle dispatches one framed admin command. The protocol mirrors a
// classic two-character command set:
//
//	ST <group> <tag>       -> SU00 <total> <active> <available>
//	LS                     -> LT00 <group>/<tag> <total> <active> <available>;...
//	RZ <group> <tag> <n>   -> RA00
//	DA [group [tag]]       -> DB00
//
// Unknown or malformed commands answer with the incremented code and 68.
func (s *Server) handle(conn *anetserver.ServerConn, data []byte) ([]byte, error) {
	client := conn.Conn.RemoteAddr().String()
	atomic.AddInt32(&s.activeConns, 1)
	defer atomic.AddInt32(&s.activeConns, -1)

	start := time.Now()
	log.Debug().
		Str("event", "handle_start").
		Str("client_ip", client).
		Msg("starting request handling")

	if len(data) < 2 {
		log.Error().Str("client_ip", client).Msg("malformed request")
		return nil, errors.New("malformed request")
	}

	cmd := string(data[:2])
	args := strings.Fields(strings.TrimSpace(string(data[2:])))
	logging.LogRequest(client, cmd, data, int(atomic.LoadInt32(&s.activeConns)))

	var resp []byte
	switch cmd {
	case "ST":
		resp = s.handleStats(cmd, args)
	case "LS":
		resp = s.handleList(cmd)
	case "RZ":
		resp = s.handleResize(cmd, args)
	case "DA":
		resp = s.handleDespawnAll(cmd, args)
	default:
		log.Warn().
			Str("event", "unknown_command").
			Str("client_ip", client).
			Str("command", cmd).
			Msg("command not recognized, responding with error code")
		resp = s.errorResponse(cmd)
	}

	logging.LogResponse(client, cmd, resp, int(atomic.LoadInt32(&s.activeConns)))

	total := time.Since(start)
	log.Debug().
		Str("event", "handle_done").
		Str("command", cmd).
		Str("duration", total.String()).
		Msg("completed request handling")

	return resp, nil
}

// handleStats answers a stats query for one pool. A missing pool yields
// zeros, matching the registry's non-fatal stats contract.
func (s *Server) handleStats(cmd string, args []string) []byte {
	if len(args) != 2 {
		return s.errorResponse(cmd)
	}
	stats := s.registry.PoolStats(args[0], args[1])

	return s.okResponse(cmd, fmt.Sprintf(" %d %d %d", stats.Total, stats.Active, stats.Available))
}

// handleList answers with one entry per registered pool, sorted for
// stable output.
func (s *Server) handleList(cmd string) []byte {
	pools := s.registry.Pools()
	entries := make([]string, 0, len(pools))
	for _, p := range pools {
		stats := p.Stats()
		entries = append(entries, fmt.Sprintf(
			"%s/%s %d %d %d",
			p.Group(), p.Tag(), stats.Total, stats.Active, stats.Available,
		))
	}
	sort.Strings(entries)

	return s.okResponse(cmd, " "+strings.Join(entries, ";"))
}

// handleResize forwards a resize request to the target pool.
func (s *Server) handleResize(cmd string, args []string) []byte {
	if len(args) != 3 {
		return s.errorResponse(cmd)
	}
	n, err := strconv.Atoi(args[2])
	if err != nil || n < 0 {
		return s.errorResponse(cmd)
	}
	if err := s.registry.ResizePool(args[0], args[1], n); err != nil {
		return s.errorResponse(cmd)
	}

	return s.okResponse(cmd, "")
}

// handleDespawnAll forwards the bulk despawn at registry, group or pool
// scope depending on the arguments given.
func (s *Server) handleDespawnAll(cmd string, args []string) []byte {
	switch len(args) {
	case 0:
		s.registry.DespawnAll()
	case 1:
		if err := s.registry.DespawnAllInGroup(args[0]); err != nil {
			return s.errorResponse(cmd)
		}
	case 2:
		if err := s.registry.DespawnAllWithTag(args[0], args[1]); err != nil {
			return s.errorResponse(cmd)
		}
	default:
		return s.errorResponse(cmd)
	}

	return s.okResponse(cmd, "")
}
