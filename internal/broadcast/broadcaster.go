package broadcast

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/iot-link/internal/models"
)

const (
	// DefaultPort is the UDP port unconfigured devices listen on.
	DefaultPort = 30011

	// DefaultInterval is the delay between transmit rounds.
	DefaultInterval = 50 * time.Millisecond
)

// ErrBroadcastActive is returned by Start while a transmission is running.
var ErrBroadcastActive = errors.New("broadcast is already active")

// Broadcaster transmits provisioning data to unconfigured devices on the local network.
type Broadcaster interface {
	// Start begins transmitting cfg until Stop is called.
	Start(cfg models.BroadcastConfig) error
	// Stop ends the active transmission. It is a no-op when nothing is running.
	Stop() error
	// Release frees the underlying socket. It is idempotent.
	Release() error
}

// Options configures a UDPBroadcaster.
type Options struct {
	// Port is used for targets that do not carry their own port.
	Port int
	// Addresses overrides interface discovery, as host or host:port.
	Addresses []string
	// Interval is the delay between transmit rounds.
	Interval time.Duration
	// Encoder turns a BroadcastConfig into datagrams.
	Encoder Encoder
	// Interfaces lists host interfaces for target discovery.
	Interfaces InterfaceLister
}

// UDPBroadcaster repeatedly sends encoded provisioning frames to broadcast targets.
type UDPBroadcaster struct {
	port       int
	addresses  []string
	interval   time.Duration
	encoder    Encoder
	interfaces InterfaceLister
	logger     zerolog.Logger

	mu     sync.Mutex
	conn   *net.UDPConn
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewUDPBroadcaster initializes a UDPBroadcaster. The socket is opened on first Start.
func NewUDPBroadcaster(opts Options, logger zerolog.Logger) *UDPBroadcaster {
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Encoder == nil {
		opts.Encoder = NewSealedEncoder(nil)
	}
	if opts.Interfaces == nil {
		opts.Interfaces = HostInterfaces
	}

	return &UDPBroadcaster{
		port:       opts.Port,
		addresses:  opts.Addresses,
		interval:   opts.Interval,
		encoder:    opts.Encoder,
		interfaces: opts.Interfaces,
		logger:     logger,
	}
}

// Start encodes cfg and transmits it to every target each interval until Stop.
func (b *UDPBroadcaster) Start(cfg models.BroadcastConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		return ErrBroadcastActive
	}

	frames, err := b.encoder.Encode(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode broadcast frames: %w", err)
	}

	targets, err := b.resolveTargets()
	if err != nil {
		return err
	}

	if b.conn == nil {
		conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
		if err != nil {
			return fmt.Errorf("failed to open broadcast socket: %w", err)
		}
		b.conn = conn
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.transmit(ctx, b.conn, frames, targets)
	}()

	b.logger.Info().
		Str("token", cfg.Token).
		Int("targets", len(targets)).
		Int("frames", len(frames)).
		Dur("interval", b.interval).
		Msg("Broadcasting provisioning data")
	return nil
}

// Stop ends the transmit loop and waits for it to exit.
func (b *UDPBroadcaster) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopLocked()
	return nil
}

// Release stops any transmission and closes the socket.
func (b *UDPBroadcaster) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopLocked()
	if b.conn == nil {
		return nil
	}

	err := b.conn.Close()
	b.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close broadcast socket: %w", err)
	}

	b.logger.Debug().Msg("Broadcast socket released")
	return nil
}

func (b *UDPBroadcaster) stopLocked() {
	if b.cancel == nil {
		return
	}
	b.cancel()
	b.wg.Wait()
	b.cancel = nil
	b.logger.Info().Msg("Broadcast stopped")
}

func (b *UDPBroadcaster) transmit(ctx context.Context, conn *net.UDPConn, frames [][]byte, targets []*net.UDPAddr) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	var rounds, failures int
	for {
		for _, frame := range frames {
			for _, target := range targets {
				if _, err := conn.WriteToUDP(frame, target); err != nil {
					failures++
					if failures == 1 {
						b.logger.Warn().Err(err).Str("target", target.String()).Msg("Failed to send broadcast frame")
					}
				}
			}
		}
		rounds++

		select {
		case <-ctx.Done():
			b.logger.Debug().Int("rounds", rounds).Int("failures", failures).Msg("Broadcast loop exiting")
			return
		case <-ticker.C:
		}
	}
}

func (b *UDPBroadcaster) resolveTargets() ([]*net.UDPAddr, error) {
	hosts := b.addresses
	if len(hosts) == 0 {
		discovered, err := DiscoverBroadcastAddresses(b.interfaces)
		if err != nil {
			b.logger.Warn().Err(err).Msg("Interface discovery failed, using limited broadcast")
			discovered = []string{LimitedBroadcastAddress}
		}
		hosts = discovered
	}

	targets := make([]*net.UDPAddr, 0, len(hosts))
	for _, host := range hosts {
		hostPort := host
		if _, _, err := net.SplitHostPort(host); err != nil {
			hostPort = net.JoinHostPort(host, strconv.Itoa(b.port))
		}
		addr, err := net.ResolveUDPAddr("udp4", hostPort)
		if err != nil {
			return nil, fmt.Errorf("invalid broadcast target %q: %w", host, err)
		}
		targets = append(targets, addr)
	}
	return targets, nil
}
