package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	residentHost = "127.0.0.1"
	defaultPort  = 49560
	portEnv      = "SCREEN_MATH_INSTANCE_PORT"

	pingRequest  = "PING\n"
	pongResponse = "PONG\n"
	showRequest  = "SHOW\n"
	okResponse   = "OK\n"
)

// ErrAlreadyRunning is returned by Claim when another instance owns the port.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Resident owns the loopback port for the lifetime of the GUI process.
type Resident struct {
	lis    net.Listener
	port   int
	onShow func()
	wg     sync.WaitGroup
}

// port returns the configured loopback port, clamped to [1024, 65535].
func port() int {
	p := defaultPort
	if v := os.Getenv(portEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p = n
		}
	}
	if p < 1024 {
		p = 1024
	}
	if p > 65535 {
		p = 65535
	}
	return p
}

// Claim binds the instance port. If the port is taken by a live instance,
// that instance is asked to raise its window and ErrAlreadyRunning is
// returned. onShow runs on the listener goroutine.
func Claim(ctx context.Context, onShow func()) (*Resident, error) {
	p := port()
	addr := net.JoinHostPort(residentHost, strconv.Itoa(p))

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		timeout := deadline(ctx, 500*time.Millisecond)
		if resp, rerr := request(addr, pingRequest, timeout); rerr == nil && resp == pongResponse {
			if _, serr := request(addr, showRequest, timeout); serr != nil {
				log.Printf("singleinstance: resident did not accept SHOW: %v", serr)
			}
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	r := &Resident{lis: lis, port: p, onShow: onShow}
	log.Printf("singleinstance: listening on %s", addr)
	r.wg.Add(1)
	go r.serve()
	return r, nil
}

// Port returns the bound port.
func (r *Resident) Port() int { return r.port }

// Close stops accepting and waits for the listener goroutine.
func (r *Resident) Close() error {
	err := r.lis.Close()
	r.wg.Wait()
	return err
}

func (r *Resident) serve() {
	defer r.wg.Done()
	for {
		c, err := r.lis.Accept()
		if err != nil {
			return
		}
		r.handle(c)
	}
}

func (r *Resident) handle(c net.Conn) {
	defer c.Close()
	_ = c.SetDeadline(time.Now().Add(3 * time.Second))

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		return
	}
	switch line {
	case pingRequest:
		_, _ = c.Write([]byte(pongResponse))
	case showRequest:
		log.Printf("singleinstance: SHOW from %s", c.RemoteAddr())
		if r.onShow != nil {
			r.onShow()
		}
		_, _ = c.Write([]byte(okResponse))
	default:
		log.Printf("singleinstance: unknown request %q from %s", line, c.RemoteAddr())
	}
}

func request(addr, line string, timeout time.Duration) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	if _, err := conn.Write([]byte(line)); err != nil {
		return "", err
	}
	return bufio.NewReader(conn).ReadString('\n')
}

func deadline(ctx context.Context, fallback time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return fallback
}
