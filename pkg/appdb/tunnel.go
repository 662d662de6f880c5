package appdb

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/newtron-network/replsync/pkg/util"
)

// redisOnSwitch is where Redis listens inside a SONiC switch. It is not
// reachable from outside, so remote access goes through SSH.
const redisOnSwitch = "127.0.0.1:6379"

// SSHTunnel forwards a local TCP port to Redis on a switch through an SSH
// connection.
type SSHTunnel struct {
	localAddr string // "127.0.0.1:<port>"
	sshClient *ssh.Client
	listener  net.Listener
	done      chan struct{}
	wg        sync.WaitGroup
}

// TunnelConfig holds the SSH login for a switch.
type TunnelConfig struct {
	Host     string
	Port     int // 22 if zero
	User     string
	Password string
	Timeout  time.Duration // 30s if zero
}

// NewSSHTunnel dials SSH and opens a local listener on a random port.
// Connections to the local port are forwarded to Redis inside the switch.
func NewSSHTunnel(cfg TunnelConfig) (*SSHTunnel, error) {
	port := cfg.Port
	if port == 0 {
		port = 22
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	config := &ssh.ClientConfig{
		User: cfg.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(cfg.Password),
		},
		// Lab switches are re-imaged often; known_hosts verification is not
		// wired yet.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, port)
	util.Logger.Warnf("SSH tunnel to %s: host key verification disabled (InsecureIgnoreHostKey)", addr)
	sshClient, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s@%s: %w", cfg.User, addr, err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("local listen: %w", err)
	}

	t := &SSHTunnel{
		localAddr: listener.Addr().String(),
		sshClient: sshClient,
		listener:  listener,
		done:      make(chan struct{}),
	}

	t.wg.Add(1)
	go t.acceptLoop()

	return t, nil
}

// LocalAddr returns the local address (e.g. "127.0.0.1:54321") that forwards
// to Redis inside the switch. Pass it as Options.Addr.
func (t *SSHTunnel) LocalAddr() string {
	return t.localAddr
}

// Close stops the listener, closes the SSH connection, and waits for
// all forwarding goroutines to finish.
func (t *SSHTunnel) Close() error {
	close(t.done)
	t.listener.Close()
	// Closing the SSH client first unblocks io.Copy goroutines waiting on
	// remote reads.
	t.sshClient.Close()
	t.wg.Wait()
	return nil
}

func (t *SSHTunnel) acceptLoop() {
	defer t.wg.Done()
	for {
		local, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.done:
				return
			default:
				continue
			}
		}
		t.wg.Add(1)
		go t.forward(local)
	}
}

func (t *SSHTunnel) forward(local net.Conn) {
	defer t.wg.Done()
	defer local.Close()

	remote, err := t.sshClient.Dial("tcp", redisOnSwitch)
	if err != nil {
		util.Debugf("tunnel: dial %s: %v", redisOnSwitch, err)
		return
	}
	defer remote.Close()

	done := make(chan struct{}, 2)
	go func() {
		io.Copy(remote, local)
		done <- struct{}{}
	}()
	go func() {
		io.Copy(local, remote)
		done <- struct{}{}
	}()
	<-done
}
