package tools

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHRunner executes commands on a remote capture host. Host keys are
// verified against a known_hosts file unless explicitly disabled.
type SSHRunner struct {
	Host            string
	Port            string
	User            string
	KeyPath         string
	Passphrase      []byte
	KnownHostsPath  string
	InsecureHostKey bool
	Timeout         time.Duration
}

func (r SSHRunner) Run(cmd string, args ...string) (string, error) {
	var out string
	err := r.withSession(func(session *ssh.Session) error {
		raw, err := session.CombinedOutput(commandLine(cmd, args))
		out = string(raw)
		return err
	})
	return out, err
}

func (r SSHRunner) RunStreaming(cmd string, args []string, stdout, stderr io.Writer) error {
	return r.withSession(func(session *ssh.Session) error {
		if stdout != nil {
			session.Stdout = stdout
		}
		if stderr != nil {
			session.Stderr = stderr
		}
		return session.Run(commandLine(cmd, args))
	})
}

func (r SSHRunner) withSession(fn func(*ssh.Session) error) error {
	client, err := r.dial()
	if err != nil {
		return err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("ssh session: %w", err)
	}
	defer session.Close()

	return fn(session)
}

func (r SSHRunner) dial() (*ssh.Client, error) {
	address, err := r.address()
	if err != nil {
		return nil, err
	}

	config, err := r.clientConfig()
	if err != nil {
		return nil, err
	}

	if r.Timeout <= 0 {
		return ssh.Dial("tcp", address, config)
	}

	conn, err := net.DialTimeout("tcp", address, r.Timeout)
	if err != nil {
		return nil, err
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return ssh.NewClient(clientConn, chans, reqs), nil
}

func (r SSHRunner) address() (string, error) {
	host := strings.TrimSpace(r.Host)
	if host == "" {
		return "", fmt.Errorf("ssh host is required")
	}
	if r.Port != "" {
		return net.JoinHostPort(host, r.Port), nil
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host, nil
	}
	return net.JoinHostPort(host, "22"), nil
}

func (r SSHRunner) clientConfig() (*ssh.ClientConfig, error) {
	if r.User == "" {
		return nil, fmt.Errorf("ssh user is required")
	}
	if r.KeyPath == "" {
		return nil, fmt.Errorf("ssh key path is required")
	}

	privateKey, err := os.ReadFile(r.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("read ssh key: %w", err)
	}

	var signer ssh.Signer
	if len(r.Passphrase) > 0 {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(privateKey, r.Passphrase)
	} else {
		signer, err = ssh.ParsePrivateKey(privateKey)
	}
	if err != nil {
		return nil, fmt.Errorf("parse ssh key: %w", err)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if !r.InsecureHostKey {
		hostKeyCallback, err = r.knownHostsCallback()
		if err != nil {
			return nil, err
		}
	}

	return &ssh.ClientConfig{
		User:            r.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         r.Timeout,
	}, nil
}

func (r SSHRunner) knownHostsCallback() (ssh.HostKeyCallback, error) {
	path := strings.TrimSpace(r.KnownHostsPath)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("known hosts path not set and home dir unavailable")
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	return knownhosts.New(path)
}

// commandLine renders an argv as a single shell command. Quoting matters:
// requirement specifiers may contain >,<,! and similar metacharacters.
func commandLine(cmd string, args []string) string {
	var builder strings.Builder
	builder.WriteString(quoteArg(cmd))
	for _, arg := range args {
		builder.WriteByte(' ')
		builder.WriteString(quoteArg(arg))
	}
	return builder.String()
}

func quoteArg(value string) string {
	if value == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}
