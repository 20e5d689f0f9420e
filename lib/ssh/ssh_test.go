package sshutils

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/binary"
	"encoding/pem"
	"net"
	"testing"
	"time"

	"github.com/gravitational/trace"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func generateKey(t *testing.T) (string, ssh.Signer) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	block := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	signer, err := ssh.NewSignerFromKey(key)
	require.NoError(t, err)
	return string(block), signer
}

func TestAuthMethods(t *testing.T) {
	key, _ := generateKey(t)

	methods, err := AuthMethods(key, "")
	require.NoError(t, err)
	assert.Len(t, methods, 1)

	methods, err = AuthMethods("", "secret")
	require.NoError(t, err)
	assert.Len(t, methods, 1)

	_, err = AuthMethods("not a key", "secret")
	assert.True(t, trace.IsBadParameter(err), "%v", err)

	_, err = AuthMethods("", "")
	assert.True(t, trace.IsBadParameter(err), "%v", err)
}

func TestProbe(t *testing.T) {
	_, hostKey := generateKey(t)
	addr, listener := serve(t, hostKey, "mapr", "secret")
	defer listener.Close()
	log := logrus.NewEntry(logrus.StandardLogger())

	auth, err := AuthMethods("", "secret")
	require.NoError(t, err)
	err = Probe(context.Background(), ProbeConfig{Addr: addr, User: "mapr", Auth: auth, Attempts: 1}, log)
	assert.NoError(t, err)

	auth, err = AuthMethods("", "wrong")
	require.NoError(t, err)
	err = Probe(context.Background(), ProbeConfig{Addr: addr, User: "mapr", Auth: auth, Attempts: 3, Delay: time.Millisecond}, log)
	assert.True(t, trace.IsAccessDenied(err), "%v", err)
}

func TestProbeUnreachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	auth, err := AuthMethods("", "secret")
	require.NoError(t, err)
	err = Probe(context.Background(), ProbeConfig{Addr: addr, User: "mapr", Auth: auth, Attempts: 2, Delay: time.Millisecond},
		logrus.NewEntry(logrus.StandardLogger()))
	assert.True(t, trace.IsConnectionProblem(err), "%v", err)
}

// serve starts an SSH server accepting a single password that succeeds
// every exec request
func serve(t *testing.T, hostKey ssh.Signer, user, password string) (string, net.Listener) {
	config := &ssh.ServerConfig{
		PasswordCallback: func(conn ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if conn.User() == user && string(pass) == password {
				return nil, nil
			}
			return nil, trace.AccessDenied("password rejected for %v", conn.User())
		},
	}
	config.AddHostKey(hostKey)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go handleConn(conn, config)
		}
	}()
	return listener.Addr().String(), listener
}

func handleConn(conn net.Conn, config *ssh.ServerConfig) {
	_, channels, requests, err := ssh.NewServerConn(conn, config)
	if err != nil {
		conn.Close()
		return
	}
	go ssh.DiscardRequests(requests)
	for newChannel := range channels {
		if newChannel.ChannelType() != "session" {
			newChannel.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		channel, requests, err := newChannel.Accept()
		if err != nil {
			continue
		}
		go func() {
			defer channel.Close()
			for req := range requests {
				if req.Type != "exec" {
					req.Reply(false, nil)
					continue
				}
				req.Reply(true, nil)
				status := make([]byte, 4)
				binary.BigEndian.PutUint32(status, 0)
				channel.SendRequest("exit-status", false, status)
				return
			}
		}()
	}
}
