package debug

import (
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// StartProfiling serves the runtime profiles on addr until the listener fails.
// Returns the address the endpoint listens on
func StartProfiling(addr string, logger log.FieldLogger) (net.Addr, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, trace.ConvertSystemError(err)
	}
	logger.Infof("Profiling endpoint on http://%v/debug/pprof.", listener.Addr())

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	go func() {
		logger.WithError(http.Serve(listener, mux)).Warn("Profiling endpoint stopped.")
	}()
	return listener.Addr(), nil
}
