package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"blastfield/calculator"
)

type Server struct {
	addr     string
	path     string
	upgrader websocket.Upgrader
	calc     calculator.Calculator
	store    BatchStore
}

func NewServer(addr, path string, upgrader websocket.Upgrader, calc calculator.Calculator, store BatchStore) *Server {
	return &Server{
		addr:     addr,
		path:     path,
		upgrader: upgrader,
		calc:     calc,
		store:    store,
	}
}

// serveWs handles websocket requests from the peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	hub := NewHub(conn, s.calc, s.store)
	log.WithField("remote", r.RemoteAddr).Info("客户端已连接")
	hub.Run(r.Context())
	log.WithField("remote", r.RemoteAddr).Info("客户端已断开")
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.serveWs)
	return mux
}

func (s *Server) Serve() error {
	log.WithFields(log.Fields{"addr": s.addr, "path": s.path}).Info("服务启动")
	return http.ListenAndServe(s.addr, s.Handler())
}
