package main

import (
	"flag"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"blastfield/calculator"
	"blastfield/server"
	"blastfield/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func main() {
	configPath := flag.String("config", "conf/config.ini", "配置文件路径")
	flag.Parse()

	cfg, err := calculator.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("配置文件读取错误，请检查文件路径")
	}

	calc, err := calculator.NewCalculator(cfg.Params, cfg.Workers)
	if err != nil {
		log.WithError(err).Fatal("计算参数不合法")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0755); err != nil {
		log.WithError(err).Fatal("创建数据目录失败")
	}
	db, err := store.Open(cfg.StorePath)
	if err != nil {
		log.WithError(err).Fatal("打开数据库失败")
	}
	defer db.Close()

	upgrader.CheckOrigin = func(r *http.Request) bool {
		return true
	}
	s := server.NewServer(cfg.ServerAddr, cfg.ServerPath, upgrader, calc, db)
	if err := s.Serve(); err != nil {
		log.WithError(err).Error("ListenAndServe")
	}
}
