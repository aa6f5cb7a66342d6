package calculator

import (
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"

	"blastfield/model"
)

type Config struct {
	Params  Params
	Workers int

	ServerAddr string
	ServerPath string

	StorePath string
}

// 读取配置文件，文件不存在时使用默认值
func LoadConfig(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.WithField("path", path).Warn("配置文件不存在，使用默认配置")
		return loadCfg(ini.Empty()), nil
	}
	file, err := ini.Load(path)
	if err != nil {
		return Config{}, err
	}
	return loadCfg(file), nil
}

func loadCfg(file *ini.File) Config {
	calc := file.Section("calculator")
	cfg := Config{
		Params: Params{
			ChargeExponent:  calc.Key("ChargeExponent").MustFloat64(model.DefaultChargeExponent),
			NumElements:     calc.Key("NumElements").MustInt(model.DefaultNumElements),
			ToleranceFactor: calc.Key("ToleranceFactor").MustFloat64(model.DefaultToleranceFactor),
		},
		Workers:    calc.Key("Workers").MustInt(4),
		ServerAddr: file.Section("server").Key("Addr").MustString(":9000"),
		ServerPath: file.Section("server").Key("Path").MustString("/ws"),
		StorePath:  file.Section("store").Key("Path").MustString("data/blast.db"),
	}
	log.WithFields(log.Fields{
		"ChargeExponent":  cfg.Params.ChargeExponent,
		"NumElements":     cfg.Params.NumElements,
		"ToleranceFactor": cfg.Params.ToleranceFactor,
		"Workers":         cfg.Workers,
	}).Info("加载计算参数")
	return cfg
}
