package bootstrap

import (
	"io"
	"os"

	"github.com/luco5826/dsp/internal/conf"
	"github.com/luco5826/dsp/pkg/utils"
	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

func InitLog() {
	logConfig := conf.Conf.Log
	if !logConfig.Enable {
		utils.Log.SetOutput(os.Stdout)
		return
	}
	writer := &lumberjack.Logger{
		Filename:   logConfig.Name,
		MaxSize:    logConfig.MaxSize,
		MaxBackups: logConfig.MaxBackups,
		MaxAge:     logConfig.MaxAge,
		Compress:   logConfig.Compress,
	}
	utils.Log.SetOutput(io.MultiWriter(os.Stdout, writer))
	utils.Log.SetLevel(logrus.InfoLevel)
}
