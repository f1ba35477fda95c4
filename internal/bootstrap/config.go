package bootstrap

import (
	"github.com/caarlos0/env/v9"
	"github.com/luco5826/dsp/internal/conf"
	"github.com/luco5826/dsp/pkg/utils"
)

// InitConfig loads defaults and applies DSP_-prefixed environment
// overrides.
func InitConfig() {
	conf.Conf = conf.DefaultConfig()
	if err := env.ParseWithOptions(conf.Conf, env.Options{Prefix: "DSP_"}); err != nil {
		utils.Log.Fatalf("failed to load config from env: %+v", err)
	}
}
