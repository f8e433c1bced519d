package main

import (
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/sahabat-saleh/suara/internal/audio"
	"github.com/sahabat-saleh/suara/internal/config"
)

// watchConfig applies enabled and voice_style edits of the config file to
// svc while it runs. Other settings need a restart. changed is called after
// every applied edit.
func watchConfig(svc *audio.Service, changed func()) {
	if viper.ConfigFileUsed() == "" {
		return
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		applyLiveSettings(viper.GetViper(), svc)
		if changed != nil {
			changed()
		}
	})
	viper.WatchConfig()
}

// applyLiveSettings reloads the configuration and applies the settings that
// can change at runtime. An invalid file is logged and ignored.
func applyLiveSettings(v *viper.Viper, svc *audio.Service) {
	cfg, err := config.LoadFromViper(v)
	if err != nil {
		log.Warn("Ignoring config change", "err", err)
		return
	}
	if svc.Enabled() != cfg.Enabled {
		svc.SetEnabled(cfg.Enabled)
	}
	svc.SetVoiceStyle(cfg.Style())
	log.Info("Config reloaded", "enabled", cfg.Enabled, "voice_style", cfg.VoiceStyle)
}
