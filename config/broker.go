package config

import (
	"festival-chat-api/config/common"
	"festival-chat-api/config/logger"
	"festival-chat-api/realtime"
)

// NewBroker fans out across instances through NATS when NATS_URL is set, in process otherwise.
func NewBroker(cfg *common.Config, log *logger.AppLogger) (realtime.Broker, error) {
	url, prefix := cfg.GetNatsConfig()
	if url == "" {
		log.WS.Info.Info().Msg("NATS_URL not set, realtime fanout stays in process")
		return realtime.NewLocalBroker(), nil
	}
	return realtime.NewNatsBroker(url, prefix, log)
}
