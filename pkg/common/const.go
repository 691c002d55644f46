package common

const (
	KEY_LAST_SEND_SIGNAL = "last_send_signal:%s"
	KEY_LAST_PRICE       = "last_price:%s"
)

const (
	SOURCE_TWELVEDATA = "TWELVEDATA"
	SOURCE_BINANCE    = "BINANCE"
	SOURCE_YAHOO      = "YAHOO"
)

func GetSourceList() []string {
	return []string{
		SOURCE_TWELVEDATA,
		SOURCE_BINANCE,
		SOURCE_YAHOO,
	}
}

// Secrets bound by the runner. Names are part of the deployment contract.
const (
	ENV_TWELVEDATA_API_KEY = "TWELVEDATA_API_KEY"
	ENV_TELEGRAM_BOT_TOKEN = "TELEGRAM_BOT_TOKEN"
	ENV_TELEGRAM_CHAT_ID   = "TELEGRAM_CHAT_ID"
)

const (
	KEY_LOG_HOOK_SEND_ALERT = "send_alert"
)
