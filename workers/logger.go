package workers

import "otodom_analyzer/logging"

// LogFunc receives worker events worth surfacing outside the process log
type LogFunc func(level logging.Level, source, message string)

// DefaultLogger writes events through the leveled process logger
var DefaultLogger LogFunc = func(level logging.Level, source, message string) {
	switch level {
	case logging.LevelError:
		logging.Errorf("[%s] %s", source, message)
	case logging.LevelWarn:
		logging.Warnf("[%s] %s", source, message)
	case logging.LevelDebug:
		logging.Debugf("[%s] %s", source, message)
	default:
		logging.Infof("[%s] %s", source, message)
	}
}
