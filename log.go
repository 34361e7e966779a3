package glint

import (
	"fmt"
	"log"
)

// leveledLogger gates stdlib log output on a LogLevel. The control server
// stays silent below its configured level so port sniffers and short-lived
// probe connections do not spam the supervisor's terminal.
type leveledLogger struct {
	lvl LogLevel
}

func (l leveledLogger) errf(format string, a ...any) {
	log.Printf("[error] msg=%q", fmt.Sprintf(format, a...))
}

func (l leveledLogger) warnf(format string, a ...any) {
	if l.lvl >= LogLevelWarn {
		log.Printf("[warn] msg=%q", fmt.Sprintf(format, a...))
	}
}

func (l leveledLogger) infof(format string, a ...any) {
	if l.lvl >= LogLevelInfo {
		log.Printf("[info] msg=%q", fmt.Sprintf(format, a...))
	}
}

func (l leveledLogger) debugf(format string, a ...any) {
	if l.lvl == LogLevelDebug {
		log.Printf("[debug] msg=%q", fmt.Sprintf(format, a...))
	}
}
