package logsvc

import (
	"go.uber.org/zap"

	"github.com/trezcool/darasa/core"
)

// ZapLogger is the structured local logger used in development; production
// deployments stack it with the rollbar logger.
type ZapLogger struct {
	sugar   *zap.SugaredLogger
	enabled bool
}

var _ core.Logger = (*ZapLogger)(nil)

func NewZapLogger(conf *core.Config) (*ZapLogger, error) {
	var log *zap.Logger
	var err error
	if conf.Debug {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	log = log.Named(conf.AppName)
	return &ZapLogger{sugar: log.Sugar(), enabled: true}, nil
}

func (l *ZapLogger) Enable(enabled bool) { l.enabled = enabled }

func (l *ZapLogger) Debug(msg string, args ...interface{}) {
	if l.enabled {
		l.sugar.Debugw(msg, l.kv(args)...)
	}
}

func (l *ZapLogger) Info(msg string, args ...interface{}) {
	if l.enabled {
		l.sugar.Infow(msg, l.kv(args)...)
	}
}

func (l *ZapLogger) Warn(msg string, args ...interface{}) {
	if l.enabled {
		l.sugar.Warnw(msg, l.kv(args)...)
	}
}

func (l *ZapLogger) Error(msg string, args ...interface{}) {
	if l.enabled {
		l.sugar.Errorw(msg, l.kv(args)...)
	}
}

func (l *ZapLogger) Fatal(msg string, args ...interface{}) {
	l.sugar.Fatalw(msg, l.kv(args)...)
}

// kv shapes free-form args into what the sugared logger accepts: string keys
// pair with the following value, anything else (errors, actors) becomes a
// typed field of its own.
func (l *ZapLogger) kv(args []interface{}) []interface{} {
	kvs := make([]interface{}, 0, len(args))
	for i := 0; i < len(args); {
		if key, ok := args[i].(string); ok && i+1 < len(args) {
			kvs = append(kvs, key, args[i+1])
			i += 2
			continue
		}
		kvs = append(kvs, zap.Any("arg", args[i]))
		i++
	}
	return kvs
}
