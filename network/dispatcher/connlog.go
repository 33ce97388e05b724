package dispatcher

import "github.com/linchenxuan/connhost/log"

// connLog attaches a ConnectionId field to every event logged through it,
// giving each connection its own logging scope keyed by connection id,
// using the same fluent LogEvent chaining style as the rest of the
// codebase (log.Info().Str(...).Msg(...)).
type connLog struct {
	id uint64
}

func newConnLog(id uint64) connLog { return connLog{id: id} }

func (c connLog) Debug() *log.LogEvent { return log.Debug().Uint64("ConnectionId", c.id) }
func (c connLog) Info() *log.LogEvent  { return log.Info().Uint64("ConnectionId", c.id) }
func (c connLog) Warn() *log.LogEvent  { return log.Warn().Uint64("ConnectionId", c.id) }
func (c connLog) Error() *log.LogEvent { return log.Error().Uint64("ConnectionId", c.id) }
